package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
}

// NewOutput creates a new Output formatter
func NewOutput(format string) *Output {
	return &Output{format: format}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Println(string(data))
	} else {
		fmt.Println(msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case Player:
		o.printPlayer(v)
	case AuthResult:
		o.printAuthResult(v)
	case JoinResult:
		o.printJoinResult(v)
	case LeaveResult:
		o.printLeaveResult(v)
	case Match:
		o.printMatch(v)
	case WebhookResult:
		o.printWebhookResult(v)
	case HealthResult:
		o.printHealthResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// Player response type (matches API)
type Player struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
}

// AuthResult combines player and token
type AuthResult struct {
	Player       Player `json:"player"`
	SessionToken string `json:"session_token"`
}

// JoinResult response type
type JoinResult struct {
	Success              bool   `json:"success"`
	Matched              bool   `json:"matched"`
	MatchID              string `json:"match_id,omitempty"`
	QueuePosition        int    `json:"queue_position,omitempty"`
	EstimatedWaitSeconds int    `json:"estimated_wait_seconds,omitempty"`
}

// LeaveResult response type
type LeaveResult struct {
	Success bool `json:"success"`
	Removed bool `json:"removed"`
}

// Match response type
type Match struct {
	ID         string   `json:"id"`
	Players    []string `json:"players"`
	Status     string   `json:"status"`
	ServerHost string   `json:"server_host,omitempty"`
	ServerPort int      `json:"server_port,omitempty"`
	Winner     *string  `json:"winner"`
}

// WebhookResult response type
type WebhookResult struct {
	Success bool   `json:"success"`
	Status  string `json:"status"`
}

// HealthResult response type
type HealthResult struct {
	Status string `json:"status"`
}

func (o *Output) printPlayer(p Player) {
	fmt.Printf("Player: %s (%s)\n", p.DisplayName, p.ID)
	fmt.Printf("Username: %s\n", p.Username)
}

func (o *Output) printAuthResult(a AuthResult) {
	o.printPlayer(a.Player)
	fmt.Printf("Token: %s\n", a.SessionToken)
}

func (o *Output) printJoinResult(j JoinResult) {
	if j.Matched {
		fmt.Println("Matched!")
		fmt.Printf("Match: %s\n", j.MatchID)
		return
	}
	fmt.Printf("Queued at position %d\n", j.QueuePosition)
	fmt.Printf("Estimated wait: %ds\n", j.EstimatedWaitSeconds)
}

func (o *Output) printLeaveResult(l LeaveResult) {
	if l.Removed {
		fmt.Println("Left queue")
	} else {
		fmt.Println("Not in queue")
	}
}

func (o *Output) printMatch(m Match) {
	fmt.Printf("Match: %s\n", m.ID)
	fmt.Printf("Status: %s\n", m.Status)
	fmt.Printf("Players: %s\n", strings.Join(m.Players, ", "))
	if m.ServerHost != "" {
		fmt.Printf("Server: %s:%d\n", m.ServerHost, m.ServerPort)
	}
	if m.Winner != nil {
		fmt.Printf("Winner: %s\n", *m.Winner)
	}
}

func (o *Output) printWebhookResult(r WebhookResult) {
	fmt.Printf("Status: %s\n", r.Status)
}

func (o *Output) printHealthResult(h HealthResult) {
	fmt.Printf("Status: %s\n", h.Status)
}
