package main

import (
	"github.com/stratking/matchmaker/internal/cli"
)

func main() {
	cli.Execute()
}
