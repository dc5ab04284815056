package provision

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stratking/matchmaker/internal/testutil"
)

// stubDocker puts a fake docker binary on PATH that prints the given
// output and exits 0
func stubDocker(t *testing.T, output string) {
	t.Helper()
	dir := t.TempDir()
	script := "#!/bin/sh\nprintf '%s' \"$OUT\"\n"
	path := filepath.Join(dir, "docker")
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	t.Setenv("OUT", output)
	t.Setenv("PATH", dir)
}

func TestDockerListParsesContainerIDs(t *testing.T) {
	stubDocker(t, "abc123def456\n789abc012def\n")

	d := NewDocker(DockerConfig{}, testutil.NopLogger())
	refs, err := d.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"abc123def456", "789abc012def"}, refs)
}

func TestDockerListNoContainers(t *testing.T) {
	stubDocker(t, "")

	d := NewDocker(DockerConfig{}, testutil.NopLogger())
	refs, err := d.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, refs)
}

func TestDockerProvisionReturnsContainerRef(t *testing.T) {
	stubDocker(t, "deadbeefcafe\n")

	d := NewDocker(DockerConfig{ServerPort: 7777}, testutil.NopLogger())
	res, err := d.Provision(context.Background(), "m_match1", nil, "secret")
	require.NoError(t, err)
	assert.Equal(t, "localhost", res.Host)
	assert.Equal(t, 7777, res.Port)
	assert.Equal(t, "deadbeefcafe", res.Ref)
}
