package main

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var binPath string //nolint:gochecknoglobals

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "pdcm-test-*")
	if err != nil {
		panic(err)
	}

	binPath = filepath.Join(dir, "pdcm")

	out, err := exec.Command("go", "build", "-o", binPath, ".").CombinedOutput()
	if err != nil {
		panic(string(out))
	}

	code := m.Run()

	_ = os.RemoveAll(dir)
	os.Exit(code)
}

func TestVersionCommand(t *testing.T) {
	t.Parallel()

	out, err := exec.Command(binPath, "version").CombinedOutput()
	require.NoError(t, err, string(out))

	output := string(out)
	assert.Contains(t, output, "Version:")
	assert.Contains(t, output, "GoVersion:")
}

func TestUnknownCommand(t *testing.T) {
	t.Parallel()

	out, err := exec.Command(binPath, "bogus").CombinedOutput()
	require.Error(t, err)
	assert.Contains(t, strings.ToLower(string(out)), "unknown command")
}

func TestCloneRequiresConfig(t *testing.T) {
	t.Parallel()

	cmd := exec.Command(binPath, "clone")
	cmd.Env = []string{"PATH=" + os.Getenv("PATH")}

	out, err := cmd.CombinedOutput()
	require.Error(t, err)
	assert.Contains(t, string(out), "source URI and target URI are empty")
}
