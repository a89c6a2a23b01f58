package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"companion-booking-backend/internal/auth"
	"companion-booking-backend/internal/model"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "bookingd dev")
}

func TestQuote(t *testing.T) {
	out, err := run(t, "quote", "--service", "hospital_care", "--hours", "2", "--date", "2099-01-07",
		"--time", "19:00", "--distance", "12", "--discount", "1000")
	require.NoError(t, err)

	rows := map[string]string{}
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		fields := strings.Fields(line)
		rows[strings.Join(fields[:len(fields)-1], " ")] = fields[len(fields)-1]
	}
	assert.Equal(t, "50000", rows["base"])
	assert.Equal(t, "1000", rows["distance"])
	assert.Equal(t, "0", rows["urgency"])
	assert.Equal(t, "15000", rows["night/weekend"])
	assert.Equal(t, "-1000", rows["discount"])
	assert.Equal(t, "65000", rows["total"])
}

func TestQuoteRejectsBadInput(t *testing.T) {
	_, err := run(t, "quote", "--service", "spa")
	assert.Error(t, err)

	_, err = run(t, "quote", "--hours", "two")
	assert.ErrorContains(t, err, "--hours")
}

func TestToken(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("auth:\n  jwt_secret: cli-secret\nlog:\n  level: error\n"), 0o600))

	out, err := run(t, "--config", path, "token", "--role", "manager", "--user", "7d9f3c1e-2b4a-4f60-9a51-0c1d2e3f4a5b")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	userID, role, err := auth.ParseToken("cli-secret", lines[len(lines)-1])
	require.NoError(t, err)
	assert.Equal(t, "7d9f3c1e-2b4a-4f60-9a51-0c1d2e3f4a5b", userID.String())
	assert.Equal(t, model.RoleManager, role)

	_, err = run(t, "--config", path, "token", "--role", "owner")
	assert.Error(t, err)

	_, err = run(t, "--config", filepath.Join(dir, "missing.yaml"), "token")
	assert.ErrorContains(t, err, "failed to load configuration")
}
