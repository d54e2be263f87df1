package commands

import (
	"bytes"
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/fshare/pkg/api"
	"github.com/marmos91/fshare/pkg/apiclient"
)

type fakeStatus struct {
	active, max int
}

func (f fakeStatus) ActiveSessions() int { return f.active }
func (f fakeStatus) MaxSessions() int { return f.max }
func (f fakeStatus) Uptime() time.Duration { return 90 * time.Second }

func TestServerAddress(t *testing.T) {
	defer func() { remoteServer = "" }()

	remoteServer = ""
	assert.Equal(t, "localhost:8080", serverAddress())

	remoteServer = "files.example.com"
	assert.Equal(t, "files.example.com:8080", serverAddress())

	remoteServer = "10.0.0.5:9000"
	assert.Equal(t, "10.0.0.5:9000", serverAddress())
}

func TestResolvePasswordFromEnv(t *testing.T) {
	defer func() { remotePassword = "" }()

	t.Setenv(passwordEnv, "from-env")
	p, err := resolvePassword()
	require.NoError(t, err)
	assert.Equal(t, "from-env", p)

	remotePassword = "from-flag"
	p, err = resolvePassword()
	require.NoError(t, err)
	assert.Equal(t, "from-flag", p)
}

func TestReadPassword(t *testing.T) {
	p, err := readPassword(strings.NewReader("s3cret\r\nignored\n"))
	require.NoError(t, err)
	assert.Equal(t, "s3cret", p)

	p, err = readPassword(strings.NewReader("no-newline"))
	require.NoError(t, err)
	assert.Equal(t, "no-newline", p)

	_, err = readPassword(strings.NewReader("\n"))
	assert.Error(t, err)
}

func TestProbeHealth(t *testing.T) {
	ts := httptest.NewServer(api.NewRouter(fakeStatus{active: 2, max: 10}, nil))
	defer ts.Close()

	var status ServerStatus
	probeHealth(context.Background(), apiclient.New(ts.URL), &status)

	assert.True(t, status.Running)
	assert.True(t, status.Healthy)
	assert.True(t, status.Ready)
	assert.Equal(t, 2, status.ActiveSessions)
	assert.Equal(t, "1m 30s", status.Uptime)
	assert.Contains(t, status.Rows(), []string{"Sessions", "2/10"})
}

func TestProbeHealthAtCapacity(t *testing.T) {
	ts := httptest.NewServer(api.NewRouter(fakeStatus{active: 3, max: 3}, nil))
	defer ts.Close()

	var status ServerStatus
	probeHealth(context.Background(), apiclient.New(ts.URL), &status)

	assert.True(t, status.Healthy)
	assert.False(t, status.Ready)
	assert.Contains(t, status.Message, "not accepting sessions")
	assert.Equal(t, []string{"Status", "running (not ready)"}, status.Rows()[0])
}

func TestProbeHealthUnreachable(t *testing.T) {
	status := ServerStatus{Running: true, PID: 42}
	probeHealth(context.Background(), apiclient.New("http://127.0.0.1:1").WithTimeout(time.Second), &status)

	assert.False(t, status.Healthy)
	assert.Equal(t, "Server process exists but health check failed", status.Message)
	assert.Equal(t, []string{"Status", "running (unhealthy)"}, status.Rows()[0])
}

func TestPrintStatusTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printStatusTable(&buf, ServerStatus{Message: "Server is not running"}))

	out := buf.String()
	assert.Contains(t, out, "stopped")
	assert.Contains(t, out, "Server is not running")
}

func TestVersionShort(t *testing.T) {
	defer func() { versionShort = false }()

	var buf bytes.Buffer
	versionShort = true
	versionCmd.SetOut(&buf)
	versionCmd.Run(versionCmd, nil)
	assert.Equal(t, Version+"\n", buf.String())
}
