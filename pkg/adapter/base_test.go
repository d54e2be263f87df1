package adapter

import (
	"context"
	"io"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// echoFactory serves connections by echoing bytes until EOF or shutdown.
type echoFactory struct {
	mu  sync.Mutex
	ids []uint64
}

func (f *echoFactory) NewConnection(conn net.Conn, id uint64) ConnectionHandler {
	f.mu.Lock()
	f.ids = append(f.ids, id)
	f.mu.Unlock()
	return &echoHandler{conn: conn}
}

type echoHandler struct {
	conn net.Conn
}

func (h *echoHandler) Serve(ctx context.Context) {
	defer h.conn.Close()
	_, _ = io.Copy(h.conn, h.conn)
}

type countingMetrics struct {
	mu                               sync.Mutex
	accepted, rejected, closed, kill int
	active                           int
}

func (m *countingMetrics) RecordSessionAccepted() { m.mu.Lock(); m.accepted++; m.mu.Unlock() }
func (m *countingMetrics) RecordSessionRejected() { m.mu.Lock(); m.rejected++; m.mu.Unlock() }
func (m *countingMetrics) RecordSessionClosed(time.Duration) {
	m.mu.Lock()
	m.closed++
	m.mu.Unlock()
}
func (m *countingMetrics) RecordSessionForceClosed() { m.mu.Lock(); m.kill++; m.mu.Unlock() }
func (m *countingMetrics) SetActiveSessions(n int)   { m.mu.Lock(); m.active = n; m.mu.Unlock() }

func startBase(t *testing.T, cfg BaseConfig, f ConnectionFactory) (*BaseAdapter, chan error) {
	t.Helper()
	cfg.BindAddress = "127.0.0.1"
	b := NewBaseAdapter(cfg, "test")
	errCh := make(chan error, 1)
	go func() { errCh <- b.ServeWithFactory(context.Background(), f) }()
	require.NotEmpty(t, b.GetListenerAddr())
	return b, errCh
}

func dialEcho(t *testing.T, addr string) net.Conn {
	t.Helper()
	c, err := net.Dial("tcp", addr)
	require.NoError(t, err)

	_, err = c.Write([]byte("ping"))
	require.NoError(t, err)
	buf := make([]byte, 4)
	_ = c.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, err = io.ReadFull(c, buf)
	require.NoError(t, err)
	require.Equal(t, "ping", string(buf))
	return c
}

func TestServeRejectsBeyondMaxSessions(t *testing.T) {
	f := &echoFactory{}
	b, errCh := startBase(t, BaseConfig{MaxSessions: 2}, f)

	c1 := dialEcho(t, b.GetListenerAddr())
	c2 := dialEcho(t, b.GetListenerAddr())
	assert.Equal(t, 2, b.ActiveSessions())

	c3, err := net.Dial("tcp", b.GetListenerAddr())
	require.NoError(t, err)
	_ = c3.SetReadDeadline(time.Now().Add(2 * time.Second))
	n, err := c3.Read(make([]byte, 1))
	assert.Equal(t, 0, n)
	assert.ErrorIs(t, err, io.EOF, "over-capacity connection is closed without data")
	_ = c3.Close()

	// Established sessions keep working.
	_, err = c1.Write([]byte("x"))
	require.NoError(t, err)
	one := make([]byte, 1)
	_, err = io.ReadFull(c1, one)
	require.NoError(t, err)

	// Freeing a slot admits a new session.
	require.NoError(t, c2.Close())
	require.Eventually(t, func() bool { return b.ActiveSessions() == 1 }, 2*time.Second, 10*time.Millisecond)
	c4 := dialEcho(t, b.GetListenerAddr())

	_ = c1.Close()
	_ = c4.Close()
	require.NoError(t, b.Stop(context.Background()))
	require.NoError(t, <-errCh)

	f.mu.Lock()
	defer f.mu.Unlock()
	assert.Equal(t, []uint64{1, 2, 3}, f.ids, "rejected connection never gets a session ID")
}

func TestStopWaitsForSessions(t *testing.T) {
	b, errCh := startBase(t, BaseConfig{}, &echoFactory{})
	c := dialEcho(t, b.GetListenerAddr())

	stopped := make(chan error, 1)
	go func() { stopped <- b.Stop(context.Background()) }()

	select {
	case <-stopped:
		t.Fatal("Stop returned while a session was live")
	case <-time.After(100 * time.Millisecond):
	}
	assert.NoError(t, b.ShutdownCtx.Err(), "live sessions keep running during a graceful stop")

	// Listener is closed: new connections fail.
	_, err := net.DialTimeout("tcp", b.GetListenerAddr(), 200*time.Millisecond)
	assert.Error(t, err)

	require.NoError(t, c.Close())
	require.NoError(t, <-stopped)
	require.NoError(t, <-errCh)
	assert.Equal(t, 0, b.ActiveSessions())
}

func TestShutdownTimeoutForceCloses(t *testing.T) {
	metrics := &countingMetrics{}
	cfg := BaseConfig{ShutdownTimeout: 50 * time.Millisecond, BindAddress: "127.0.0.1"}
	b := NewBaseAdapter(cfg, "test")
	b.Metrics = metrics

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- b.ServeWithFactory(ctx, &echoFactory{}) }()

	c := dialEcho(t, b.GetListenerAddr())
	defer c.Close()

	cancel()
	err := <-errCh
	require.Error(t, err)
	assert.Contains(t, err.Error(), "force-closed")
	assert.Error(t, b.ShutdownCtx.Err())
	assert.Equal(t, 0, b.ActiveSessions())

	metrics.mu.Lock()
	defer metrics.mu.Unlock()
	assert.Equal(t, 1, metrics.accepted)
	assert.Equal(t, 1, metrics.kill)
	assert.Equal(t, 1, metrics.closed)
}

func TestStopContextExpiry(t *testing.T) {
	b, errCh := startBase(t, BaseConfig{}, &echoFactory{})
	c := dialEcho(t, b.GetListenerAddr())
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	assert.ErrorIs(t, b.Stop(ctx), context.DeadlineExceeded)
	assert.Error(t, b.ShutdownCtx.Err())
	assert.Equal(t, 0, b.ActiveSessions())
	<-errCh
}

func TestStopIsIdempotent(t *testing.T) {
	b, errCh := startBase(t, BaseConfig{}, &echoFactory{})

	require.NoError(t, b.Stop(context.Background()))
	require.NoError(t, b.Stop(context.Background()))
	require.NoError(t, <-errCh)
}

func TestListenFailure(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()

	port := l.Addr().(*net.TCPAddr).Port
	b := NewBaseAdapter(BaseConfig{BindAddress: "127.0.0.1", Port: port}, "test")

	err = b.ServeWithFactory(context.Background(), &echoFactory{})
	assert.Error(t, err)
	assert.Empty(t, b.GetListenerAddr())
}
