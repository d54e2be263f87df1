package apiclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/fshare/pkg/api"
)

type fixedStatus struct{ active, max int }

func (f fixedStatus) ActiveSessions() int   { return f.active }
func (f fixedStatus) MaxSessions() int      { return f.max }
func (f fixedStatus) Uptime() time.Duration { return 2 * time.Hour }

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(api.NewRouter(fixedStatus{active: 2, max: 10}, nil))
	defer srv.Close()

	hs, err := New(srv.URL + "/").Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "fshare", hs.Service)
	assert.Equal(t, 2, hs.ActiveSessions)
	assert.Equal(t, 10, hs.MaxSessions)
	assert.Equal(t, "2h0m0s", hs.Uptime)
	assert.EqualValues(t, 7200, hs.UptimeSeconds)

	assert.NoError(t, New(srv.URL).Ready(context.Background()))
}

func TestReadyUnavailable(t *testing.T) {
	srv := httptest.NewServer(api.NewRouter(fixedStatus{active: 10, max: 10}, nil))
	defer srv.Close()

	err := New(srv.URL).Ready(context.Background())
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.True(t, apiErr.IsUnavailable())
	assert.Equal(t, "unhealthy", apiErr.Status)
	assert.Equal(t, "session capacity reached", apiErr.Message)
	assert.Contains(t, apiErr.Error(), "HTTP 503")
}

func TestNonJSONError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := New(srv.URL).Health(context.Background())
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.True(t, apiErr.IsNotFound())
	assert.Equal(t, "404 page not found", apiErr.Message)
}

func TestUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(url).WithTimeout(time.Second).Health(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "request failed")
}
