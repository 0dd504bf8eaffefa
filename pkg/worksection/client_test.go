package worksection

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	client, err := NewClient(&Config{
		BaseURL:   ts.URL,
		APISecret: "secret",
	}, hclog.NewNullLogger())
	require.NoError(t, err)

	return client
}

func TestNewClient_MissingConfig(t *testing.T) {
	var cfgErr *ConfigError

	_, err := NewClient(&Config{APISecret: "secret"}, nil)
	require.Error(t, err)
	assert.ErrorAs(t, err, &cfgErr)

	_, err = NewClient(&Config{BaseURL: "https://acct.worksection.com/api/admin/"}, nil)
	require.Error(t, err)
	assert.ErrorAs(t, err, &cfgErr)
}

func TestGetProject_Success(t *testing.T) {
	var rawQuery string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		rawQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"status": "ok",
			"data": {
				"name": "Alpha",
				"users": [
					{"email": "a@x.com"},
					{"email": ""},
					{"email": "b@x.com"}
				]
			}
		}`))
	})

	project, err := client.GetProject(context.Background(), 42, "Fallback")
	require.NoError(t, err)

	assert.Equal(t, 42, project.ID)
	assert.Equal(t, "Alpha", project.Name)
	// Member records without an email are discarded.
	assert.Equal(t, []string{"a@x.com", "b@x.com"}, project.Emails)

	// The request must carry the ordered signed query, hash last.
	expected := SignedQuery([]Param{
		{Key: "action", Value: "get_project"},
		{Key: "id_project", Value: "42"},
		{Key: "extra", Value: "users"},
	}, "secret")
	assert.Equal(t, expected, rawQuery)
}

func TestGetProject_NameFallbacks(t *testing.T) {
	tests := []struct {
		name          string
		apiName       string
		fallbackTitle string
		want          string
	}{
		{"api name wins", "Alpha", "Webhook Title", "Alpha"},
		{"webhook title when api name empty", "", "Webhook Title", "Webhook Title"},
		{"synthesized when both empty", "", "", "project_42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{"status": "ok", "data": {"name": "` + tt.apiName + `", "users": []}}`))
			})

			project, err := client.GetProject(context.Background(), 42, tt.fallbackTitle)
			require.NoError(t, err)
			assert.Equal(t, tt.want, project.Name)
		})
	}
}

func TestGetProject_ParsesProjectDates(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"status": "ok",
			"data": {
				"name": "Alpha",
				"date_start": "2026-03-02",
				"date_end": "02.05.2026",
				"users": []
			}
		}`))
	})

	project, err := client.GetProject(context.Background(), 42, "")
	require.NoError(t, err)

	require.NotNil(t, project.DateStart)
	assert.Equal(t, 2026, project.DateStart.Year())
	assert.Equal(t, time.March, project.DateStart.Month())
	require.NotNil(t, project.DateEnd)
	assert.Equal(t, 2026, project.DateEnd.Year())
}

func TestGetProject_RemoteError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status": "error", "message": "access denied"}`))
	})

	_, err := client.GetProject(context.Background(), 42, "")
	require.Error(t, err)

	var remoteErr *RemoteError
	require.ErrorAs(t, err, &remoteErr)
	assert.Equal(t, "error", remoteErr.Status)
	assert.Equal(t, "access denied", remoteErr.Message)
}

func TestGetProject_NetworkError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	ts.Close()

	client, err := NewClient(&Config{
		BaseURL:   ts.URL,
		APISecret: "secret",
	}, nil)
	require.NoError(t, err)

	_, err = client.GetProject(context.Background(), 42, "")
	require.Error(t, err)

	var netErr *NetworkError
	assert.True(t, errors.As(err, &netErr))
}

func TestGetProject_HTTPErrorStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})

	_, err := client.GetProject(context.Background(), 42, "")
	require.Error(t, err)

	var netErr *NetworkError
	assert.ErrorAs(t, err, &netErr)
}
