package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDoJSON_RoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Zoho-oauthtoken tok", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"name":"lathe"}`, string(body))
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"id":"42"}`)
	}))
	defer srv.Close()

	c := NewClient(time.Second).WithHeader("Authorization", "Zoho-oauthtoken tok")
	var out struct {
		ID string `json:"id"`
	}
	status, err := c.DoJSON(context.Background(), http.MethodPost, srv.URL, map[string]string{"name": "lathe"}, &out)
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "42", out.ID)
}

func TestDoJSON_NoContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	var out map[string]interface{}
	status, err := NewClient(time.Second).DoJSON(context.Background(), http.MethodGet, srv.URL, nil, &out)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNoContent, status)
	assert.Nil(t, out)
}

func TestDoJSON_StatusError(t *testing.T) {
	tests := []struct {
		status    int
		temporary bool
	}{
		{http.StatusBadRequest, false},
		{http.StatusUnauthorized, false},
		{http.StatusTooManyRequests, true},
		{http.StatusBadGateway, true},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, `{"code":"ERR"}`)
			}))
			defer srv.Close()

			_, err := NewClient(time.Second).DoJSON(context.Background(), http.MethodGet, srv.URL, nil, nil)
			var statusErr *StatusError
			require.True(t, errors.As(err, &statusErr))
			assert.Equal(t, tt.status, statusErr.StatusCode)
			assert.Equal(t, tt.temporary, statusErr.Temporary())
			assert.Contains(t, statusErr.Body, "ERR")
		})
	}
}

func TestWithHeaderDoesNotMutateParent(t *testing.T) {
	base := NewClient(time.Second)
	_ = base.WithHeader("X-A", "1")
	assert.Empty(t, base.headers)
}
