package polly

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestNewClient(t *testing.T) {
	logger := zerolog.Nop()

	tests := []struct {
		name    string
		baseURL string
		wantURL string
		wantErr bool
		errMsg  string
	}{
		{
			name:    "valid config",
			baseURL: "http://localhost:8000",
			wantURL: "http://localhost:8000",
		},
		{
			name:    "trailing slash trimmed",
			baseURL: "http://localhost:8000/",
			wantURL: "http://localhost:8000",
		},
		{
			name:    "missing URL",
			baseURL: "",
			wantErr: true,
			errMsg:  "URL is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(tt.baseURL, logger)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantURL, client.BaseURL())
			assert.Equal(t, DefaultPageSize, client.PageSize())
			assert.Empty(t, client.Token())
		})
	}
}

func TestClientOptions(t *testing.T) {
	logger := zerolog.Nop()

	t.Run("with timeout", func(t *testing.T) {
		client, err := NewClient("http://localhost:8000", logger, WithTimeout(5*time.Second))
		require.NoError(t, err)
		assert.Equal(t, 5*time.Second, client.http.GetClient().Timeout)
	})

	t.Run("with page size", func(t *testing.T) {
		client, err := NewClient("http://localhost:8000", logger, WithPageSize(25))
		require.NoError(t, err)
		assert.Equal(t, 25, client.PageSize())
	})

	t.Run("invalid page size ignored", func(t *testing.T) {
		client, err := NewClient("http://localhost:8000", logger, WithPageSize(-3))
		require.NoError(t, err)
		assert.Equal(t, DefaultPageSize, client.PageSize())
	})

	t.Run("with token", func(t *testing.T) {
		client, err := NewClient("http://localhost:8000", logger, WithToken("stored-token"))
		require.NoError(t, err)
		assert.Equal(t, "stored-token", client.Token())
	})

	t.Run("with custom http client", func(t *testing.T) {
		hc := &http.Client{Timeout: 10 * time.Second}
		client, err := NewClient("http://localhost:8000", logger, WithHTTPClient(hc))
		require.NoError(t, err)
		assert.Same(t, hc, client.http.GetClient())
		assert.Equal(t, 10*time.Second, client.http.GetClient().Timeout)
	})
}

// TestResponseNormalization drives the status classification through GetPoll,
// which exercises the full request path.
func TestResponseNormalization(t *testing.T) {
	logger := zerolog.Nop()

	tests := []struct {
		name        string
		status      int
		body        string
		wantKind    ErrorKind
		wantMsg     string
		wantDetails bool
	}{
		{
			name:     "bad request with detail",
			status:   http.StatusBadRequest,
			body:     `{"detail": "You already voted on this poll"}`,
			wantKind: KindBadRequest,
			wantMsg:  "You already voted on this poll",
			// 400 keeps the body for callers that want the full context.
			wantDetails: true,
		},
		{
			name:        "bad request without detail",
			status:      http.StatusBadRequest,
			body:        `{"error": "nope"}`,
			wantKind:    KindBadRequest,
			wantMsg:     "Bad request",
			wantDetails: true,
		},
		{
			name:     "unauthorized",
			status:   http.StatusUnauthorized,
			body:     `{"detail": "Incorrect username or password"}`,
			wantKind: KindUnauthorized,
			wantMsg:  "Incorrect username or password",
		},
		{
			name:     "unauthorized without detail",
			status:   http.StatusUnauthorized,
			body:     `{}`,
			wantKind: KindUnauthorized,
			wantMsg:  "Unauthorized",
		},
		{
			name:     "not found with detail",
			status:   http.StatusNotFound,
			body:     `{"detail": "Poll not found"}`,
			wantKind: KindNotFound,
			wantMsg:  "Poll not found",
		},
		{
			name:     "not found without detail",
			status:   http.StatusNotFound,
			body:     `{}`,
			wantKind: KindNotFound,
			wantMsg:  "Not found",
		},
		{
			name:        "server error with detail",
			status:      http.StatusInternalServerError,
			body:        `{"detail": "database exploded"}`,
			wantKind:    KindServer,
			wantMsg:     "database exploded",
			wantDetails: true,
		},
		{
			name:        "server error without detail",
			status:      http.StatusServiceUnavailable,
			body:        `{}`,
			wantKind:    KindServer,
			wantMsg:     "HTTP 503",
			wantDetails: true,
		},
		{
			name:        "unusual status maps to server error",
			status:      http.StatusTeapot,
			body:        `{}`,
			wantKind:    KindServer,
			wantMsg:     "HTTP 418",
			wantDetails: true,
		},
		{
			name:   "non-JSON error body substitutes the detail",
			status: http.StatusBadRequest,
			body:   `<html>nope</html>`,
			// Substitution runs before classification, so the substitute's
			// detail becomes the message.
			wantKind:    KindBadRequest,
			wantMsg:     "Invalid JSON response",
			wantDetails: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer server.Close()

			client, err := NewClient(server.URL, logger)
			require.NoError(t, err)

			_, err = client.GetPoll(context.Background(), 1)
			require.Error(t, err)

			var apiErr *Error
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.wantKind, apiErr.Kind)
			assert.Equal(t, tt.wantMsg, apiErr.Message)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			if tt.wantDetails {
				assert.NotEmpty(t, apiErr.Details)
			} else {
				assert.Empty(t, apiErr.Details)
			}
		})
	}
}

func TestInvalidJSONOnSuccessStaysSuccessful(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "this is not json")
	}))
	defer server.Close()

	client, err := NewClient(server.URL, zerolog.Nop())
	require.NoError(t, err)

	res, err := client.GetPoll(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	// The substitute body does not look like a poll, so the shape warning
	// fires.
	assert.Equal(t, warnPollShape, res.Warning)

	var m map[string]any
	require.NoError(t, json.Unmarshal(res.Raw, &m))
	assert.Equal(t, "Invalid JSON response", m["detail"])
}

func TestNetworkErrorClassification(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client, err := NewClient(server.URL, zerolog.Nop())
	require.NoError(t, err)

	_, err = client.GetPoll(context.Background(), 1)
	require.Error(t, err)

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, KindNetwork, apiErr.Kind)
	assert.Zero(t, apiErr.StatusCode)
	assert.Contains(t, apiErr.Message, "Request failed: ")
	assert.Error(t, apiErr.Unwrap())
}

func TestAcceptHeaderOnEveryRequest(t *testing.T) {
	var accept string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		accept = r.Header.Get("Accept")
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[]`)
	}))
	defer server.Close()

	client, err := NewClient(server.URL, zerolog.Nop())
	require.NoError(t, err)

	_, err = client.ListPolls(context.Background(), 0, 10)
	require.NoError(t, err)
	assert.Equal(t, "application/json", accept)
}

// TestConcurrentTokenAccess makes sure logins racing token reads do not trip
// the race detector and always leave a complete token behind.
func TestConcurrentTokenAccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"access_token": "token-for-%s", "token_type": "bearer"}`, r.PostFormValue("username"))
	}))
	defer server.Close()

	client, err := NewClient(server.URL, zerolog.Nop())
	require.NoError(t, err)

	var g errgroup.Group
	for i := 0; i < 8; i++ {
		g.Go(func() error {
			username := fmt.Sprintf("user%d", i)
			res, err := client.Login(context.Background(), username, "pw")
			if err != nil {
				return err
			}
			if res.AccessToken == "" {
				return fmt.Errorf("empty token for %s", username)
			}
			_ = client.Token()
			return nil
		})
	}
	require.NoError(t, g.Wait())

	token := client.Token()
	assert.Contains(t, token, "token-for-user")
}
