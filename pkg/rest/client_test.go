package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/driftline/go-sdk/pkg/core"
	"github.com/driftline/go-sdk/pkg/models"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
	}{
		{
			name:    "valid config",
			config:  Config{APIBase: "http://localhost:8080"},
			wantErr: false,
		},
		{
			name:    "valid config with https",
			config:  Config{APIBase: "https://api.driftline.chat"},
			wantErr: false,
		},
		{
			name:    "empty URL",
			config:  Config{APIBase: ""},
			wantErr: true,
		},
		{
			name:    "malformed URL",
			config:  Config{APIBase: "http://[::1:80"},
			wantErr: true,
		},
		{
			name:    "relative URL",
			config:  Config{APIBase: "api.driftline.chat/v1"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := New(tt.config)
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
				return
			}

			if tt.wantErr {
				var configErr *core.ConfigError
				if !errors.As(err, &configErr) {
					t.Errorf("New() error type = %T, want *core.ConfigError", err)
				} else if configErr.Field != "APIBase" {
					t.Errorf("error field = %v, want APIBase", configErr.Field)
				}
			} else if client == nil {
				t.Error("New() returned nil client with no error")
			}
		})
	}
}

func TestNodeInfo(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			t.Errorf("path = %q, want /", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(models.Configuration{
			Version: "0.5.1",
			WS:      "wss://gateway.driftline.chat",
		})
	}))
	defer server.Close()

	client := mustNewClient(t, Config{APIBase: server.URL})

	info, err := client.NodeInfo(context.Background())
	if err != nil {
		t.Fatalf("NodeInfo() unexpected error = %v", err)
	}
	if info.WS != "wss://gateway.driftline.chat" {
		t.Errorf("WS = %q, want the gateway URL", info.WS)
	}
	if info.Version != "0.5.1" {
		t.Errorf("Version = %q, want 0.5.1", info.Version)
	}
}

func TestLogin(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/auth/login" {
			t.Errorf("request = %s %s, want POST /auth/login", r.Method, r.URL.Path)
		}

		var body loginRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("failed to decode login body: %v", err)
		}
		if body.Email != "alice@example.com" || body.Password != "hunter2" {
			t.Errorf("login body = %+v, want the supplied credentials", body)
		}
		if body.FriendlyName != "driftline-tests" {
			t.Errorf("friendly_name = %q, want driftline-tests", body.FriendlyName)
		}

		_ = json.NewEncoder(w).Encode(models.Session{
			ID:     "session-1",
			UserID: "user-1",
			Token:  "tok-abc",
		})
	}))
	defer server.Close()

	client := mustNewClient(t, Config{APIBase: server.URL})

	session, err := client.Login(context.Background(), "alice@example.com", "hunter2", "driftline-tests")
	if err != nil {
		t.Fatalf("Login() unexpected error = %v", err)
	}
	if session.UserID != "user-1" || session.Token != "tok-abc" {
		t.Errorf("session = %+v, want the server session", session)
	}

	stored := client.Session()
	if stored == nil || stored.Token != "tok-abc" {
		t.Errorf("stored session = %+v, want the login session", stored)
	}
}

func TestLoginValidatesArguments(t *testing.T) {
	client := mustNewClient(t, Config{APIBase: "http://localhost:9"})

	var configErr *core.ConfigError
	if _, err := client.Login(context.Background(), "", "pw", ""); !errors.As(err, &configErr) {
		t.Errorf("Login() with empty email error = %v, want *core.ConfigError", err)
	}
	if _, err := client.Login(context.Background(), "a@b.c", "", ""); !errors.As(err, &configErr) {
		t.Errorf("Login() with empty password error = %v, want *core.ConfigError", err)
	}
}

func TestSessionTokenHeader(t *testing.T) {
	var gotToken string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get("x-session-token")
		_ = json.NewEncoder(w).Encode(models.User{ID: "user-1", Username: "alice"})
	}))
	defer server.Close()

	client := mustNewClient(t, Config{
		APIBase: server.URL,
		Session: &models.Session{UserID: "user-1", Token: "tok-abc"},
	})

	if _, err := client.FetchUser(context.Background(), "user-1"); err != nil {
		t.Fatalf("FetchUser() unexpected error = %v", err)
	}
	if gotToken != "tok-abc" {
		t.Errorf("x-session-token = %q, want tok-abc", gotToken)
	}
}

func TestBotTokenHeader(t *testing.T) {
	var gotBot, gotSession string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBot = r.Header.Get("x-bot-token")
		gotSession = r.Header.Get("x-session-token")
		_ = json.NewEncoder(w).Encode(models.User{ID: "user-1", Username: "helper"})
	}))
	defer server.Close()

	client := mustNewClient(t, Config{
		APIBase:  server.URL,
		BotToken: "bot-tok",
		Session:  &models.Session{UserID: "user-1", Token: "tok-abc"},
	})

	if _, err := client.FetchUser(context.Background(), "user-1"); err != nil {
		t.Fatalf("FetchUser() unexpected error = %v", err)
	}
	if gotBot != "bot-tok" {
		t.Errorf("x-bot-token = %q, want bot-tok", gotBot)
	}
	if gotSession != "" {
		t.Errorf("x-session-token = %q, want unset when a bot token is configured", gotSession)
	}
}

func TestFetchUser(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/users/user-1":
			_ = json.NewEncoder(w).Encode(models.User{ID: "user-1", Username: "alice"})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := mustNewClient(t, Config{APIBase: server.URL})

	user, err := client.FetchUser(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("FetchUser() unexpected error = %v", err)
	}
	if user.Username != "alice" {
		t.Errorf("Username = %q, want alice", user.Username)
	}

	if _, err := client.FetchUser(context.Background(), "user-9"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("FetchUser() missing user error = %v, want core.ErrNotFound", err)
	}
}

func TestFetchMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/channels/ch-1/messages/msg-1" {
			t.Errorf("path = %q, want /channels/ch-1/messages/msg-1", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(models.Message{
			ID:        "msg-1",
			ChannelID: "ch-1",
			Author:    "user-2",
			Content:   "hello",
		})
	}))
	defer server.Close()

	client := mustNewClient(t, Config{APIBase: server.URL})

	message, err := client.FetchMessage(context.Background(), "ch-1", "msg-1")
	if err != nil {
		t.Fatalf("FetchMessage() unexpected error = %v", err)
	}
	if message.Content != "hello" {
		t.Errorf("Content = %q, want hello", message.Content)
	}
}

func TestFetchUserCollapsesConcurrentRequests(t *testing.T) {
	var calls int32
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		<-release
		_ = json.NewEncoder(w).Encode(models.User{ID: "user-1", Username: "alice"})
	}))
	defer server.Close()

	client := mustNewClient(t, Config{APIBase: server.URL})

	const callers = 5
	var started, done sync.WaitGroup
	results := make([]*models.User, callers)
	errs := make([]error, callers)

	started.Add(callers)
	done.Add(callers)
	for i := 0; i < callers; i++ {
		go func(i int) {
			defer done.Done()
			started.Done()
			results[i], errs[i] = client.FetchUser(context.Background(), "user-1")
		}(i)
	}

	// Let every caller join the in-flight request before it completes.
	started.Wait()
	time.Sleep(100 * time.Millisecond)
	close(release)
	done.Wait()

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("server saw %d requests, want 1", got)
	}
	for i := 0; i < callers; i++ {
		if errs[i] != nil {
			t.Fatalf("caller %d error = %v", i, errs[i])
		}
		if results[i].Username != "alice" {
			t.Errorf("caller %d Username = %q, want alice", i, results[i].Username)
		}
	}

	// Each caller must own an independent copy.
	results[0].Username = "mallory"
	if results[1].Username != "alice" {
		t.Error("callers share a single user value")
	}
}

func TestSendMessage(t *testing.T) {
	var nonces []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/channels/ch-1/messages" {
			t.Errorf("request = %s %s, want POST /channels/ch-1/messages", r.Method, r.URL.Path)
		}

		var body sendMessageRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("failed to decode message body: %v", err)
		}
		if body.Content != "hello" {
			t.Errorf("content = %q, want hello", body.Content)
		}
		if _, err := uuid.Parse(body.Nonce); err != nil {
			t.Errorf("nonce %q is not a UUID: %v", body.Nonce, err)
		}
		nonces = append(nonces, body.Nonce)

		_ = json.NewEncoder(w).Encode(models.Message{
			ID:        "msg-1",
			Nonce:     body.Nonce,
			ChannelID: "ch-1",
			Author:    "user-1",
			Content:   body.Content,
		})
	}))
	defer server.Close()

	client := mustNewClient(t, Config{APIBase: server.URL})

	for i := 0; i < 2; i++ {
		message, err := client.SendMessage(context.Background(), "ch-1", "hello")
		if err != nil {
			t.Fatalf("SendMessage() unexpected error = %v", err)
		}
		if message.ID == "" {
			t.Error("message ID is empty")
		}
	}

	if len(nonces) != 2 || nonces[0] == nonces[1] {
		t.Errorf("nonces = %v, want two distinct values", nonces)
	}
}

func TestAPIErrorMapping(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"type":"InvalidCredentials"}`))
	}))
	defer server.Close()

	client := mustNewClient(t, Config{APIBase: server.URL})

	_, err := client.Login(context.Background(), "alice@example.com", "wrong", "")
	var apiErr *core.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Login() error = %v, want *core.APIError", err)
	}
	if apiErr.Status != http.StatusUnprocessableEntity {
		t.Errorf("Status = %d, want 422", apiErr.Status)
	}
	if apiErr.Type != "InvalidCredentials" {
		t.Errorf("Type = %q, want InvalidCredentials", apiErr.Type)
	}
	if apiErr.Path != "/auth/login" {
		t.Errorf("Path = %q, want /auth/login", apiErr.Path)
	}
}

func mustNewClient(t *testing.T, config Config) *Client {
	t.Helper()
	client, err := New(config)
	if err != nil {
		t.Fatalf("New() unexpected error = %v", err)
	}
	return client
}
