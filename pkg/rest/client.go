package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"golang.org/x/sync/singleflight"

	"github.com/driftline/go-sdk/pkg/core"
	"github.com/driftline/go-sdk/pkg/models"
	"github.com/driftline/go-sdk/pkg/state"
)

// defaultTimeout bounds requests made with the default HTTP client.
const defaultTimeout = 30 * time.Second

// maxErrorBody caps how much of an error response is read while probing for
// the server's error identifier.
const maxErrorBody = 4096

// Config contains configuration options for the REST client.
type Config struct {
	// APIBase is the root URL of the Driftline REST API, for example
	// "https://api.driftline.chat".
	APIBase string

	// Session authenticates requests as a user. Optional; a successful
	// Login stores the returned session on the client.
	Session *models.Session

	// BotToken authenticates requests as a bot instead of a user session.
	BotToken string

	// HTTPClient overrides the HTTP client used for requests. Defaults to
	// a client with a 30 second timeout.
	HTTPClient *http.Client

	// Logger receives request-level debug logging. Defaults to a new
	// logrus logger.
	Logger *logrus.Logger
}

// Client is a Driftline REST API client.
type Client struct {
	base   *url.URL
	http   *http.Client
	logger *logrus.Logger
	flight singleflight.Group

	mu       sync.RWMutex
	session  *models.Session
	botToken string
}

// The realtime client's cache resolves referenced objects through this
// client.
var _ state.Hydrator = (*Client)(nil)

// New creates a new REST client with the specified configuration.
func New(config Config) (*Client, error) {
	if config.APIBase == "" {
		return nil, &core.ConfigError{
			Field: "APIBase",
			Value: config.APIBase,
			Err:   errors.New("API base URL cannot be empty"),
		}
	}

	base, err := url.Parse(config.APIBase)
	if err != nil {
		return nil, &core.ConfigError{
			Field: "APIBase",
			Value: config.APIBase,
			Err:   fmt.Errorf("invalid API base URL: %w", err),
		}
	}
	if !base.IsAbs() || base.Host == "" {
		return nil, &core.ConfigError{
			Field: "APIBase",
			Value: config.APIBase,
			Err:   errors.New("API base URL must be absolute"),
		}
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}

	logger := config.Logger
	if logger == nil {
		logger = logrus.New()
	}

	client := &Client{
		base:     base,
		http:     httpClient,
		logger:   logger,
		botToken: config.BotToken,
	}
	if config.Session != nil {
		session := *config.Session
		client.session = &session
	}
	return client, nil
}

// UseSession attaches a session whose token authenticates subsequent
// requests.
func (c *Client) UseSession(session *models.Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if session == nil {
		c.session = nil
		return
	}
	copied := *session
	c.session = &copied
}

// Session returns a copy of the session the client authenticates with, if
// any.
func (c *Client) Session() *models.Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.session == nil {
		return nil
	}
	copied := *c.session
	return &copied
}

// NodeInfo fetches the node configuration from the API root. The result
// carries the gateway WebSocket URL required to connect the realtime client.
func (c *Client) NodeInfo(ctx context.Context) (*models.Configuration, error) {
	var config models.Configuration
	if err := c.get(ctx, c.base.JoinPath(), &config); err != nil {
		return nil, err
	}
	return &config, nil
}

// loginRequest is the wire body for Login.
type loginRequest struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	FriendlyName string `json:"friendly_name,omitempty"`
}

// Login authenticates with email and password. The friendly name labels the
// session in the user's session list and may be empty. The returned session
// is stored on the client for subsequent requests.
func (c *Client) Login(ctx context.Context, email, password, friendlyName string) (*models.Session, error) {
	if email == "" {
		return nil, &core.ConfigError{
			Field: "email",
			Value: email,
			Err:   errors.New("email cannot be empty"),
		}
	}
	if password == "" {
		return nil, &core.ConfigError{
			Field: "password",
			Value: "",
			Err:   errors.New("password cannot be empty"),
		}
	}

	body := loginRequest{Email: email, Password: password, FriendlyName: friendlyName}
	var session models.Session
	if err := c.post(ctx, c.base.JoinPath("auth", "login"), body, &session); err != nil {
		return nil, err
	}
	if err := session.Validate(); err != nil {
		return nil, fmt.Errorf("login returned an unusable session: %w", err)
	}

	c.UseSession(&session)
	copied := session
	return &copied, nil
}

// FetchUser retrieves a user by id. Concurrent fetches of the same user are
// collapsed into a single request.
func (c *Client) FetchUser(ctx context.Context, id string) (*models.User, error) {
	if id == "" {
		return nil, &core.ConfigError{
			Field: "id",
			Value: id,
			Err:   errors.New("user id cannot be empty"),
		}
	}

	v, err, _ := c.flight.Do("users/"+id, func() (interface{}, error) {
		var user models.User
		if err := c.get(ctx, c.base.JoinPath("users", id), &user); err != nil {
			return nil, err
		}
		return &user, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.User).Clone(), nil
}

// FetchChannel retrieves a channel by id. Concurrent fetches of the same
// channel are collapsed into a single request.
func (c *Client) FetchChannel(ctx context.Context, id string) (*models.Channel, error) {
	if id == "" {
		return nil, &core.ConfigError{
			Field: "id",
			Value: id,
			Err:   errors.New("channel id cannot be empty"),
		}
	}

	v, err, _ := c.flight.Do("channels/"+id, func() (interface{}, error) {
		var channel models.Channel
		if err := c.get(ctx, c.base.JoinPath("channels", id), &channel); err != nil {
			return nil, err
		}
		return &channel, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.Channel).Clone(), nil
}

// FetchMessage retrieves a message by channel and message id. Concurrent
// fetches of the same message are collapsed into a single request.
func (c *Client) FetchMessage(ctx context.Context, channelID, id string) (*models.Message, error) {
	if channelID == "" || id == "" {
		return nil, &core.ConfigError{
			Field: "id",
			Value: channelID + "/" + id,
			Err:   errors.New("channel and message ids cannot be empty"),
		}
	}

	v, err, _ := c.flight.Do("messages/"+channelID+"/"+id, func() (interface{}, error) {
		var message models.Message
		if err := c.get(ctx, c.base.JoinPath("channels", channelID, "messages", id), &message); err != nil {
			return nil, err
		}
		return &message, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*models.Message).Clone(), nil
}

// sendMessageRequest is the wire body for SendMessage.
type sendMessageRequest struct {
	Content string `json:"content"`
	Nonce   string `json:"nonce"`
}

// SendMessage posts a message to a channel. Each call carries a fresh nonce
// so the server can deduplicate retried requests.
func (c *Client) SendMessage(ctx context.Context, channelID, content string) (*models.Message, error) {
	if channelID == "" {
		return nil, &core.ConfigError{
			Field: "channelID",
			Value: channelID,
			Err:   errors.New("channel id cannot be empty"),
		}
	}

	body := sendMessageRequest{Content: content, Nonce: uuid.NewString()}
	var message models.Message
	if err := c.post(ctx, c.base.JoinPath("channels", channelID, "messages"), body, &message); err != nil {
		return nil, err
	}
	return &message, nil
}

// get issues a GET request and decodes the JSON response into out.
func (c *Client) get(ctx context.Context, endpoint *url.URL, out interface{}) error {
	return c.do(ctx, http.MethodGet, endpoint, nil, out)
}

// post issues a POST request with a JSON body and decodes the JSON response
// into out.
func (c *Client) post(ctx context.Context, endpoint *url.URL, body, out interface{}) error {
	return c.do(ctx, http.MethodPost, endpoint, body, out)
}

func (c *Client) do(ctx context.Context, method string, endpoint *url.URL, body, out interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), reqBody)
	if err != nil {
		return fmt.Errorf("failed to build %s %s: %w", method, endpoint.Path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.authorize(req)

	c.logger.WithFields(logrus.Fields{
		"method": method,
		"path":   endpoint.Path,
	}).Debug("api request")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, endpoint.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s: %w", endpoint.Path, core.ErrNotFound)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		apiErr := &core.APIError{Status: resp.StatusCode, Path: endpoint.Path}
		if data, readErr := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody)); readErr == nil {
			apiErr.Type = gjson.GetBytes(data, "type").String()
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", endpoint.Path, err)
	}
	return nil
}

// authorize attaches the configured credentials to a request. Bot tokens
// take precedence over user sessions.
func (c *Client) authorize(req *http.Request) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	switch {
	case c.botToken != "":
		req.Header.Set("x-bot-token", c.botToken)
	case c.session != nil && c.session.Token != "":
		req.Header.Set("x-session-token", c.session.Token)
	}
}
