package pcloud

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-hclog"
)

// Config contains the pCloud client configuration.
//
// Authentication is either a static auth token (auth_token) or a
// username/password pair used to log in on demand. At least one of the
// two must be present.
type Config struct {
	// BaseURL is the pCloud API endpoint.
	// Example: "https://api.pcloud.com"
	BaseURL string `hcl:"base_url" env:"PCLOUD_BASE_URL"`

	// AuthToken is a pre-issued auth token. When set, no login call is
	// ever made; the token is adopted as-is.
	AuthToken string `hcl:"auth_token,optional" env:"PCLOUD_AUTH_TOKEN"`

	// Username and Password are the login credentials used when no
	// static token is configured.
	Username string `hcl:"username,optional" env:"PCLOUD_USERNAME"`
	Password string `hcl:"password,optional" env:"PCLOUD_PASSWORD"`

	// Device is the device name reported on login.
	// Default: "stagehand".
	Device string `hcl:"device,optional" env:"PCLOUD_DEVICE"`

	// Timeout for API requests.
	// Default: 30 seconds.
	Timeout time.Duration `hcl:"timeout,optional"`
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return &ConfigError{Reason: "base_url is required"}
	}
	parsed, err := url.Parse(c.BaseURL)
	if err != nil {
		return &ConfigError{Reason: fmt.Sprintf("invalid base_url: %v", err)}
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return &ConfigError{
			Reason: fmt.Sprintf("base_url must use http or https scheme, got: %s", parsed.Scheme),
		}
	}
	if c.AuthToken == "" && (c.Username == "" || c.Password == "") {
		return &ConfigError{Reason: "either auth_token or username/password is required"}
	}
	return nil
}

// Response is the common envelope of pCloud API responses. Fields that
// only some methods return (auth, metadata) are optional.
type Response struct {
	Result   ResultCode      `json:"result"`
	ErrorMsg string          `json:"error,omitempty"`
	Auth     string          `json:"auth,omitempty"`
	Metadata *FolderMetadata `json:"metadata,omitempty"`
}

// FolderMetadata is the subset of pCloud folder metadata we consume.
type FolderMetadata struct {
	FolderID uint64 `json:"folderid"`
	Name     string `json:"name"`
	Path     string `json:"path,omitempty"`
	IsFolder bool   `json:"isfolder"`
}

// Client issues pCloud API calls with the session token injected and a
// retry-once-on-auth-failure policy. It exists to recover from a stale
// cached token, not from transient network conditions; transport
// failures are surfaced immediately.
type Client struct {
	cfg        *Config
	httpClient *http.Client
	session    *Session
	logger     hclog.Logger
}

// NewClient creates a pCloud client with a fresh session.
func NewClient(cfg *Config, logger hclog.Logger) (*Client, error) {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Device == "" {
		cfg.Device = "stagehand"
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	c := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
	c.session = NewSession(c.login)
	return c, nil
}

// Session exposes the client's auth session, mainly for tests and
// status reporting.
func (c *Client) Session() *Session {
	return c.session
}

// Call issues method with params plus the current auth token and
// interprets the result code. On the first auth-failure code (1000 or
// 2000) it invalidates the session, logs in again and retries the
// identical call once; a second auth failure is surfaced as AuthError.
// Any other non-zero code is a terminal RemoteError.
func (c *Client) Call(ctx context.Context, method string, params url.Values) (*Response, error) {
	retried := false
	for {
		token, err := c.session.Token(ctx)
		if err != nil {
			return nil, err
		}

		authed := url.Values{}
		for k, vs := range params {
			authed[k] = vs
		}
		authed.Set("auth", token)

		resp, err := c.do(ctx, method, authed)
		if err != nil {
			return nil, err
		}

		switch {
		case resp.Result == ResultSuccess:
			return resp, nil
		case resp.Result.IsAuthFailure():
			if retried {
				return nil, &AuthError{Code: resp.Result, Message: resp.ErrorMsg}
			}
			c.logger.Warn("auth failure, retrying with fresh login",
				"method", method, "code", int(resp.Result))
			c.session.Invalidate()
			retried = true
		default:
			return nil, &RemoteError{Method: method, Code: resp.Result, Message: resp.ErrorMsg}
		}
	}
}

// login obtains a token: adopts the static one when configured,
// otherwise issues a userinfo?getauth=1 call with the credentials.
func (c *Client) login(ctx context.Context) (string, error) {
	if c.cfg.AuthToken != "" {
		return c.cfg.AuthToken, nil
	}
	if c.cfg.Username == "" || c.cfg.Password == "" {
		return "", &ConfigError{Reason: "no auth token and no username/password configured"}
	}

	params := url.Values{}
	params.Set("getauth", "1")
	params.Set("username", c.cfg.Username)
	params.Set("password", c.cfg.Password)
	params.Set("device", c.cfg.Device)

	resp, err := c.do(ctx, "userinfo", params)
	if err != nil {
		return "", err
	}
	if resp.Result != ResultSuccess || resp.Auth == "" {
		return "", &AuthError{Code: resp.Result, Message: resp.ErrorMsg}
	}

	c.logger.Debug("logged in to pcloud", "device", c.cfg.Device)
	return resp.Auth, nil
}

// do performs one GET against the API and decodes the envelope.
func (c *Client) do(ctx context.Context, method string, params url.Values) (*Response, error) {
	endpoint := fmt.Sprintf("%s/%s?%s", c.cfg.BaseURL, method, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &NetworkError{Method: method, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &NetworkError{Method: method, Err: err}
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		return nil, &NetworkError{
			Method: method,
			Err:    fmt.Errorf("unexpected HTTP status %d", httpResp.StatusCode),
		}
	}

	var resp Response
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, &NetworkError{Method: method, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return &resp, nil
}
