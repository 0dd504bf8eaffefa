package worksection

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/araddon/dateparse"
	"github.com/hashicorp/go-hclog"
)

// Config contains the Worksection client configuration.
type Config struct {
	// BaseURL is the Worksection API endpoint of the account.
	// Example: "https://myaccount.worksection.com/api/admin/"
	BaseURL string `hcl:"base_url" env:"WORKSECTION_BASE_URL"`

	// APISecret is the shared secret used to sign requests.
	APISecret string `hcl:"api_secret" env:"WORKSECTION_API_SECRET"`

	// Timeout for API requests.
	// Default: 30 seconds.
	Timeout time.Duration `hcl:"timeout,optional"`
}

// ConfigError indicates the client is missing its base URL or secret.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("worksection: configuration error: %s", e.Reason)
}

// NetworkError wraps a transport-level failure.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("worksection: network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// RemoteError indicates the API answered with a non-ok status.
type RemoteError struct {
	Status  string
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("worksection: api status %q: %s", e.Status, e.Message)
}

// Project is the slice of a Worksection project the workflow consumes.
// Emails are filtered to non-empty values. DateStart and DateEnd are
// nil when the project has no dates or they fail to parse.
type Project struct {
	ID        int
	Name      string
	Emails    []string
	DateStart *time.Time
	DateEnd   *time.Time
}

type envelope struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Data    struct {
		Name      string `json:"name"`
		DateStart string `json:"date_start,omitempty"`
		DateEnd   string `json:"date_end,omitempty"`
		Users     []struct {
			Email string `json:"email"`
		} `json:"users"`
	} `json:"data"`
}

// Client fetches project metadata from the Worksection API.
type Client struct {
	cfg        *Config
	httpClient *http.Client
	logger     hclog.Logger
}

// NewClient creates a Worksection client.
func NewClient(cfg *Config, logger hclog.Logger) (*Client, error) {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.BaseURL == "" {
		return nil, &ConfigError{Reason: "base_url is required"}
	}
	if cfg.APISecret == "" {
		return nil, &ConfigError{Reason: "api_secret is required"}
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}, nil
}

// GetProject fetches a project with its member list. fallbackTitle is
// used as the project name when the API record carries none (the title
// supplied by the triggering webhook); when both are empty the name is
// synthesized from the ID.
func (c *Client) GetProject(ctx context.Context, projectID int, fallbackTitle string) (*Project, error) {
	params := []Param{
		{Key: "action", Value: "get_project"},
		{Key: "id_project", Value: strconv.Itoa(projectID)},
		{Key: "extra", Value: "users"},
	}
	endpoint := fmt.Sprintf("%s?%s", c.cfg.BaseURL, SignedQuery(params, c.cfg.APISecret))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	req.Header.Set("Accept", "application/json")

	httpResp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		return nil, &NetworkError{Err: fmt.Errorf("unexpected HTTP status %d", httpResp.StatusCode)}
	}

	var env envelope
	if err := json.NewDecoder(httpResp.Body).Decode(&env); err != nil {
		return nil, &NetworkError{Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	if env.Status != "ok" {
		return nil, &RemoteError{Status: env.Status, Message: env.Message}
	}

	project := &Project{
		ID:   projectID,
		Name: env.Data.Name,
	}
	if project.Name == "" {
		project.Name = fallbackTitle
	}
	if project.Name == "" {
		project.Name = fmt.Sprintf("project_%d", projectID)
	}

	for _, u := range env.Data.Users {
		// Member records without an email cannot receive a share grant.
		if u.Email == "" {
			continue
		}
		project.Emails = append(project.Emails, u.Email)
	}

	project.DateStart = parseDate(env.Data.DateStart)
	project.DateEnd = parseDate(env.Data.DateEnd)

	c.logger.Debug("fetched project", "id", projectID, "name", project.Name,
		"members", len(project.Emails))
	return project, nil
}

// parseDate leniently parses the tracker's date fields, which vary in
// format across account locales. Unparseable values are dropped.
func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := dateparse.ParseAny(s)
	if err != nil {
		return nil
	}
	return &t
}
