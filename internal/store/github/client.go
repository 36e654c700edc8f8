// Package github implements the site's document store on the GitHub
// Contents API: one JSON file per resource, whole-document reads and
// whole-document replaces, with the file SHA as the store's native
// version token (last write wins).
package github

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"
)

// ErrNotFound reports that the document does not exist in the repository
// yet. Callers seed defaults on this error.
var ErrNotFound = errors.New("document not found")

// ErrWritesDisabled reports that no token is configured, so commits are
// impossible. Reads still work against the public raw host.
var ErrWritesDisabled = errors.New("github writes disabled: no token configured")

// Config identifies the backing repository.
type Config struct {
	Owner  string `yaml:"owner"`
	Repo   string `yaml:"repo"`
	Branch string `yaml:"branch"`
	Token  string `yaml:"token"`

	// Overridable for tests; defaults point at github.com.
	APIBaseURL string `yaml:"api_base_url"`
	RawBaseURL string `yaml:"raw_base_url"`
}

// DefaultConfig targets the main branch of the configured repository.
func DefaultConfig() Config {
	return Config{
		Branch:     "main",
		APIBaseURL: "https://api.github.com",
		RawBaseURL: "https://raw.githubusercontent.com",
	}
}

// Client talks to the Contents API for a single repository.
type Client struct {
	config Config
	http   *http.Client
}

// NewClient builds a store client. A nil httpClient gets a 15s timeout.
func NewClient(config Config, httpClient *http.Client) *Client {
	if config.APIBaseURL == "" {
		config.APIBaseURL = "https://api.github.com"
	}
	if config.RawBaseURL == "" {
		config.RawBaseURL = "https://raw.githubusercontent.com"
	}
	if config.Branch == "" {
		config.Branch = "main"
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{config: config, http: httpClient}
}

// WritesEnabled reports whether commits are possible.
func (c *Client) WritesEnabled() bool {
	return c.config.Token != ""
}

// ReadRaw fetches the current contents of path from the raw host. The raw
// host is uncached on our side and unauthenticated, which keeps document
// reads working even without a token.
func (c *Client) ReadRaw(ctx context.Context, path string) ([]byte, error) {
	rawURL := fmt.Sprintf("%s/%s/%s/%s/%s",
		c.config.RawBaseURL, c.config.Owner, c.config.Repo, c.config.Branch, path)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Cache-Control", "no-store")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("raw read of %s: %w", path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		return io.ReadAll(resp.Body)
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	default:
		return nil, fmt.Errorf("raw read of %s: HTTP %d", path, resp.StatusCode)
	}
}

// fileSHA resolves the current version token for path, or "" when the
// file does not exist yet.
func (c *Client) fileSHA(ctx context.Context, path string) (string, error) {
	contentsURL := fmt.Sprintf("%s/repos/%s/%s/contents/%s?ref=%s",
		c.config.APIBaseURL, c.config.Owner, c.config.Repo,
		url.PathEscape(path), url.QueryEscape(c.config.Branch))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, contentsURL, nil)
	if err != nil {
		return "", err
	}
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("sha lookup for %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", nil
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("sha lookup for %s: HTTP %d", path, resp.StatusCode)
	}

	var info struct {
		SHA string `json:"sha"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return "", fmt.Errorf("sha lookup for %s: %w", path, err)
	}
	return info.SHA, nil
}

// Commit replaces path with content in one commit. The current SHA is
// included when the file exists, omitted when creating it.
func (c *Client) Commit(ctx context.Context, path string, content []byte, message string) error {
	if !c.WritesEnabled() {
		return ErrWritesDisabled
	}

	sha, err := c.fileSHA(ctx, path)
	if err != nil {
		return err
	}

	body := map[string]any{
		"message": message,
		"content": base64.StdEncoding.EncodeToString(content),
		"branch":  c.config.Branch,
	}
	if sha != "" {
		body["sha"] = sha
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}

	commitURL := fmt.Sprintf("%s/repos/%s/%s/contents/%s",
		c.config.APIBaseURL, c.config.Owner, c.config.Repo, url.PathEscape(path))

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, commitURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	c.authorize(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("commit of %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		text, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("commit of %s: HTTP %d: %s", path, resp.StatusCode, text)
	}

	log.Info().Str("path", path).Msg("document committed")
	return nil
}

func (c *Client) authorize(req *http.Request) {
	if c.config.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.Token)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
}
