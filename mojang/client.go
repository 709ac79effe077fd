// Package mojang looks players up in the public Mojang web APIs.
package mojang

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	DefaultAPIURL     = "https://api.mojang.com"
	DefaultSessionURL = "https://sessionserver.mojang.com"

	userAgent = "mcstatus"
)

// ErrNotFound is returned when no player matches the request.
var ErrNotFound = errors.New("player not found")

// APIError is an unexpected HTTP status.
type APIError struct {
	StatusCode int
	URL        string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("mojang api: %s returned %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// Client talks to the Mojang account and session servers.
type Client struct {
	HTTP       *http.Client
	APIURL     string
	SessionURL string
}

// NewClient returns a client for the production endpoints.
func NewClient(timeout time.Duration) *Client {
	return &Client{
		HTTP:       &http.Client{Timeout: timeout},
		APIURL:     DefaultAPIURL,
		SessionURL: DefaultSessionURL,
	}
}

// getJSON decodes the body of a 200 response into out. 204 and 404 are ErrNotFound.
func (c *Client) getJSON(url string, out interface{}) error {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", url, err)
	}
	defer resp.Body.Close()

	log.Debug().Str("url", url).Int("status", resp.StatusCode).Msg("Mojang API response")

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNoContent, http.StatusNotFound:
		return ErrNotFound
	default:
		return &APIError{StatusCode: resp.StatusCode, URL: url}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s: %w", url, err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s: %w", url, err)
	}
	return nil
}

func join(base string, parts ...string) string {
	return strings.TrimRight(base, "/") + "/" + strings.Join(parts, "/")
}
