/**
 * @description
 * This package provides a client for communicating with the habit-tracking
 * service. It encapsulates the logic for making API calls to the habit
 * service, specifically for checking whether an account completed a
 * qualifying action on a given calendar day.
 */
package habitclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Client is a client for the habit-tracking service.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a new habit service client.
func NewClient(baseURL string, apiKey string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// completionResponse defines the response from the habit service completion check.
type completionResponse struct {
	AccountID string `json:"account_id"`
	Day       string `json:"day"`
	Completed bool   `json:"completed"`
}

// CompletedOn asks the habit service whether the account logged a qualifying
// habit action on the given UTC calendar day.
func (c *Client) CompletedOn(ctx context.Context, accountID uuid.UUID, day time.Time) (bool, error) {
	if c.baseURL == "" {
		return false, fmt.Errorf("habit service base url is empty")
	}

	url := fmt.Sprintf("%s/internal/habits/%s/completions?day=%s", c.baseURL, accountID, day.UTC().Format("2006-01-02"))

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}
	if strings.TrimSpace(c.apiKey) != "" {
		req.Header.Set("X-Internal-API-Key", strings.TrimSpace(c.apiKey))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("failed to execute request to habit service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return false, fmt.Errorf("habit service returned error status %d", resp.StatusCode)
	}

	var response completionResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return false, fmt.Errorf("failed to decode response: %w", err)
	}

	return response.Completed, nil
}
