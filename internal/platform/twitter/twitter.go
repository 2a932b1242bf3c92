// Package twitter publishes tweets through the v2 API with OAuth 1.0a user
// context.
//
// A Client holds one "current account" at a time, switched with
// SetCredentials. Concurrent callers must serialize the set+publish pair.
package twitter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dghubble/oauth1"

	"github.com/0x0BSoD/crossPoster/internal/model"
)

var ErrNoCredentials = errors.New("twitter: credentials not set")

type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("twitter: http %d: %s", e.StatusCode, e.Detail)
}

type Client struct {
	baseURL string
	timeout time.Duration

	config *oauth1.Config
	token  *oauth1.Token
}

func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
	}
}

func (c *Client) SetCredentials(creds model.Credentials) error {
	if creds.ConsumerKey == "" || creds.ConsumerSecret == "" || creds.AccessToken == "" || creds.AccessTokenSecret == "" {
		return fmt.Errorf("twitter: %w", model.ErrEmptyCredentials)
	}
	c.config = oauth1.NewConfig(creds.ConsumerKey, creds.ConsumerSecret)
	c.token = oauth1.NewToken(creds.AccessToken, creds.AccessTokenSecret)
	return nil
}

// PublishTweet posts text as the account set by the last SetCredentials call.
func (c *Client) PublishTweet(ctx context.Context, text string) error {
	if c.config == nil || c.token == nil {
		return ErrNoCredentials
	}

	payload, err := json.Marshal(struct {
		Text string `json:"text"`
	}{Text: text})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/tweets", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("twitter: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	httpClient := c.config.Client(ctx, c.token)
	httpClient.Timeout = c.timeout

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("twitter: publish: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 == 2 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	var problem struct {
		Title  string `json:"title"`
		Detail string `json:"detail"`
	}
	apiErr := &APIError{StatusCode: resp.StatusCode, Detail: resp.Status}
	if err := json.NewDecoder(resp.Body).Decode(&problem); err == nil {
		if problem.Detail != "" {
			apiErr.Detail = problem.Detail
		} else if problem.Title != "" {
			apiErr.Detail = problem.Title
		}
	}
	return apiErr
}
