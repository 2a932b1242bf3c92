// Package facebook posts links to a page wall through the Graph API.
package facebook

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

type APIError struct {
	StatusCode int
	Message    string
	Type       string
	Code       int
}

func (e *APIError) Error() string {
	return fmt.Sprintf("facebook: %s (type %s, code %d, http %d)", e.Message, e.Type, e.Code, e.StatusCode)
}

// Client is bound to one page access token.
type Client struct {
	token   string
	baseURL string
	http    *http.Client
}

func New(baseURL, token string, httpClient *http.Client) (*Client, error) {
	if strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("facebook: empty page token")
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		token:   token,
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}, nil
}

// PostOnWall publishes message with an attached link on the page feed.
func (c *Client) PostOnWall(ctx context.Context, message, link string) error {
	form := url.Values{
		"message":      {message},
		"link":         {link},
		"access_token": {c.token},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/me/feed", strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("facebook: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("facebook: post on wall: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 == 2 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	var body struct {
		Error struct {
			Message string `json:"message"`
			Type    string `json:"type"`
			Code    int    `json:"code"`
		} `json:"error"`
	}
	apiErr := &APIError{StatusCode: resp.StatusCode, Message: resp.Status}
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Error.Message != "" {
		apiErr.Message = body.Error.Message
		apiErr.Type = body.Error.Type
		apiErr.Code = body.Error.Code
	}
	return apiErr
}
