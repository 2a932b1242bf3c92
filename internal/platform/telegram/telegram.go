// Package telegram sends channel posts through the Bot API.
package telegram

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type Client struct {
	bot *tgbotapi.BotAPI
}

// New authorizes the bot token (getMe) against endpoint, which has the
// tgbotapi.APIEndpoint shape.
func New(token, endpoint string, httpClient *http.Client) (*Client, error) {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	bot, err := tgbotapi.NewBotAPIWithClient(token, endpoint, httpClient)
	if err != nil {
		return nil, fmt.Errorf("telegram: create bot: %w", err)
	}
	return &Client{bot: bot}, nil
}

// SendTextMessage posts text to chatName: a public "@channel" username, a bare
// username, or a numeric chat id.
func (c *Client) SendTextMessage(ctx context.Context, chatName, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if _, err := c.bot.Send(messageFor(chatName, text)); err != nil {
		return fmt.Errorf("telegram: send to %s: %w", chatName, err)
	}
	return nil
}

func messageFor(chatName, text string) tgbotapi.MessageConfig {
	chatName = strings.TrimSpace(chatName)
	if id, err := strconv.ParseInt(chatName, 10, 64); err == nil {
		return tgbotapi.NewMessage(id, text)
	}
	if !strings.HasPrefix(chatName, "@") {
		chatName = "@" + chatName
	}
	return tgbotapi.NewMessageToChannel(chatName, text)
}

// Pool keeps one authorized client per bot token so getMe runs once per token
// rather than once per post.
type Pool struct {
	endpoint string
	http     *http.Client

	mu      sync.Mutex
	clients map[string]*Client
}

func NewPool(endpoint string, httpClient *http.Client) *Pool {
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	return &Pool{
		endpoint: endpoint,
		http:     httpClient,
		clients:  map[string]*Client{},
	}
}

// Get returns the cached client for token, authorizing a new one outside the
// lock so a slow getMe for one bot does not hold up the others.
func (p *Pool) Get(token string) (*Client, error) {
	p.mu.Lock()
	c, ok := p.clients[token]
	p.mu.Unlock()
	if ok {
		return c, nil
	}

	c, err := New(token, p.endpoint, p.http)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if cached, ok := p.clients[token]; ok {
		return cached, nil
	}
	p.clients[token] = c
	return c, nil
}
