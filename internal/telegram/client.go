package telegram

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"meme-trade-bot-go/internal/config"
)

const (
	baseURL       = "https://api.telegram.org"
	parseModeMark = "Markdown"
)

// ClientInterface defines the slice of the Telegram Bot API the bot uses.
type ClientInterface interface {
	GetMe(ctx context.Context) (*User, error)
	SendMessage(ctx context.Context, text string) error
	SendPhoto(ctx context.Context, photo []byte, caption string) error
}

// User is the bot identity returned by getMe.
type User struct {
	ID        int64  `json:"id"`
	IsBot     bool   `json:"is_bot"`
	FirstName string `json:"first_name"`
	Username  string `json:"username"`
}

// apiResponse is the envelope every Bot API method responds with.
type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

type getMeResponse struct {
	apiResponse
	Result User `json:"result"`
}

// Client is a client for the Telegram Bot API.
// It implements the ClientInterface.
type Client struct {
	client  *resty.Client
	chatID  string
	logger  *zap.Logger
	limiter *rate.Limiter
}

// ensure Client implements the interface
var _ ClientInterface = (*Client)(nil)

// NewClient creates a new Telegram Bot API client bound to the configured
// chat. All sends go to that single chat id.
func NewClient(cfg *config.Telegram, logger *zap.Logger) *Client {
	client := resty.New().SetBaseURL(fmt.Sprintf("%s/bot%s", baseURL, cfg.BotToken))

	// Telegram throttles bots per chat; keep sends under the configured rate.
	limiter := rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateLimitBurst)

	return &Client{
		client:  client,
		chatID:  cfg.ChatID,
		logger:  logger,
		limiter: limiter,
	}
}

// doRequest handles the actual request execution with rate limiting and retry logic.
func (c *Client) doRequest(ctx context.Context, method, url string, req *resty.Request) (*resty.Response, error) {
	var resp *resty.Response
	var err error
	const maxRetries = 3

	for i := 0; i < maxRetries; i++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter wait failed: %w", err)
		}

		c.logger.Debug("Executing request", zap.String("method", method), zap.String("endpoint", url))
		resp, err = req.SetContext(ctx).Execute(method, url)

		if err == nil && !resp.IsError() {
			return resp, nil // Success
		}

		// Analyze error and decide whether to retry
		shouldRetry := false
		var retryAfter time.Duration

		if resp != nil {
			statusCode := resp.StatusCode()
			if statusCode == http.StatusTooManyRequests {
				shouldRetry = true
				retryAfterHeader := resp.Header().Get("Retry-After")
				if seconds, err := strconv.Atoi(retryAfterHeader); err == nil {
					retryAfter = time.Duration(seconds) * time.Second
				}
			} else if statusCode >= 500 { // Server errors
				shouldRetry = true
			}
		} else { // Network or other client-side errors
			shouldRetry = true
		}

		if !shouldRetry {
			return nil, fmt.Errorf("request failed with status %s: %s", resp.Status(), resp.String())
		}

		if retryAfter == 0 {
			retryAfter = time.Duration(1<<i) * time.Second
		}

		c.logger.Warn("Request failed, retrying...",
			zap.Int("attempt", i+1),
			zap.Duration("retry_after", retryAfter),
			zap.Error(err),
		)

		select {
		case <-time.After(retryAfter):
			continue
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	return nil, fmt.Errorf("request failed after %d attempts: %w", maxRetries, err)
}

// GetMe fetches the bot identity. This is the bootstrap connectivity probe.
func (c *Client) GetMe(ctx context.Context) (*User, error) {
	req := c.client.R().SetResult(&getMeResponse{})

	resp, err := c.doRequest(ctx, "GET", "/getMe", req)
	if err != nil {
		c.logger.Error("Failed to get bot identity", zap.Error(err))
		return nil, fmt.Errorf("failed to get bot identity: %w", err)
	}

	result := resp.Result().(*getMeResponse)
	if !result.OK {
		return nil, fmt.Errorf("getMe rejected: %s", result.Description)
	}
	return &result.Result, nil
}

// SendMessage sends a Markdown text message to the configured chat.
func (c *Client) SendMessage(ctx context.Context, text string) error {
	req := c.client.R().
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]string{
			"chat_id":    c.chatID,
			"text":       text,
			"parse_mode": parseModeMark,
		}).
		SetResult(&apiResponse{})

	resp, err := c.doRequest(ctx, "POST", "/sendMessage", req)
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}

	result := resp.Result().(*apiResponse)
	if !result.OK {
		return fmt.Errorf("sendMessage rejected: %s", result.Description)
	}
	return nil
}

// SendPhoto uploads a PNG to the configured chat with a Markdown caption.
func (c *Client) SendPhoto(ctx context.Context, photo []byte, caption string) error {
	req := c.client.R().
		SetFileReader("photo", "card.png", bytes.NewReader(photo)).
		SetFormData(map[string]string{
			"chat_id":    c.chatID,
			"caption":    caption,
			"parse_mode": parseModeMark,
		}).
		SetResult(&apiResponse{})

	resp, err := c.doRequest(ctx, "POST", "/sendPhoto", req)
	if err != nil {
		return fmt.Errorf("failed to send photo: %w", err)
	}

	result := resp.Result().(*apiResponse)
	if !result.OK {
		return fmt.Errorf("sendPhoto rejected: %s", result.Description)
	}
	return nil
}
