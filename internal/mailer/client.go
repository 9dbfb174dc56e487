package mailer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lexhaven/reminder-gateway/pkg/logger"
	"github.com/valyala/fasthttp"
)

const sendPath = "/api/v1/email/send"

var ErrMissingURL = errors.New("mailer base url is required")

type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

type sendRequest struct {
	To       string `json:"to"`
	Subject  string `json:"subject"`
	HTMLBody string `json:"html_body"`
}

type sendResponse struct {
	OK    bool   `json:"ok"`
	ID    string `json:"id,omitempty"`
	Error string `json:"error,omitempty"`
}

// Client talks to the transactional email provider. The provider's own
// retry and bounce handling is its business; the client only reports the
// immediate accept/reject outcome of a single send.
type Client struct {
	config Config
	client *fasthttp.Client
}

func NewClient(config Config) (*Client, error) {
	if config.BaseURL == "" {
		return nil, ErrMissingURL
	}
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}

	return &Client{
		config: config,
		client: &fasthttp.Client{
			ReadTimeout:         config.Timeout,
			WriteTimeout:        config.Timeout,
			MaxIdleConnDuration: 60 * time.Second,
		},
	}, nil
}

// Send delivers one email. A non-2xx status, a provider-reported failure and
// a transport error all come back as a plain error; the caller treats them
// identically.
func (c *Client) Send(ctx context.Context, to, subject, htmlBody string) error {
	body, err := json.Marshal(sendRequest{To: to, Subject: subject, HTMLBody: htmlBody})
	if err != nil {
		return fmt.Errorf("failed to marshal send request: %w", err)
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.config.BaseURL + sendPath)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}
	req.SetBody(body)

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(c.config.Timeout)
	}

	if err := c.client.DoDeadline(req, resp, deadline); err != nil {
		return fmt.Errorf("mailer request failed: %w", err)
	}

	statusCode := resp.StatusCode()
	if statusCode != fasthttp.StatusOK && statusCode != fasthttp.StatusAccepted {
		return fmt.Errorf("mailer returned status %d: %s", statusCode, resp.Body())
	}

	var sr sendResponse
	if err := json.Unmarshal(resp.Body(), &sr); err != nil {
		return fmt.Errorf("failed to unmarshal mailer response: %w", err)
	}
	if !sr.OK {
		if sr.Error == "" {
			sr.Error = "provider rejected the message"
		}
		return errors.New(sr.Error)
	}

	logger.Debug("email accepted by provider", "to", to, "provider_id", sr.ID)
	return nil
}
