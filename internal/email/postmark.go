package email

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html"
	"net/http"

	"github.com/ferncreek/porchlight/internal/store"
)

// Client sends magic-link emails through the Postmark HTTP API. An
// unconfigured client (no server token) is valid; callers check
// Configured and fall back to logging the link.
type Client struct {
	serverToken string
	fromEmail   string
	httpClient  *http.Client
	endpoint    string
}

type Option func(*Client)

func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		cl.httpClient = c
	}
}

// WithEndpoint overrides the Postmark API URL, for tests.
func WithEndpoint(url string) Option {
	return func(cl *Client) {
		cl.endpoint = url
	}
}

func NewClient(serverToken, fromEmail string, opts ...Option) *Client {
	c := &Client{
		serverToken: serverToken,
		fromEmail:   fromEmail,
		httpClient:  http.DefaultClient,
		endpoint:    "https://api.postmarkapp.com/email",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Configured returns true if the server token is set.
func (c *Client) Configured() bool {
	return c.serverToken != ""
}

type postmarkEmail struct {
	From     string `json:"From"`
	To       string `json:"To"`
	Subject  string `json:"Subject"`
	HtmlBody string `json:"HtmlBody"`
	TextBody string `json:"TextBody"`
}

// SendMagicLink sends the sign-in email for the given link, rendered
// from the operator-editable template. The raw token is part of the
// link and appears nowhere else.
func (c *Client) SendMagicLink(toEmail, link string, tpl store.EmailTemplate) error {
	if !c.Configured() {
		return fmt.Errorf("email client not configured: missing server token")
	}

	textBody := fmt.Sprintf("%s\n\n%s\n\n%s\n%s", tpl.Heading, tpl.Body, tpl.Footer, link)
	htmlBody := fmt.Sprintf(
		`<h1>%s</h1><p>%s</p><p><a href="%s">%s</a></p><p>%s</p><p><a href="%s">%s</a></p>`,
		html.EscapeString(tpl.Heading),
		html.EscapeString(tpl.Body),
		link, html.EscapeString(tpl.ButtonText),
		html.EscapeString(tpl.Footer),
		link, link,
	)

	payload := postmarkEmail{
		From:     c.fromEmail,
		To:       toEmail,
		Subject:  tpl.Subject,
		HtmlBody: htmlBody,
		TextBody: textBody,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal email: %w", err)
	}

	req, err := http.NewRequest("POST", c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Postmark-Server-Token", c.serverToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("postmark API error: status %d", resp.StatusCode)
	}

	return nil
}
