// Package sms wraps the external SMS gateway behind the one call the
// rest of the system needs.
package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Sender delivers a one-time code to a phone number.
type Sender interface {
	Send(ctx context.Context, phone, code string) error
}

// Client posts messages to an HTTP SMS gateway. A zero GatewayURL makes
// Send a no-op, which keeps local development working without a
// provider account.
type Client struct {
	GatewayURL string
	APIKey     string
	HTTP       *http.Client
}

func NewClient(gatewayURL, apiKey string) *Client {
	return &Client{
		GatewayURL: gatewayURL,
		APIKey:     apiKey,
		HTTP:       &http.Client{Timeout: 10 * time.Second},
	}
}

type sendRequest struct {
	To      string `json:"to"`
	Message string `json:"message"`
}

// Send posts the code to the gateway. A timeout or non-2xx status is
// returned to the caller, which treats it as retryable.
func (c *Client) Send(ctx context.Context, phone, code string) error {
	if c.GatewayURL == "" {
		return nil
	}
	body, err := json.Marshal(sendRequest{
		To:      phone,
		Message: fmt.Sprintf("Your Lokvarta verification code is %s. It expires in 5 minutes.", code),
	})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.GatewayURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("sms gateway returned status %d", resp.StatusCode)
	}
	return nil
}
