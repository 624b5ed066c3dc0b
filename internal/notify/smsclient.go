package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// SMSClient calls an SMS gateway sidecar. With Skip set it only logs the
// message, which is the default in dev and mirrors having no gateway at
// all.
type SMSClient struct {
	BaseURL string
	HTTP    *http.Client
	Skip    bool
}

// NewSMSClient creates a client.
func NewSMSClient(baseURL string, skip bool) *SMSClient {
	return &SMSClient{
		BaseURL: baseURL,
		Skip:    skip,
		HTTP:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Send posts one message to the gateway.
func (c *SMSClient) Send(ctx context.Context, phone, message string) error {
	if c.Skip {
		log.Printf("sms skipped, would send to %s: %s", phone, message)
		return nil
	}
	if phone == "" {
		return fmt.Errorf("phone number required")
	}

	body, _ := json.Marshal(map[string]string{"to": phone, "message": message})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/messages", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("sms gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("sms gateway error %s: %s", resp.Status, string(respBody))
	}
	return nil
}

// Health checks if the gateway is reachable.
func (c *SMSClient) Health(ctx context.Context) error {
	if c.Skip {
		return nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("sms gateway unavailable: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("sms gateway unhealthy: %s", resp.Status)
	}
	return nil
}
