// Package notify delivers threshold alerts to sensor owners as Expo push
// notifications, either in-process or through a Pub/Sub worker.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/plantwatch/plantwatch/internal/provider/resilience"
)

// DefaultExpoPushURL is the Expo push API endpoint.
const DefaultExpoPushURL = "https://exp.host/--/api/v2/push/send"

// maxResponseBytes bounds how much of a push response is read.
const maxResponseBytes = 1 << 20

// PushMessage is a single Expo push message.
type PushMessage struct {
	To    string         `json:"to"`
	Sound string         `json:"sound,omitempty"`
	Title string         `json:"title"`
	Body  string         `json:"body"`
	Data  map[string]any `json:"data,omitempty"`
}

// PushTicket is Expo's per-message delivery receipt.
type PushTicket struct {
	Status  string         `json:"status"`
	ID      string         `json:"id,omitempty"`
	Message string         `json:"message,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// ExpoConfig holds configuration for the Expo client.
type ExpoConfig struct {
	// URL overrides DefaultExpoPushURL.
	URL string

	// AccessToken is sent as a bearer token when push security is enabled.
	AccessToken string

	// Client performs the HTTP calls.
	Client *resilience.Client
}

// ExpoClient sends push messages through the Expo push API.
type ExpoClient struct {
	url         string
	accessToken string
	client      *resilience.Client
}

// NewExpoClient creates a new Expo push client.
func NewExpoClient(cfg ExpoConfig) *ExpoClient {
	url := cfg.URL
	if url == "" {
		url = DefaultExpoPushURL
	}

	client := cfg.Client
	if client == nil {
		client = resilience.NewClient(resilience.DefaultClientConfig("expo"))
	}

	return &ExpoClient{
		url:         url,
		accessToken: cfg.AccessToken,
		client:      client,
	}
}

// Send delivers a message. It reports true when at least one returned ticket
// has status "ok". Transport failures and non-2xx responses are errors.
func (c *ExpoClient) Send(ctx context.Context, msg PushMessage) (bool, error) {
	payload, err := json.Marshal([]PushMessage{msg})
	if err != nil {
		return false, fmt.Errorf("encoding push message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return false, fmt.Errorf("creating push request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	if c.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.accessToken)
	}

	resp, err := c.client.Do(ctx, req)
	if err != nil {
		return false, fmt.Errorf("sending push: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return false, fmt.Errorf("reading push response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return false, &resilience.ServerError{StatusCode: resp.StatusCode}
	}

	tickets, err := decodeTickets(body)
	if err != nil {
		return false, err
	}

	for _, t := range tickets {
		if t.Status == "ok" {
			return true, nil
		}
	}
	return false, nil
}

// decodeTickets accepts {"data": [...]}, {"data": {...}} and a bare array.
func decodeTickets(body []byte) ([]PushTicket, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, fmt.Errorf("empty push response")
	}

	raw := json.RawMessage(body)
	if body[0] == '{' {
		var envelope struct {
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(body, &envelope); err != nil {
			return nil, fmt.Errorf("decoding push response: %w", err)
		}
		raw = bytes.TrimSpace(envelope.Data)
		if len(raw) == 0 {
			return nil, nil
		}
	}

	if raw[0] == '[' {
		var tickets []PushTicket
		if err := json.Unmarshal(raw, &tickets); err != nil {
			return nil, fmt.Errorf("decoding push tickets: %w", err)
		}
		return tickets, nil
	}

	var ticket PushTicket
	if err := json.Unmarshal(raw, &ticket); err != nil {
		return nil, fmt.Errorf("decoding push ticket: %w", err)
	}
	return []PushTicket{ticket}, nil
}
