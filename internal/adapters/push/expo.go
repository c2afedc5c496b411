package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"stayhub/internal/adapters/observability"
)

type message struct {
	To    string         `json:"to"`
	Sound string         `json:"sound"`
	Title string         `json:"title"`
	Body  string         `json:"body"`
	Data  map[string]any `json:"data,omitempty"`
}

// Sender delivers Expo-style push notifications.
type Sender struct {
	url  string
	http *retryablehttp.Client
}

func New(url string) *Sender {
	rc := retryablehttp.NewClient()
	rc.RetryWaitMin = 100 * time.Millisecond
	rc.RetryWaitMax = 900 * time.Millisecond
	rc.RetryMax = 3
	rc.HTTPClient.Timeout = 6 * time.Second
	rc.Logger = nil
	return &Sender{url: url, http: rc}
}

func (s *Sender) Push(ctx context.Context, token, title, body string, data map[string]any) error {
	payload, err := json.Marshal(message{To: token, Sound: "default", Title: title, Body: body, Data: data})
	if err != nil {
		return err
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := s.http.Do(req)
	if err != nil {
		observability.ObserveExternal("push", "send", 0, time.Since(start))
		return err
	}
	defer resp.Body.Close()
	observability.ObserveExternal("push", "send", resp.StatusCode, time.Since(start))

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("push service status %d", resp.StatusCode)
	}
	return nil
}
