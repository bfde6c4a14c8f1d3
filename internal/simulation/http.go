package simulation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"
)

// StatusError is a non-2xx answer from the service.
type StatusError struct {
	Status  int
	Code    string
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status %d: %s: %s", e.Status, e.Code, e.Message)
}

// client wraps http.Client and remembers the bearer token of each user.
type client struct {
	base string
	http *http.Client

	mu     sync.RWMutex
	tokens map[string]string
}

func newClient(base string, timeout time.Duration) *client {
	return &client{
		base:   base,
		http:   &http.Client{Timeout: timeout},
		tokens: make(map[string]string),
	}
}

func (c *client) token(user string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tokens[user]
}

func (c *client) setToken(user, token string) {
	c.mu.Lock()
	c.tokens[user] = token
	c.mu.Unlock()
}

// call sends body as JSON on behalf of user (empty for anonymous calls)
// and decodes a 2xx answer into out when out is non-nil.
func (c *client) call(ctx context.Context, method, path, user string, body, out any) error {
	var payload io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		payload = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, payload)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set("Authorization", "Bearer "+c.token(user))
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		var problem struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		_ = json.Unmarshal(data, &problem)
		return &StatusError{Status: resp.StatusCode, Code: problem.Code, Message: problem.Message}
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, out)
}
