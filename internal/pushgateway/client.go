// Copyright 2026 Canonical Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package pushgateway implements the push.Notifier capability against
// the HTTP gateway that fronts the actual delivery transport. The
// gateway owns device-level concerns (token validity, platform quirks,
// any transport retry); this client just reports its counts.
package pushgateway

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/juju/errors"

	"github.com/juju/tracknotify/core/push"
)

const defaultTimeout = 30 * time.Second

// Client posts multicast sends to a push gateway.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient returns a client for the gateway at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: defaultTimeout},
	}
}

type multicastRequest struct {
	Title   string            `json:"title"`
	Body    string            `json:"body"`
	Data    map[string]string `json:"data,omitempty"`
	Targets []string          `json:"targets"`
}

type multicastResponse struct {
	Success int `json:"success"`
	Failure int `json:"failure"`
}

// SendMulticast implements push.Notifier. Per-target failures come
// back in the result counts; only a failure of the whole call is an
// error.
func (c *Client) SendMulticast(ctx context.Context, msg push.Message, targets []string) (push.Result, error) {
	payload, err := json.Marshal(multicastRequest{
		Title:   msg.Title,
		Body:    msg.Body,
		Data:    msg.Data,
		Targets: targets,
	})
	if err != nil {
		return push.Result{}, errors.Trace(err)
	}
	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/v1/multicast", bytes.NewReader(payload))
	if err != nil {
		return push.Result{}, errors.Trace(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return push.Result{}, errors.Annotate(err, "posting multicast")
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return push.Result{}, errors.Errorf("push gateway returned %s", resp.Status)
	}
	var decoded multicastResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return push.Result{}, errors.Annotate(err, "decoding multicast response")
	}
	return push.Result{
		Success: decoded.Success,
		Failure: decoded.Failure,
	}, nil
}
