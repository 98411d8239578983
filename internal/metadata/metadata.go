// Package metadata is the client of the media service's /info endpoint.
package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"ultradl/internal/consts"
	"ultradl/internal/entity"
	"ultradl/internal/errs"
	"ultradl/pkg/urls"
)

// Client fetches media descriptors.
type Client struct {
	log     *slog.Logger
	client  *http.Client
	base    string
	timeout time.Duration
}

// New returns a client for the service at base.
func New(log *slog.Logger, client *http.Client, base string, timeout time.Duration) *Client {
	return &Client{
		log:     log.With(slog.String("package", "metadata")),
		client:  client,
		base:    base,
		timeout: timeout,
	}
}

// InfoURL is the request URL for target.
func (c *Client) InfoURL(target string) string {
	return urls.Endpoint(c.base, consts.PathInfo, url.Values{consts.QueryURL: {target}})
}

// Info describes target. Non-2xx answers become *errs.ServiceError carrying the
// service's own message; network failures become *errs.TransportError.
func (c *Client) Info(ctx context.Context, target string) (*entity.MediaDescriptor, error) {
	log := c.log.With(slog.String("func", "Info"))

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.InfoURL(target), nil)
	if err != nil {
		return nil, &errs.TransportError{Op: "new request", Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		var ue *url.Error
		if errors.As(err, &ue) {
			err = ue.Err
		}

		return nil, &errs.TransportError{Op: "do", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, consts.ErrorBodyLimit))

		return nil, &errs.ServiceError{
			Service:    consts.ServiceInfo,
			StatusCode: resp.StatusCode,
			Message:    errorMessage(body, resp.StatusCode),
		}
	}

	var desc entity.MediaDescriptor
	if err := json.NewDecoder(resp.Body).Decode(&desc); err != nil {
		return nil, &errs.ServiceError{
			Service:    consts.ServiceInfo,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("malformed info response: %v", err),
		}
	}

	log.DebugContext(ctx, "info loaded", slog.Any("descriptor", desc))

	return &desc, nil
}

// errorMessage prefers the "error" field of a JSON body and falls back to the raw text.
func errorMessage(body []byte, status int) string {
	var obj struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &obj) == nil && obj.Error != "" {
		return obj.Error
	}

	if text := strings.TrimSpace(string(body)); text != "" {
		return text
	}

	return fmt.Sprintf("HTTP error! status: %d", status)
}
