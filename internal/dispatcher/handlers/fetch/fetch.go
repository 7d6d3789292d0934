// Package fetch retrieves URLs for the ":get" command.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"

	"github.com/dshills/ctrlshell/internal/command"
	"github.com/dshills/ctrlshell/internal/dispatcher/execctx"
	"github.com/dshills/ctrlshell/internal/dispatcher/handler"
)

// ErrUnsupportedScheme is returned for URLs that are not http or https.
var ErrUnsupportedScheme = errors.New("unsupported URL scheme")

// EmptyBodyText is shown for responses without a body.
const EmptyBodyText = "(empty body)\n"

// StatusError reports a response with status 400 or above.
type StatusError struct {
	URL    string
	Status string
	Code   int
	Body   string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: %s", e.URL, e.Status)
}

// Kind names the failure for error reports.
func (e *StatusError) Kind() string {
	return "StatusError"
}

// Detail returns the response body.
func (e *StatusError) Detail() string {
	return e.Body
}

// Handler fetches URLs.
type Handler struct{}

// NewHandler creates a new fetch handler.
func NewHandler() *Handler {
	return &Handler{}
}

// Handle implements handler.Handler.
func (h *Handler) Handle(ctx context.Context, cmd command.Command, ec *execctx.ExecutionContext) handler.Result {
	if err := ec.Validate(); err != nil {
		return handler.Error(err)
	}
	if cmd.Arg == "" {
		return handler.Error(handler.MissingArgument(cmd.Kind))
	}

	target, err := normalize(cmd.Arg)
	if err != nil {
		return handler.Error(err)
	}

	cfg := ec.Config.Fetch
	if cfg.Timeout.Duration > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout.Duration)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return handler.Error(err)
	}
	if cfg.UserAgent != "" {
		req.Header.Set("User-Agent", cfg.UserAgent)
	}

	client := ec.HTTP
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return handler.Error(err)
	}
	defer resp.Body.Close()

	body, err := readBody(resp.Body, cfg.MaxBytes)
	if err != nil {
		return handler.Error(fmt.Errorf("read %s: %w", target, err))
	}

	ec.Logger.Debug("fetched url",
		"url", target,
		"status", resp.StatusCode,
		"bytes", len(body),
	)

	if resp.StatusCode >= http.StatusBadRequest {
		return handler.Error(&StatusError{
			URL:    target,
			Status: resp.Status,
			Code:   resp.StatusCode,
			Body:   body,
		})
	}

	if body == "" {
		body = EmptyBodyText
	}
	view, err := ec.Show(target, body)
	if err != nil {
		return handler.Error(err)
	}
	return handler.Shown(view).WithData("status", resp.StatusCode)
}

// normalize adds a missing scheme and rejects anything but http(s).
func normalize(raw string) (string, error) {
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedScheme, u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid URL %q: missing host", raw)
	}
	return u.String(), nil
}

// readBody reads up to limit bytes. JSON bodies are pretty-printed.
func readBody(r io.Reader, limit int64) (string, error) {
	if limit <= 0 {
		limit = 1 << 20
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return "", err
	}

	truncated := int64(len(data)) > limit
	if truncated {
		data = data[:limit]
	} else if gjson.ValidBytes(data) {
		data = pretty.Pretty(data)
	}

	text := string(data)
	if truncated {
		text += fmt.Sprintf("\n[truncated at %d bytes]\n", limit)
	}
	return text, nil
}
