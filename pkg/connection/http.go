package connection

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/shhac/agent-notion-sub000/pkg/constants"
)

// HTTP is the Connection over HTTPS POST.
type HTTP struct {
	baseURL     string
	creds       Credentials
	timeout     time.Duration
	slowTimeout time.Duration

	httpClient *http.Client
	log        zerolog.Logger
}

var _ Connection = (*HTTP)(nil)

func New(p *Config) *HTTP {
	con := HTTP{
		baseURL:     strings.TrimRight(p.BaseURL, "/"),
		creds:       p.Credentials,
		timeout:     p.Timeout,
		slowTimeout: p.SlowTimeout,
		httpClient:  p.HTTPClient,
		log:         p.Logger,
	}

	if con.timeout <= 0 {
		con.timeout = constants.DefaultTimeout
	}
	if con.slowTimeout <= 0 {
		con.slowTimeout = constants.DefaultSlowTimeout
	}
	if con.httpClient == nil {
		con.httpClient = &http.Client{}
	}

	return &con
}

func (h *HTTP) SetTimeout(timeout time.Duration) *HTTP {
	h.timeout = timeout
	return h
}

func (h *HTTP) SetSlowTimeout(timeout time.Duration) *HTTP {
	h.slowTimeout = timeout
	return h
}

func (h *HTTP) SetHTTPClient(client *http.Client) *HTTP {
	h.httpClient = client
	return h
}

// Credentials returns the identifiers the connection attaches to each call.
func (h *HTTP) Credentials() Credentials {
	return h.creds
}

func (h *HTTP) Send(ctx context.Context, ep Endpoint, body, out any) error {
	if err := h.check(ep); err != nil {
		return err
	}
	if ep.Streaming() {
		return fmt.Errorf("%w: %s", constants.ErrStreamingOnly, ep)
	}

	ctx, cancel := context.WithTimeout(ctx, h.deadline(ep))
	defer cancel()

	resp, err := h.do(ctx, ep, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return classify(ctx, ep, err)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %s: %w", constants.ErrInvalidResponse, ep, err)
	}
	return nil
}

func (h *HTTP) Stream(ctx context.Context, ep Endpoint, body any) (io.ReadCloser, error) {
	if err := h.check(ep); err != nil {
		return nil, err
	}
	if !ep.Streaming() {
		return nil, fmt.Errorf("%w: %s", constants.ErrNotStreaming, ep)
	}

	ctx, cancel := context.WithTimeout(ctx, h.deadline(ep))
	resp, err := h.do(ctx, ep, body)
	if err != nil {
		cancel()
		return nil, err
	}

	return &streamBody{body: resp.Body, ctx: ctx, cancel: cancel, ep: ep}, nil
}

// check rejects a call before any network I/O.
func (h *HTTP) check(ep Endpoint) error {
	if !ep.Valid() {
		return fmt.Errorf("%w: %q", constants.ErrUnknownEndpoint, string(ep))
	}
	if h.baseURL == "" {
		return constants.ErrNoBaseURL
	}
	if h.creds.Token == "" {
		return constants.ErrNoCredentials
	}
	return nil
}

func (h *HTTP) deadline(ep Endpoint) time.Duration {
	if ep.Slow() {
		return h.slowTimeout
	}
	return h.timeout
}

// do sends the request and returns the response of a 2xx answer. Any other
// status is drained into a ProtocolError.
func (h *HTTP) do(ctx context.Context, ep Endpoint, body any) (*http.Response, error) {
	if body == nil {
		body = struct{}{}
	}
	reqBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("%s: encoding request: %w", ep, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+ep.path(), bytes.NewReader(reqBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if ep.Streaming() {
		req.Header.Set("Accept", "application/x-ndjson")
	} else {
		req.Header.Set("Accept", "application/json")
	}
	req.AddCookie(&http.Cookie{Name: constants.TokenCookieName, Value: h.creds.Token})
	if h.creds.UserID != "" {
		req.Header.Set(constants.HeaderActiveUser, h.creds.UserID)
	}
	if h.creds.SpaceID != "" {
		req.Header.Set(constants.HeaderSpaceID, h.creds.SpaceID)
	}

	start := time.Now()
	resp, err := h.httpClient.Do(req)
	if err != nil {
		return nil, classify(ctx, ep, err)
	}

	h.log.Debug().
		Str("endpoint", ep.String()).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Bool("stream", ep.Streaming()).
		Msg("protocol call")

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}

	defer resp.Body.Close()
	snippet, err := io.ReadAll(io.LimitReader(resp.Body, constants.ErrorBodySnippetLength))
	if err != nil {
		return nil, classify(ctx, ep, err)
	}
	perr := newProtocolError(ep, resp.StatusCode, snippet)
	h.log.Warn().Err(perr).Str("endpoint", ep.String()).Int("status", resp.StatusCode).Msg("protocol error")
	return nil, perr
}

// classify marks errors caused by the call deadline as timeouts.
func classify(ctx context.Context, ep Endpoint, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s: %w", constants.ErrTimeout, ep, err)
	}
	return fmt.Errorf("%s: %w", ep, err)
}

// streamBody ties the lifetime of a call deadline to its response body.
type streamBody struct {
	body   io.ReadCloser
	ctx    context.Context
	cancel context.CancelFunc
	ep     Endpoint
}

func (s *streamBody) Read(p []byte) (int, error) {
	n, err := s.body.Read(p)
	if err != nil && !errors.Is(err, io.EOF) {
		err = classify(s.ctx, s.ep, err)
	}
	return n, err
}

func (s *streamBody) Close() error {
	defer s.cancel()
	return s.body.Close()
}
