package notion

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/shhac/agent-notion-sub000/pkg/connection"
)

var testCredentials = connection.Credentials{Token: "tok", UserID: "user-1", SpaceID: "space-1"}

type recordedCall struct {
	Endpoint connection.Endpoint
	Body     json.RawMessage
}

// fakeConnection answers calls from a per-endpoint handler and records every
// request body.
type fakeConnection struct {
	mu       sync.Mutex
	calls    []recordedCall
	handlers map[connection.Endpoint]func(body json.RawMessage) (string, error)
}

var _ connection.Connection = (*fakeConnection)(nil)

func newFakeConnection() *fakeConnection {
	return &fakeConnection{handlers: map[connection.Endpoint]func(json.RawMessage) (string, error){}}
}

func (f *fakeConnection) on(ep connection.Endpoint, fn func(body json.RawMessage) (string, error)) {
	f.handlers[ep] = fn
}

func (f *fakeConnection) reply(ep connection.Endpoint, response string) {
	f.on(ep, func(json.RawMessage) (string, error) { return response, nil })
}

func (f *fakeConnection) call(ep connection.Endpoint, body any) (string, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return "", err
	}

	f.mu.Lock()
	f.calls = append(f.calls, recordedCall{Endpoint: ep, Body: data})
	handler, ok := f.handlers[ep]
	f.mu.Unlock()

	if !ok {
		return "", fmt.Errorf("no handler for %s", ep)
	}
	return handler(data)
}

func (f *fakeConnection) Send(ctx context.Context, ep connection.Endpoint, body, out any) error {
	res, err := f.call(ep, body)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal([]byte(res), out)
}

func (f *fakeConnection) Stream(ctx context.Context, ep connection.Endpoint, body any) (io.ReadCloser, error) {
	res, err := f.call(ep, body)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(strings.NewReader(res)), nil
}

func (f *fakeConnection) callsTo(ep connection.Endpoint) []recordedCall {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []recordedCall
	for _, c := range f.calls {
		if c.Endpoint == ep {
			out = append(out, c)
		}
	}
	return out
}

// newTestClient returns a Client with deterministic ids and clock.
func newTestClient(t *testing.T, con connection.Connection) *Client {
	t.Helper()
	c := FromConnection(con, testCredentials, zerolog.Nop())

	var mu sync.Mutex
	n := 0
	c.newID = func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("id-%d", n)
	}
	c.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	require.NotNil(t, c)
	return c
}
