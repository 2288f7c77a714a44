package connection

import (
	"context"
	"io"
)

// Connection executes calls against the protocol's fixed endpoint surface.
type Connection interface {
	// Send posts body to ep and decodes the JSON document answer into out,
	// which may be nil to discard it.
	Send(ctx context.Context, ep Endpoint, body, out any) error
	// Stream posts body to a streaming endpoint and returns the live body.
	// Reads fail with ErrTimeout once the call deadline passes; closing the
	// body releases the call.
	Stream(ctx context.Context, ep Endpoint, body any) (io.ReadCloser, error)
}

// Send is the typed form of Connection.Send.
func Send[Result any](ctx context.Context, c Connection, ep Endpoint, body any) (*Result, error) {
	var res Result
	if err := c.Send(ctx, ep, body, &res); err != nil {
		return nil, err
	}
	return &res, nil
}
