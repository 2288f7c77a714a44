package notion

import (
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/shhac/agent-notion-sub000/pkg/connection"
)

// Client calls the internal protocol on behalf of one user in one space.
// It holds no mutable state and is safe for concurrent use.
type Client struct {
	con   connection.Connection
	creds connection.Credentials
	log   zerolog.Logger

	newID func() string
	now   func() time.Time
}

// New creates a Client over HTTPS from cfg.
func New(cfg *connection.Config) *Client {
	return FromConnection(connection.New(cfg), cfg.Credentials, cfg.Logger)
}

// FromConnection creates a Client over an existing Connection. creds must be
// the identifiers the connection sends; they also fill the space and user
// fields of request bodies.
func FromConnection(con connection.Connection, creds connection.Credentials, log zerolog.Logger) *Client {
	return &Client{
		con:   con,
		creds: creds,
		log:   log,
		newID: uuid.NewString,
		now:   time.Now,
	}
}

// Connection returns the underlying connection, for calls the Client does
// not wrap.
func (c *Client) Connection() connection.Connection {
	return c.con
}
