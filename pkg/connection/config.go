package connection

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/shhac/agent-notion-sub000/pkg/constants"
)

// Credentials are resolved by the caller; the transport only attaches them.
type Credentials struct {
	// Token is the session token, sent as the token_v2 cookie.
	Token string
	// UserID selects the acting user.
	UserID string
	// SpaceID selects the workspace.
	SpaceID string
}

type Config struct {
	BaseURL     string
	Credentials Credentials

	// Timeout is the deadline of an ordinary call, SlowTimeout that of the
	// endpoints reporting Slow. Zero means the package default.
	Timeout     time.Duration
	SlowTimeout time.Duration

	// HTTPClient is used as is when set. Deadlines come from the per-call
	// context, so it should not carry a Timeout that would cut streams short.
	HTTPClient *http.Client
	Logger     zerolog.Logger
}

// NewConfig creates a Config for the host of u with the package defaults.
// Only the scheme and host of u are kept.
func NewConfig(u *url.URL, creds Credentials) *Config {
	return &Config{
		BaseURL:     fmt.Sprintf("%s://%s", u.Scheme, u.Host),
		Credentials: creds,
		Timeout:     constants.DefaultTimeout,
		SlowTimeout: constants.DefaultSlowTimeout,
		Logger:      zerolog.Nop(),
	}
}
