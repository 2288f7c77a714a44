package connection

import (
	"fmt"

	"github.com/shhac/agent-notion-sub000/pkg/constants"
)

// ProtocolError is returned for every non-2xx response.
type ProtocolError struct {
	Status   int      `json:"status"`
	Endpoint Endpoint `json:"endpoint"`
	// BodySnippet holds at most the first ErrorBodySnippetLength bytes of the body.
	BodySnippet string `json:"bodySnippet,omitempty"`
}

func (e *ProtocolError) Error() string {
	if e.BodySnippet == "" {
		return fmt.Sprintf("%s: status %d", e.Endpoint, e.Status)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Endpoint, e.Status, e.BodySnippet)
}

func (e *ProtocolError) Is(target error) bool {
	if target == nil {
		return e == nil
	}

	_, ok := target.(*ProtocolError)
	return ok
}

func newProtocolError(ep Endpoint, status int, body []byte) *ProtocolError {
	if len(body) > constants.ErrorBodySnippetLength {
		body = body[:constants.ErrorBodySnippetLength]
	}
	return &ProtocolError{Status: status, Endpoint: ep, BodySnippet: string(body)}
}
