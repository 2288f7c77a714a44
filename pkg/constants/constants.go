package constants

import "time"

const (
	// DefaultBaseURL is the host serving the internal protocol.
	DefaultBaseURL = "https://www.notion.so"
	// APIPath is the versioned prefix every endpoint lives under.
	APIPath = "/api/v3/"

	// DefaultTimeout applies to ordinary single-document calls.
	DefaultTimeout = 30 * time.Second
	// DefaultSlowTimeout applies to the calls known to be slow (inference, exports).
	DefaultSlowTimeout = 120 * time.Second

	// ErrorBodySnippetLength bounds the response body kept on a ProtocolError.
	ErrorBodySnippetLength = 512

	// ChildFetchConcurrency bounds the number of syncRecordValues calls in flight
	// when loading the children of one block.
	ChildFetchConcurrency = 4
	// ChildFetchBatchSize is the number of pointers sent in one syncRecordValues call.
	ChildFetchBatchSize = 50
)

const (
	HeaderActiveUser = "x-notion-active-user-header"
	HeaderSpaceID    = "x-notion-space-id"
	TokenCookieName  = "token_v2"
)
