package connection

import (
	"slices"

	"github.com/shhac/agent-notion-sub000/pkg/constants"
)

// Endpoint is the name of one call of the internal protocol, as it appears
// in the URL after the versioned base path.
type Endpoint string

const (
	LoadPageChunk          Endpoint = "loadPageChunk"
	SyncRecordValues       Endpoint = "syncRecordValues"
	GetBacklinksForBlock   Endpoint = "getBacklinksForBlock"
	GetActivityLog         Endpoint = "getActivityLog"
	QueryCollection        Endpoint = "queryCollection"
	SaveTransactions       Endpoint = "saveTransactions"
	GetSpaces              Endpoint = "getSpaces"
	RunInferenceTranscript Endpoint = "runInferenceTranscript"
)

type endpointTraits struct {
	slow      bool
	streaming bool
}

var endpoints = map[Endpoint]endpointTraits{
	LoadPageChunk:          {},
	SyncRecordValues:       {},
	GetBacklinksForBlock:   {},
	GetActivityLog:         {},
	QueryCollection:        {slow: true},
	SaveTransactions:       {},
	GetSpaces:              {},
	RunInferenceTranscript: {slow: true, streaming: true},
}

// Endpoints lists every endpoint the transport accepts, sorted by name.
func Endpoints() []Endpoint {
	out := make([]Endpoint, 0, len(endpoints))
	for ep := range endpoints {
		out = append(out, ep)
	}
	slices.Sort(out)
	return out
}

func (e Endpoint) Valid() bool {
	_, ok := endpoints[e]
	return ok
}

// Slow reports whether the endpoint runs under the longer deadline.
func (e Endpoint) Slow() bool {
	return endpoints[e].slow
}

// Streaming reports whether the endpoint answers with an NDJSON stream.
func (e Endpoint) Streaming() bool {
	return endpoints[e].streaming
}

func (e Endpoint) String() string {
	return string(e)
}

func (e Endpoint) path() string {
	return constants.APIPath + string(e)
}
