package inference

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shhac/agent-notion-sub000/pkg/ndjson"
)

// Wire event types.
const (
	TypeAgentInference = "agent-inference"
	TypeTitle          = "title"
	TypeRecordMap      = "record-map"
	TypePatchStart     = "patch-start"
	TypePatch          = "patch"
)

// ValueEntry is one typed entry of an inference payload. Only "text" entries
// carry answer text; others ("thinking", tool calls) are ignored.
type ValueEntry struct {
	Type    string `json:"type"`
	Content string `json:"content"`

	// Data holds content that is not a string, as tool and thinking entries
	// may carry.
	Data json.RawMessage `json:"-"`
}

func (v *ValueEntry) UnmarshalJSON(data []byte) error {
	var wire struct {
		Type    string          `json:"type"`
		Content json.RawMessage `json:"content"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}

	*v = ValueEntry{Type: wire.Type}
	content := bytes.TrimSpace(wire.Content)
	switch {
	case len(content) == 0 || bytes.Equal(content, []byte("null")):
		return nil
	case content[0] == '"':
		return json.Unmarshal(content, &v.Content)
	default:
		v.Data = append(json.RawMessage(nil), content...)
		return nil
	}
}

// InferenceEvent is the cumulative state of the answer so far.
type InferenceEvent struct {
	Type             string       `json:"type"`
	ID               string       `json:"id,omitempty"`
	Value            []ValueEntry `json:"value"`
	TraceID          string       `json:"traceId,omitempty"`
	StartedAt        any          `json:"startedAt,omitempty"`
	FinishedAt       any          `json:"finishedAt,omitempty"`
	InputTokens      *int         `json:"inputTokens,omitempty"`
	OutputTokens     *int         `json:"outputTokens,omitempty"`
	CachedTokensRead *int         `json:"cachedTokensRead,omitempty"`
	Model            string       `json:"model,omitempty"`
}

// Text joins the content of the "text" entries.
func (e *InferenceEvent) Text() string {
	var sb strings.Builder
	for _, v := range e.Value {
		if v.Type == "text" {
			sb.WriteString(v.Content)
		}
	}
	return sb.String()
}

// Finished reports whether this is the terminal event of the run.
func (e *InferenceEvent) Finished() bool {
	return e.FinishedAt != nil
}

type titleEvent struct {
	Value string `json:"value"`
}

type patchStartEvent struct {
	Data struct {
		S []any `json:"s"`
	} `json:"data"`
	Version int64 `json:"version"`
}

type patchEvent struct {
	V []PatchOp `json:"v"`
}

// Event is one element of the normalized sequence. Exactly one of Inference
// and Title is set for the matching kinds; every other kind (record-map and
// anything unrecognized) is passed through with only Raw.
type Event struct {
	Kind      string
	Inference *InferenceEvent
	Title     string
	Raw       ndjson.Event
}

// decodeInference converts a generic JSON value into an InferenceEvent,
// reporting false when it is not shaped like one.
func decodeInference(v any) (*InferenceEvent, bool) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, false
	}
	var ev InferenceEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, false
	}
	if ev.Type != TypeAgentInference {
		return nil, false
	}
	return &ev, true
}
