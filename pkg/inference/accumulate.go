package inference

import (
	"strings"
	"unicode"
)

// languageMarker opens the detected-language tag the service prefixes
// answers with, e.g. `<lang primary="en-US"/>`.
const languageMarker = "<lang"

// TokenUsage is reported on the terminal inference event.
type TokenUsage struct {
	InputTokens      int `json:"inputTokens"`
	OutputTokens     int `json:"outputTokens"`
	CachedTokensRead int `json:"cachedTokensRead"`
}

// Result is what one conversation turn produced.
type Result struct {
	ResponseText string      `json:"responseText"`
	Title        string      `json:"title,omitempty"`
	Model        string      `json:"model,omitempty"`
	TokenUsage   *TokenUsage `json:"tokenUsage,omitempty"`
	TraceID      string      `json:"traceId,omitempty"`
	// ThreadID is set by the caller that started the run.
	ThreadID     string      `json:"threadId,omitempty"`
}

// Sink receives text as it grows. Each call carries only the new suffix.
type Sink func(delta string)

// Accumulator folds normalized events into a Result, optionally feeding a
// Sink with incremental display text.
type Accumulator struct {
	sink     Sink
	raw      string
	emitted  string
	title    string
	model    string
	usage    *TokenUsage
	traceID  string
	finished bool
}

func NewAccumulator(sink Sink) *Accumulator {
	return &Accumulator{sink: sink}
}

// Observe consumes one event.
func (a *Accumulator) Observe(ev Event) {
	switch {
	case ev.Inference != nil:
		a.observeInference(ev.Inference)
	case ev.Kind == TypeTitle:
		a.title = ev.Title
	}
}

func (a *Accumulator) observeInference(inf *InferenceEvent) {
	a.raw = inf.Text()
	if inf.TraceID != "" {
		a.traceID = inf.TraceID
	}
	if inf.Finished() {
		a.finished = true
		a.model = inf.Model
		a.usage = &TokenUsage{
			InputTokens:      derefInt(inf.InputTokens),
			OutputTokens:     derefInt(inf.OutputTokens),
			CachedTokensRead: derefInt(inf.CachedTokensRead),
		}
	}
	a.emit()
}

func (a *Accumulator) emit() {
	if a.sink == nil {
		return
	}
	display, pending := stripLanguageMarker(a.raw)
	if pending {
		return
	}
	if !strings.HasPrefix(display, a.emitted) {
		// The service rewrote earlier text. A sink can only be appended to,
		// so resynchronize on the new text without replaying it.
		a.emitted = display
		return
	}
	if delta := display[len(a.emitted):]; delta != "" {
		a.emitted = display
		a.sink(delta)
	}
}

// Finished reports whether the terminal inference event has been seen.
func (a *Accumulator) Finished() bool {
	return a.finished
}

// Result returns the state accumulated so far. A language marker that never
// closed is left in the text.
func (a *Accumulator) Result() Result {
	text, pending := stripLanguageMarker(a.raw)
	if pending {
		text = a.raw
	}
	return Result{
		ResponseText: text,
		Title:        a.title,
		Model:        a.model,
		TokenUsage:   a.usage,
		TraceID:      a.traceID,
	}
}

// Events is a one-pass iterator over normalized events, satisfied by
// *Reconstructor.
type Events interface {
	Next() bool
	Event() Event
	Err() error
}

// Accumulate drains src into a Result. The error is the one that ended the
// source early, in which case the partial Result is still returned.
func Accumulate(src Events, sink Sink) (Result, error) {
	acc := NewAccumulator(sink)
	for src.Next() {
		acc.Observe(src.Event())
	}
	return acc.Result(), src.Err()
}

// stripLanguageMarker removes a leading language tag and the whitespace after
// it. pending is true while the text is a prefix of the marker or the tag has
// opened but not yet closed.
func stripLanguageMarker(text string) (display string, pending bool) {
	if len(text) <= len(languageMarker) {
		if text != "" && strings.HasPrefix(languageMarker, text) {
			return "", true
		}
		return text, false
	}
	if !strings.HasPrefix(text, languageMarker) || !isMarkerDelimiter(text[len(languageMarker)]) {
		return text, false
	}
	end := strings.IndexByte(text, '>')
	if end < 0 {
		return "", true
	}
	return strings.TrimLeftFunc(text[end+1:], unicode.IsSpace), false
}

// isMarkerDelimiter reports whether c ends the element name of the marker,
// so that tags like <language> are left alone.
func isMarkerDelimiter(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '/', '>':
		return true
	}
	return false
}

func derefInt(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
