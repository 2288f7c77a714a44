// Package inference normalizes the event stream of an AI conversation call.
//
// The stream comes in one of two shapes. New conversations send cumulative
// agent-inference events, each carrying the whole answer so far. Continued
// conversations send a patch-start event with an initial slot array followed
// by patch events mutating it. Reconstructor turns both into the same
// sequence of cumulative events, and Accumulator folds that sequence into a
// Result.
package inference

import (
	"iter"

	"github.com/rs/zerolog"

	"github.com/shhac/agent-notion-sub000/pkg/ndjson"
)

// Source is a one-pass event iterator, satisfied by *ndjson.Decoder.
type Source interface {
	Next() bool
	Event() ndjson.Event
	Err() error
}

// Reconstructor yields normalized events from a raw Source. It owns the slot
// state of a patch-shaped stream for as long as it is iterated.
type Reconstructor struct {
	src     Source
	log     zerolog.Logger
	state   *SlotState
	current Event
}

// Option configures a Reconstructor.
type Option func(*Reconstructor)

// WithLogger reports dropped events and ignored patch ops at debug level.
func WithLogger(l zerolog.Logger) Option {
	return func(r *Reconstructor) {
		r.log = l
	}
}

func NewReconstructor(src Source, opts ...Option) *Reconstructor {
	r := &Reconstructor{src: src, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Next advances to the next normalized event.
func (r *Reconstructor) Next() bool {
	for r.src.Next() {
		raw := r.src.Event()
		if ev, ok := r.normalize(raw); ok {
			r.current = ev
			return true
		}
	}
	return false
}

// Event returns the event Next moved to.
func (r *Reconstructor) Event() Event {
	return r.current
}

// Err returns the error that ended the underlying source, if any.
func (r *Reconstructor) Err() error {
	return r.src.Err()
}

// State returns the slot state of a patch-shaped stream, or nil before any
// patch event has been seen.
func (r *Reconstructor) State() *SlotState {
	return r.state
}

// All adapts the reconstructor to a range-over-func sequence.
func (r *Reconstructor) All() iter.Seq[Event] {
	return func(yield func(Event) bool) {
		for r.Next() {
			if !yield(r.current) {
				return
			}
		}
	}
}

func (r *Reconstructor) normalize(raw ndjson.Event) (Event, bool) {
	kind := raw.Type()
	switch kind {
	case TypeAgentInference:
		var inf InferenceEvent
		if err := raw.Decode(&inf); err != nil {
			r.log.Debug().Err(err).Msg("dropping malformed agent-inference event")
			return Event{}, false
		}
		return Event{Kind: kind, Inference: &inf, Raw: raw}, true

	case TypeTitle:
		var t titleEvent
		if err := raw.Decode(&t); err != nil {
			r.log.Debug().Err(err).Msg("dropping malformed title event")
			return Event{}, false
		}
		return Event{Kind: kind, Title: t.Value, Raw: raw}, true

	case TypePatchStart:
		var ps patchStartEvent
		if err := raw.Decode(&ps); err != nil {
			r.log.Debug().Err(err).Msg("dropping malformed patch-start event")
			return Event{}, false
		}
		r.state = NewSlotState(ps.Data.S, ps.Version)
		r.state.log = r.log
		return Event{}, false

	case TypePatch:
		var p patchEvent
		if err := raw.Decode(&p); err != nil {
			r.log.Debug().Err(err).Msg("dropping malformed patch event")
			return Event{}, false
		}
		if r.state == nil {
			// A patch without a preceding patch-start works on an empty array.
			r.state = NewSlotState(nil, 0)
			r.state.log = r.log
		}
		r.state.ApplyBatch(p.V)
		inf, ok := r.state.InferenceSlot()
		if !ok {
			return Event{}, false
		}
		return Event{Kind: TypeAgentInference, Inference: inf, Raw: raw}, true

	default:
		return Event{Kind: kind, Raw: raw}, true
	}
}
