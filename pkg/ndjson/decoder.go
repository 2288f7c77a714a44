// Package ndjson reads a stream of newline separated JSON values.
//
// A Decoder is a lazy, single pass iterator in the style of bufio.Scanner.
// Lines that are not valid JSON are dropped and the iteration continues; only
// a failure of the underlying reader ends it early.
package ndjson

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"iter"

	"github.com/buger/jsonparser"
	"github.com/rs/zerolog"
)

// Event is one decoded line. It holds the validated raw JSON so consumers can
// peek at the type cheaply and decode only what they need.
type Event struct {
	raw json.RawMessage
}

// NewEvent wraps already validated JSON.
func NewEvent(raw json.RawMessage) Event {
	return Event{raw: raw}
}

// Raw returns the JSON text of the line.
func (e Event) Raw() json.RawMessage {
	return e.raw
}

// Type returns the top level "type" string, or "" when there is none.
func (e Event) Type() string {
	t, err := jsonparser.GetString(e.raw, "type")
	if err != nil {
		return ""
	}
	return t
}

// Decode unmarshals the line into v.
func (e Event) Decode(v any) error {
	return json.Unmarshal(e.raw, v)
}

// Decoder splits r on line feeds and yields every line that parses as JSON.
type Decoder struct {
	r       *bufio.Reader
	log     zerolog.Logger
	current Event
	err     error
	done    bool
	line    int
	skipped int
}

// Option configures a Decoder.
type Option func(*Decoder)

// WithLogger reports skipped lines at debug level.
func WithLogger(l zerolog.Logger) Option {
	return func(d *Decoder) {
		d.log = l
	}
}

func NewDecoder(r io.Reader, opts ...Option) *Decoder {
	d := &Decoder{
		r:   bufio.NewReader(r),
		log: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Next advances to the next valid event. It returns false once the stream is
// exhausted or the reader fails; Err tells the two apart.
func (d *Decoder) Next() bool {
	for !d.done {
		// ReadBytes keeps partial lines buffered across reads and has no
		// line length limit, unlike bufio.Scanner.
		line, err := d.r.ReadBytes('\n')
		if err != nil {
			d.done = true
			if !errors.Is(err, io.EOF) {
				d.err = err
			}
		}

		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		d.line++
		if !json.Valid(line) {
			d.skipped++
			d.log.Debug().Int("line", d.line).Int("bytes", len(line)).Msg("skipping malformed event line")
			continue
		}
		d.current = Event{raw: append(json.RawMessage(nil), line...)}
		return true
	}
	return false
}

// Event returns the event Next moved to.
func (d *Decoder) Event() Event {
	return d.current
}

// Err returns the reader error that ended the stream, if any.
func (d *Decoder) Err() error {
	return d.err
}

// Skipped counts the lines dropped because they were not valid JSON.
func (d *Decoder) Skipped() int {
	return d.skipped
}

// All adapts the decoder to a range-over-func sequence. The sequence can only
// be ranged over once; check Err afterwards.
func (d *Decoder) All() iter.Seq[Event] {
	return func(yield func(Event) bool) {
		for d.Next() {
			if !yield(d.current) {
				return
			}
		}
	}
}
