package inference

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

// Patch operation codes observed on the wire.
const (
	OpAdd        = "a"
	OpAppendText = "x"
	OpRemove     = "r"
)

var (
	errBadPath       = errors.New("path is not rooted at /s")
	errUnresolvable  = errors.New("path does not resolve")
	errNotString     = errors.New("append-text target is not a string")
	errUnsupportedOp = errors.New("unsupported patch op")
)

// PatchOp is one mutation of the slot array.
type PatchOp struct {
	Op    string `json:"o"`
	Path  string `json:"p"`
	Value any    `json:"v,omitempty"`
}

// SlotState is the working state of one patch-shaped stream: the slot array
// and the number of batches applied on top of the starting version. It is
// owned by a single Reconstructor for the duration of one call.
type SlotState struct {
	slots   []any
	version int64
	log     zerolog.Logger
}

func NewSlotState(slots []any, version int64) *SlotState {
	if slots == nil {
		slots = []any{}
	}
	return &SlotState{slots: slots, version: version, log: zerolog.Nop()}
}

// Slots exposes the current slot array. Callers must not modify it.
func (s *SlotState) Slots() []any {
	return s.slots
}

// Version is the starting version plus the number of applied batches.
func (s *SlotState) Version() int64 {
	return s.version
}

// ApplyBatch applies ops in order with ApplyPatchOrIgnore and bumps the
// version. It returns how many ops took effect.
func (s *SlotState) ApplyBatch(ops []PatchOp) int {
	applied := 0
	for _, op := range ops {
		if s.ApplyPatchOrIgnore(op) {
			applied++
		}
	}
	s.version++
	return applied
}

// ApplyPatchOrIgnore applies op and reports whether it took effect. An op
// that cannot be applied leaves the state untouched and is dropped; the
// stream keeps going.
func (s *SlotState) ApplyPatchOrIgnore(op PatchOp) bool {
	if err := s.applyPatch(op); err != nil {
		s.log.Debug().Err(err).Str("op", op.Op).Str("path", op.Path).Msg("ignoring patch op")
		return false
	}
	return true
}

func (s *SlotState) applyPatch(op PatchOp) error {
	tokens, err := parsePath(op.Path)
	if err != nil {
		return err
	}
	root, err := applyAt(s.slots, tokens, op)
	if err != nil {
		return err
	}
	slots, ok := root.([]any)
	if !ok {
		return errUnresolvable
	}
	s.slots = slots
	return nil
}

// InferenceSlot returns the first slot tagged agent-inference, decoded into a
// fresh value that does not alias the state.
func (s *SlotState) InferenceSlot() (*InferenceEvent, bool) {
	for _, slot := range s.slots {
		m, ok := slot.(map[string]any)
		if !ok || m["type"] != TypeAgentInference {
			continue
		}
		return decodeInference(m)
	}
	return nil, false
}

var pointerUnescaper = strings.NewReplacer("~1", "/", "~0", "~")

// parsePath splits "/s/0/value/1/content" into ["0", "value", "1", "content"].
func parsePath(p string) ([]string, error) {
	if !strings.HasPrefix(p, "/s/") {
		return nil, fmt.Errorf("%w: %q", errBadPath, p)
	}
	tokens := strings.Split(p[len("/s/"):], "/")
	for i, t := range tokens {
		tokens[i] = pointerUnescaper.Replace(t)
	}
	return tokens, nil
}

// applyAt walks node along tokens and applies op at the last token. It
// returns the possibly reallocated node; on error nothing has been modified.
func applyAt(node any, tokens []string, op PatchOp) (any, error) {
	if len(tokens) == 1 {
		return applyLeaf(node, tokens[0], op)
	}

	switch n := node.(type) {
	case []any:
		idx, ok := index(tokens[0], len(n))
		if !ok {
			return nil, fmt.Errorf("%w: index %q of %d", errUnresolvable, tokens[0], len(n))
		}
		child, err := applyAt(n[idx], tokens[1:], op)
		if err != nil {
			return nil, err
		}
		n[idx] = child
		return n, nil
	case map[string]any:
		cur, ok := n[tokens[0]]
		if !ok {
			return nil, fmt.Errorf("%w: missing key %q", errUnresolvable, tokens[0])
		}
		child, err := applyAt(cur, tokens[1:], op)
		if err != nil {
			return nil, err
		}
		n[tokens[0]] = child
		return n, nil
	default:
		return nil, fmt.Errorf("%w: %q steps into a %T", errUnresolvable, tokens[0], node)
	}
}

func applyLeaf(node any, last string, op PatchOp) (any, error) {
	switch op.Op {
	case OpAdd:
		return addAt(node, last, op.Value)
	case OpAppendText:
		return appendTextAt(node, last, op.Value)
	case OpRemove:
		return removeAt(node, last)
	default:
		return nil, fmt.Errorf("%w: %q", errUnsupportedOp, op.Op)
	}
}

func addAt(node any, last string, value any) (any, error) {
	switch n := node.(type) {
	case []any:
		if last == "-" {
			return append(n, value), nil
		}
		idx, ok := index(last, len(n)+1)
		if !ok {
			return nil, fmt.Errorf("%w: index %q of %d", errUnresolvable, last, len(n))
		}
		if idx == len(n) {
			return append(n, value), nil
		}
		n[idx] = value
		return n, nil
	case map[string]any:
		if last == "-" {
			return nil, fmt.Errorf("%w: append to an object", errUnresolvable)
		}
		n[last] = value
		return n, nil
	default:
		return nil, fmt.Errorf("%w: cannot add %q to a %T", errUnresolvable, last, node)
	}
}

func appendTextAt(node any, last string, value any) (any, error) {
	suffix, ok := value.(string)
	if !ok {
		return nil, fmt.Errorf("%w: value is a %T", errNotString, value)
	}
	switch n := node.(type) {
	case []any:
		idx, ok := index(last, len(n))
		if !ok {
			return nil, fmt.Errorf("%w: index %q of %d", errUnresolvable, last, len(n))
		}
		cur, ok := n[idx].(string)
		if !ok {
			return nil, fmt.Errorf("%w: target is a %T", errNotString, n[idx])
		}
		n[idx] = cur + suffix
		return n, nil
	case map[string]any:
		cur, ok := n[last].(string)
		if !ok {
			return nil, fmt.Errorf("%w: target is a %T", errNotString, n[last])
		}
		n[last] = cur + suffix
		return n, nil
	default:
		return nil, fmt.Errorf("%w: cannot append to %q of a %T", errUnresolvable, last, node)
	}
}

// removeAt splices an array element or deletes an object key, depending on
// what the parent turns out to be.
func removeAt(node any, last string) (any, error) {
	switch n := node.(type) {
	case []any:
		idx, ok := index(last, len(n))
		if !ok {
			return nil, fmt.Errorf("%w: index %q of %d", errUnresolvable, last, len(n))
		}
		out := make([]any, 0, len(n)-1)
		out = append(out, n[:idx]...)
		return append(out, n[idx+1:]...), nil
	case map[string]any:
		if _, ok := n[last]; !ok {
			return nil, fmt.Errorf("%w: missing key %q", errUnresolvable, last)
		}
		delete(n, last)
		return n, nil
	default:
		return nil, fmt.Errorf("%w: cannot remove %q from a %T", errUnresolvable, last, node)
	}
}

func index(token string, length int) (int, bool) {
	idx, err := strconv.Atoi(token)
	if err != nil || idx < 0 || idx >= length {
		return 0, false
	}
	return idx, true
}
