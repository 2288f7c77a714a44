// Package richtext implements the segmented text type used for every title,
// text property and comment body in a record map.
//
// On the wire a value is a list of segments, each segment being a one or two
// element array: the text and, optionally, the list of decorations applied to
// it:
//
//	[["plain "], ["bold", [["b"]]], [" and a mention", [["u", "user-id"]]]]
//
// Concatenating the segment texts always yields the plain text. All
// operations in this package return new values and leave their input
// untouched.
package richtext

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"
)

var (
	ErrInvalidRange = errors.New("invalid range")
	ErrEmptyTarget  = errors.New("empty target text")
	ErrTextNotFound = errors.New("text not found")
)

// Segment is a run of text sharing one ordered list of decorations.
type Segment struct {
	Text        string
	Decorations []Decoration
}

// RichText is an ordered list of segments. A nil RichText means the value is
// absent, an empty one means it is present but blank.
type RichText []Segment

// FromPlainText wraps s in a single undecorated segment.
func FromPlainText(s string) RichText {
	return RichText{{Text: s}}
}

// PlainText concatenates the segment texts.
func (rt RichText) PlainText() string {
	if len(rt) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, seg := range rt {
		sb.WriteString(seg.Text)
	}
	return sb.String()
}

// PlainText is the package level form of RichText.PlainText.
func PlainText(rt RichText) string {
	return rt.PlainText()
}

// Has reports whether the segment carries a decoration matching key.
func (s Segment) Has(key Key) bool {
	for _, d := range s.Decorations {
		if d.Key() == key {
			return true
		}
	}
	return false
}

func (s Segment) clone() Segment {
	return Segment{Text: s.Text, Decorations: slices.Clone(s.Decorations)}
}

// Decorations returns every decoration in segment order.
func (rt RichText) Decorations() []Decoration {
	var out []Decoration
	for _, seg := range rt {
		out = append(out, seg.Decorations...)
	}
	return out
}

// InjectDecoration returns a copy of rt in which the characters in
// [start, end) carry d appended after their existing decorations. Offsets
// count characters (runes), not bytes. Segments outside the range are copied
// unchanged and the plain text is preserved.
func InjectDecoration(rt RichText, start, end int, d Decoration) (RichText, error) {
	if start < 0 || end <= start {
		return nil, fmt.Errorf("%w: [%d, %d)", ErrInvalidRange, start, end)
	}

	out := make(RichText, 0, len(rt)+2)
	offset := 0
	for _, seg := range rt {
		runes := []rune(seg.Text)
		segStart, segEnd := offset, offset+len(runes)
		offset = segEnd

		lo, hi := max(start, segStart), min(end, segEnd)
		if lo >= hi {
			out = append(out, seg.clone())
			continue
		}

		lo -= segStart
		hi -= segStart
		if lo > 0 {
			out = append(out, Segment{Text: string(runes[:lo]), Decorations: slices.Clone(seg.Decorations)})
		}
		out = append(out, Segment{
			Text:        string(runes[lo:hi]),
			Decorations: append(slices.Clone(seg.Decorations), d),
		})
		if hi < len(runes) {
			out = append(out, Segment{Text: string(runes[hi:]), Decorations: slices.Clone(seg.Decorations)})
		}
	}
	return out, nil
}

// InjectAnchorByText decorates the first occurrence of target in the plain
// text of rt. Later occurrences are never touched.
func InjectAnchorByText(rt RichText, target string, d Decoration) (RichText, error) {
	if target == "" {
		return nil, ErrEmptyTarget
	}
	plain := rt.PlainText()
	idx := strings.Index(plain, target)
	if idx < 0 {
		return nil, fmt.Errorf("%w: %q", ErrTextNotFound, target)
	}
	start := utf8.RuneCountInString(plain[:idx])
	return InjectDecoration(rt, start, start+utf8.RuneCountInString(target), d)
}

// ExtractTextByDecoration concatenates, in order, the text of every segment
// carrying a decoration that matches key. The segments are not required to be
// adjacent: two separate runs sharing the key are joined together. The second
// result is false when no segment matches.
func ExtractTextByDecoration(rt RichText, key Key) (string, bool) {
	var (
		sb    strings.Builder
		found bool
	)
	for _, seg := range rt {
		if seg.Has(key) {
			sb.WriteString(seg.Text)
			found = true
		}
	}
	return sb.String(), found
}

func (s Segment) MarshalJSON() ([]byte, error) {
	text, err := json.Marshal(s.Text)
	if err != nil {
		return nil, err
	}
	if len(s.Decorations) == 0 {
		return append(append([]byte{'['}, text...), ']'), nil
	}

	var buf bytes.Buffer
	buf.WriteByte('[')
	buf.Write(text)
	buf.WriteString(",[")
	for i, d := range s.Decorations {
		if i > 0 {
			buf.WriteByte(',')
		}
		enc, err := encodeDecoration(d)
		if err != nil {
			return nil, err
		}
		buf.Write(enc)
	}
	buf.WriteString("]]")
	return buf.Bytes(), nil
}

func (s *Segment) UnmarshalJSON(data []byte) error {
	var parts []json.RawMessage
	if err := json.Unmarshal(data, &parts); err != nil {
		return fmt.Errorf("rich text segment: %w", err)
	}
	if len(parts) == 0 {
		return fmt.Errorf("rich text segment: empty array")
	}

	var seg Segment
	if err := json.Unmarshal(parts[0], &seg.Text); err != nil {
		return fmt.Errorf("rich text segment text: %w", err)
	}
	if len(parts) > 1 {
		var decorations []json.RawMessage
		if err := json.Unmarshal(parts[1], &decorations); err != nil {
			return fmt.Errorf("rich text segment decorations: %w", err)
		}
		for _, raw := range decorations {
			seg.Decorations = append(seg.Decorations, decodeDecoration(raw))
		}
	}
	*s = seg
	return nil
}

// Parse decodes a wire value. JSON null yields a nil RichText.
func Parse(data []byte) (RichText, error) {
	var rt RichText
	if err := json.Unmarshal(data, &rt); err != nil {
		return nil, err
	}
	return rt, nil
}
