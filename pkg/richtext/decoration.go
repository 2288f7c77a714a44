package richtext

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Tag is the first element of a decoration tuple on the wire.
type Tag string

const (
	TagBold    Tag = "b"
	TagItalic  Tag = "i"
	TagCode    Tag = "c"
	TagDate    Tag = "d"
	TagUser    Tag = "u"
	TagPage    Tag = "p"
	TagComment Tag = "m"
)

// Key identifies a decoration for matching: the tag plus, for mentions and
// comment anchors, the referenced id.
type Key struct {
	Tag Tag
	ID  string
}

// Decoration is a closed union over the decoration kinds the protocol emits.
// The concrete types are Style, DateRange, UserMention, PageMention,
// CommentAnchor and Unknown.
type Decoration interface {
	Key() Key
	elements() []any
}

// Style is a payload-less formatting mark (bold, italic, inline code).
type Style struct {
	Tag Tag
}

func (s Style) Key() Key { return Key{Tag: s.Tag} }

func (s Style) elements() []any { return []any{s.Tag} }

var (
	Bold   = Style{Tag: TagBold}
	Italic = Style{Tag: TagItalic}
	Code   = Style{Tag: TagCode}
)

// DateRange is the payload of a "d" decoration. Only the fields the client
// reads are modeled; the raw payload is kept so re-encoding is lossless.
type DateRange struct {
	Type      string `json:"type,omitempty"`
	StartDate string `json:"start_date,omitempty"`
	StartTime string `json:"start_time,omitempty"`
	EndDate   string `json:"end_date,omitempty"`
	EndTime   string `json:"end_time,omitempty"`
	TimeZone  string `json:"time_zone,omitempty"`

	raw json.RawMessage
}

// NewDateRange builds a date or date range decoration. An empty end yields a
// single date.
func NewDateRange(start, end string) DateRange {
	d := DateRange{Type: "date", StartDate: start}
	if end != "" {
		d.Type = "daterange"
		d.EndDate = end
	}
	return d
}

func (d DateRange) Key() Key { return Key{Tag: TagDate} }

func (d DateRange) elements() []any {
	if len(d.raw) > 0 {
		return []any{TagDate, d.raw}
	}
	payload := d
	return []any{TagDate, payload}
}

// Start is the start date, with the time appended when one is set.
func (d DateRange) Start() string {
	return joinDateTime(d.StartDate, d.StartTime)
}

// End is the end date, or empty for a single date.
func (d DateRange) End() string {
	return joinDateTime(d.EndDate, d.EndTime)
}

func joinDateTime(date, clock string) string {
	if date == "" || clock == "" {
		return date
	}
	return date + "T" + clock
}

// UserMention references a workspace member.
type UserMention struct {
	UserID string
}

func (u UserMention) Key() Key { return Key{Tag: TagUser, ID: u.UserID} }

func (u UserMention) elements() []any { return []any{TagUser, u.UserID} }

// PageMention references another page.
type PageMention struct {
	PageID string
}

func (p PageMention) Key() Key { return Key{Tag: TagPage, ID: p.PageID} }

func (p PageMention) elements() []any { return []any{TagPage, p.PageID} }

// CommentAnchor marks text an inline discussion is attached to.
type CommentAnchor struct {
	DiscussionID string
}

func (c CommentAnchor) Key() Key { return Key{Tag: TagComment, ID: c.DiscussionID} }

func (c CommentAnchor) elements() []any { return []any{TagComment, c.DiscussionID} }

// Unknown carries any decoration the client does not model, byte for byte.
type Unknown struct {
	Tag     Tag
	Payload []json.RawMessage

	raw json.RawMessage
}

// Key of an unknown decoration uses the first payload element as id when it is a string.
func (u Unknown) Key() Key {
	k := Key{Tag: u.Tag}
	if len(u.Payload) > 0 {
		var id string
		if json.Unmarshal(u.Payload[0], &id) == nil {
			k.ID = id
		}
	}
	return k
}

func (u Unknown) elements() []any {
	out := []any{u.Tag}
	for _, p := range u.Payload {
		out = append(out, p)
	}
	return out
}

func encodeDecoration(d Decoration) ([]byte, error) {
	if u, ok := d.(Unknown); ok && len(u.raw) > 0 {
		return u.raw, nil
	}
	return json.Marshal(d.elements())
}

// decodeDecoration never fails: anything that is not a well-formed known
// decoration becomes Unknown with the original bytes retained.
func decodeDecoration(data []byte) Decoration {
	raw := append(json.RawMessage(nil), bytes.TrimSpace(data)...)
	unknown := Unknown{raw: raw}

	var parts []json.RawMessage
	if err := json.Unmarshal(raw, &parts); err != nil || len(parts) == 0 {
		return unknown
	}
	var tag Tag
	if err := json.Unmarshal(parts[0], &tag); err != nil {
		return unknown
	}
	unknown.Tag = tag
	unknown.Payload = parts[1:]

	switch tag {
	case TagBold, TagItalic, TagCode:
		if len(parts) == 1 {
			return Style{Tag: tag}
		}
	case TagDate:
		if len(parts) == 2 {
			var d DateRange
			if err := json.Unmarshal(parts[1], &d); err == nil {
				d.raw = parts[1]
				return d
			}
		}
	case TagUser, TagPage, TagComment:
		if len(parts) == 2 {
			var id string
			if err := json.Unmarshal(parts[1], &id); err == nil {
				switch tag {
				case TagUser:
					return UserMention{UserID: id}
				case TagPage:
					return PageMention{PageID: id}
				default:
					return CommentAnchor{DiscussionID: id}
				}
			}
		}
	}
	return unknown
}

func (k Key) String() string {
	if k.ID == "" {
		return string(k.Tag)
	}
	return fmt.Sprintf("%s:%s", k.Tag, k.ID)
}
