package recordmap

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/shhac/agent-notion-sub000/pkg/property"
	"github.com/shhac/agent-notion-sub000/pkg/richtext"
)

// Millis is a millisecond timestamp. The protocol sends it as a number on
// most tables and as a decimal string on others.
type Millis int64

func (m *Millis) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*m = 0
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*m = Millis(f)
	return nil
}

// Block is a node of the page tree.
type Block struct {
	ID          string   `json:"id"`
	Type        string   `json:"type"`
	Version     int64    `json:"version"`
	ParentID    string   `json:"parent_id"`
	ParentTable string   `json:"parent_table"`
	SpaceID     string   `json:"space_id"`
	Content     []string `json:"content,omitempty"`
	Discussions []string `json:"discussions,omitempty"`
	// CollectionID is set on collection_view and collection_view_page blocks.
	CollectionID   string         `json:"collection_id,omitempty"`
	ViewIDs        []string       `json:"view_ids,omitempty"`
	Format         map[string]any `json:"format,omitempty"`
	CreatedTime    Millis         `json:"created_time"`
	LastEditedTime Millis         `json:"last_edited_time"`
	CreatedByID    string         `json:"created_by_id,omitempty"`
	LastEditedByID string         `json:"last_edited_by_id,omitempty"`

	// Alive is false for tombstoned blocks. A block without the flag is alive.
	Alive bool `json:"-"`
	// Properties holds every property that decodes as rich text; malformed
	// ones are dropped.
	Properties map[string]richtext.RichText `json:"-"`
}

func (b *Block) UnmarshalJSON(data []byte) error {
	type plain Block
	var aux struct {
		plain
		Alive      *bool                      `json:"alive"`
		Properties map[string]json.RawMessage `json:"properties"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	*b = Block(aux.plain)
	b.Alive = aux.Alive == nil || *aux.Alive
	if len(aux.Properties) > 0 {
		b.Properties = make(map[string]richtext.RichText, len(aux.Properties))
		for id, raw := range aux.Properties {
			rt, err := richtext.Parse(raw)
			if err != nil {
				continue
			}
			b.Properties[id] = rt
		}
	}
	return nil
}

// Title is the plain text of the title property.
func (b *Block) Title() string {
	return b.Properties["title"].PlainText()
}

// Collection is a database: a schema plus the rows parented to it.
type Collection struct {
	ID          string            `json:"id"`
	Version     int64             `json:"version"`
	Name        richtext.RichText `json:"name"`
	Schema      property.Schema   `json:"schema"`
	ParentID    string            `json:"parent_id"`
	ParentTable string            `json:"parent_table"`
	SpaceID     string            `json:"space_id"`
	Alive       *bool             `json:"alive,omitempty"`
}

func (c *Collection) Title() string {
	return c.Name.PlainText()
}

// Discussion is a thread of comments, anchored on a block and, for inline
// discussions, on a range of its title text.
type Discussion struct {
	ID          string            `json:"id"`
	Version     int64             `json:"version"`
	ParentID    string            `json:"parent_id"`
	ParentTable string            `json:"parent_table"`
	SpaceID     string            `json:"space_id"`
	Resolved    bool              `json:"resolved"`
	Context     richtext.RichText `json:"context,omitempty"`
	Comments    []string          `json:"comments,omitempty"`
}

type Comment struct {
	ID             string            `json:"id"`
	Version        int64             `json:"version"`
	ParentID       string            `json:"parent_id"`
	ParentTable    string            `json:"parent_table"`
	SpaceID        string            `json:"space_id"`
	Text           richtext.RichText `json:"text"`
	Alive          bool              `json:"alive"`
	CreatedByID    string            `json:"created_by_id,omitempty"`
	CreatedTime    Millis            `json:"created_time"`
	LastEditedTime Millis            `json:"last_edited_time"`
}

type User struct {
	ID         string `json:"id"`
	Version    int64  `json:"version"`
	Email      string `json:"email"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
	Name       string `json:"name"`
}

// DisplayName prefers the full name and falls back to given and family name.
func (u *User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return strings.TrimSpace(u.GivenName + " " + u.FamilyName)
}

type Space struct {
	ID      string `json:"id"`
	Version int64  `json:"version"`
	Name    string `json:"name"`
	Domain  string `json:"domain,omitempty"`
}

// Activity is one entry of a page's activity log.
type Activity struct {
	ID               string         `json:"id"`
	Version          int64          `json:"version"`
	Type             string         `json:"type"`
	ParentID         string         `json:"parent_id"`
	ParentTable      string         `json:"parent_table"`
	NavigableBlockID string         `json:"navigable_block_id"`
	SpaceID          string         `json:"space_id"`
	StartTime        Millis         `json:"start_time"`
	EndTime          Millis         `json:"end_time"`
	Edits            []ActivityEdit `json:"edits,omitempty"`
}

type ActivityEdit struct {
	Type      string      `json:"type"`
	Timestamp Millis      `json:"timestamp"`
	Authors   []AuthorRef `json:"authors,omitempty"`
	BlockID   string      `json:"block_id,omitempty"`
	SpaceID   string      `json:"space_id,omitempty"`
}

type AuthorRef struct {
	ID    string `json:"id"`
	Table string `json:"table"`
}
