package property

// Type is the declared type of a collection column.
type Type string

const (
	TypeTitle        Type = "title"
	TypeText         Type = "text"
	TypeNumber       Type = "number"
	TypeSelect       Type = "select"
	TypeStatus       Type = "status"
	TypeMultiSelect  Type = "multi_select"
	TypeCheckbox     Type = "checkbox"
	TypeURL          Type = "url"
	TypeEmail        Type = "email"
	TypePhone        Type = "phone"
	TypePhoneNumber  Type = "phone_number"
	TypeDate         Type = "date"
	TypePerson       Type = "person"
	TypePeople       Type = "people"
	TypeRelation     Type = "relation"
	TypeCreatedBy    Type = "created_by"
	TypeLastEditedBy Type = "last_edited_by"
	TypeFile         Type = "file"
	TypeFiles        Type = "files"
)

// Option is one choice of a select, multi_select or status column. The id is
// the stable identity; label and position may change.
type Option struct {
	ID    string `json:"id"`
	Label string `json:"value"`
	Color string `json:"color,omitempty"`
}

// Group buckets status options (for example "To-do", "In progress", "Complete").
type Group struct {
	ID        string   `json:"id,omitempty"`
	Name      string   `json:"name"`
	Color     string   `json:"color,omitempty"`
	OptionIDs []string `json:"optionIds"`
}

// Entry describes one column.
type Entry struct {
	Name                string   `json:"name"`
	Type                Type     `json:"type"`
	Options             []Option `json:"options,omitempty"`
	Groups              []Group  `json:"groups,omitempty"`
	RelatedCollectionID string   `json:"collection_id,omitempty"`
}

// Schema maps internal property ids to their column description.
type Schema map[string]Entry

// Option looks an option up by id.
func (e Entry) Option(id string) (Option, bool) {
	for _, o := range e.Options {
		if o.ID == id {
			return o, true
		}
	}
	return Option{}, false
}

// OptionByLabel looks an option up by its display label.
func (e Entry) OptionByLabel(label string) (Option, bool) {
	for _, o := range e.Options {
		if o.Label == label {
			return o, true
		}
	}
	return Option{}, false
}

// GroupOf returns the status group containing the option id.
func (e Entry) GroupOf(optionID string) (Group, bool) {
	for _, g := range e.Groups {
		for _, id := range g.OptionIDs {
			if id == optionID {
				return g, true
			}
		}
	}
	return Group{}, false
}

// IDByName returns the internal id of the column called name.
func (s Schema) IDByName(name string) (string, bool) {
	for id, e := range s {
		if e.Name == name {
			return id, true
		}
	}
	return "", false
}
