// Package property turns schema-typed rich text values into plain Go values.
//
// Flattening never fails. Every column type has a default that is returned
// when the record has no value for it or the value cannot be interpreted.
package property

import (
	"sort"
	"strconv"
	"strings"

	"github.com/shhac/agent-notion-sub000/pkg/richtext"
)

// Value is the flattened form of a property. The dynamic type depends on the
// column type:
//
//	title, text                       string
//	number                            float64 or nil
//	select, status, url, email, phone string or nil
//	multi_select                      []string
//	checkbox                          bool
//	date                              *Date or nil
//	person, people, relation          []Ref
//	created_by, last_edited_by        *Ref or nil
//	file, files                       []File
//	anything else                     string or nil
type Value any

// Date is a flattened date column. End is nil for a single date.
type Date struct {
	Start string  `json:"start"`
	End   *string `json:"end"`
}

// Ref points at a user or page by id.
type Ref struct {
	ID string `json:"id"`
}

// File is a flattened file attachment. The protocol only exposes the name
// inline, so URL is always nil.
type File struct {
	Name string  `json:"name"`
	URL  *string `json:"url"`
}

// FlattenValue converts one raw property value according to its schema entry.
// A nil rt means the record has no value for the column.
func FlattenValue(rt richtext.RichText, entry Entry) Value {
	present := rt != nil
	text := rt.PlainText()

	switch entry.Type {
	case TypeTitle, TypeText:
		return text

	case TypeNumber:
		if !present {
			return nil
		}
		n, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
		if err != nil {
			return nil
		}
		return n

	case TypeSelect, TypeStatus, TypeURL, TypeEmail, TypePhone, TypePhoneNumber:
		if !present {
			return nil
		}
		return text

	case TypeMultiSelect:
		out := []string{}
		if !present {
			return out
		}
		return append(out, strings.Split(text, ",")...)

	case TypeCheckbox:
		return present && text == "Yes"

	case TypeDate:
		return flattenDate(rt, text)

	case TypePerson, TypePeople:
		return collectRefs(rt, func(d richtext.Decoration) (string, bool) {
			u, ok := d.(richtext.UserMention)
			return u.UserID, ok
		})

	case TypeRelation:
		return collectRefs(rt, func(d richtext.Decoration) (string, bool) {
			p, ok := d.(richtext.PageMention)
			return p.PageID, ok
		})

	case TypeCreatedBy, TypeLastEditedBy:
		if !present {
			return nil
		}
		return &Ref{ID: text}

	case TypeFile, TypeFiles:
		if !present {
			return []File{}
		}
		return []File{{Name: text}}

	default:
		if !present {
			return nil
		}
		return text
	}
}

func flattenDate(rt richtext.RichText, text string) Value {
	for _, d := range rt.Decorations() {
		if dr, ok := d.(richtext.DateRange); ok {
			out := &Date{Start: dr.Start()}
			if end := dr.End(); end != "" {
				out.End = &end
			}
			return out
		}
	}
	if text == "" {
		return nil
	}
	return &Date{Start: text}
}

func collectRefs(rt richtext.RichText, pick func(richtext.Decoration) (string, bool)) []Ref {
	out := []Ref{}
	for _, d := range rt.Decorations() {
		if id, ok := pick(d); ok {
			out = append(out, Ref{ID: id})
		}
	}
	return out
}

// FlattenProperties flattens a record's properties into a map keyed by column
// name. It walks the schema rather than the record, so every declared column
// is present in the result, defaulted when the record lacks it. When two
// columns share a name the one with the greater property id wins.
func FlattenProperties(raw map[string]richtext.RichText, schema Schema) map[string]Value {
	ids := make([]string, 0, len(schema))
	for id := range schema {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make(map[string]Value, len(schema))
	for _, id := range ids {
		entry := schema[id]
		out[entry.Name] = FlattenValue(raw[id], entry)
	}
	return out
}
