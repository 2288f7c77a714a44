// Package recordmap is a read-only view over the entity tables returned by
// protocol calls.
//
// A RecordMap maps table name to entity id to a Record holding the raw
// entity and the caller's role on it. Typed views (Block, Collection, ...)
// are decoded on demand; the map itself is never modified after decoding,
// and Merge returns a new map.
package recordmap

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"

	"github.com/buger/jsonparser"

	"github.com/shhac/agent-notion-sub000/pkg/constants"
)

type Table string

const (
	TableBlock          Table = "block"
	TableCollection     Table = "collection"
	TableCollectionView Table = "collection_view"
	TableUser           Table = "notion_user"
	TableSpace          Table = "space"
	TableDiscussion     Table = "discussion"
	TableComment        Table = "comment"
	TableActivity       Table = "activity"
)

// Record is one entry of a table.
type Record struct {
	Value json.RawMessage `json:"value,omitempty"`
	Role  string          `json:"role,omitempty"`
}

// UnmarshalJSON accepts both the flat {value, role} shape and the
// space-scoped shape that nests it once more under "value".
func (r *Record) UnmarshalJSON(data []byte) error {
	type plain Record
	var rec plain
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}
	if inner, dt, _, err := jsonparser.Get(rec.Value, "value"); err == nil && dt == jsonparser.Object {
		if _, _, _, err := jsonparser.Get(rec.Value, "id"); err != nil {
			var nested plain
			if err := json.Unmarshal(rec.Value, &nested); err == nil {
				nested.Value = inner
				rec = nested
			}
		}
	}
	*r = Record(rec)
	return nil
}

// Version returns the entity version, or -1 when there is none.
func (r Record) Version() int64 {
	v, err := jsonparser.GetInt(r.Value, "version")
	if err != nil {
		return -1
	}
	return v
}

// Empty reports whether the record carries no entity, as happens for records
// the caller has no access to.
func (r Record) Empty() bool {
	return len(r.Value) == 0 || string(r.Value) == "null"
}

type RecordMap map[Table]map[string]Record

// UnmarshalJSON decodes every object-valued table and skips scalar members
// such as "__version__".
func (rm *RecordMap) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	out := RecordMap{}
	err := jsonparser.ObjectEach(data, func(key, value []byte, dt jsonparser.ValueType, _ int) error {
		if dt != jsonparser.Object {
			return nil
		}
		var table map[string]Record
		if err := json.Unmarshal(value, &table); err != nil {
			return fmt.Errorf("record map table %q: %w", key, err)
		}
		out[Table(key)] = table
		return nil
	})
	if err != nil {
		return err
	}
	*rm = out
	return nil
}

// Get returns the record of id in table.
func (rm RecordMap) Get(table Table, id string) (Record, bool) {
	rec, ok := rm[table][id]
	return rec, ok
}

// Decode unmarshals the entity of id in table into out. It fails with
// ErrNotFound when the record is absent or empty.
func (rm RecordMap) Decode(table Table, id string, out any) error {
	rec, ok := rm.Get(table, id)
	if !ok || rec.Empty() {
		return fmt.Errorf("%w: %s/%s", constants.ErrNotFound, table, id)
	}
	if err := json.Unmarshal(rec.Value, out); err != nil {
		return fmt.Errorf("%s/%s: %w", table, id, err)
	}
	return nil
}

// Lookup is the typed form of Decode.
func Lookup[T any](rm RecordMap, table Table, id string) (*T, bool) {
	var v T
	if err := rm.Decode(table, id, &v); err != nil {
		return nil, false
	}
	return &v, true
}

// IDs lists the ids of table in sorted order.
func (rm RecordMap) IDs(table Table) []string {
	return slices.Sorted(maps.Keys(rm[table]))
}

// Merge returns a new map holding the records of both. When both carry the
// same entity, the higher version wins and other wins ties. An empty record
// never replaces a populated one.
func (rm RecordMap) Merge(other RecordMap) RecordMap {
	out := make(RecordMap, len(rm))
	for table, records := range rm {
		out[table] = maps.Clone(records)
	}
	for table, records := range other {
		dst := out[table]
		if dst == nil {
			dst = make(map[string]Record, len(records))
			out[table] = dst
		}
		for id, rec := range records {
			cur, exists := dst[id]
			switch {
			case !exists:
				dst[id] = rec
			case rec.Empty():
			case cur.Empty() || rec.Version() >= cur.Version():
				dst[id] = rec
			}
		}
	}
	return out
}
