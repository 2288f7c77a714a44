package recordmap

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shhac/agent-notion-sub000/pkg/constants"
	"github.com/shhac/agent-notion-sub000/pkg/property"
	"github.com/shhac/agent-notion-sub000/pkg/richtext"
)

const pageJSON = `{
	"__version__": 3,
	"block": {
		"root": {"role": "editor", "value": {
			"id": "root", "type": "page", "version": 10, "alive": true,
			"content": ["a", "dead", "b", "gone", "a"],
			"properties": {"title": [["My "], ["page", [["b"]]]], "broken": "not rich text"},
			"created_time": 1700000000000
		}},
		"a": {"role": "editor", "value": {"id": "a", "type": "text", "version": 1, "alive": true, "parent_id": "root", "content": ["a1", "root"]}},
		"a1": {"role": "editor", "value": {"id": "a1", "type": "text", "version": 1, "parent_id": "a"}},
		"b": {"role": "editor", "value": {"id": "b", "type": "text", "version": 4, "alive": true, "parent_id": "root"}},
		"dead": {"role": "editor", "value": {"id": "dead", "type": "text", "version": 2, "alive": false, "parent_id": "root"}},
		"noaccess": {"role": "none"}
	},
	"collection": {
		"c1": {"role": "reader", "value": {"value": {
			"id": "c1", "version": 2, "name": [["Tasks"]],
			"schema": {"title": {"name": "Name", "type": "title"}, "s1": {"name": "State", "type": "status", "options": [{"id": "o1", "value": "Done"}]}}
		}, "role": "reader"}}
	},
	"activity": {
		"act1": {"role": "reader", "value": {"id": "act1", "type": "block-edited", "start_time": "1700000000000", "end_time": 1700000005000,
			"edits": [{"type": "block-changed", "timestamp": 1700000004000, "authors": [{"id": "u1", "table": "notion_user"}]}]}}
	}
}`

func loadPage(t *testing.T) RecordMap {
	t.Helper()
	var rm RecordMap
	require.NoError(t, json.Unmarshal([]byte(pageJSON), &rm))
	return rm
}

func TestUnmarshal_skipsScalarMembers(t *testing.T) {
	rm := loadPage(t)

	assert.NotContains(t, rm, Table("__version__"))
	assert.Equal(t, []string{"a", "a1", "b", "dead", "noaccess", "root"}, rm.IDs(TableBlock))
}

func TestBlock(t *testing.T) {
	rm := loadPage(t)

	root, ok := rm.Block("root")
	require.True(t, ok)
	assert.Equal(t, "My page", root.Title())
	assert.Equal(t, Millis(1700000000000), root.CreatedTime)
	assert.NotContains(t, root.Properties, "broken")
	assert.Equal(t, richtext.Bold, root.Properties["title"][1].Decorations[0])

	_, ok = rm.Block("dead")
	assert.False(t, ok, "tombstoned blocks are invisible")

	_, ok = rm.Block("noaccess")
	assert.False(t, ok)

	a1, ok := rm.Block("a1")
	require.True(t, ok, "a block without the alive flag is alive")
	assert.True(t, a1.Alive)
}

func TestChildren(t *testing.T) {
	rm := loadPage(t)

	var ids []string
	for _, b := range rm.Children("root") {
		ids = append(ids, b.ID)
	}
	assert.Equal(t, []string{"a", "b", "a"}, ids)
	assert.Equal(t, []string{"gone"}, rm.MissingChildren("root"))
	assert.Nil(t, rm.Children("dead"))
}

func TestCountAlive(t *testing.T) {
	assert.Equal(t, 4, loadPage(t).CountAlive())
}

func TestWalk(t *testing.T) {
	rm := loadPage(t)

	type visit struct {
		id    string
		depth int
	}
	var visits []visit
	rm.Walk("root", func(b *Block, depth int) bool {
		visits = append(visits, visit{b.ID, depth})
		return true
	})
	assert.Equal(t, []visit{{"root", 0}, {"a", 1}, {"a1", 2}, {"b", 1}}, visits)

	visits = nil
	rm.Walk("root", func(b *Block, depth int) bool {
		visits = append(visits, visit{b.ID, depth})
		return b.ID != "a"
	})
	assert.Equal(t, []visit{{"root", 0}, {"a", 1}, {"b", 1}}, visits)
}

func TestNestedRecordShape(t *testing.T) {
	rm := loadPage(t)

	rec, ok := rm.Get(TableCollection, "c1")
	require.True(t, ok)
	assert.Equal(t, "reader", rec.Role)
	assert.Equal(t, int64(2), rec.Version())

	coll, ok := Lookup[Collection](rm, TableCollection, "c1")
	require.True(t, ok)
	assert.Equal(t, "Tasks", coll.Title())
	assert.Equal(t, property.TypeStatus, coll.Schema["s1"].Type)
}

func TestActivityTimes(t *testing.T) {
	act, ok := Lookup[Activity](loadPage(t), TableActivity, "act1")
	require.True(t, ok)
	assert.Equal(t, Millis(1700000000000), act.StartTime)
	assert.Equal(t, Millis(1700000005000), act.EndTime)
	require.Len(t, act.Edits, 1)
	assert.Equal(t, "u1", act.Edits[0].Authors[0].ID)
}

func TestDecode_notFound(t *testing.T) {
	rm := loadPage(t)

	var b Block
	require.ErrorIs(t, rm.Decode(TableBlock, "missing", &b), constants.ErrNotFound)
	require.ErrorIs(t, rm.Decode(TableBlock, "noaccess", &b), constants.ErrNotFound)
	_, ok := Lookup[User](rm, TableUser, "u1")
	assert.False(t, ok)
}

func TestMerge(t *testing.T) {
	rm := loadPage(t)
	var update RecordMap
	require.NoError(t, json.Unmarshal([]byte(`{
		"block": {
			"b": {"value": {"id": "b", "version": 3, "alive": false}},
			"dead": {"value": {"id": "dead", "version": 5, "alive": true}},
			"gone": {"value": {"id": "gone", "version": 1, "alive": true}},
			"root": {"role": "none"}
		},
		"notion_user": {"u1": {"value": {"id": "u1", "given_name": "Ada", "family_name": "Lovelace"}}}
	}`), &update))

	merged := rm.Merge(update)

	_, ok := merged.Block("b")
	assert.True(t, ok, "older version does not win")
	_, ok = merged.Block("dead")
	assert.True(t, ok, "newer version wins")
	_, ok = merged.Block("gone")
	assert.True(t, ok)
	_, ok = merged.Block("root")
	assert.True(t, ok, "empty record does not replace a populated one")
	assert.Empty(t, merged.MissingChildren("root"))

	user, ok := Lookup[User](merged, TableUser, "u1")
	require.True(t, ok)
	assert.Equal(t, "Ada Lovelace", user.DisplayName())

	// inputs untouched
	_, ok = rm.Block("dead")
	assert.False(t, ok)
	_, ok = rm.Get(TableBlock, "gone")
	assert.False(t, ok)
	assert.NotContains(t, rm, TableUser)
}
