package ndjson

import (
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(t *testing.T, d *Decoder) []string {
	t.Helper()
	var out []string
	for d.Next() {
		out = append(out, string(d.Event().Raw()))
	}
	return out
}

func TestDecoder_skipsGarbageLines(t *testing.T) {
	d := NewDecoder(strings.NewReader("{\"type\":\"a\"}\n{not json\n{\"type\":\"b\"}\n"))

	got := collect(t, d)
	require.NoError(t, d.Err())
	assert.Equal(t, []string{`{"type":"a"}`, `{"type":"b"}`}, got)
	assert.Equal(t, 1, d.Skipped())
}

func TestDecoder_finalLineWithoutTerminator(t *testing.T) {
	d := NewDecoder(strings.NewReader("{\"n\":1}\n{\"n\":2}"))

	assert.Equal(t, []string{`{"n":1}`, `{"n":2}`}, collect(t, d))
	require.NoError(t, d.Err())
}

func TestDecoder_partialReads(t *testing.T) {
	input := "{\"type\":\"title\",\"value\":\"héllo\"}\r\n\n  \n[1,2,3]\n\"str\"\n"
	d := NewDecoder(iotest.OneByteReader(strings.NewReader(input)))

	got := collect(t, d)
	require.NoError(t, d.Err())
	assert.Equal(t, []string{`{"type":"title","value":"héllo"}`, `[1,2,3]`, `"str"`}, got)
}

func TestDecoder_longLine(t *testing.T) {
	long := strings.Repeat("x", 1<<20)
	d := NewDecoder(strings.NewReader(`{"content":"` + long + `"}` + "\n"))

	require.True(t, d.Next())
	var v struct {
		Content string `json:"content"`
	}
	require.NoError(t, d.Event().Decode(&v))
	assert.Len(t, v.Content, 1<<20)
	assert.False(t, d.Next())
}

func TestDecoder_readerError(t *testing.T) {
	boom := errors.New("connection reset")
	r := io.MultiReader(strings.NewReader("{\"n\":1}\n"), iotest.ErrReader(boom))
	d := NewDecoder(r)

	assert.Equal(t, []string{`{"n":1}`}, collect(t, d))
	require.ErrorIs(t, d.Err(), boom)
	assert.False(t, d.Next(), "sequence is not restartable")
}

func TestDecoder_allStopsEarly(t *testing.T) {
	d := NewDecoder(strings.NewReader("{\"type\":\"a\"}\n{\"type\":\"b\"}\n{\"type\":\"c\"}\n"))

	var types []string
	for ev := range d.All() {
		types = append(types, ev.Type())
		if len(types) == 2 {
			break
		}
	}
	assert.Equal(t, []string{"a", "b"}, types)

	require.True(t, d.Next())
	assert.Equal(t, "c", d.Event().Type())
}

func TestEvent_Type(t *testing.T) {
	assert.Equal(t, "patch", NewEvent([]byte(`{"v":[],"type":"patch"}`)).Type())
	assert.Equal(t, "", NewEvent([]byte(`{"v":[]}`)).Type())
	assert.Equal(t, "", NewEvent([]byte(`[1]`)).Type())
	assert.Equal(t, "", NewEvent([]byte(`{"type":7}`)).Type())
}
