package sse

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecoder_BasicFrame(t *testing.T) {
	d := NewDecoder()
	frames := d.Feed([]byte("event: response.output_text.delta\ndata: {\"delta\":\"Hi\"}\n\n"))
	assert.Len(t, frames, 1)
	assert.Equal(t, "response.output_text.delta", frames[0].Event)
	assert.Equal(t, `{"delta":"Hi"}`, frames[0].Data)
}

func TestDecoder_DefaultEventType(t *testing.T) {
	d := NewDecoder()
	frames := d.Feed([]byte("data: [DONE]\n\n"))
	assert.Len(t, frames, 1)
	assert.Equal(t, "message", frames[0].Event)
	assert.Equal(t, "[DONE]", frames[0].Data)
}

func TestDecoder_MultiLineDataJoinedWithNewline(t *testing.T) {
	d := NewDecoder()
	frames := d.Feed([]byte("data: line1\ndata: line2\n\n"))
	assert.Len(t, frames, 1)
	assert.Equal(t, "line1\nline2", frames[0].Data)
}

func TestDecoder_BareJSONTolerance(t *testing.T) {
	d := NewDecoder()
	frames := d.Feed([]byte("{\"a\":1}\n\n"))
	assert.Len(t, frames, 1)
	assert.Equal(t, `{"a":1}`, frames[0].Data)
}

func TestDecoder_BlankAndUnrecognizedLinesIgnored(t *testing.T) {
	d := NewDecoder()
	frames := d.Feed([]byte(":comment\nretry: 1000\ndata: x\n\n"))
	assert.Len(t, frames, 1)
	assert.Equal(t, "x", frames[0].Data)
}

func TestDecoder_PartialTailDroppedAtEOF(t *testing.T) {
	d := NewDecoder()
	frames := d.Feed([]byte("event: message\ndata: incomplete"))
	assert.Empty(t, frames)
	d.Flush()
	assert.Empty(t, d.Feed(nil))
}

func TestDecoder_CRLFBoundary(t *testing.T) {
	d := NewDecoder()
	frames := d.Feed([]byte("event: message\r\ndata: x\r\n\r\n"))
	assert.Len(t, frames, 1)
	assert.Equal(t, "x", frames[0].Data)
}

// decodeAll feeds every chunk into a fresh decoder and collects all frames.
func decodeAll(chunks [][]byte) []Frame {
	d := NewDecoder()
	var got []Frame
	for _, c := range chunks {
		got = append(got, d.Feed(c)...)
	}
	return got
}

func TestDecoder_RoundTripAcrossArbitrarySplits(t *testing.T) {
	stream := "event: response.output_text.delta\ndata: {\"delta\":\"He\"}\n\n" +
		"event: response.output_text.delta\ndata: {\"delta\":\"llo\"}\n\n" +
		"event: response.completed\ndata: {\"usage\":{\"p\":5,\"c\":1}}\n\n"

	whole := decodeAll([][]byte{[]byte(stream)})

	rnd := rand.New(rand.NewSource(42))
	for trial := 0; trial < 20; trial++ {
		var chunks [][]byte
		remaining := []byte(stream)
		for len(remaining) > 0 {
			n := 1 + rnd.Intn(len(remaining))
			chunks = append(chunks, remaining[:n])
			remaining = remaining[n:]
		}
		got := decodeAll(chunks)
		assert.Equal(t, whole, got, "split trial %d must decode identically", trial)
	}
}

func TestDecoder_PrefixClosed(t *testing.T) {
	stream := "event: a\ndata: 1\n\nevent: b\ndata: 2\n\nevent: c\ndata: 3\n\n"
	full := decodeAll([][]byte{[]byte(stream)})
	assert.Len(t, full, 3)

	prefix := "event: a\ndata: 1\n\nevent: b\ndata: 2\n\n"
	partial := decodeAll([][]byte{[]byte(prefix)})
	assert.Equal(t, full[:2], partial)
}
