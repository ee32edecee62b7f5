package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeStreamStart(t *testing.T) {
	f, err := Decode([]byte(`{"streaming": true}`))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	assert.Equal(t, KindStreamStart, f.Kind())
}

func TestDecodeChunk(t *testing.T) {
	f, err := Decode([]byte(`{"chunk": "Article "}`))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	assert.Equal(t, KindChunk, f.Kind())
	assert.Equal(t, "Article ", *f.Chunk)
}

func TestDecodeStreamEnd(t *testing.T) {
	f, err := Decode([]byte(`{"response": "Article 75.", "streaming": false}`))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	assert.Equal(t, KindStreamEnd, f.Kind())
	assert.Equal(t, "Article 75.", *f.Response)
}

func TestDecodeError(t *testing.T) {
	f, err := Decode([]byte(`{"error": "rate limited"}`))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	assert.Equal(t, KindError, f.Kind())
	assert.Equal(t, "rate limited", *f.Error)
}

// The backend should never send streaming:true together with a chunk, but
// if it does, the chunk wins: the stream-start branch requires absence of
// the chunk field.
func TestDecodeStreamStartWithChunkIsChunk(t *testing.T) {
	f, err := Decode([]byte(`{"streaming": true, "chunk": "x"}`))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	assert.Equal(t, KindChunk, f.Kind())
}

func TestDecodeEmptyChunkIsStillChunk(t *testing.T) {
	f, err := Decode([]byte(`{"chunk": ""}`))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	assert.Equal(t, KindChunk, f.Kind())
	assert.Equal(t, "", *f.Chunk)
}

func TestDecodeUnknown(t *testing.T) {
	f, err := Decode([]byte(`{"something": 1}`))
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	assert.Equal(t, KindUnknown, f.Kind())
}

func TestDecodeMalformed(t *testing.T) {
	_, err := Decode([]byte(`not json`))
	assert.Error(t, err)
}

func TestBuilders(t *testing.T) {
	assert.Equal(t, KindStreamStart, StreamStart().Kind())
	assert.Equal(t, KindChunk, ChunkFrame("a").Kind())
	assert.Equal(t, KindStreamEnd, StreamEnd("ab").Kind())
	assert.Equal(t, KindError, ErrorFrame("boom").Kind())
}
