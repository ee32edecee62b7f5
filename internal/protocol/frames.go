// Package protocol defines the JSON frames exchanged over the chat WebSocket.
package protocol

import "encoding/json"

// FrameKind identifies how an inbound frame must be handled.
type FrameKind int

const (
	// KindUnknown marks a frame that matched none of the known shapes.
	KindUnknown FrameKind = iota
	// KindStreamStart marks the beginning of a streamed reply.
	KindStreamStart
	// KindChunk carries one fragment of an in-progress reply.
	KindChunk
	// KindStreamEnd marks the end of a streamed reply.
	KindStreamEnd
	// KindError carries a backend-reported application error.
	KindError
)

// ChatRequest is the client-to-server frame.
type ChatRequest struct {
	Message  string `json:"message"`
	ExpertID string `json:"expert_id"`
}

// Frame is the server-to-client frame. The backend sends mutually exclusive
// field sets; pointer fields keep field presence distinguishable from zero
// values. Response accompanies the final streaming:false frame and carries
// the full reply text for clients that do not assemble chunks.
type Frame struct {
	Streaming *bool   `json:"streaming,omitempty"`
	Chunk     *string `json:"chunk,omitempty"`
	Response  *string `json:"response,omitempty"`
	Error     *string `json:"error,omitempty"`
}

// Kind classifies the frame. The order matters: a stream-start frame must
// not carry a chunk, so a frame with both falls into the chunk branch.
func (f *Frame) Kind() FrameKind {
	switch {
	case f.Streaming != nil && *f.Streaming && f.Chunk == nil:
		return KindStreamStart
	case f.Chunk != nil:
		return KindChunk
	case f.Streaming != nil && !*f.Streaming:
		return KindStreamEnd
	case f.Error != nil:
		return KindError
	}
	return KindUnknown
}

// Decode parses a raw inbound frame.
func Decode(data []byte) (*Frame, error) {
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// StreamStart builds the frame that announces a streamed reply.
func StreamStart() *Frame {
	t := true
	return &Frame{Streaming: &t}
}

// ChunkFrame builds a frame carrying one reply fragment.
func ChunkFrame(text string) *Frame {
	return &Frame{Chunk: &text}
}

// StreamEnd builds the final frame of a streamed reply, carrying the full
// assembled text.
func StreamEnd(full string) *Frame {
	f := false
	return &Frame{Streaming: &f, Response: &full}
}

// ErrorFrame builds a frame reporting an application error.
func ErrorFrame(msg string) *Frame {
	return &Frame{Error: &msg}
}
