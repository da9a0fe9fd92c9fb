package rpcmock

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/eapache/queue"

	"github.com/machinefabric/rpcmock-go/codec"
	"github.com/machinefabric/rpcmock-go/wire"
)

// FrameSource is an ordered source of encoded frames, consumed one frame
// per poll by a single consumer. Exhaustion is permanent and reported as
// io.EOF; a poll blocked on a live source is released when data arrives,
// the source closes, or ctx is done.
type FrameSource interface {
	PollFrame(ctx context.Context) ([]byte, error)
}

// staticFrameSource serves a finite, pre-built frame list.
type staticFrameSource struct {
	frames *queue.Queue
}

// NewStaticFrameSource creates a FrameSource over pre-built frames.
// Ownership of the frames transfers to the source; each poll pops the
// front frame until the list is exhausted.
func NewStaticFrameSource(frames ...[]byte) FrameSource {
	q := queue.New()
	for _, f := range frames {
		q.Add(f)
	}
	return &staticFrameSource{frames: q}
}

func (s *staticFrameSource) PollFrame(_ context.Context) ([]byte, error) {
	if s.frames.Length() == 0 {
		return nil, io.EOF
	}
	return s.frames.Remove().([]byte), nil
}

// MockBody is a pollable frame stream backing a mock request or response
// body. The static variant pre-encodes a message list; the channel variant
// encodes messages as they arrive on a live channel and supports
// half-close by closing the channel.
//
// A body has exactly one consumer; concurrent polling is not supported.
type MockBody[T any] struct {
	codec codec.Codec

	mu     sync.Mutex
	buffer *queue.Queue // encoded frames not yet delivered
	ch     <-chan T     // nil for the static variant
	closed bool

	// leftover frame bytes for the io.Reader view (static variant only)
	readBuf []byte
}

// NewMockBody creates a static body: every message is encoded up front
// and delivered in order, after which the body is permanently exhausted.
func NewMockBody[T any](c codec.Codec, msgs []T) *MockBody[T] {
	q := queue.New()
	for _, m := range msgs {
		q.Add(wire.EncodeMessage(c, m))
	}
	return &MockBody[T]{codec: c, buffer: q}
}

// NewChannelMockBody creates a body fed by a live channel. Each poll
// drains buffered frames first, then receives from the channel; closing
// the channel half-closes the body once the buffer drains.
func NewChannelMockBody[T any](c codec.Codec, ch <-chan T) *MockBody[T] {
	return &MockBody[T]{codec: c, buffer: queue.New(), ch: ch}
}

// Len reports the number of buffered, not-yet-delivered frames.
func (b *MockBody[T]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buffer.Length()
}

// IsEmpty reports whether no frames are currently buffered.
func (b *MockBody[T]) IsEmpty() bool {
	return b.Len() == 0
}

// PollFrame returns the next encoded frame. Frames are delivered exactly
// once, in the order messages were supplied or sent. After the static list
// or the closed channel drains, every poll returns io.EOF.
func (b *MockBody[T]) PollFrame(ctx context.Context) ([]byte, error) {
	b.mu.Lock()
	if b.buffer.Length() > 0 {
		frame := b.buffer.Remove().([]byte)
		b.mu.Unlock()
		return frame, nil
	}
	if b.ch == nil || b.closed {
		b.mu.Unlock()
		return nil, io.EOF
	}

	// Non-blocking receive first: data may already be waiting.
	select {
	case msg, ok := <-b.ch:
		if !ok {
			b.closed = true
			b.mu.Unlock()
			return nil, io.EOF
		}
		b.mu.Unlock()
		return wire.EncodeMessage(b.codec, msg), nil
	default:
	}
	b.mu.Unlock()

	// Suspension point: wait for new data, half-close, or cancellation.
	// The single-consumer contract means nobody else can drain the channel
	// out from under us while we block here.
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case msg, ok := <-b.ch:
		if !ok {
			b.mu.Lock()
			b.closed = true
			b.mu.Unlock()
			return nil, io.EOF
		}
		return wire.EncodeMessage(b.codec, msg), nil
	}
}

// errChannelRead marks the unsupported Read path on channel-backed bodies.
var errChannelRead = errors.New("rpcmock: channel-backed body does not support Read")

// Read implements io.Reader over the concatenated frame bytes of a static
// body, so a body can feed a wire.FrameReader. Channel-backed bodies are
// poll-driven and return an error.
func (b *MockBody[T]) Read(p []byte) (int, error) {
	if b.ch != nil {
		return 0, errChannelRead
	}
	if len(b.readBuf) == 0 {
		frame, err := b.PollFrame(context.Background())
		if err != nil {
			return 0, err // io.EOF once exhausted
		}
		b.readBuf = frame
	}
	n := copy(p, b.readBuf)
	b.readBuf = b.readBuf[n:]
	return n, nil
}
