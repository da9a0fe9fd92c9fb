package rpcmock

import (
	"context"

	"google.golang.org/grpc/metadata"

	"github.com/machinefabric/rpcmock-go/codec"
	"github.com/machinefabric/rpcmock-go/wire"
)

// StreamDecoder turns a FrameSource into a sequence of typed messages.
// Each Recv consumes exactly one frame; a decode failure on one frame is
// positional and leaves subsequent frames intact.
type StreamDecoder[T any] struct {
	codec codec.Codec
	src   FrameSource
}

// NewStreamDecoder creates a decoder over src using codec c.
func NewStreamDecoder[T any](c codec.Codec, src FrameSource) *StreamDecoder[T] {
	return &StreamDecoder[T]{codec: c, src: src}
}

// Recv returns the next decoded message, io.EOF at end of stream, or a
// decode error for the current frame.
func (d *StreamDecoder[T]) Recv(ctx context.Context) (T, error) {
	var zero T
	frame, err := d.src.PollFrame(ctx)
	if err != nil {
		return zero, err
	}
	return wire.DecodeMessage[T](d.codec, frame)
}

// Request is a unary inbound request: one message plus metadata.
type Request[T any] struct {
	msg T
	md  metadata.MD
}

// NewRequest wraps msg in a request with empty metadata.
func NewRequest[T any](msg T) *Request[T] {
	return &Request[T]{msg: msg, md: metadata.MD{}}
}

// NewRequestWithInterceptor wraps msg and lets the interceptor mutate the
// request (typically its metadata) before it is returned.
func NewRequestWithInterceptor[T any](msg T, interceptor func(*Request[T])) *Request[T] {
	r := NewRequest(msg)
	interceptor(r)
	return r
}

// Message returns the request payload.
func (r *Request[T]) Message() T { return r.msg }

// Metadata returns the request metadata for reading or mutation.
func (r *Request[T]) Metadata() metadata.MD { return r.md }

// StreamingRequest is an inbound streaming request: a typed message stream
// over a mock body, plus metadata. Hand it to the service handler under
// test and have the handler call Recv until io.EOF.
type StreamingRequest[T any] struct {
	stream *StreamDecoder[T]
	md     metadata.MD
}

// NewStreamingRequest builds a streaming request whose body holds the
// given messages, framed exactly as a live transport would frame them.
func NewStreamingRequest[T any](c codec.Codec, msgs []T) *StreamingRequest[T] {
	return &StreamingRequest[T]{
		stream: NewStreamDecoder[T](c, NewMockBody(c, msgs)),
		md:     metadata.MD{},
	}
}

// NewStreamingRequestFromChannel builds a streaming request fed by a live
// channel; closing the channel half-closes the request stream.
func NewStreamingRequestFromChannel[T any](c codec.Codec, ch <-chan T) *StreamingRequest[T] {
	return &StreamingRequest[T]{
		stream: NewStreamDecoder[T](c, NewChannelMockBody(c, ch)),
		md:     metadata.MD{},
	}
}

// NewStreamingRequestWithInterceptor builds a streaming request and lets
// the interceptor mutate it before it is returned.
func NewStreamingRequestWithInterceptor[T any](c codec.Codec, msgs []T, interceptor func(*StreamingRequest[T])) *StreamingRequest[T] {
	r := NewStreamingRequest(c, msgs)
	interceptor(r)
	return r
}

// Recv returns the next request message, io.EOF after the final one.
func (r *StreamingRequest[T]) Recv(ctx context.Context) (T, error) {
	return r.stream.Recv(ctx)
}

// Metadata returns the request metadata for reading or mutation.
func (r *StreamingRequest[T]) Metadata() metadata.MD { return r.md }
