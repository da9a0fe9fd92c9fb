package rpcmock

import (
	"context"
	"io"

	"google.golang.org/grpc/metadata"
)

// StreamResult is one observed item of a response stream: a message or a
// service error. Service errors are opaque to the toolkit.
type StreamResult[T any] struct {
	Msg T
	Err error
}

// RecvFunc produces the next stream item. It returns io.EOF at end of
// stream; any other error is an error item and does not by itself end the
// stream (the source decides whether more items follow).
type RecvFunc[T any] func(ctx context.Context) (T, error)

// StreamResponse is a streaming response from a service under test:
// header metadata plus a pull-based item stream.
type StreamResponse[T any] struct {
	header metadata.MD
	recv   RecvFunc[T]
}

// NewStreamResponse creates a response around a RecvFunc.
func NewStreamResponse[T any](recv RecvFunc[T]) *StreamResponse[T] {
	return &StreamResponse[T]{header: metadata.MD{}, recv: recv}
}

// NewStreamResponseFromChannel creates a response fed by a result channel;
// closing the channel ends the stream.
func NewStreamResponseFromChannel[T any](ch <-chan StreamResult[T]) *StreamResponse[T] {
	return NewStreamResponse(func(ctx context.Context) (T, error) {
		var zero T
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case r, ok := <-ch:
			if !ok {
				return zero, io.EOF
			}
			if r.Err != nil {
				return zero, r.Err
			}
			return r.Msg, nil
		}
	})
}

// Recv returns the next response item; io.EOF at end of stream.
func (r *StreamResponse[T]) Recv(ctx context.Context) (T, error) {
	return r.recv(ctx)
}

// Header returns the response header metadata for reading or mutation.
func (r *StreamResponse[T]) Header() metadata.MD { return r.header }
