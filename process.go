package rpcmock

import (
	"context"
	"errors"
	"io"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ProcessStreamingResponse iterates the response stream and invokes f for
// every item with its 0-based index. It returns when the stream ends.
func ProcessStreamingResponse[T any](ctx context.Context, resp *StreamResponse[T], f func(msg T, err error, idx int)) {
	for i := 0; ; i++ {
		msg, err := resp.Recv(ctx)
		if errors.Is(err, io.EOF) {
			return
		}
		// A cancelled caller context is terminal, not an error item.
		if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			return
		}
		f(msg, err, i)
	}
}

// ProcessStreamingResponseWithTimeout is ProcessStreamingResponse with a
// per-item bound: if no item arrives within d, f is invoked once with a
// DeadlineExceeded status at the current index and processing stops. The
// stream is abandoned, not resumed.
func ProcessStreamingResponseWithTimeout[T any](ctx context.Context, resp *StreamResponse[T], d time.Duration, f func(msg T, err error, idx int)) {
	for i := 0; ; i++ {
		itemCtx, cancel := context.WithTimeout(ctx, d)
		msg, err := resp.Recv(itemCtx)
		cancel()
		if errors.Is(err, io.EOF) {
			return
		}
		// The caller's own context going away is terminal; only an
		// expiry of the per-item bound produces a timeout entry.
		if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			return
		}
		if errors.Is(err, context.DeadlineExceeded) {
			var zero T
			f(zero, deadlineExceeded(i, d), i)
			return
		}
		f(msg, err, i)
	}
}

// StreamToVec collects the response stream into a result slice.
func StreamToVec[T any](ctx context.Context, resp *StreamResponse[T]) []StreamResult[T] {
	var out []StreamResult[T]
	for {
		msg, err := resp.Recv(ctx)
		if errors.Is(err, io.EOF) {
			return out
		}
		if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			return out
		}
		out = append(out, StreamResult[T]{Msg: msg, Err: err})
	}
}

// StreamToVecWithTimeout collects the response stream with a per-item
// bound; a timeout appends one final DeadlineExceeded entry and stops.
func StreamToVecWithTimeout[T any](ctx context.Context, resp *StreamResponse[T], d time.Duration) []StreamResult[T] {
	var out []StreamResult[T]
	for {
		itemCtx, cancel := context.WithTimeout(ctx, d)
		msg, err := resp.Recv(itemCtx)
		cancel()
		if errors.Is(err, io.EOF) {
			return out
		}
		if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
			return out
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return append(out, StreamResult[T]{Err: deadlineExceeded(len(out), d)})
		}
		out = append(out, StreamResult[T]{Msg: msg, Err: err})
	}
}

func deadlineExceeded(idx int, d time.Duration) error {
	return status.Errorf(codes.DeadlineExceeded, "timeout waiting for message %d: exceeded %v", idx, d)
}
