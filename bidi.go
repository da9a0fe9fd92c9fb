package rpcmock

import (
	"context"
	"errors"
	"io"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/machinefabric/rpcmock-go/codec"
)

// StreamHandler is the service contract the bidirectional harness drives:
// an opaque callable taking a streaming request and returning a streaming
// response or a service-level error. The harness never inspects business
// logic, only the framing and channel plumbing around the call.
type StreamHandler[Req, Resp any] func(ctx context.Context, req *StreamingRequest[Req]) (*StreamResponse[Resp], error)

const defaultHarnessBuffer = 32

type harnessConfig struct {
	codec     codec.Codec
	clientBuf int
	serverBuf int
}

// HarnessOption configures a BidirectionalTest.
type HarnessOption func(*harnessConfig)

// WithHarnessCodec sets the codec used for the client message stream.
func WithHarnessCodec(c codec.Codec) HarnessOption {
	return func(cfg *harnessConfig) { cfg.codec = c }
}

// WithChannelCapacity sets the client and server channel capacities.
func WithChannelCapacity(client, server int) HarnessOption {
	return func(cfg *harnessConfig) {
		cfg.clientBuf = client
		cfg.serverBuf = server
	}
}

// BidirectionalTest drives one bidirectional streaming service invocation.
// Request production and response consumption run over independent
// channels, so a test can send N messages and read responses one at a
// time — with timeouts — without coupling to the handler's scheduling.
//
// A harness is owned by a single test goroutine; its methods are not safe
// for concurrent use.
type BidirectionalTest[Req, Resp any] struct {
	clientTx  chan Req
	done      chan struct{} // closed by Complete: no further client messages
	serverRx  chan StreamResult[Resp]
	svcExited chan struct{} // closed when the background goroutine ends
	cancel    context.CancelFunc

	completed bool
	disposed  bool
}

// NewBidirectionalTest spawns the handler in a background goroutine wired
// to a channel-backed request stream, and begins forwarding its response
// stream for step-by-step consumption.
func NewBidirectionalTest[Req, Resp any](handler StreamHandler[Req, Resp], opts ...HarnessOption) *BidirectionalTest[Req, Resp] {
	cfg := harnessConfig{codec: codec.Default, clientBuf: defaultHarnessBuffer, serverBuf: defaultHarnessBuffer}
	for _, opt := range opts {
		opt(&cfg)
	}

	ctx, cancel := context.WithCancel(context.Background())
	t := &BidirectionalTest[Req, Resp]{
		clientTx:  make(chan Req, cfg.clientBuf),
		done:      make(chan struct{}),
		serverRx:  make(chan StreamResult[Resp], cfg.serverBuf),
		svcExited: make(chan struct{}),
		cancel:    cancel,
	}

	go t.run(ctx, cfg.codec, handler)
	return t
}

// run invokes the handler once and forwards its response stream. Closing
// serverRx on exit is the end-of-responses signal for the consumer.
func (t *BidirectionalTest[Req, Resp]) run(ctx context.Context, c codec.Codec, handler StreamHandler[Req, Resp]) {
	// svcExited must close before serverRx: once the consumer observes
	// end-of-responses, a subsequent send must deterministically panic.
	defer close(t.serverRx)
	defer close(t.svcExited)

	req := NewStreamingRequestFromChannel(c, t.clientTx)
	resp, err := handler(ctx, req)
	if err != nil {
		select {
		case t.serverRx <- StreamResult[Resp]{Err: err}:
		case <-ctx.Done():
		}
		return
	}

	for {
		msg, rerr := resp.Recv(ctx)
		if errors.Is(rerr, io.EOF) {
			return
		}
		if ctx.Err() != nil {
			// Disposed: the consumer is gone, discard the rest.
			return
		}
		select {
		case t.serverRx <- StreamResult[Resp]{Msg: msg, Err: rerr}:
		case <-ctx.Done():
			return
		}
	}
}

// SendClientMessage sends one message into the client stream, blocking if
// the channel is full.
//
// Calling it after Complete or Dispose, or after the service goroutine has
// already exited, is a contract violation and panics.
func (t *BidirectionalTest[Req, Resp]) SendClientMessage(msg Req) {
	if t.completed {
		panic("rpcmock: cannot send message after test has been completed")
	}
	// Check for an exited service first so the failure is deterministic
	// even when the client channel still has buffer room.
	select {
	case <-t.svcExited:
		panic("rpcmock: cannot send message: service handler has exited")
	default:
	}
	select {
	case t.clientTx <- msg:
	case <-t.svcExited:
		panic("rpcmock: cannot send message: service handler has exited")
	}
}

// GetServerResponse returns the next response message. An error item is
// returned as an error; end of responses is (nil, io.EOF).
func (t *BidirectionalTest[Req, Resp]) GetServerResponse() (*Resp, error) {
	if t.disposed {
		return nil, io.EOF
	}
	r, ok := <-t.serverRx
	if !ok {
		return nil, io.EOF
	}
	if r.Err != nil {
		return nil, r.Err
	}
	msg := r.Msg
	return &msg, nil
}

// GetServerResponseWithTimeout is GetServerResponse bounded by d. A
// timeout returns a DeadlineExceeded status without disturbing the
// response channel; a later read may still succeed.
func (t *BidirectionalTest[Req, Resp]) GetServerResponseWithTimeout(d time.Duration) (*Resp, error) {
	if t.disposed {
		return nil, io.EOF
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case r, ok := <-t.serverRx:
		if !ok {
			return nil, io.EOF
		}
		if r.Err != nil {
			return nil, r.Err
		}
		msg := r.Msg
		return &msg, nil
	case <-timer.C:
		return nil, status.Errorf(codes.DeadlineExceeded, "timeout waiting for server response: exceeded %v", d)
	}
}

// Complete half-closes the client stream and fires the done signal.
// Responses may still arrive afterwards. Idempotent.
func (t *BidirectionalTest[Req, Resp]) Complete() {
	if t.completed {
		return
	}
	t.completed = true
	close(t.clientTx)
	close(t.done)
}

// Done reports client-side completion: the returned channel is closed once
// Complete has been called.
func (t *BidirectionalTest[Req, Resp]) Done() <-chan struct{} {
	return t.done
}

// Dispose tears the harness down: the background goroutine is cancelled
// and both streams are released. Subsequent response reads report io.EOF
// rather than erroring. Idempotent.
func (t *BidirectionalTest[Req, Resp]) Dispose() {
	if t.disposed {
		return
	}
	t.cancel()
	if !t.completed {
		t.completed = true
		close(t.clientTx)
		close(t.done)
	}
	t.disposed = true
}
