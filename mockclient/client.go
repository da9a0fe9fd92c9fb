// Package mockclient mocks an outbound RPC client: tests register
// (service, method) handlers — unconditional or predicate-gated — and code
// under test dispatches encoded requests against them, receiving encoded
// responses, metadata, and simulated latency without a server.
package mockclient

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/machinefabric/rpcmock-go/codec"
)

// Transport is the dispatch surface a client under test calls into.
// MockClient implements it; client constructors should accept this
// interface so tests can hand them a mock.
type Transport interface {
	HandleRequest(ctx context.Context, service, method string, reqBytes []byte) ([]byte, metadata.MD, error)
}

// resolution is the tagged outcome of one handler attempt. An unmatched
// predicate is expressed here — never as a sentinel error value — so it
// cannot collide with genuine service errors.
type resolution struct {
	matched bool
	resp    []byte
	header  metadata.MD
	err     error
}

// resolver evaluates one registered handler against raw request bytes.
type resolver func(reqBytes []byte) resolution

type handlerEntry struct {
	service string
	method  string
	resolve resolver
}

// CallRecord is one recorded dispatch, kept when call recording is on.
type CallRecord struct {
	ID      uuid.UUID
	Service string
	Method  string
	Request []byte
	At      time.Time
}

// MockClient is an ordered registry of mock handlers. Registration and
// dispatch may happen from any goroutine; the registry lock is held only
// for the lookup-and-resolve step, never across a simulated delay, so one
// in-flight call's delay does not block registration or other calls.
type MockClient struct {
	mu       sync.Mutex
	handlers []handlerEntry
	calls    []CallRecord

	codec       codec.Codec
	recordCalls bool
}

// Option configures a MockClient.
type Option func(*MockClient)

// WithCodec sets the codec used to decode requests for predicates and to
// encode mock responses. Defaults to codec.Default.
func WithCodec(c codec.Codec) Option {
	return func(m *MockClient) { m.codec = c }
}

// WithCallRecording makes the client keep a CallRecord per dispatch,
// retrievable with Calls.
func WithCallRecording() Option {
	return func(m *MockClient) { m.recordCalls = true }
}

// New creates a MockClient with no handlers configured.
func New(opts ...Option) *MockClient {
	m := &MockClient{codec: codec.Default}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Reset clears all registered handlers and recorded calls.
func (m *MockClient) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers = nil
	m.calls = nil
}

// Calls returns a copy of the recorded dispatches, oldest first.
func (m *MockClient) Calls() []CallRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]CallRecord, len(m.calls))
	copy(out, m.calls)
	return out
}

// register appends a handler; entries for the same (service, method) form
// an ordered list with the most recent registration last.
func (m *MockClient) register(service, method string, r resolver) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers = append(m.handlers, handlerEntry{service: service, method: method, resolve: r})
}

// HandleRequest resolves a request against the registered handlers,
// newest first. Handlers whose predicate does not match are skipped; the
// first match determines the result. No handler for (service, method)
// fails with an Unimplemented status. A configured delay is applied after
// the registry lock is released and only on the success path.
func (m *MockClient) HandleRequest(ctx context.Context, service, method string, reqBytes []byte) ([]byte, metadata.MD, error) {
	m.mu.Lock()
	if m.recordCalls {
		m.calls = append(m.calls, CallRecord{
			ID:      uuid.New(),
			Service: service,
			Method:  method,
			Request: append([]byte(nil), reqBytes...),
			At:      time.Now(),
		})
	}
	var res *resolution
	for i := len(m.handlers) - 1; i >= 0; i-- {
		h := m.handlers[i]
		if h.service != service || h.method != method {
			continue
		}
		if r := h.resolve(reqBytes); r.matched {
			res = &r
			break
		}
	}
	m.mu.Unlock()

	if res == nil {
		return nil, nil, status.Errorf(codes.Unimplemented, "no mock handler configured for %s/%s", service, method)
	}
	if res.err != nil {
		return nil, nil, res.err
	}
	if err := applyDelay(ctx, res.header); err != nil {
		return nil, nil, err
	}
	return res.resp, res.header, nil
}

// applyDelay suspends the caller for the duration carried by the reserved
// delay metadata key, honoring ctx cancellation.
func applyDelay(ctx context.Context, md metadata.MD) error {
	values := md.Get(DelayMetadataKey)
	if len(values) == 0 {
		return nil
	}
	ms, err := strconv.ParseInt(values[0], 10, 64)
	if err != nil || ms <= 0 {
		return nil
	}
	timer := time.NewTimer(time.Duration(ms) * time.Millisecond)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
