// Package mocktest provides ready-made message types and stream builders
// for tests of code that uses rpcmock, plus assertion helpers for them.
package mocktest

import (
	"context"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"

	rpcmock "github.com/machinefabric/rpcmock-go"
)

// TestRequest is a simple request message for exercising streaming
// request paths.
type TestRequest struct {
	ID   []byte `cbor:"id" json:"id"`
	Data []byte `cbor:"data" json:"data"`
}

// NewTestRequest creates a TestRequest from string ID and data.
func NewTestRequest(id, data string) TestRequest {
	return TestRequest{ID: []byte(id), Data: []byte(data)}
}

// TestResponse is a simple response message for exercising streaming
// response paths.
type TestResponse struct {
	Code    int32  `cbor:"code" json:"code"`
	Message string `cbor:"message" json:"message"`
}

// NewTestResponse creates a TestResponse.
func NewTestResponse(code int32, message string) TestResponse {
	return TestResponse{Code: code, Message: message}
}

// CreateTestMessages returns count requests with sequential IDs.
func CreateTestMessages(count int) []TestRequest {
	msgs := make([]TestRequest, 0, count)
	for i := 0; i < count; i++ {
		msgs = append(msgs, NewTestRequest(fmt.Sprintf("%d", i), fmt.Sprintf("test_data_%d", i)))
	}
	return msgs
}

// NewStreamResponse builds a streaming response that yields the given
// messages in order, then ends.
func NewStreamResponse[T any](msgs ...T) *rpcmock.StreamResponse[T] {
	i := 0
	return rpcmock.NewStreamResponse(func(ctx context.Context) (T, error) {
		var zero T
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		if i >= len(msgs) {
			return zero, io.EOF
		}
		msg := msgs[i]
		i++
		return msg, nil
	})
}

// NewStreamResponseWithErrors builds a streaming response that yields err
// instead of the message at each index listed in errIndices, then
// continues with the remaining messages.
func NewStreamResponseWithErrors[T any](msgs []T, errIndices []int, err error) *rpcmock.StreamResponse[T] {
	failAt := make(map[int]bool, len(errIndices))
	for _, idx := range errIndices {
		failAt[idx] = true
	}
	i := 0
	return rpcmock.NewStreamResponse(func(ctx context.Context) (T, error) {
		var zero T
		if cerr := ctx.Err(); cerr != nil {
			return zero, cerr
		}
		if i >= len(msgs) {
			return zero, io.EOF
		}
		idx := i
		i++
		if failAt[idx] {
			return zero, err
		}
		return msgs[idx], nil
	})
}

// AssertMessageEq asserts that a request carries the expected ID and data.
func AssertMessageEq(t *testing.T, msg TestRequest, id, data string) {
	t.Helper()
	assert.Equal(t, id, string(msg.ID))
	assert.Equal(t, data, string(msg.Data))
}

// AssertResponseEq asserts that a response carries the expected code and
// message.
func AssertResponseEq(t *testing.T, resp TestResponse, code int32, message string) {
	t.Helper()
	assert.Equal(t, code, resp.Code)
	assert.Equal(t, message, resp.Message)
}
