package rpcmock

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type reply struct {
	Code int32 `cbor:"code"`
}

func sliceResponse(msgs ...reply) *StreamResponse[reply] {
	i := 0
	return NewStreamResponse(func(ctx context.Context) (reply, error) {
		if i >= len(msgs) {
			return reply{}, io.EOF
		}
		msg := msgs[i]
		i++
		return msg, nil
	})
}

func TestProcessStreamingResponse(t *testing.T) {
	resp := sliceResponse(reply{Code: 0}, reply{Code: 1}, reply{Code: 2})

	var indices []int
	ProcessStreamingResponse(context.Background(), resp, func(msg reply, err error, idx int) {
		require.NoError(t, err)
		assert.Equal(t, int32(idx), msg.Code)
		indices = append(indices, idx)
	})

	assert.Equal(t, []int{0, 1, 2}, indices)
}

func TestProcessStreamingResponseEmptyStream(t *testing.T) {
	calls := 0
	ProcessStreamingResponse(context.Background(), sliceResponse(), func(reply, error, int) {
		calls++
	})
	assert.Zero(t, calls)
}

func TestProcessStreamingResponseErrorItems(t *testing.T) {
	svcErr := status.Error(codes.Internal, "simulated error")
	items := []StreamResult[reply]{
		{Msg: reply{Code: 0}},
		{Err: svcErr},
		{Msg: reply{Code: 2}},
	}
	i := 0
	resp := NewStreamResponse(func(ctx context.Context) (reply, error) {
		if i >= len(items) {
			return reply{}, io.EOF
		}
		item := items[i]
		i++
		return item.Msg, item.Err
	})

	var seen []error
	ProcessStreamingResponse(context.Background(), resp, func(msg reply, err error, idx int) {
		seen = append(seen, err)
	})

	require.Len(t, seen, 3)
	assert.NoError(t, seen[0])
	assert.ErrorIs(t, seen[1], svcErr)
	assert.NoError(t, seen[2])
}

func TestProcessWithTimeoutCompletesFastStream(t *testing.T) {
	resp := sliceResponse(reply{Code: 0}, reply{Code: 1})

	count := 0
	ProcessStreamingResponseWithTimeout(context.Background(), resp, time.Second, func(msg reply, err error, idx int) {
		require.NoError(t, err)
		count++
	})
	assert.Equal(t, 2, count)
}

func TestProcessWithTimeoutStopsOnStall(t *testing.T) {
	ch := make(chan StreamResult[reply], 1)
	ch <- StreamResult[reply]{Msg: reply{Code: 0}}
	// Never send a second item and never close: the stream stalls.
	resp := NewStreamResponseFromChannel(ch)

	var last error
	var lastIdx int
	calls := 0
	ProcessStreamingResponseWithTimeout(context.Background(), resp, 50*time.Millisecond, func(msg reply, err error, idx int) {
		calls++
		last = err
		lastIdx = idx
	})

	assert.Equal(t, 2, calls, "one item, then one timeout entry")
	assert.Equal(t, 1, lastIdx)
	assert.Equal(t, codes.DeadlineExceeded, status.Convert(last).Code())
}

func TestProcessStreamingResponseStopsOnCancel(t *testing.T) {
	// Never-fed channel: without the cancel, every Recv would block forever.
	resp := NewStreamResponseFromChannel(make(chan StreamResult[reply]))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	ProcessStreamingResponse(ctx, resp, func(reply, error, int) {
		calls++
	})
	assert.Zero(t, calls, "cancellation is terminal, not an error item")
}

func TestProcessWithTimeoutStopsOnParentCancel(t *testing.T) {
	resp := NewStreamResponseFromChannel(make(chan StreamResult[reply]))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	calls := 0
	ProcessStreamingResponseWithTimeout(ctx, resp, time.Second, func(reply, error, int) {
		calls++
	})
	assert.Zero(t, calls, "parent cancel must not be reported as a timeout entry")
}

func TestStreamToVecStopsOnCancel(t *testing.T) {
	resp := NewStreamResponseFromChannel(make(chan StreamResult[reply]))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := StreamToVec(ctx, resp)
	assert.Empty(t, results)
}

func TestStreamToVecWithTimeoutStopsOnParentCancel(t *testing.T) {
	resp := NewStreamResponseFromChannel(make(chan StreamResult[reply]))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	results := StreamToVecWithTimeout(ctx, resp, time.Second)
	assert.Empty(t, results)
}

func TestStreamToVec(t *testing.T) {
	resp := sliceResponse(reply{Code: 0}, reply{Code: 1}, reply{Code: 2})

	results := StreamToVec(context.Background(), resp)
	require.Len(t, results, 3)
	for i, r := range results {
		require.NoError(t, r.Err)
		assert.Equal(t, int32(i), r.Msg.Code)
	}
}

func TestStreamToVecWithTimeoutAppendsFinalError(t *testing.T) {
	ch := make(chan StreamResult[reply], 2)
	ch <- StreamResult[reply]{Msg: reply{Code: 0}}
	ch <- StreamResult[reply]{Msg: reply{Code: 1}}
	resp := NewStreamResponseFromChannel(ch)

	results := StreamToVecWithTimeout(context.Background(), resp, 50*time.Millisecond)
	require.Len(t, results, 3)
	assert.NoError(t, results[0].Err)
	assert.NoError(t, results[1].Err)
	assert.Equal(t, codes.DeadlineExceeded, status.Convert(results[2].Err).Code())
}

func TestStreamToVecWithTimeoutCleanEnd(t *testing.T) {
	ch := make(chan StreamResult[reply], 1)
	ch <- StreamResult[reply]{Msg: reply{Code: 7}}
	close(ch)
	resp := NewStreamResponseFromChannel(ch)

	results := StreamToVecWithTimeout(context.Background(), resp, 50*time.Millisecond)
	require.Len(t, results, 1)
	assert.Equal(t, int32(7), results[0].Msg.Code)
}

func TestDelayedItemWithinTimeoutSucceeds(t *testing.T) {
	ch := make(chan StreamResult[reply])
	go func() {
		time.Sleep(30 * time.Millisecond)
		ch <- StreamResult[reply]{Msg: reply{Code: 9}}
		close(ch)
	}()
	resp := NewStreamResponseFromChannel(ch)

	results := StreamToVecWithTimeout(context.Background(), resp, 500*time.Millisecond)
	require.Len(t, results, 1)
	require.NoError(t, results[0].Err)
	assert.Equal(t, int32(9), results[0].Msg.Code)
}

func TestMockUnaryCall(t *testing.T) {
	resp, err := MockUnaryCall("example.TestService", "TestMethod", reply{Code: 1}, func(req reply) (reply, error) {
		return reply{Code: req.Code + 1}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, int32(2), resp.Code)

	wantErr := errors.New("boom")
	_, err = MockUnaryCall("example.TestService", "TestMethod", reply{}, func(reply) (reply, error) {
		return reply{}, wantErr
	})
	assert.ErrorIs(t, err, wantErr)
}
