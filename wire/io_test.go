package wire

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/machinefabric/rpcmock-go/codec"
)

func TestFrameReaderWriterRoundtrip(t *testing.T) {
	var buf bytes.Buffer
	w := NewFrameWriter(&buf)

	payloads := [][]byte{[]byte("one"), []byte("two"), {}, []byte("four")}
	for _, p := range payloads {
		require.NoError(t, w.WriteFrame(p))
	}

	r := NewFrameReader(&buf)
	for _, want := range payloads {
		got, err := r.ReadFrame()
		require.NoError(t, err)
		assert.Equal(t, want, append([]byte{}, got...))
	}

	_, err := r.ReadFrame()
	assert.ErrorIs(t, err, io.EOF)
}

func TestFrameReaderTruncatedHeader(t *testing.T) {
	r := NewFrameReader(bytes.NewReader([]byte{0, 0}))

	_, err := r.ReadFrame()
	var werr *WireError
	require.ErrorAs(t, err, &werr)
	assert.Equal(t, ErrTooShort, werr.Kind)
}

func TestFrameReaderTruncatedPayload(t *testing.T) {
	full := EncodeFrame([]byte("payload"))
	r := NewFrameReader(bytes.NewReader(full[:len(full)-3]))

	_, err := r.ReadFrame()
	var werr *WireError
	require.ErrorAs(t, err, &werr)
	assert.Equal(t, ErrLengthMismatch, werr.Kind)
}

func TestFrameReaderRejectsCompression(t *testing.T) {
	full := EncodeFrame([]byte("payload"))
	full[0] = 1
	r := NewFrameReader(bytes.NewReader(full))

	_, err := r.ReadFrame()
	var werr *WireError
	require.ErrorAs(t, err, &werr)
	assert.Equal(t, ErrUnsupportedCompression, werr.Kind)
}

func TestFrameReaderRejectsOversizedLength(t *testing.T) {
	// Header declaring a ~4 GiB payload; the reader must fail on the
	// declared length without attempting the allocation.
	header := []byte{0, 0xff, 0xff, 0xff, 0xff}
	r := NewFrameReader(bytes.NewReader(header))

	_, err := r.ReadFrame()
	var werr *WireError
	require.ErrorAs(t, err, &werr)
	assert.Equal(t, ErrFrameTooLarge, werr.Kind)
}

func TestFrameWriterRejectsOversizedPayload(t *testing.T) {
	var buf bytes.Buffer
	w := NewFrameWriter(&buf)

	err := w.WriteFrame(make([]byte, MaxFrameSize+1))
	var werr *WireError
	require.ErrorAs(t, err, &werr)
	assert.Equal(t, ErrFrameTooLarge, werr.Kind)
	assert.Zero(t, buf.Len(), "nothing may reach the stream")
}

func TestWriteReadMessage(t *testing.T) {
	var buf bytes.Buffer
	w := NewFrameWriter(&buf)

	msg := testMessage{ID: "42", Data: "hello"}
	require.NoError(t, w.WriteMessage(codec.CBOR{}, msg))

	r := NewFrameReader(&buf)
	got, err := ReadMessage[testMessage](r, codec.CBOR{})
	require.NoError(t, err)
	assert.Equal(t, msg, got)
}
