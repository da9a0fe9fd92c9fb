package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/machinefabric/rpcmock-go/codec"
)

// FrameReader reads length-prefixed frames from a byte stream.
type FrameReader struct {
	reader io.Reader
}

// NewFrameReader creates a FrameReader over r.
func NewFrameReader(r io.Reader) *FrameReader {
	return &FrameReader{reader: r}
}

// ReadFrame reads a single frame and returns its payload.
// A clean end of stream (no header bytes at all) returns io.EOF; a stream
// truncated mid-frame surfaces as a *WireError.
func (fr *FrameReader) ReadFrame() ([]byte, error) {
	var header [HeaderSize]byte
	if _, err := io.ReadFull(fr.reader, header[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, &WireError{Kind: ErrTooShort, Detail: "truncated frame header"}
		}
		return nil, err
	}

	if header[0] != 0 {
		return nil, &WireError{Kind: ErrUnsupportedCompression, Detail: "non-zero compression flag"}
	}

	length := binary.BigEndian.Uint32(header[1:])
	if int(length) > MaxFrameSize {
		return nil, &WireError{
			Kind:   ErrFrameTooLarge,
			Detail: fmt.Sprintf("declared payload length %d exceeds limit %d", length, MaxFrameSize),
		}
	}
	payload := make([]byte, length)
	if _, err := io.ReadFull(fr.reader, payload); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, &WireError{Kind: ErrLengthMismatch, Detail: "truncated frame payload"}
		}
		return nil, err
	}
	return payload, nil
}

// ReadMessage reads one frame and decodes its payload into T.
func ReadMessage[T any](fr *FrameReader, c codec.Codec) (T, error) {
	var out T
	payload, err := fr.ReadFrame()
	if err != nil {
		return out, err
	}
	if err := c.Unmarshal(payload, &out); err != nil {
		return out, &WireError{Kind: ErrDecodeFailure, Detail: err.Error()}
	}
	return out, nil
}

// FrameWriter writes length-prefixed frames to a byte stream.
type FrameWriter struct {
	writer io.Writer
}

// NewFrameWriter creates a FrameWriter over w.
func NewFrameWriter(w io.Writer) *FrameWriter {
	return &FrameWriter{writer: w}
}

// WriteFrame frames payload and writes it.
func (fw *FrameWriter) WriteFrame(payload []byte) error {
	if len(payload) > MaxFrameSize {
		return &WireError{
			Kind:   ErrFrameTooLarge,
			Detail: fmt.Sprintf("payload length %d exceeds limit %d", len(payload), MaxFrameSize),
		}
	}
	_, err := fw.writer.Write(EncodeFrame(payload))
	return err
}

// WriteMessage marshals msg with c and writes it as one frame.
func (fw *FrameWriter) WriteMessage(c codec.Codec, msg any) error {
	payload, err := c.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode %s message: %w", c.Name(), err)
	}
	return fw.WriteFrame(payload)
}
