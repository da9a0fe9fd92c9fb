// Package wire implements the length-prefixed message framing used by the
// mock transport.
//
// A frame is a 1-byte compression flag (always 0, compression is not
// supported), a 4-byte big-endian payload length, and exactly that many
// payload bytes. The layout is bit-exact with the framing the RPC service
// implementations under test expect, so bytes produced here can be handed
// straight to a real stream reader.
package wire

import (
	"encoding/binary"
	"fmt"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/machinefabric/rpcmock-go/codec"
)

// HeaderSize is the fixed frame header length: 1 flag byte + 4 length bytes.
const HeaderSize = 5

// MaxFrameSize bounds a single frame payload. A declared length beyond it
// is treated as stream corruption rather than honored with a huge
// allocation.
const MaxFrameSize int = 16_777_216

// WireErrorKind discriminates framing failures.
type WireErrorKind int

const (
	// ErrTooShort means fewer than HeaderSize bytes were available.
	ErrTooShort WireErrorKind = iota
	// ErrUnsupportedCompression means the compression flag was non-zero.
	ErrUnsupportedCompression
	// ErrLengthMismatch means the declared payload length exceeds the
	// available bytes.
	ErrLengthMismatch
	// ErrFrameTooLarge means the declared payload length exceeds
	// MaxFrameSize.
	ErrFrameTooLarge
	// ErrDecodeFailure means the payload did not parse as the target
	// message type.
	ErrDecodeFailure
)

// WireError represents a framing or payload decoding failure.
type WireError struct {
	Kind   WireErrorKind
	Detail string
}

func (e *WireError) Error() string {
	switch e.Kind {
	case ErrTooShort:
		return fmt.Sprintf("message too short: %s", e.Detail)
	case ErrUnsupportedCompression:
		return fmt.Sprintf("compression not supported: %s", e.Detail)
	case ErrLengthMismatch:
		return fmt.Sprintf("message incomplete: %s", e.Detail)
	case ErrFrameTooLarge:
		return fmt.Sprintf("message too large: %s", e.Detail)
	case ErrDecodeFailure:
		return fmt.Sprintf("failed to decode message: %s", e.Detail)
	default:
		return fmt.Sprintf("wire error: %s", e.Detail)
	}
}

// GRPCStatus maps the error onto a gRPC status so that
// status.FromError recognizes wire errors in client code under test.
func (e *WireError) GRPCStatus() *status.Status {
	switch e.Kind {
	case ErrUnsupportedCompression:
		return status.New(codes.Unimplemented, e.Error())
	case ErrFrameTooLarge:
		return status.New(codes.ResourceExhausted, e.Error())
	default:
		return status.New(codes.InvalidArgument, e.Error())
	}
}

// EncodeFrame prefixes payload with the 5-byte frame header.
func EncodeFrame(payload []byte) []byte {
	buf := make([]byte, HeaderSize+len(payload))
	buf[0] = 0
	binary.BigEndian.PutUint32(buf[1:HeaderSize], uint32(len(payload)))
	copy(buf[HeaderSize:], payload)
	return buf
}

// EncodeMessage marshals msg with c and frames the result.
//
// There is no error path: message types handed to the toolkit must always
// be serializable, so a marshal failure is a programmer error and panics.
func EncodeMessage(c codec.Codec, msg any) []byte {
	payload, err := c.Marshal(msg)
	if err != nil {
		panic(fmt.Sprintf("rpcmock: cannot %s-encode %T: %v", c.Name(), msg, err))
	}
	return EncodeFrame(payload)
}

// DecodeFrame validates the header of b and splits off one frame.
// It returns the frame payload and the bytes following the frame.
func DecodeFrame(b []byte) (payload, rest []byte, err error) {
	if len(b) < HeaderSize {
		return nil, nil, &WireError{
			Kind:   ErrTooShort,
			Detail: fmt.Sprintf("expected at least %d bytes, got %d", HeaderSize, len(b)),
		}
	}
	if b[0] != 0 {
		return nil, nil, &WireError{
			Kind:   ErrUnsupportedCompression,
			Detail: fmt.Sprintf("compression flag %#x", b[0]),
		}
	}
	length := int(binary.BigEndian.Uint32(b[1:HeaderSize]))
	if len(b) < HeaderSize+length {
		return nil, nil, &WireError{
			Kind:   ErrLengthMismatch,
			Detail: fmt.Sprintf("expected %d payload bytes, got %d", length, len(b)-HeaderSize),
		}
	}
	return b[HeaderSize : HeaderSize+length], b[HeaderSize+length:], nil
}

// DecodeMessage splits one frame off b and unmarshals its payload into T.
// Exactly the declared payload length is consumed.
func DecodeMessage[T any](c codec.Codec, b []byte) (T, error) {
	var out T
	payload, _, err := DecodeFrame(b)
	if err != nil {
		return out, err
	}
	if err := c.Unmarshal(payload, &out); err != nil {
		return out, &WireError{Kind: ErrDecodeFailure, Detail: err.Error()}
	}
	return out, nil
}
