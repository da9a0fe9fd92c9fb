package mockclient

import (
	"strconv"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/machinefabric/rpcmock-go/codec"
	"github.com/machinefabric/rpcmock-go/wire"
)

// DelayMetadataKey is the reserved metadata key carrying a simulated delay
// in milliseconds. The dispatcher honors it internally; consumers should
// strip or ignore it before treating metadata as application-visible.
const DelayMetadataKey = "mock-delay-ms"

// ResponseDefinition describes what a mock handler resolves to: a success
// payload or an error (exactly one of the two), plus optional metadata
// pairs and an optional simulated delay.
type ResponseDefinition[Resp any] struct {
	response      *Resp
	err           error
	metadataPairs [][2]string
	delay         time.Duration
}

// OK creates a success response definition.
func OK[Resp any](response Resp) *ResponseDefinition[Resp] {
	return &ResponseDefinition[Resp]{response: &response}
}

// Err creates an error response definition.
func Err[Resp any](err error) *ResponseDefinition[Resp] {
	return &ResponseDefinition[Resp]{err: err}
}

// WithMetadata appends a metadata pair to the response.
func (d *ResponseDefinition[Resp]) WithMetadata(key, value string) *ResponseDefinition[Resp] {
	d.metadataPairs = append(d.metadataPairs, [2]string{key, value})
	return d
}

// WithDelay attaches a simulated network latency, observable by the caller
// as added HandleRequest latency on the success path.
func (d *ResponseDefinition[Resp]) WithDelay(delay time.Duration) *ResponseDefinition[Resp] {
	d.delay = delay
	return d
}

// header builds the response metadata, including the reserved delay key.
func (d *ResponseDefinition[Resp]) header() metadata.MD {
	md := metadata.MD{}
	for _, pair := range d.metadataPairs {
		md.Append(pair[0], pair[1])
	}
	if d.delay > 0 {
		md.Set(DelayMetadataKey, strconv.FormatInt(d.delay.Milliseconds(), 10))
	}
	return md
}

// resolve turns the definition into encoded response bytes and metadata.
// A definition with neither payload nor error set is a construction bug
// and resolves to an internal-error status.
func (d *ResponseDefinition[Resp]) resolve(c codec.Codec) ([]byte, metadata.MD, error) {
	if d.err != nil {
		return nil, nil, d.err
	}
	if d.response != nil {
		return wire.EncodeMessage(c, *d.response), d.header(), nil
	}
	return nil, nil, status.Error(codes.Internal, "invalid ResponseDefinition: neither response nor error is set")
}
