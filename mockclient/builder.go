package mockclient

import (
	"github.com/machinefabric/rpcmock-go/wire"
)

// Builder configures mock handlers for one (service, method) pair. Calls
// chain; each RespondWith/RespondWhen appends one handler, and the
// dispatcher evaluates handlers newest first.
type Builder[Req, Resp any] struct {
	client  *MockClient
	service string
	method  string
}

// Mock begins configuring handlers for a (service, method) pair.
// It is a top-level function because Go methods cannot introduce the
// request and response type parameters.
func Mock[Req, Resp any](c *MockClient, service, method string) *Builder[Req, Resp] {
	return &Builder[Req, Resp]{client: c, service: service, method: method}
}

// RespondWith appends an unconditional handler resolving every request to
// def.
func (b *Builder[Req, Resp]) RespondWith(def *ResponseDefinition[Resp]) *Builder[Req, Resp] {
	c := b.client.codec
	b.client.register(b.service, b.method, func(_ []byte) resolution {
		resp, header, err := def.resolve(c)
		return resolution{matched: true, resp: resp, header: header, err: err}
	})
	return b
}

// RespondWhen appends a conditional handler: the request is decoded and
// def applies only if predicate(request) holds. A decode failure
// propagates immediately; a non-matching predicate falls through to the
// next-older handler.
func (b *Builder[Req, Resp]) RespondWhen(predicate func(Req) bool, def *ResponseDefinition[Resp]) *Builder[Req, Resp] {
	c := b.client.codec
	b.client.register(b.service, b.method, func(reqBytes []byte) resolution {
		req, err := wire.DecodeMessage[Req](c, reqBytes)
		if err != nil {
			return resolution{matched: true, err: err}
		}
		if !predicate(req) {
			return resolution{}
		}
		resp, header, rerr := def.resolve(c)
		return resolution{matched: true, resp: resp, header: header, err: rerr}
	})
	return b
}
