package rpcmock

// MockUnaryCall simulates a unary RPC method call against a handler
// function. The service and method names identify the call for the reader;
// the request is handed to the handler as-is, with no transport between.
//
// For mocks that resolve by (service, method) and request content, use
// package mockclient instead.
func MockUnaryCall[Req, Resp any](service, method string, req Req, handler func(Req) (Resp, error)) (Resp, error) {
	_, _ = service, method
	return handler(req)
}
