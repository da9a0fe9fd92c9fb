// Package rpcmock is a test-double toolkit for exercising RPC service
// implementations without a live network stack.
//
// It covers four testing concerns:
//
//   - building inbound streaming/unary request objects from plain in-memory
//     messages (NewRequest, NewStreamingRequest)
//   - consuming and asserting on streaming responses, including per-item
//     timeouts (ProcessStreamingResponse, StreamToVec)
//   - driving a bidirectional streaming handler interactively
//     (BidirectionalTest)
//   - mocking an outbound RPC client so caller code can be tested without a
//     server (package mockclient)
//
// Messages travel through the same length-prefixed wire framing a real
// transport would use (package wire); serialization is pluggable through
// package codec, defaulting to CBOR.
package rpcmock
