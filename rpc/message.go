// File: rpc/message.go
// Author: momentics <momentics@gmail.com>
//
// JSON-RPC 2.0 wire types, grounded on original_source/test/jsonrpchttp-test.cpp
// (registerMethod/RemoteProcedure/RemoteException) translated to the
// standard JSON-RPC 2.0 envelope rather than cxxtools' own SerializationInfo
// format.

package rpc

import (
	"encoding/json"
	"fmt"
)

const protocolVersion = "2.0"

// Standard JSON-RPC 2.0 error codes (https://www.jsonrpc.org/specification).
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)

// Request is one JSON-RPC 2.0 call envelope.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      int64           `json:"id"`
}

// Response is one JSON-RPC 2.0 reply envelope. Exactly one of Result or
// Error is populated, per the spec.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *Fault          `json:"error,omitempty"`
	ID      int64           `json:"id"`
}

// Fault is a JSON-RPC 2.0 error object. It is the Go analogue of
// cxxtools::RemoteException(text, rc): a handler may return a *Fault
// directly to control the wire error code, or any other error, which the
// server reports as CodeInternalError.
type Fault struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (f *Fault) Error() string {
	return fmt.Sprintf("rpc fault %d: %s", f.Code, f.Message)
}

// NewFault constructs a Fault with the given code and message, mirroring
// cxxtools::RemoteException's (text, rc) constructor order reversed to
// match Go's (code, message) convention used elsewhere in this repo
// (selector.IOError{Op, Err}).
func NewFault(code int, message string) *Fault {
	return &Fault{Code: code, Message: message}
}
