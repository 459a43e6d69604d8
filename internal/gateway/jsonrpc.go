package gateway

import (
	"encoding/json"
	"fmt"
)

const jsonRPCVersion = "2.0"

// Error codes. -32001/-32002 are server-defined in the reserved range.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
	CodeAuthFailed     = -32001
	CodePermission     = -32002
)

// Supported methods.
const (
	MethodInitialize    = "initialize"
	MethodPing          = "ping"
	MethodToolsList     = "tools/list"
	MethodToolsCall     = "tools/call"
	MethodResourcesList = "resources/list"
	MethodResourcesRead = "resources/read"

	notificationPrefix = "notifications/"
)

// Request is an incoming JSON-RPC envelope. ID is kept raw so it can be
// echoed back byte-for-byte.
type Request struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// IsNotification reports whether the message carries no id.
func (r *Request) IsNotification() bool {
	return len(r.ID) == 0
}

// Response carries exactly one of Result or Error.
type Response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  interface{}     `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// RPCError is a JSON-RPC error object. It also implements error so handlers
// can return protocol failures directly.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("jsonrpc error %d: %s", e.Code, e.Message)
}

func newRPCError(code int, format string, args ...interface{}) *RPCError {
	return &RPCError{Code: code, Message: fmt.Sprintf(format, args...)}
}

func errInvalidParams(format string, args ...interface{}) *RPCError {
	return newRPCError(CodeInvalidParams, "Invalid params: "+format, args...)
}

var zeroID = json.RawMessage("0")

func resultResponse(id json.RawMessage, result interface{}) *Response {
	if result == nil {
		result = struct{}{}
	}
	return &Response{JSONRPC: jsonRPCVersion, ID: id, Result: result}
}

func errorResponse(id json.RawMessage, err *RPCError) *Response {
	return &Response{JSONRPC: jsonRPCVersion, ID: id, Error: err}
}
