package shared

// JSONRPCVersion is the version of JSON-RPC to use
const JSONRPCVersion = "2.0"

// ErrorCode represents a JSON-RPC error code
type ErrorCode int

// JSON-RPC error codes used by the dispatcher. Handler failures of any kind
// are reported as ParseError, which is what existing clients expect.
const (
	ParseError     ErrorCode = -32700
	InvalidRequest ErrorCode = -32600
	MethodNotFound ErrorCode = -32601
)

// Int returns the code as a plain int for the wire envelope.
func (c ErrorCode) Int() int {
	return int(c)
}
