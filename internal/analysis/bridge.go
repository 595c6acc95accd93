package analysis

import (
	"encoding/json"
	"fmt"
	"sync"
)

var defaultEngine = sync.OnceValue(func() *Engine {
	return NewEngine(DefaultOptions())
})

// CodeAnalysis is the host entry point. It accepts a JSON string or bytes, a
// decoded object, or a Request, and returns the JSON encoded Response.
func CodeAnalysis(input any) string {
	return defaultEngine().Bridge(input)
}

// Bridge normalizes input to a request, executes it and encodes the
// response.
func (e *Engine) Bridge(input any) string {
	var resp Response
	switch v := input.(type) {
	case string:
		resp = e.ExecuteJSON([]byte(v))
	case []byte:
		resp = e.ExecuteJSON(v)
	case json.RawMessage:
		resp = e.ExecuteJSON(v)
	case map[string]any:
		resp = e.ExecuteMap(v)
	case Request:
		resp = e.Execute(v)
	case *Request:
		if v == nil {
			resp = e.Execute(Request{})
			break
		}
		resp = e.Execute(*v)
	default:
		resp = Response{Success: false, Error: fmt.Sprintf("Invalid JSON input: unsupported input type %T", input)}
	}
	return EncodeResponse(resp)
}

// EncodeResponse marshals resp, falling back to an error response if the
// output cannot be encoded.
func EncodeResponse(resp Response) string {
	data, err := json.Marshal(resp)
	if err != nil {
		data, _ = json.Marshal(Response{Success: false, Error: fmt.Sprintf("encode response: %v", err)})
	}
	return string(data)
}
