package transport

import "encoding/json"

// Frame is a JSON-RPC 2.0 request/response envelope as described in
// spec.md §6: request objects carry jsonrpc/id/method/params; responses
// carry either result or error.
type Frame struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int64           `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// RPCError is the {code, message, data?} shape JSON-RPC errors surface as.
type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}

func newRequest(id int64, method string, params interface{}) (Frame, error) {
	var raw json.RawMessage
	if params != nil {
		data, err := json.Marshal(params)
		if err != nil {
			return Frame{}, err
		}
		raw = data
	}
	return Frame{JSONRPC: "2.0", ID: id, Method: method, Params: raw}, nil
}
