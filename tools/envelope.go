package tools

// Envelope is the uniform outcome of a dispatch.
type Envelope struct {
	OK     bool   `json:"ok"`
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Success wraps a handler result.
func Success(result any) Envelope { return Envelope{OK: true, Result: result} }

// Failure reports a failed call.
func Failure(msg string) Envelope { return Envelope{OK: false, Error: msg} }
