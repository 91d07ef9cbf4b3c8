package apperror

import (
	"encoding/json"
	"net/http"
)

// Envelope is the response body for every API endpoint.
type Envelope struct {
	ResultCode string `json:"resultCode"`
	Msg        string `json:"msg"`
	Data       any    `json:"data"`
}

// Success builds an envelope for a successful response.
func Success(code, msg string, data any) Envelope {
	return Envelope{ResultCode: code, Msg: msg, Data: data}
}

// Status returns the HTTP status encoded in the envelope's result code.
func (e Envelope) Status() int {
	return StatusOf(e.ResultCode)
}

// Envelope renders the error as a response body. The cause is omitted.
func (e *Error) Envelope() Envelope {
	return Envelope{ResultCode: e.Code, Msg: e.Message}
}

// Write renders env as JSON with the status taken from its result code.
func Write(w http.ResponseWriter, env Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(env.Status())
	_ = json.NewEncoder(w).Encode(env)
}
