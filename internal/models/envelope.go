package models

// Envelope wraps every response body.
type Envelope struct {
	Err  any    `json:"err"`
	Msg  string `json:"msg"`
	Data any    `json:"data"`
}
