package types

// Envelope is the uniform response contract: the response code mirrors the
// HTTP status as a string numeral and the result flag is a stringified bool.
type Envelope struct {
	ResponseCode string `json:"responseCode"`
	Result       string `json:"result"`
	Message      string `json:"message"`
	Data         any    `json:"data,omitempty"`
	Details      any    `json:"details,omitempty"`
}
