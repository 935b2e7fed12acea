package responses

// Success wraps every 2xx body as {"data": ...}. A nil payload still renders
// "data": null so clients can tell "nothing found" from a missing field.
type Success struct {
	Data any `json:"data"`
}

// Failure wraps every error body as {"error": {...}}.
type Failure struct {
	Error ErrorBody `json:"error"`
}

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	// Details is only set for codes whose metadata allows it.
	Details any `json:"details,omitempty"`
}
