package response

// Provider-facing response shapes. Hotmart retries on any non-2xx status, so
// the bodies here mirror the contract it already knows: flat objects with an
// "error" or "message" key rather than a wrapped envelope.

// Error is the generic failure body.
type Error struct {
	Error string `json:"error"`
	// Details carries the underlying error text when one exists.
	Details string `json:"details,omitempty"`
}

// Message is used for 2xx answers that carry no state change, such as events
// intentionally ignored by an endpoint.
type Message struct {
	Message string `json:"message"`
}

func Err(msg string) Error {
	return Error{Error: msg}
}

func ErrWith(msg string, err error) Error {
	e := Error{Error: msg}
	if err != nil {
		e.Details = err.Error()
	}
	return e
}

func Ignored() Message {
	return Message{Message: "Ignored: wrong event for this endpoint"}
}
