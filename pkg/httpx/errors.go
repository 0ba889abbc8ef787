package httpx

// ParseError reports a request body that could not be decoded as JSON.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return "httpx: parse body: " + e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
