package schema

import "fmt"

// DecodeError reports a response body that is not valid JSON.
type DecodeError struct {
	Schema string
	Err    error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s response: %v", e.Schema, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// ValidationError reports valid JSON that does not conform to the schema it
// was requested against.
type ValidationError struct {
	Schema string
	Err    error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s response does not match schema: %v", e.Schema, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }
