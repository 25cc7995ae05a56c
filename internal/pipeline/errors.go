package pipeline

import "fmt"

// FetchError reports a failure staging a remote asset. Nothing has been
// emitted when it occurs.
type FetchError struct {
	Err error
}

func (e *FetchError) Error() string { return fmt.Sprintf("fetch assets: %v", e.Err) }

func (e *FetchError) Unwrap() error { return e.Err }

// EmissionError reports malformed or missing block data. The partial
// document is discarded.
type EmissionError struct {
	Err error
}

func (e *EmissionError) Error() string { return fmt.Sprintf("emit content: %v", e.Err) }

func (e *EmissionError) Unwrap() error { return e.Err }

// SerializationError reports a failure packaging or writing the artifact.
// Any previous artifact at Path is left untouched.
type SerializationError struct {
	Path string
	Err  error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("write %s: %v", e.Path, e.Err)
}

func (e *SerializationError) Unwrap() error { return e.Err }
