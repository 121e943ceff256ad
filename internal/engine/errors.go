package engine

// loadError signals that acquiring a pipeline or tokenizer failed. This is
// fatal for the whole process: no request can proceed without a model.
type loadError struct {
	modelID string
	cause   error
}

func (e loadError) Error() string { return "load model " + e.modelID + ": " + e.cause.Error() }
func (e loadError) Unwrap() error { return e.cause }

// ErrLoad constructs a loadError.
func ErrLoad(modelID string, cause error) error { return loadError{modelID: modelID, cause: cause} }

// IsLoadFailure reports whether err is a fatal model-load failure.
func IsLoadFailure(err error) bool {
	_, ok := err.(loadError)
	return ok
}

// invalidRequestError signals a malformed top-level request document.
type invalidRequestError struct{ msg string }

func (e invalidRequestError) Error() string { return "invalid request: " + e.msg }

// ErrInvalidRequest constructs an invalidRequestError.
func ErrInvalidRequest(msg string) error { return invalidRequestError{msg: msg} }

// IsInvalidRequest reports whether err indicates a malformed request.
func IsInvalidRequest(err error) bool {
	_, ok := err.(invalidRequestError)
	return ok
}
