package removal

import "errors"

var (
	// ErrUnexpectedStatus is returned when the inference endpoint answers
	// with a non-200 status.
	ErrUnexpectedStatus = errors.New("unexpected status from inference endpoint")

	// ErrEmptyResponse is returned when the endpoint answers with no body.
	ErrEmptyResponse = errors.New("empty response from inference endpoint")

	// ErrNotImageResponse is returned when the endpoint answers with a body
	// that is not an image.
	ErrNotImageResponse = errors.New("inference endpoint did not return an image")

	// ErrNoEndpoint is returned when a remote service has no usable endpoint.
	ErrNoEndpoint = errors.New("remote remover needs an http or https endpoint")

	// ErrUnknownRemover is returned for a remover kind other than local or
	// remote.
	ErrUnknownRemover = errors.New("unknown remover: must be local or remote")
)
