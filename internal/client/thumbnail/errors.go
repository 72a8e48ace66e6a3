package thumbnail

import "errors"

var (
	// ErrUnexpectedHTTPStatus indicates an unexpected HTTP status code was received.
	ErrUnexpectedHTTPStatus = errors.New("unexpected HTTP status")
	// ErrEmptyImage indicates that the server returned an empty body.
	ErrEmptyImage = errors.New("thumbnail is empty")
	// ErrNotAnImage indicates that the response body is not an image.
	ErrNotAnImage = errors.New("response is not an image")
	// ErrEmptyURL indicates that no thumbnail URL was given.
	ErrEmptyURL = errors.New("thumbnail URL is empty")
)
