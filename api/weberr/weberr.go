// Package weberr decorates errors with what the error middleware needs to
// answer them: a response body and status, headers and log fields.
package weberr

import "net/http"

type Opt func(error) error

// Wrap applies opts in order, so the last one ends up outermost.
func Wrap(err error, opts ...Opt) error {
	for _, opt := range opts {
		err = opt(err)
	}
	return err
}

func WithResponse(body interface{}, status int) Opt {
	return func(err error) error {
		return &responseError{error: err, body: body, status: status}
	}
}

// WithHeader adds a header to the error response.
func WithHeader(key, value string) Opt {
	return func(err error) error {
		return &headerError{error: err, key: http.CanonicalHeaderKey(key), value: value}
	}
}

// WithFields attaches log fields. They are never sent to the client.
func WithFields(fields map[string]interface{}) Opt {
	return func(err error) error {
		return &fieldsError{error: err, fields: fields}
	}
}
