package weberr

import (
	"errors"
	"net/http"
)

type responseError struct {
	error
	body   interface{}
	status int
}

func (e *responseError) Unwrap() error { return e.error }

// Response returns the outermost body and status attached to err.
func Response(err error) (body interface{}, status int, ok bool) {
	var re *responseError
	if !errors.As(err, &re) {
		return nil, 0, false
	}
	return re.body, re.status, true
}

type headerError struct {
	error
	key   string
	value string
}

func (e *headerError) Unwrap() error { return e.error }

// Headers collects the headers attached anywhere along err's chain. The
// outermost value of a key wins.
func Headers(err error) http.Header {
	h := http.Header{}
	for ; err != nil; err = errors.Unwrap(err) {
		he, ok := err.(*headerError)
		if !ok {
			continue
		}
		if _, set := h[he.key]; !set {
			h.Set(he.key, he.value)
		}
	}
	return h
}
