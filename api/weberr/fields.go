package weberr

import "errors"

type fieldsError struct {
	error
	fields map[string]interface{}
}

func (e *fieldsError) Unwrap() error { return e.error }

// Fields merges the log fields attached along err's chain, outer ones
// taking precedence.
func Fields(err error) (map[string]interface{}, bool) {
	var out map[string]interface{}
	for ; err != nil; err = errors.Unwrap(err) {
		fe, ok := err.(*fieldsError)
		if !ok {
			continue
		}
		if out == nil {
			out = make(map[string]interface{}, len(fe.fields))
		}
		for k, v := range fe.fields {
			if _, set := out[k]; !set {
				out[k] = v
			}
		}
	}
	return out, out != nil
}
