package content

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/ajg/form"
)

// Query wraps a request's query string with typed decoding.
type Query struct {
	values url.Values
}

// QueryOf extracts the query container from a request.
func QueryOf(r *http.Request) Query {
	return Query{values: r.URL.Query()}
}

// QueryFromValues wraps an existing url.Values.
func QueryFromValues(values url.Values) Query {
	return Query{values: values}
}

// Decode populates v from the query string. Unknown keys are ignored so
// unrelated parameters don't fail decoding.
func (q Query) Decode(v any) error {
	dec := form.NewDecoder(strings.NewReader(q.values.Encode()))
	dec.IgnoreUnknownKeys(true)
	if err := dec.Decode(v); err != nil {
		return &CodecError{Op: "decode", Err: err}
	}
	return nil
}

// Get returns the first value for key, or "" when absent.
func (q Query) Get(key string) string {
	return q.values.Get(key)
}

// Has reports whether the query string contains key.
func (q Query) Has(key string) bool {
	return q.values.Has(key)
}

// Values returns the underlying url.Values.
func (q Query) Values() url.Values {
	return q.values
}

// EncodeQuery renders v as a URL query string.
func EncodeQuery(v any) (string, error) {
	values, err := form.EncodeToValues(v)
	if err != nil {
		return "", &CodecError{Op: "encode", Err: err}
	}
	return values.Encode(), nil
}
