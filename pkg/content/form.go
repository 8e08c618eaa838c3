package content

import (
	"context"
	"io"
	"net/http"

	"github.com/ajg/form"
)

// FormCoder encodes and decodes application/x-www-form-urlencoded payloads.
// Struct fields map to form keys via `form` tags, falling back to field
// names.
type FormCoder struct{}

func (c FormCoder) Encode(v any, header http.Header, w io.Writer) error {
	header.Set("Content-Type", FormURLEncoded.String())
	if err := form.NewEncoder(w).Encode(v); err != nil {
		return &CodecError{MediaType: FormURLEncoded, Op: "encode", Err: err}
	}
	return nil
}

func (c FormCoder) Decode(ctx context.Context, r io.Reader, header http.Header, v any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dec := form.NewDecoder(r)
	dec.IgnoreUnknownKeys(true)
	if err := dec.Decode(v); err != nil {
		return &CodecError{MediaType: FormURLEncoded, Op: "decode", Err: err}
	}
	return nil
}
