package content

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
)

// JSONCoder encodes and decodes application/json payloads.
type JSONCoder struct {
	// Indent pretty-prints encoded output when non-empty.
	Indent string
}

func (c JSONCoder) Encode(v any, header http.Header, w io.Writer) error {
	header.Set("Content-Type", JSON.String()+"; charset=utf-8")
	enc := json.NewEncoder(w)
	if c.Indent != "" {
		enc.SetIndent("", c.Indent)
	}
	if err := enc.Encode(v); err != nil {
		return &CodecError{MediaType: JSON, Op: "encode", Err: err}
	}
	return nil
}

func (c JSONCoder) Decode(ctx context.Context, r io.Reader, header http.Header, v any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := json.NewDecoder(r).Decode(v); err != nil {
		return &CodecError{MediaType: JSON, Op: "decode", Err: err}
	}
	return nil
}
