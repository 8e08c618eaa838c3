package content

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// TextCoder encodes and decodes text/plain payloads. Encoding accepts
// strings, []byte, and fmt.Stringer values; decoding targets *string and
// *[]byte.
type TextCoder struct{}

func (c TextCoder) Encode(v any, header http.Header, w io.Writer) error {
	header.Set("Content-Type", PlainText.String()+"; charset=utf-8")

	var err error
	switch t := v.(type) {
	case string:
		_, err = io.WriteString(w, t)
	case []byte:
		_, err = w.Write(t)
	case fmt.Stringer:
		_, err = io.WriteString(w, t.String())
	default:
		_, err = fmt.Fprint(w, v)
	}
	if err != nil {
		return &CodecError{MediaType: PlainText, Op: "encode", Err: err}
	}
	return nil
}

func (c TextCoder) Decode(ctx context.Context, r io.Reader, header http.Header, v any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return &CodecError{MediaType: PlainText, Op: "decode", Err: err}
	}

	switch t := v.(type) {
	case *string:
		*t = string(data)
	case *[]byte:
		*t = data
	default:
		return &CodecError{MediaType: PlainText, Op: "decode",
			Err: fmt.Errorf("cannot decode text into %T", v)}
	}
	return nil
}
