package content

import (
	"bytes"
	"context"
	"net/http"
)

// Container decodes request bodies and encodes response bodies using a
// Coders registry, picking the codec from the Content-Type and Accept
// headers.
type Container struct {
	coders *Coders
}

// NewContainer returns a container over the given registry. A nil registry
// falls back to DefaultCoders.
func NewContainer(coders *Coders) *Container {
	if coders == nil {
		coders = DefaultCoders()
	}
	return &Container{coders: coders}
}

// Coders exposes the underlying registry, for registering custom codecs.
func (c *Container) Coders() *Coders {
	return c.coders
}

// Decode reads the request body into v using the decoder registered for the
// request's Content-Type. Requests without a Content-Type decode with the
// registry's default media type. Returns ErrUnsupportedMediaType when no
// decoder matches.
func (c *Container) Decode(r *http.Request, v any) error {
	mt := c.coders.DefaultMediaType()
	if ct := r.Header.Get("Content-Type"); ct != "" {
		parsed, err := ParseMediaType(ct)
		if err != nil {
			return &CodecError{Op: "decode", Err: err}
		}
		mt = parsed
	}

	dec, err := c.coders.Decoder(mt)
	if err != nil {
		return err
	}
	return dec.Decode(r.Context(), r.Body, r.Header, v)
}

// Encode negotiates a media type from the request's Accept header, writes
// the response headers with the given status, and encodes v. Returns
// ErrNotAcceptable (after writing a 406) when nothing matches.
func (c *Container) Encode(w http.ResponseWriter, r *http.Request, status int, v any) error {
	_, enc, err := c.coders.Negotiate(r.Header.Get("Accept"))
	if err != nil {
		http.Error(w, http.StatusText(http.StatusNotAcceptable), http.StatusNotAcceptable)
		return err
	}
	return writeEncoded(w, enc, status, v)
}

// EncodeAs encodes v with the encoder for the given media type, bypassing
// negotiation.
func (c *Container) EncodeAs(w http.ResponseWriter, mt MediaType, status int, v any) error {
	enc, err := c.coders.Encoder(mt)
	if err != nil {
		return err
	}
	return writeEncoded(w, enc, status, v)
}

// writeEncoded buffers the body so encoding failures don't leave a
// half-written response with the wrong status.
func writeEncoded(w http.ResponseWriter, enc Encoder, status int, v any) error {
	var buf bytes.Buffer
	if err := enc.Encode(v, w.Header(), &buf); err != nil {
		return err
	}
	w.WriteHeader(status)
	_, err := w.Write(buf.Bytes())
	return err
}

// NewRequest builds a client request with the body encoded as the given
// media type and Content-Type set accordingly.
func (c *Container) NewRequest(ctx context.Context, method, url string, mt MediaType, v any) (*http.Request, error) {
	enc, err := c.coders.Encoder(mt)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	header := make(http.Header)
	if err := enc.Encode(v, header, &buf); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, url, &buf)
	if err != nil {
		return nil, err
	}
	for key, vals := range header {
		for _, val := range vals {
			req.Header.Add(key, val)
		}
	}
	return req, nil
}
