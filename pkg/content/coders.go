package content

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// Error types
var (
	// ErrUnsupportedMediaType indicates no coder is registered for the
	// requested media type.
	ErrUnsupportedMediaType = errors.New("unsupported media type")

	// ErrNotAcceptable indicates no registered encoder satisfies the
	// request's Accept header.
	ErrNotAcceptable = errors.New("no acceptable media type")

	// ErrMissingBoundary indicates a multipart payload without a boundary
	// parameter.
	ErrMissingBoundary = errors.New("multipart boundary missing")
)

// Encoder serializes a value for a media type. Implementations set the
// Content-Type header (and any parameters such as the multipart boundary)
// before writing.
type Encoder interface {
	Encode(v any, header http.Header, w io.Writer) error
}

// Decoder deserializes a value from a body stream. Decoding takes a context
// because bodies arrive incrementally; implementations should stop early when
// the context is done.
type Decoder interface {
	Decode(ctx context.Context, r io.Reader, header http.Header, v any) error
}

// CodecError wraps a coder failure with the media type involved.
type CodecError struct {
	MediaType MediaType
	Op        string
	Err       error
}

func (e *CodecError) Error() string {
	return fmt.Sprintf("content %s failed for %s: %v", e.Op, e.MediaType.Name(), e.Err)
}

func (e *CodecError) Unwrap() error {
	return e.Err
}

// Coders is a registry of encoders and decoders keyed by media type. The
// zero value is unusable; construct with NewCoders or DefaultCoders.
type Coders struct {
	encoders     map[string]Encoder
	decoders     map[string]Decoder
	encoderOrder []string // registration order, for wildcard negotiation
	defaultType  MediaType
}

// NewCoders creates an empty registry whose default media type is JSON.
func NewCoders() *Coders {
	return &Coders{
		encoders:    make(map[string]Encoder),
		decoders:    make(map[string]Decoder),
		defaultType: JSON,
	}
}

// DefaultCoders creates a registry with the standard set registered: JSON,
// URL-encoded form, multipart form, and plain text.
func DefaultCoders() *Coders {
	c := NewCoders()

	jsonCoder := JSONCoder{}
	c.RegisterEncoder(JSON, jsonCoder)
	c.RegisterDecoder(JSON, jsonCoder)

	formCoder := FormCoder{}
	c.RegisterEncoder(FormURLEncoded, formCoder)
	c.RegisterDecoder(FormURLEncoded, formCoder)

	multipartCoder := MultipartCoder{}
	c.RegisterEncoder(Multipart, multipartCoder)
	c.RegisterDecoder(Multipart, multipartCoder)

	textCoder := TextCoder{}
	c.RegisterEncoder(PlainText, textCoder)
	c.RegisterDecoder(PlainText, textCoder)

	return c
}

// RegisterEncoder registers (or replaces) the encoder for a media type.
func (c *Coders) RegisterEncoder(mt MediaType, e Encoder) {
	name := mt.Name()
	if _, exists := c.encoders[name]; !exists {
		c.encoderOrder = append(c.encoderOrder, name)
	}
	c.encoders[name] = e
}

// RegisterDecoder registers (or replaces) the decoder for a media type.
func (c *Coders) RegisterDecoder(mt MediaType, d Decoder) {
	c.decoders[mt.Name()] = d
}

// SetDefaultMediaType sets the media type assumed when a request carries no
// Content-Type and used when an Accept header is absent.
func (c *Coders) SetDefaultMediaType(mt MediaType) {
	c.defaultType = mt
}

// DefaultMediaType returns the registry default.
func (c *Coders) DefaultMediaType() MediaType {
	return c.defaultType
}

// Encoder returns the encoder registered for the media type.
func (c *Coders) Encoder(mt MediaType) (Encoder, error) {
	if e, ok := c.encoders[mt.Name()]; ok {
		return e, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedMediaType, mt.Name())
}

// Decoder returns the decoder registered for the media type.
func (c *Coders) Decoder(mt MediaType) (Decoder, error) {
	if d, ok := c.decoders[mt.Name()]; ok {
		return d, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedMediaType, mt.Name())
}

// Negotiate selects the encoder for an Accept header. An empty header (or a
// bare wildcard) yields the default media type's encoder.
func (c *Coders) Negotiate(accept string) (MediaType, Encoder, error) {
	entries := parseAccept(accept)
	if len(entries) == 0 {
		e, err := c.Encoder(c.defaultType)
		return c.defaultType, e, err
	}

	for _, want := range entries {
		if want.IsWildcard() {
			if want.Matches(c.defaultType) {
				if e, err := c.Encoder(c.defaultType); err == nil {
					return c.defaultType, e, nil
				}
			}
			// Wildcard that excludes the default: first registered match.
			for _, name := range c.encoderOrder {
				mt, err := ParseMediaType(name)
				if err != nil {
					continue
				}
				if want.Matches(mt) {
					return mt, c.encoders[name], nil
				}
			}
			continue
		}
		if e, ok := c.encoders[want.Name()]; ok {
			return MediaType{Type: want.Type, SubType: want.SubType}, e, nil
		}
	}
	return MediaType{}, nil, fmt.Errorf("%w: %s", ErrNotAcceptable, accept)
}
