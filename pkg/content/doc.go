// Package content provides media-type aware encoding and decoding for HTTP
// requests and responses.
//
// A Coders registry maps media types to Encoder/Decoder pairs; the default
// registry covers JSON, URL-encoded forms, multipart forms, and plain text.
// Custom coders are registered per media type, either globally on a registry
// or for a single container.
//
// A Container bound to the registry decodes request bodies by Content-Type
// and encodes response bodies by Accept-header negotiation. The Query
// container does the same for URL query strings.
package content
