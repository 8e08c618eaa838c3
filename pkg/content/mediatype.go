package content

import (
	"mime"
	"strconv"
	"strings"
)

// MediaType identifies a content type such as application/json.
type MediaType struct {
	Type       string
	SubType    string
	Parameters map[string]string
}

// Well-known media types.
var (
	JSON           = MediaType{Type: "application", SubType: "json"}
	FormURLEncoded = MediaType{Type: "application", SubType: "x-www-form-urlencoded"}
	Multipart      = MediaType{Type: "multipart", SubType: "form-data"}
	PlainText      = MediaType{Type: "text", SubType: "plain"}
	OctetStream    = MediaType{Type: "application", SubType: "octet-stream"}
	Any            = MediaType{Type: "*", SubType: "*"}
)

// ParseMediaType parses a Content-Type or Accept entry value.
func ParseMediaType(v string) (MediaType, error) {
	name, params, err := mime.ParseMediaType(v)
	if err != nil {
		return MediaType{}, err
	}
	mt := MediaType{Parameters: params}
	if idx := strings.Index(name, "/"); idx >= 0 {
		mt.Type = name[:idx]
		mt.SubType = name[idx+1:]
	} else {
		mt.Type = name
	}
	return mt, nil
}

// Name returns the type/subtype form without parameters.
func (m MediaType) Name() string {
	if m.SubType == "" {
		return m.Type
	}
	return m.Type + "/" + m.SubType
}

// String renders the media type with its parameters.
func (m MediaType) String() string {
	return mime.FormatMediaType(m.Name(), m.Parameters)
}

// Matches reports whether the media type satisfies other, honoring * and */*
// wildcards on either side.
func (m MediaType) Matches(other MediaType) bool {
	typeMatch := m.Type == other.Type || m.Type == "*" || other.Type == "*"
	subMatch := m.SubType == other.SubType || m.SubType == "*" || other.SubType == "*"
	return typeMatch && subMatch
}

// IsWildcard reports whether the type or subtype is a wildcard.
func (m MediaType) IsWildcard() bool {
	return m.Type == "*" || m.SubType == "*"
}

// quality returns the q parameter of an Accept entry, defaulting to 1.
func (m MediaType) quality() float64 {
	q, ok := m.Parameters["q"]
	if !ok {
		return 1
	}
	f, err := strconv.ParseFloat(q, 64)
	if err != nil || f < 0 || f > 1 {
		return 1
	}
	return f
}

// parseAccept parses an Accept header into media types ordered by descending
// quality. An empty header yields no entries.
func parseAccept(accept string) []MediaType {
	var out []MediaType
	for _, part := range strings.Split(accept, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		mt, err := ParseMediaType(part)
		if err != nil {
			continue
		}
		out = append(out, mt)
	}
	// Stable sort by quality, preserving header order within a tier.
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].quality() > out[j-1].quality(); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}
