package content_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/simple-model/pkg/content"
)

func TestParseMediaType(t *testing.T) {
	mt, err := content.ParseMediaType("application/json; charset=utf-8")
	require.NoError(t, err)
	assert.Equal(t, "application", mt.Type)
	assert.Equal(t, "json", mt.SubType)
	assert.Equal(t, "utf-8", mt.Parameters["charset"])
	assert.Equal(t, "application/json", mt.Name())

	_, err = content.ParseMediaType("not a media type;;")
	assert.Error(t, err)
}

func TestMediaTypeMatches(t *testing.T) {
	tests := []struct {
		name  string
		a, b  content.MediaType
		match bool
	}{
		{"exact", content.JSON, content.JSON, true},
		{"different subtype", content.JSON, content.FormURLEncoded, false},
		{"different type", content.JSON, content.PlainText, false},
		{"full wildcard", content.Any, content.JSON, true},
		{"subtype wildcard", content.MediaType{Type: "application", SubType: "*"}, content.JSON, true},
		{"subtype wildcard wrong type", content.MediaType{Type: "text", SubType: "*"}, content.JSON, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.match, tt.a.Matches(tt.b))
		})
	}
}

func TestNegotiate(t *testing.T) {
	coders := content.DefaultCoders()

	t.Run("empty accept uses default", func(t *testing.T) {
		mt, enc, err := coders.Negotiate("")
		require.NoError(t, err)
		require.NotNil(t, enc)
		assert.Equal(t, "application/json", mt.Name())
	})

	t.Run("exact match", func(t *testing.T) {
		mt, _, err := coders.Negotiate("text/plain")
		require.NoError(t, err)
		assert.Equal(t, "text/plain", mt.Name())
	})

	t.Run("quality ordering", func(t *testing.T) {
		mt, _, err := coders.Negotiate("text/plain;q=0.5, application/json;q=0.9")
		require.NoError(t, err)
		assert.Equal(t, "application/json", mt.Name())
	})

	t.Run("unsupported entries fall through", func(t *testing.T) {
		mt, _, err := coders.Negotiate("application/xml, text/plain;q=0.1")
		require.NoError(t, err)
		assert.Equal(t, "text/plain", mt.Name())
	})

	t.Run("wildcard uses default", func(t *testing.T) {
		mt, _, err := coders.Negotiate("*/*")
		require.NoError(t, err)
		assert.Equal(t, "application/json", mt.Name())
	})

	t.Run("nothing acceptable", func(t *testing.T) {
		_, _, err := coders.Negotiate("application/xml")
		assert.ErrorIs(t, err, content.ErrNotAcceptable)
	})

	t.Run("partial wildcard picks first registered match", func(t *testing.T) {
		c := content.DefaultCoders()
		c.RegisterEncoder(content.MediaType{Type: "text", SubType: "csv"}, content.TextCoder{})

		// text/plain precedes text/csv in registration order, every time.
		for i := 0; i < 10; i++ {
			mt, _, err := c.Negotiate("text/*")
			require.NoError(t, err)
			assert.Equal(t, "text/plain", mt.Name())
		}
	})
}

func TestRegisterCustomCoder(t *testing.T) {
	coders := content.NewCoders()
	csv := content.MediaType{Type: "text", SubType: "csv"}

	jsonCoder := content.JSONCoder{}
	coders.RegisterEncoder(csv, jsonCoder)
	coders.RegisterDecoder(csv, jsonCoder)

	_, err := coders.Encoder(csv)
	assert.NoError(t, err)
	_, err = coders.Decoder(csv)
	assert.NoError(t, err)

	_, err = coders.Encoder(content.FormURLEncoded)
	assert.ErrorIs(t, err, content.ErrUnsupportedMediaType)
}

func TestSetDefaultMediaType(t *testing.T) {
	coders := content.DefaultCoders()
	coders.SetDefaultMediaType(content.PlainText)

	mt, _, err := coders.Negotiate("")
	require.NoError(t, err)
	assert.Equal(t, "text/plain", mt.Name())
}
