package content

import (
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"reflect"
	"strings"

	"github.com/ajg/form"
)

// File is a multipart file part. Struct fields of type File, *File, or
// []File are matched to file parts by form name.
type File struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Data        []byte `json:"data"`
}

// DefaultMaxPartSize caps the bytes buffered for a single multipart part.
const DefaultMaxPartSize = 32 << 20 // 32 MiB

// MultipartCoder encodes and decodes multipart/form-data payloads. Non-file
// fields travel as form values; File fields travel as file parts.
type MultipartCoder struct {
	// MaxPartSize overrides DefaultMaxPartSize when positive.
	MaxPartSize int64
}

var fileType = reflect.TypeOf(File{})

func (c MultipartCoder) Encode(v any, header http.Header, w io.Writer) error {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return &CodecError{MediaType: Multipart, Op: "encode", Err: fmt.Errorf("cannot encode nil value")}
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return &CodecError{MediaType: Multipart, Op: "encode",
			Err: fmt.Errorf("multipart encoding requires a struct, got %T", v)}
	}

	mw := multipart.NewWriter(w)
	header.Set("Content-Type", mw.FormDataContentType())

	plain := make(map[string]any)
	t := rv.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name, ok := formFieldName(f)
		if !ok {
			continue
		}

		fv := rv.Field(i)
		switch {
		case f.Type == fileType:
			if err := writeFilePart(mw, name, fv.Interface().(File)); err != nil {
				return err
			}
		case f.Type.Kind() == reflect.Pointer && f.Type.Elem() == fileType:
			if !fv.IsNil() {
				if err := writeFilePart(mw, name, fv.Elem().Interface().(File)); err != nil {
					return err
				}
			}
		case f.Type.Kind() == reflect.Slice && f.Type.Elem() == fileType:
			for j := 0; j < fv.Len(); j++ {
				if err := writeFilePart(mw, name, fv.Index(j).Interface().(File)); err != nil {
					return err
				}
			}
		default:
			plain[name] = fv.Interface()
		}
	}

	if len(plain) > 0 {
		values, err := form.EncodeToValues(plain)
		if err != nil {
			return &CodecError{MediaType: Multipart, Op: "encode", Err: err}
		}
		for key, vals := range values {
			for _, val := range vals {
				if err := mw.WriteField(key, val); err != nil {
					return &CodecError{MediaType: Multipart, Op: "encode", Err: err}
				}
			}
		}
	}

	if err := mw.Close(); err != nil {
		return &CodecError{MediaType: Multipart, Op: "encode", Err: err}
	}
	return nil
}

func writeFilePart(mw *multipart.Writer, name string, f File) error {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, name, f.Filename))
	ct := f.ContentType
	if ct == "" {
		ct = OctetStream.Name()
	}
	h.Set("Content-Type", ct)

	part, err := mw.CreatePart(h)
	if err != nil {
		return &CodecError{MediaType: Multipart, Op: "encode", Err: err}
	}
	if _, err := part.Write(f.Data); err != nil {
		return &CodecError{MediaType: Multipart, Op: "encode", Err: err}
	}
	return nil
}

func (c MultipartCoder) Decode(ctx context.Context, r io.Reader, header http.Header, v any) error {
	_, params, err := mime.ParseMediaType(header.Get("Content-Type"))
	if err != nil {
		return &CodecError{MediaType: Multipart, Op: "decode", Err: err}
	}
	boundary, ok := params["boundary"]
	if !ok || boundary == "" {
		return &CodecError{MediaType: Multipart, Op: "decode", Err: ErrMissingBoundary}
	}

	maxPart := c.MaxPartSize
	if maxPart <= 0 {
		maxPart = DefaultMaxPartSize
	}

	values := url.Values{}
	files := make(map[string][]File)

	mr := multipart.NewReader(r, boundary)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return &CodecError{MediaType: Multipart, Op: "decode", Err: err}
		}

		data, err := io.ReadAll(io.LimitReader(part, maxPart+1))
		part.Close()
		if err != nil {
			return &CodecError{MediaType: Multipart, Op: "decode", Err: err}
		}
		if int64(len(data)) > maxPart {
			return &CodecError{MediaType: Multipart, Op: "decode",
				Err: fmt.Errorf("part %q exceeds %d bytes", part.FormName(), maxPart)}
		}

		if part.FileName() != "" {
			files[part.FormName()] = append(files[part.FormName()], File{
				Filename:    part.FileName(),
				ContentType: part.Header.Get("Content-Type"),
				Data:        data,
			})
			continue
		}
		values.Add(part.FormName(), string(data))
	}

	if len(values) > 0 {
		dec := form.NewDecoder(strings.NewReader(values.Encode()))
		dec.IgnoreUnknownKeys(true)
		if err := dec.Decode(v); err != nil {
			return &CodecError{MediaType: Multipart, Op: "decode", Err: err}
		}
	}

	return assignFiles(v, files)
}

// assignFiles sets File-typed struct fields from decoded file parts.
func assignFiles(v any, files map[string][]File) error {
	if len(files) == 0 {
		return nil
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return &CodecError{MediaType: Multipart, Op: "decode",
			Err: fmt.Errorf("decode target must be a non-nil pointer")}
	}
	rv = rv.Elem()
	if rv.Kind() != reflect.Struct {
		return nil
	}

	t := rv.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name, ok := formFieldName(f)
		if !ok {
			continue
		}
		parts, ok := lookupFiles(files, name)
		if !ok {
			continue
		}

		fv := rv.Field(i)
		switch {
		case f.Type == fileType:
			fv.Set(reflect.ValueOf(parts[0]))
		case f.Type.Kind() == reflect.Pointer && f.Type.Elem() == fileType:
			p := parts[0]
			fv.Set(reflect.ValueOf(&p))
		case f.Type.Kind() == reflect.Slice && f.Type.Elem() == fileType:
			fv.Set(reflect.ValueOf(parts))
		}
	}
	return nil
}

func lookupFiles(files map[string][]File, name string) ([]File, bool) {
	if parts, ok := files[name]; ok {
		return parts, true
	}
	for key, parts := range files {
		if strings.EqualFold(key, name) {
			return parts, true
		}
	}
	return nil, false
}

// formFieldName resolves the form name for a struct field, honoring `form`
// tags. The second return is false when the field is excluded.
func formFieldName(f reflect.StructField) (string, bool) {
	tag := f.Tag.Get("form")
	if tag == "-" {
		return "", false
	}
	if idx := strings.Index(tag, ","); idx >= 0 {
		tag = tag[:idx]
	}
	if tag != "" {
		return tag, true
	}
	return f.Name, true
}
