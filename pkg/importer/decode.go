package importer

import (
	"encoding/csv"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/kintree/pkg/errors"
)

// Format is a raw payload encoding understood by Decode.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
	FormatCSV  Format = "csv"
)

// Formats lists the supported formats in display order.
var Formats = []Format{FormatJSON, FormatYAML, FormatTOML, FormatCSV}

var formatAliases = map[string]Format{
	"json": FormatJSON,
	"yaml": FormatYAML,
	"yml":  FormatYAML,
	"toml": FormatTOML,
	"csv":  FormatCSV,
}

// ParseFormat resolves a format name such as "json" or "yml".
func ParseFormat(name string) (Format, error) {
	if f, ok := formatAliases[strings.ToLower(strings.TrimSpace(name))]; ok {
		return f, nil
	}
	return "", errors.New(errors.ErrCodeUnsupportedFormat, "unknown payload format %q", name)
}

// FormatFromPath picks the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return "", errors.New(errors.ErrCodeUnsupportedFormat, "cannot infer format of %s: no extension", path)
	}
	return ParseFormat(ext)
}

// Decode reads a raw payload into the generic maps and slices Import
// understands. JSON numbers are kept as json.Number so large ids survive.
// CSV input uses the header row as field names.
func Decode(r io.Reader, format Format) (any, error) {
	var (
		v   any
		err error
	)
	switch format {
	case FormatJSON:
		v, err = decodeJSON(r)
	case FormatYAML:
		v, err = decodeYAML(r)
	case FormatTOML:
		v, err = decodeTOML(r)
	case FormatCSV:
		v, err = decodeCSV(r)
	default:
		return nil, errors.New(errors.ErrCodeUnsupportedFormat, "unknown payload format %q", format)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode %s", format)
	}
	return v, nil
}

// DecodeFile opens path and decodes it in the format implied by its extension.
func DecodeFile(path string) (any, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Decode(f, format)
}

func decodeJSON(r io.Reader) (any, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

func decodeYAML(r io.Reader) (any, error) {
	var v any
	if err := yaml.NewDecoder(r).Decode(&v); err != nil {
		if stderrors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty document")
		}
		return nil, err
	}
	return v, nil
}

func decodeTOML(r io.Reader) (any, error) {
	v := make(map[string]any)
	if _, err := toml.NewDecoder(r).Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

func decodeCSV(r io.Reader) (any, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if stderrors.Is(err, io.EOF) {
		return []any{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}

	rows := []any{}
	for line := 2; ; line++ {
		fields, err := cr.Read()
		if stderrors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		rec := make(map[string]any, len(header))
		for i, name := range header {
			if name == "" || i >= len(fields) {
				continue
			}
			if val := strings.TrimSpace(fields[i]); val != "" {
				rec[name] = val
			}
		}
		rows = append(rows, rec)
	}
	return rows, nil
}
