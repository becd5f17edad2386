package scene

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// ErrUnknownFormat is returned for a scene file whose format cannot be decoded
var ErrUnknownFormat = errors.New("scene: unknown format")

// Format is the encoding of a scene document
type Format string

const (
	TOML Format = "toml"
	YAML Format = "yaml"
)

// Decoder is an interface for standard decoder types
type Decoder interface {
	// Decode decodes from io.Reader specified at creation
	Decode(v any) error
}

// DecoderFunc is a function that creates a new Decoder for given reader
type DecoderFunc func(r io.Reader) Decoder

// Unknown keys are rejected in both formats, a misspelled key is an error
// rather than a silently defaulted field
var decoders = map[Format]DecoderFunc{
	TOML: func(r io.Reader) Decoder { return toml.NewDecoder(r).DisallowUnknownFields() },
	YAML: func(r io.Reader) Decoder {
		d := yaml.NewDecoder(r)
		d.KnownFields(true)
		return d
	},
}

// FormatFromPath selects the format from the file extension
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return TOML, nil
	case ".yaml", ".yml":
		return YAML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, filepath.Ext(path))
	}
}

// Load reads a scene from the given filename, the format is chosen by extension
func Load(path string) (*Scene, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	fp, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fp.Close()

	return Decode(bufio.NewReader(fp), format)
}

// Parse decodes a scene from the given bytes
func Parse(data []byte, format Format) (*Scene, error) {
	return Decode(bytes.NewReader(data), format)
}

// Decode reads a scene from the given reader and validates it
func Decode(r io.Reader, format Format) (*Scene, error) {
	newDecoder, ok := decoders[format]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}

	s := &Scene{}
	if err := newDecoder(r).Decode(s); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("scene: decode %s: %w", format, err)
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}
