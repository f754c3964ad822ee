package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/taintview/pkg/taint"
)

// =============================================================================
// Formats
// =============================================================================

// Encodings.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// FormatFor picks the encoding from a file extension.
func FormatFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatJSON
}

func encode(w io.Writer, v any, format string) error {
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encode: %w", err)
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encode: %w", err)
		}
		return nil
	}
}

func decode(r io.Reader, v any, format string) error {
	var err error
	switch format {
	case FormatYAML:
		err = yaml.NewDecoder(r).Decode(v)
	default:
		err = json.NewDecoder(r).Decode(v)
	}
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}

// =============================================================================
// Graph Serialization API
// =============================================================================

// MarshalGraph converts a taint graph to indented JSON.
func MarshalGraph(g *taint.Graph) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteGraph(g, &buf, FormatJSON); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteGraph writes g to w in the given format.
func WriteGraph(g *taint.Graph, w io.Writer, format string) error {
	return encode(w, FromTaint(g), format)
}

// WriteGraphFile writes g to path, choosing the format from the extension.
func WriteGraphFile(g *taint.Graph, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := WriteGraph(g, f, FormatFor(path)); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// ReadGraph decodes a graph from r.
func ReadGraph(r io.Reader, format string) (*taint.Graph, error) {
	var data Graph
	if err := decode(r, &data, format); err != nil {
		return nil, err
	}
	return ToTaint(data)
}

// ReadGraphFile reads a graph file, choosing the format from the extension.
func ReadGraphFile(path string) (*taint.Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return ReadGraph(f, FormatFor(path))
}
