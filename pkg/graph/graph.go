package graph

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format is a serialization of [Graph].
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatForPath picks the format from a file extension: .yaml and .yml are
// YAML, everything else JSON.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatJSON
}

// Marshal serializes g. JSON output is indented and newline-terminated.
func Marshal(g Graph, f Format) ([]byte, error) {
	if f == FormatYAML {
		return yaml.Marshal(g)
	}
	b, err := json.MarshalIndent(g, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

// UnmarshalGraph decodes the JSON form used by the configuration API.
func UnmarshalGraph(data []byte) (Graph, error) {
	var g Graph
	err := json.Unmarshal(data, &g)
	return g, err
}

// Decode reads one graph from r.
func Decode(r io.Reader, f Format) (Graph, error) {
	var (
		g   Graph
		err error
	)
	if f == FormatYAML {
		err = yaml.NewDecoder(r).Decode(&g)
	} else {
		err = json.NewDecoder(r).Decode(&g)
	}
	if err != nil {
		return Graph{}, fmt.Errorf("decode %s graph: %w", f, err)
	}
	return g, nil
}

// ReadGraphFile reads a graph file in the format given by its extension.
func ReadGraphFile(path string) (Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		return Graph{}, err
	}
	defer f.Close()
	return Decode(f, FormatForPath(path))
}

// WriteGraphFile writes g in the format given by the extension of path.
func WriteGraphFile(g Graph, path string) error {
	data, err := Marshal(g, FormatForPath(path))
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
