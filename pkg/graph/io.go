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

	apperrors "github.com/matzehuels/arithgraph/pkg/errors"
)

// Format is a serialization format for graph files.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks a format from a file extension.
// ".yaml" and ".yml" select YAML; everything else is JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// =============================================================================
// Document - Node-Link Wire Format
// =============================================================================

// Document is the node-link serialization of a graph, shared by graph files
// and the remote worker protocol.
//
// Node order is significant: it fixes vertex positions and therefore the
// coordinate order of weight assignments.
type Document struct {
	Nodes []NodeRecord `json:"nodes" yaml:"nodes"`
	Edges []EdgeRecord `json:"edges" yaml:"edges"`
}

// NodeRecord is a serialized vertex.
type NodeRecord struct {
	ID string `json:"id" yaml:"id"`
}

// EdgeRecord is a serialized undirected edge.
type EdgeRecord struct {
	From string `json:"from" yaml:"from"`
	To   string `json:"to" yaml:"to"`
}

// ToDocument converts g to its wire form. Edges are ordered by position.
func ToDocument(g *Graph) Document {
	doc := Document{
		Nodes: make([]NodeRecord, len(g.ids)),
		Edges: make([]EdgeRecord, 0, g.edges),
	}
	for i, id := range g.ids {
		doc.Nodes[i] = NodeRecord{ID: id}
	}
	for _, e := range g.Edges() {
		doc.Edges = append(doc.Edges, EdgeRecord{From: g.ids[e.U], To: g.ids[e.V]})
	}
	return doc
}

// FromDocument rebuilds a graph, validating IDs and edge endpoints.
func FromDocument(doc Document) (*Graph, error) {
	g := &Graph{}
	for _, n := range doc.Nodes {
		if _, err := g.AddVertex(n.ID); err != nil {
			return nil, err
		}
	}
	for _, e := range doc.Edges {
		if err := g.AddEdge(e.From, e.To); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// =============================================================================
// Serialization API
// =============================================================================

// Marshal encodes g in the given format.
func Marshal(g *Graph, f Format) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(g, &buf, f); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write encodes g to w in the given format.
func Write(g *Graph, w io.Writer, f Format) error {
	doc := ToDocument(g)
	switch f {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode: %w", err)
		}
		return enc.Close()
	case FormatJSON, "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode: %w", err)
		}
		return nil
	default:
		return apperrors.New(apperrors.ErrCodeInvalidFormat, "unknown graph format %q", f)
	}
}

// Read decodes a graph in the given format from r.
func Read(r io.Reader, f Format) (*Graph, error) {
	var doc Document
	switch f {
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&doc); err != nil && err != io.EOF {
			return nil, apperrors.Wrap(apperrors.ErrCodeInvalidFormat, err, "decode yaml")
		}
	case FormatJSON, "":
		if err := json.NewDecoder(r).Decode(&doc); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrCodeInvalidFormat, err, "decode json")
		}
	default:
		return nil, apperrors.New(apperrors.ErrCodeInvalidFormat, "unknown graph format %q", f)
	}
	return FromDocument(doc)
}

// Unmarshal decodes a graph from data in the given format.
func Unmarshal(data []byte, f Format) (*Graph, error) {
	return Read(bytes.NewReader(data), f)
}

// ReadFile reads a graph file, choosing the format from its extension.
func ReadFile(path string) (*Graph, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.Wrap(apperrors.ErrCodeFileNotFound, err, "graph file %s", path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	g, err := Read(f, FormatFromPath(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}

// WriteFile writes a graph file, choosing the format from its extension.
// The file is created with 0644 permissions.
func WriteFile(g *Graph, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := Write(g, f, FormatFromPath(path)); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
