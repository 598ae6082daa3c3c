// Package render serializes decoded property list trees into textual forms.
package render

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/twinfer/plistreader/pkg/bplist"
	"gopkg.in/yaml.v3"
)

// Format selects how decoded documents are surfaced
type Format string

const (
	// FormatRaw passes the decoded tree through untouched
	FormatRaw  Format = "raw"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatXML  Format = "xml"
	// FormatCBOR produces deterministic binary CBOR rather than text
	FormatCBOR Format = "cbor"
)

// Formats lists every supported format
var Formats = []Format{FormatRaw, FormatJSON, FormatYAML, FormatXML, FormatCBOR}

// ParseFormat resolves a format name, case-insensitively
func ParseFormat(name string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown output format %q", name)
}

// Textual reports whether Render returns a string for the format
func (f Format) Textual() bool {
	return f != FormatRaw && f != FormatCBOR
}

// Render converts a decoded tree into the requested form. Raw returns the tree
// itself, CBOR returns []byte and every other format returns a string.
func Render(tree any, format Format) (any, error) {
	switch format {
	case FormatRaw, "":
		return tree, nil
	case FormatJSON:
		return JSON(tree)
	case FormatYAML:
		return YAML(tree)
	case FormatXML:
		return XML(tree)
	case FormatCBOR:
		return CBOR(tree)
	}
	return nil, fmt.Errorf("unknown output format %q", format)
}

// JSON renders the tree as indented JSON
func JSON(tree any) (string, error) {
	norm, err := Normalize(tree)
	if err != nil {
		return "", err
	}
	out, err := json.MarshalIndent(norm, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling to JSON: %w", err)
	}
	return string(out), nil
}

// YAML renders the tree as a YAML document
func YAML(tree any) (string, error) {
	norm, err := Normalize(tree)
	if err != nil {
		return "", err
	}
	out, err := yaml.Marshal(norm)
	if err != nil {
		return "", fmt.Errorf("marshaling to YAML: %w", err)
	}
	return string(out), nil
}

// Normalize rewrites a decoded tree into values every text encoder accepts:
// data becomes base64, dates become RFC 3339 strings and UIDs become
// {"CF$UID": n} dictionaries.
func Normalize(v any) (any, error) {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			n, err := Normalize(item)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			out[k] = n
		}
		return out, nil
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			n, err := Normalize(item)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out[i] = n
		}
		return out, nil
	case []byte:
		return base64.StdEncoding.EncodeToString(val), nil
	case time.Time:
		return val.UTC().Format(time.RFC3339), nil
	case bplist.UID:
		return map[string]any{"CF$UID": uint64(val)}, nil
	case float64:
		if math.IsNaN(val) || math.IsInf(val, 0) {
			return nil, fmt.Errorf("real %v has no textual form", val)
		}
		return val, nil
	case nil, string, bool, int, int64, uint64:
		return val, nil
	}
	return nil, fmt.Errorf("unsupported value of type %T", v)
}
