package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wippyai/wasm-schema/schema"
)

// loadSchema reads a schema definition, choosing the format by extension.
func loadSchema(path string) (schema.Schema, error) {
	if path == "" {
		return schema.Schema{}, fmt.Errorf("--schema is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return schema.Schema{}, err
	}

	var s schema.Schema
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		s, err = schema.LoadYAML(bytes.NewReader(data))
	case ".json", ".jsonc":
		s, err = schema.LoadJSONC(data)
	case ".cbor":
		err = s.UnmarshalCBOR(data)
	default:
		return schema.Schema{}, fmt.Errorf("%s: unknown schema format %q", path, ext)
	}
	if err != nil {
		return schema.Schema{}, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}
