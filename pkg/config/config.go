package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/cuemby/spoolctl/pkg/reconciler"
)

// Format is the encoding of a config file
type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

// ParseFormat parses a --format value
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "toml":
		return FormatTOML, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown format %q, expected toml or yaml", s)
	}
}

// FormatOf picks the format of a file from its extension
func FormatOf(path string) (Format, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	f, err := ParseFormat(ext)
	if err != nil {
		return "", fmt.Errorf("cannot tell the format of %s: %w", path, err)
	}
	return f, nil
}

// Load decodes the config file at path into v. Unknown keys are rejected
// so that a misspelled key is not silently ignored.
func Load(path string, v interface{}) error {
	format, err := FormatOf(path)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}

	switch format {
	case FormatTOML:
		md, err := toml.Decode(string(data), v)
		if err != nil {
			return fmt.Errorf("%w: failed to parse %s: %v", reconciler.ErrValidation, path, err)
		}
		var keys []string
		for _, k := range md.Undecoded() {
			if !underTarget(k) {
				keys = append(keys, k.String())
			}
		}
		if len(keys) > 0 {
			sort.Strings(keys)
			return fmt.Errorf("%w: unknown keys in %s: %s", reconciler.ErrValidation, path, strings.Join(keys, ", "))
		}
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(v); err != nil && err != io.EOF {
			return fmt.Errorf("%w: failed to parse %s: %v", reconciler.ErrValidation, path, err)
		}
	}
	return nil
}

// underTarget reports whether k lies inside a delegation target table.
// DelegationTarget decodes those tables itself, but toml still lists their
// keys as undecoded.
func underTarget(k toml.Key) bool {
	for _, part := range k[:len(k)-1] {
		if part == "target" {
			return true
		}
	}
	return false
}

// Write encodes v to w
func Write(w io.Writer, format Format, v interface{}) error {
	switch format {
	case FormatTOML:
		if err := toml.NewEncoder(w).Encode(v); err != nil {
			return fmt.Errorf("failed to encode toml: %w", err)
		}
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q", format)
	}
	return nil
}
