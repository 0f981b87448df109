package catalog

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the on-disk catalog description, readable as JSON or YAML.
type Config struct {
	Parts    []Entry     `json:"parts" yaml:"parts"`
	Sequence []BuildStep `json:"sequence,omitempty" yaml:"sequence,omitempty"`
}

// LoadJSON loads a catalog from a JSON reader.
func LoadJSON(r io.Reader) (*Catalog, error) {
	var c Config
	if err := json.NewDecoder(r).Decode(&c); err != nil {
		return nil, err
	}
	return c.Build()
}

// LoadYAML loads a catalog from a YAML reader.
func LoadYAML(r io.Reader) (*Catalog, error) {
	var c Config
	if err := yaml.NewDecoder(r).Decode(&c); err != nil {
		return nil, err
	}
	return c.Build()
}

// LoadFile picks the decoder from the file extension; anything not .json is read as YAML.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".json") {
		return LoadJSON(f)
	}
	return LoadYAML(f)
}

func (c *Config) Build() (*Catalog, error) {
	return New(c.Parts, c.Sequence)
}
