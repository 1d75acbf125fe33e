package taxonomy

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"myfinance/internal/core"
)

//go:embed default.yaml
var defaultYAML []byte

type fileFormat struct {
	Types []struct {
		Type       string `yaml:"type"`
		Categories []struct {
			Name          string   `yaml:"name"`
			Subcategories []string `yaml:"subcategories"`
		} `yaml:"categories"`
	} `yaml:"types"`
}

// Default returns the built-in taxonomy.
func Default() *Tree {
	t, err := Parse(defaultYAML)
	if err != nil {
		panic(fmt.Sprintf("taxonomy: embedded default is invalid: %v", err))
	}
	return t
}

// Load reads a taxonomy YAML file. An empty path returns the built-in taxonomy.
func Load(path string) (*Tree, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read taxonomy file: %w", err)
	}
	t, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("taxonomy file %s: %w", path, err)
	}
	return t, nil
}

// Parse decodes taxonomy YAML. Unknown keys are rejected.
func Parse(data []byte) (*Tree, error) {
	var f fileFormat
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode taxonomy: %w", err)
	}

	branches := make([]Branch, 0, len(f.Types))
	for _, ft := range f.Types {
		typ, err := core.ParseType(ft.Type)
		if err != nil {
			return nil, fmt.Errorf("taxonomy: %w", err)
		}
		b := Branch{Type: typ}
		for _, fc := range ft.Categories {
			b.Categories = append(b.Categories, Category{Name: fc.Name, Subcategories: fc.Subcategories})
		}
		branches = append(branches, b)
	}
	return New(branches)
}
