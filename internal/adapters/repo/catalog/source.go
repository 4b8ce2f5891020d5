package catalog

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bnema/roundtable/internal/domain"
	"github.com/bnema/roundtable/internal/ports"
	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

//go:embed default_personas.toml
var defaultCatalog []byte

// Source loads the persona catalog from a TOML or YAML file. An empty Path
// selects the built-in catalog.
type Source struct {
	Path string
}

var _ ports.PersonaSource = Source{}

func (s Source) LoadPersonas(ctx context.Context) ([]domain.Persona, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := strings.TrimSpace(s.Path)
	if path == "" {
		return decode(defaultCatalog, formatTOML, "built-in catalog")
	}

	format, err := formatForPath(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("persona catalog %q not found: %w", path, err)
		}
		return nil, fmt.Errorf("read persona catalog: %w", err)
	}

	return decode(data, format, path)
}

type format int

const (
	formatTOML format = iota + 1
	formatYAML
)

func formatForPath(path string) (format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return formatTOML, nil
	case ".yaml", ".yml":
		return formatYAML, nil
	default:
		return 0, fmt.Errorf("persona catalog %q: unsupported extension (use .toml, .yaml or .yml)", path)
	}
}

func decode(data []byte, f format, origin string) ([]domain.Persona, error) {
	var file fileSchema
	switch f {
	case formatTOML:
		decoder := toml.NewDecoder(bytes.NewReader(data))
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&file); err != nil {
			return nil, fmt.Errorf("decode persona catalog %s: %w", origin, err)
		}
	case formatYAML:
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		if err := decoder.Decode(&file); err != nil {
			return nil, fmt.Errorf("decode persona catalog %s: %w", origin, err)
		}
	}
	if err := file.validateVersion(); err != nil {
		return nil, err
	}
	file.applyDefaults()

	personas := make([]domain.Persona, 0, len(file.Personas))
	for _, entry := range file.Personas {
		personas = append(personas, fromSchema(entry))
	}
	if len(personas) == 0 {
		return nil, fmt.Errorf("persona catalog %s has no personas", origin)
	}

	return personas, nil
}
