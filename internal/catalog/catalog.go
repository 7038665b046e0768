// Package catalog holds the feature → update strategy table.
//
// The table is built once at startup, either from the embedded default or
// from a YAML/JSON override file, and is read-only afterwards.
package catalog

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"

	"github.com/3leaps/featurebump/internal/model"
	"github.com/3leaps/featurebump/internal/schema"
)

const schemaURL = "https://schemas.3leaps.dev/featurebump/strategies.schema.json"

//go:embed strategies.json
var embeddedStrategiesJSON []byte

//go:embed strategies.schema.json
var strategiesSchemaJSON []byte

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func strategiesSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiledSchema, schemaErr = schema.Compile(schemaURL, strategiesSchemaJSON)
	})
	return compiledSchema, schemaErr
}

// kindAliases accepts the names used by the older workflow script.
var kindAliases = map[model.StrategyKind]model.StrategyKind{
	"github-release": model.KindRegistryRelease,
	"npm":            model.KindPackageRegistry,
}

type document struct {
	Schema   string                    `json:"schema"`
	Version  int                       `json:"version"`
	Features map[string]model.Strategy `json:"features"`
}

// Catalog is an immutable feature-id → strategy lookup table.
type Catalog struct {
	entries map[string]model.Strategy
}

// Default returns the catalog compiled into the binary.
func Default() (*Catalog, error) {
	c, err := ParseJSON(embeddedStrategiesJSON)
	if err != nil {
		return nil, fmt.Errorf("embedded strategy catalog: %w", err)
	}
	return c, nil
}

// Load reads a catalog file. Files ending in .yaml or .yml are YAML; anything
// else is JSON.
func Load(path string) (*Catalog, error) {
	// #nosec G304 -- path supplied by operator
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read strategy catalog: %w", err)
	}

	var c *Catalog
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		c, err = ParseYAML(data)
	default:
		c, err = ParseJSON(data)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// ParseYAML converts the YAML document to JSON and validates it the same way
// as ParseJSON.
func ParseYAML(data []byte) (*Catalog, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}
	if raw == nil {
		return nil, errors.New("parse YAML: empty document")
	}
	asJSON, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("convert YAML: %w", err)
	}
	return ParseJSON(asJSON)
}

func ParseJSON(data []byte) (*Catalog, error) {
	s, err := strategiesSchema()
	if err != nil {
		return nil, err
	}
	if err := schema.ValidateJSON(s, data); err != nil {
		return nil, err
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode strategy catalog: %w", err)
	}
	return New(doc.Features)
}

// New validates entries and returns a catalog holding a private copy.
func New(entries map[string]model.Strategy) (*Catalog, error) {
	var problems []string
	out := make(map[string]model.Strategy, len(entries))

	for _, id := range sortedKeys(entries) {
		s := entries[id]
		if alias, ok := kindAliases[s.Kind]; ok {
			s.Kind = alias
		}
		switch s.Kind {
		case model.KindRegistryRelease:
			if strings.TrimSpace(s.Repo) == "" {
				problems = append(problems, fmt.Sprintf("%s.repo: missing", id))
			}
			if s.Package != "" || len(s.DistTags) > 0 {
				problems = append(problems, fmt.Sprintf("%s: package/distTags not allowed for %s", id, s.Kind))
			}
		case model.KindPackageRegistry:
			if strings.TrimSpace(s.Package) == "" {
				problems = append(problems, fmt.Sprintf("%s.package: missing", id))
			}
			if s.Repo != "" {
				problems = append(problems, fmt.Sprintf("%s: repo not allowed for %s", id, s.Kind))
			}
		default:
			problems = append(problems, fmt.Sprintf("%s.kind: unsupported %q (supported: %s, %s)", id, s.Kind, model.KindRegistryRelease, model.KindPackageRegistry))
		}
		s.DistTags = append([]string(nil), s.DistTags...)
		out[id] = s
	}

	if len(problems) > 0 {
		return nil, fmt.Errorf("invalid strategy catalog:\n- %s", strings.Join(problems, "\n- "))
	}
	return &Catalog{entries: out}, nil
}

// Lookup returns the strategy for a feature id.
func (c *Catalog) Lookup(id string) (model.Strategy, bool) {
	s, ok := c.entries[id]
	if !ok {
		return model.Strategy{}, false
	}
	s.DistTags = append([]string(nil), s.DistTags...)
	return s, true
}

// IDs returns the configured feature ids, sorted.
func (c *Catalog) IDs() []string {
	return sortedKeys(c.entries)
}

func (c *Catalog) Len() int { return len(c.entries) }

func sortedKeys(m map[string]model.Strategy) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
