// Package descriptor reads and rewrites devcontainer-feature.json files.
package descriptor

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/3leaps/featurebump/internal/schema"
)

// FileName is the descriptor file inside each feature directory.
const FileName = "devcontainer-feature.json"

const (
	indent    = "    "
	schemaURL = "https://schemas.3leaps.dev/featurebump/feature-descriptor.schema.json"
)

// ErrMalformed marks a descriptor that is not valid JSON or has the wrong shape.
var ErrMalformed = errors.New("malformed feature descriptor")

//go:embed descriptor.schema.json
var descriptorSchemaJSON []byte

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func descriptorSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiledSchema, schemaErr = schema.Compile(schemaURL, descriptorSchemaJSON)
	})
	return compiledSchema, schemaErr
}

// Descriptor is one parsed feature descriptor. Fields other than
// options.version.default are carried through untouched.
type Descriptor struct {
	Path string

	root            object
	mode            os.FileMode
	trailingNewline bool
}

// Load reads and validates the descriptor at path. A missing file returns an
// error satisfying errors.Is(err, os.ErrNotExist).
func Load(path string) (*Descriptor, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	// #nosec G304 -- path is inside the configured features directory
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	d, err := Parse(path, data)
	if err != nil {
		return nil, err
	}
	d.mode = info.Mode().Perm()
	return d, nil
}

func Parse(path string, data []byte) (*Descriptor, error) {
	s, err := descriptorSchema()
	if err != nil {
		return nil, err
	}
	if err := schema.ValidateJSON(s, data); err != nil {
		return nil, fmt.Errorf("%s: %w: %v", path, ErrMalformed, err)
	}

	d := &Descriptor{
		Path:            path,
		mode:            0o644,
		trailingNewline: bytes.HasSuffix(data, []byte("\n")),
	}
	if err := json.Unmarshal(data, &d.root); err != nil {
		return nil, fmt.Errorf("%s: %w: %v", path, ErrMalformed, err)
	}
	return d, nil
}

// DefaultVersion returns options.version.default. ok is false when the field
// is absent or empty.
func (d *Descriptor) DefaultVersion() (string, bool) {
	options, ok := d.root.child("options")
	if !ok {
		return "", false
	}
	version, ok := options.child("version")
	if !ok {
		return "", false
	}
	raw, ok := version.get("default")
	if !ok {
		return "", false
	}
	var v string
	if err := json.Unmarshal(raw, &v); err != nil || v == "" {
		return "", false
	}
	return v, true
}

// SetDefaultVersion replaces options.version.default in place. The other
// members keep their order and values.
func (d *Descriptor) SetDefaultVersion(v string) error {
	options, ok := d.root.child("options")
	if !ok {
		return fmt.Errorf("%s: no options object", d.Path)
	}
	version, ok := options.child("version")
	if !ok {
		return fmt.Errorf("%s: no options.version object", d.Path)
	}

	raw, err := encodeString(v)
	if err != nil {
		return err
	}
	version.set("default", raw)
	if err := options.setChild("version", version); err != nil {
		return err
	}
	return d.root.setChild("options", options)
}

// Marshal renders the descriptor with 4-space indentation and no HTML
// escaping, keeping the original file's trailing-newline state.
func (d *Descriptor) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", indent)
	if err := enc.Encode(d.root); err != nil {
		return nil, fmt.Errorf("encode %s: %w", d.Path, err)
	}
	out := buf.Bytes()
	if !d.trailingNewline {
		out = bytes.TrimRight(out, "\n")
	}
	return out, nil
}

// Save rewrites the whole file.
func (d *Descriptor) Save() error {
	data, err := d.Marshal()
	if err != nil {
		return err
	}
	if err := os.WriteFile(d.Path, data, d.mode); err != nil {
		return fmt.Errorf("write %s: %w", d.Path, err)
	}
	return nil
}
