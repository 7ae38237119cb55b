package manifest

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/tidwall/jsonc"
)

// MetadataFilename is the metadata file inside the framework output.
const MetadataFilename = "manifest.json"

const schemaURL = "mem://battleshiper-adapter/metadata.schema.json"

//go:embed metadata.schema.json
var schemaSource []byte

var (
	schemaOnce     sync.Once
	schemaErr      error
	compiledSchema *jsonschema.Schema
)

// Metadata is the descriptor the framework hands to the adapter.
type Metadata struct {
	// Manifest is the opaque routing and asset manifest.
	Manifest json.RawMessage `json:"manifest"`
	// Prerendered lists paths that have a prerendered page.
	Prerendered []string `json:"prerendered"`
	// Base is the base path, empty or starting with a slash and never ending with one.
	Base string `json:"base"`
}

// ReadMetadata reads and validates the metadata file of a framework output directory.
func ReadMetadata(frameworkOutput string) (*Metadata, error) {
	path := filepath.Join(frameworkOutput, MetadataFilename)

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read framework metadata: %w", err)
	}

	md, err := ParseMetadata(contents)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return md, nil
}

// ParseMetadata decodes metadata, tolerating comments and trailing commas.
func ParseMetadata(contents []byte) (*Metadata, error) {
	sch, err := loadSchema()
	if err != nil {
		return nil, err
	}

	data := jsonc.ToJSON(contents)

	var document any
	if err = json.Unmarshal(data, &document); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}

	if err = sch.Validate(document); err != nil {
		return nil, fmt.Errorf("validate metadata: %w", err)
	}

	var md Metadata
	if err = json.Unmarshal(data, &md); err != nil {
		return nil, fmt.Errorf("decode metadata: %w", err)
	}

	var compact bytes.Buffer
	if err = json.Compact(&compact, md.Manifest); err != nil {
		return nil, fmt.Errorf("compact manifest: %w", err)
	}

	md.Manifest = compact.Bytes()

	return &md, nil
}

func loadSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if schemaErr = compiler.AddResource(schemaURL, bytes.NewReader(schemaSource)); schemaErr != nil {
			return
		}

		compiledSchema, schemaErr = compiler.Compile(schemaURL)
	})

	return compiledSchema, schemaErr
}
