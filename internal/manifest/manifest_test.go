package manifest

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/battleshiper-adapter/internal/domain/build"
)

const sampleMetadata = `{
	// Generated by the framework build.
	"manifest": {
		"appDir": "_app",
		"routes": [ { "id": "/x", "pattern": "^/x/?$" } ],
	},
	"prerendered": ["/about", "/", "/about"],
	"base": "/docs",
}`

// TestParseMetadata accepts comments and trailing commas and compacts the manifest.
func TestParseMetadata(t *testing.T) {
	t.Parallel()

	md, err := ParseMetadata([]byte(sampleMetadata))
	require.NoError(t, err)
	require.JSONEq(t, `{"appDir":"_app","routes":[{"id":"/x","pattern":"^/x/?$"}]}`, string(md.Manifest))
	require.NotContains(t, string(md.Manifest), " ")
	require.Equal(t, []string{"/about", "/", "/about"}, md.Prerendered)
	require.Equal(t, "/docs", md.Base)
}

// TestParseMetadata_Invalid rejects documents that do not match the schema.
func TestParseMetadata_Invalid(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"missing manifest":       `{"base": ""}`,
		"manifest not an object": `{"manifest": []}`,
		"base trailing slash":    `{"manifest": {}, "base": "/docs/"}`,
		"base without slash":     `{"manifest": {}, "base": "docs"}`,
		"relative prerendered":   `{"manifest": {}, "prerendered": ["about"]}`,
		"not json":               `manifest`,
	}

	for name, doc := range cases {
		_, err := ParseMetadata([]byte(doc))
		require.Error(t, err, name)
	}
}

// TestRender_Deterministic renders twice and checks sorted, deduplicated, quoted output.
func TestRender_Deterministic(t *testing.T) {
	t.Parallel()

	md, err := ParseMetadata([]byte(sampleMetadata))
	require.NoError(t, err)

	first, err := Render(md, "../../out/server")
	require.NoError(t, err)

	second, err := Render(md, "../../out/server")
	require.NoError(t, err)
	require.Equal(t, first, second)

	source := string(first)
	require.Contains(t, source, "// Code generated by battleshiper-adapter. DO NOT EDIT.")
	require.Contains(t, source, "package manifest")
	require.Contains(t, source, `const Base = "/docs"`)
	require.Contains(t, source, `const ServerDir = "../../out/server"`)
	require.Contains(t, source, `var Manifest = []byte("{\"appDir\":\"_app\"`)
	require.Less(t, strings.Index(source, `"/":`), strings.Index(source, `"/about":`))
	require.Equal(t, 1, strings.Count(source, `"/about"`))
}

// TestAssemble writes the manifest package into the temp directory of the run.
func TestAssemble(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	framework := filepath.Join(root, "framework")
	require.NoError(t, os.MkdirAll(framework, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(framework, MetadataFilename), []byte(`{"manifest": {}}`), 0o644))

	bc := build.NewContext(filepath.Join(root, "out"), filepath.Join(root, "tmp"), false)

	md, err := Assemble(context.Background(), bc, framework)
	require.NoError(t, err)
	require.Empty(t, md.Base)

	source, err := os.ReadFile(filepath.Join(bc.ManifestDir(), SourceFilename))
	require.NoError(t, err)
	require.Contains(t, string(source), `const Base = ""`)
	require.Contains(t, string(source), `const ServerDir = "../../out/server"`)
	require.Contains(t, string(source), `var Manifest = []byte("{}")`)
}

// TestAssemble_MissingMetadata propagates the filesystem error.
func TestAssemble_MissingMetadata(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	bc := build.NewContext(filepath.Join(root, "out"), filepath.Join(root, "tmp"), false)

	_, err := Assemble(context.Background(), bc, filepath.Join(root, "framework"))
	require.ErrorIs(t, err, os.ErrNotExist)
}
