package entry

import (
	_ "embed"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Placeholder names a token of the entry template.
type Placeholder string

const (
	// PlaceholderServer is replaced with the application server import path.
	PlaceholderServer Placeholder = "__SERVER__"
	// PlaceholderShims is replaced with the runtime shim import path.
	PlaceholderShims Placeholder = "__SHIMS__"
	// PlaceholderManifest is replaced with the generated manifest import path.
	PlaceholderManifest Placeholder = "__MANIFEST__"
	// PlaceholderDebug is replaced with the literal true or false.
	PlaceholderDebug Placeholder = "__DEBUG__"
)

var (
	// ErrUnresolvedPlaceholder is returned when a template token has no value.
	ErrUnresolvedPlaceholder = errors.New("unresolved placeholder")
	// ErrUnknownPlaceholder is returned when a value targets a token the template lacks.
	ErrUnknownPlaceholder = errors.New("unknown placeholder")
	// ErrInvalidValue is returned when a value would itself introduce a token.
	ErrInvalidValue = errors.New("invalid placeholder value")
)

// tokenPattern matches every placeholder-shaped token.
var tokenPattern = regexp.MustCompile(`__[A-Z][A-Z0-9]*__`)

//go:embed entry.go.tmpl
var defaultTemplate string

// Template is entry source with placeholder tokens.
type Template struct {
	source string
}

// Default returns the embedded entry template.
func Default() *Template {
	return &Template{source: defaultTemplate}
}

// NewTemplate wraps arbitrary template source.
func NewTemplate(source string) *Template {
	return &Template{source: source}
}

// Placeholders returns the distinct tokens of the template in order of first appearance.
func (t *Template) Placeholders() []Placeholder {
	var (
		seen   = make(map[string]struct{})
		result []Placeholder
	)

	for _, token := range tokenPattern.FindAllString(t.source, -1) {
		if _, ok := seen[token]; ok {
			continue
		}

		seen[token] = struct{}{}
		result = append(result, Placeholder(token))
	}

	return result
}

// Instantiate replaces every token of the template with its value.
func (t *Template) Instantiate(values map[Placeholder]string) (string, error) {
	required := t.Placeholders()

	present := make(map[Placeholder]struct{}, len(required))
	for _, p := range required {
		present[p] = struct{}{}

		value, ok := values[p]
		if !ok || strings.TrimSpace(value) == "" {
			return "", fmt.Errorf("%w: %s", ErrUnresolvedPlaceholder, p)
		}
	}

	keys := make([]string, 0, len(values))
	for p, value := range values {
		if _, ok := present[p]; !ok {
			return "", fmt.Errorf("%w: %s", ErrUnknownPlaceholder, p)
		}

		if tokenPattern.MatchString(value) {
			return "", fmt.Errorf("%w: %s = %q", ErrInvalidValue, p, value)
		}

		keys = append(keys, string(p))
	}

	sort.Strings(keys)

	pairs := make([]string, 0, 2*len(keys))
	for _, k := range keys {
		pairs = append(pairs, k, values[Placeholder(k)])
	}

	result := strings.NewReplacer(pairs...).Replace(t.source)

	if stray := tokenPattern.FindString(result); stray != "" {
		return "", fmt.Errorf("%w: %s", ErrUnresolvedPlaceholder, stray)
	}

	return result, nil
}

// Values is the resolved input of the default template.
type Values struct {
	// ServerPackage is the import path of the application server.
	ServerPackage string
	// ShimsPackage is the import path of the runtime shim.
	ShimsPackage string
	// ManifestPackage is the import path of the generated manifest package.
	ManifestPackage string
	// Debug exposes error details in failure replies.
	Debug bool
}

// Map converts values into the placeholder map of the default template.
func (v Values) Map() map[Placeholder]string {
	return map[Placeholder]string{
		PlaceholderServer:   v.ServerPackage,
		PlaceholderShims:    v.ShimsPackage,
		PlaceholderManifest: v.ManifestPackage,
		PlaceholderDebug:    strconv.FormatBool(v.Debug),
	}
}
