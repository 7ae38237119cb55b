package bundler

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Severity classifies a diagnostic.
type Severity int

const (
	// SeverityWarning is a diagnostic that did not stop the compiler.
	SeverityWarning Severity = iota
	// SeverityError is a diagnostic that failed the compilation.
	SeverityError
)

// String returns the lowercase name of the severity.
func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}

	return "warning"
}

// Diagnostic is one message reported by the compiler.
type Diagnostic struct {
	// File is the source file, empty for messages without a location.
	File string
	// Line is the 1-based line, zero when unknown.
	Line int
	// Column is the 1-based column, zero when unknown.
	Column int
	// Severity tells warnings from errors.
	Severity Severity
	// Message is the text of the diagnostic.
	Message string
}

// String formats the diagnostic the way compilers print them.
func (d Diagnostic) String() string {
	var b strings.Builder

	if d.File != "" {
		b.WriteString(d.File)
		b.WriteByte(':')

		if d.Line > 0 {
			b.WriteString(strconv.Itoa(d.Line))
			b.WriteByte(':')
		}

		if d.Column > 0 {
			b.WriteString(strconv.Itoa(d.Column))
			b.WriteByte(':')
		}

		b.WriteByte(' ')
	}

	b.WriteString(d.Severity.String())
	b.WriteString(": ")
	b.WriteString(d.Message)

	return b.String()
}

// ErrBundleDiagnostics is wrapped by DiagnosticsError.
var ErrBundleDiagnostics = errors.New("bundle reported diagnostics")

// DiagnosticsError aborts a build that produced diagnostics.
type DiagnosticsError struct {
	Diagnostics []Diagnostic
}

// Error summarizes the diagnostics.
func (e *DiagnosticsError) Error() string {
	errs, warns := Count(e.Diagnostics)

	return fmt.Sprintf("%s: %d error(s), %d warning(s)", ErrBundleDiagnostics, errs, warns)
}

// Unwrap exposes ErrBundleDiagnostics to errors.Is.
func (e *DiagnosticsError) Unwrap() error {
	return ErrBundleDiagnostics
}

var (
	// locationPattern matches "file.go:line[:col]: message".
	locationPattern = regexp.MustCompile(`^(.+?\.go):(\d+)(?::(\d+))?: (.*)$`)

	// informationalPrefixes are progress lines of the go command.
	informationalPrefixes = []string{"go: downloading ", "go: extracting ", "go: finding "}
)

const warningMarker = "warning:"

// Parse converts compiler output into diagnostics. Unlocated lines count as
// warnings after a successful compilation and as errors after a failed one.
// Indented lines continue the previous diagnostic.
func Parse(output []byte, failed bool) []Diagnostic {
	var (
		result  []Diagnostic
		scanner = bufio.NewScanner(bytes.NewReader(output))
	)

	unlocated := SeverityWarning
	if failed {
		unlocated = SeverityError
	}

	for scanner.Scan() {
		raw := scanner.Text()
		line := strings.TrimSpace(raw)

		switch {
		case line == "", strings.HasPrefix(line, "#"), isInformational(line):
			continue
		case (strings.HasPrefix(raw, "\t") || strings.HasPrefix(raw, "  ")) && len(result) > 0:
			last := &result[len(result)-1]
			last.Message += "\n\t" + line

			continue
		}

		if m := locationPattern.FindStringSubmatch(line); m != nil {
			d := Diagnostic{File: m[1], Severity: SeverityError, Message: m[4]}
			d.Line, _ = strconv.Atoi(m[2])
			d.Column, _ = strconv.Atoi(m[3])

			if msg, ok := strings.CutPrefix(d.Message, warningMarker); ok {
				d.Severity = SeverityWarning
				d.Message = strings.TrimSpace(msg)
			} else if strings.Contains(d.Message, warningMarker) {
				d.Severity = SeverityWarning
			}

			result = append(result, d)

			continue
		}

		severity := unlocated
		if strings.Contains(strings.ToLower(line), warningMarker) {
			severity = SeverityWarning
		}

		result = append(result, Diagnostic{Severity: severity, Message: line})
	}

	return result
}

// Count returns the number of errors and warnings.
func Count(diagnostics []Diagnostic) (errs, warns int) {
	for _, d := range diagnostics {
		if d.Severity == SeverityError {
			errs++
		} else {
			warns++
		}
	}

	return errs, warns
}

// Format renders diagnostics for the operator console.
func Format(diagnostics []Diagnostic) string {
	var b strings.Builder

	for _, d := range diagnostics {
		b.WriteString(d.String())
		b.WriteByte('\n')
	}

	errs, warns := Count(diagnostics)
	fmt.Fprintf(&b, "%d error(s), %d warning(s)\n", errs, warns)

	return b.String()
}

func isInformational(line string) bool {
	for _, prefix := range informationalPrefixes {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}

	return false
}
