// Package pemutil extracts named sections from PEM text without
// normalizing their headers, so a query like "PRIVATE KEY" can find an
// "ENCRYPTED PRIVATE KEY" section and report which flavor it found.
// encoding/pem cannot do this: it returns only whole blocks by exact
// type.
package pemutil

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// ErrSectionNotFound indicates no section matching the query exists.
var ErrSectionNotFound = errors.New("pem: section not found")

const (
	beginPrefix = "-----BEGIN "
	endPrefix   = "-----END "
	markSuffix  = "-----"
)

// Section is one PEM section: the full header text between "BEGIN" and
// the closing dashes, plus the raw body lines up to the matching END.
type Section struct {
	Header string
	Lines  []string
}

// Decode base64-decodes the joined body lines.
func (s *Section) Decode() ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(strings.Join(s.Lines, ""))
	if err != nil {
		return nil, fmt.Errorf("decoding %s section: %w", s.Header, err)
	}
	return data, nil
}

// ExtractSection returns the first section whose header equals name or
// ends with " "+name, so "PRIVATE KEY" also matches "ENCRYPTED PRIVATE
// KEY". Input may use LF or CRLF line endings. A matching BEGIN with no
// corresponding END line fails.
func ExtractSection(text []byte, name string) (*Section, error) {
	lines := splitLines(string(text))
	for i, line := range lines {
		header, ok := beginHeader(line)
		if !ok || !matches(header, name) {
			continue
		}
		end := endPrefix + header + markSuffix
		for j := i + 1; j < len(lines); j++ {
			if lines[j] == end {
				return &Section{Header: header, Lines: lines[i+1 : j]}, nil
			}
		}
		return nil, fmt.Errorf("%q section is missing its END line", header)
	}
	return nil, fmt.Errorf("%w: %q", ErrSectionNotFound, name)
}

// splitLines splits on newlines and trims surrounding whitespace from
// each line, which also absorbs CR from CRLF input.
func splitLines(text string) []string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	return lines
}

// beginHeader returns the header text of a BEGIN marker line.
func beginHeader(line string) (string, bool) {
	if !strings.HasPrefix(line, beginPrefix) || !strings.HasSuffix(line, markSuffix) {
		return "", false
	}
	header := line[len(beginPrefix) : len(line)-len(markSuffix)]
	if header == "" || header != strings.TrimSpace(header) {
		return "", false
	}
	return header, true
}

// matches reports whether a section header satisfies a query name,
// either exactly or as the suffix after a qualifier such as "ENCRYPTED".
func matches(header, name string) bool {
	return header == name || strings.HasSuffix(header, " "+name)
}
