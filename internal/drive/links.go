package drive

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed links.yaml
var defaultLinks []byte

// Links is the predefined course folder catalog: semester → subject → URL.
type Links map[int]map[string]string

// LoadLinks reads a catalog from path, or the built-in one when path is
// empty.
func LoadLinks(path string) (Links, error) {
	data := defaultLinks
	if path != "" {
		var err error
		if data, err = os.ReadFile(path); err != nil {
			return nil, fmt.Errorf("read predefined links: %w", err)
		}
	}
	return ParseLinks(data)
}

// ParseLinks decodes a yaml catalog. Subject keys are lowercased.
func ParseLinks(data []byte) (Links, error) {
	var raw map[int]map[string]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse predefined links: %w", err)
	}
	out := make(Links, len(raw))
	for sem, subjects := range raw {
		m := make(map[string]string, len(subjects))
		for subject, link := range subjects {
			m[strings.ToLower(strings.TrimSpace(subject))] = link
		}
		out[sem] = m
	}
	return out, nil
}

// Lookup finds the folder for a subject, ignoring case.
func (l Links) Lookup(semester int, subject string) (string, bool) {
	link, ok := l[semester][strings.ToLower(strings.TrimSpace(subject))]
	return link, ok
}
