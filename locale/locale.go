// Package locale resolves user-facing strings from embedded translation tables.
package locale

import (
	"embed"
	"fmt"
	"path"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

//go:embed lang/*.yml
var tables embed.FS

// Strings resolves dotted keys against an ordered list of languages.
type Strings struct {
	langs  []string
	tables []map[string]string
}

// New loads the tables for the given languages in priority order. Unknown languages are skipped.
func New(langs []string) *Strings {
	s := &Strings{}
	for _, lang := range langs {
		t, err := load(lang)
		if err != nil {
			logrus.Warnf("skipping language %q: %v", lang, err)
			continue
		}
		s.langs = append(s.langs, lang)
		s.tables = append(s.tables, t)
	}
	return s
}

// Languages returns the languages that were loaded.
func (s *Strings) Languages() []string {
	return s.langs
}

// Get returns the string of the first language defining the key, or the key itself.
func (s *Strings) Get(key string) string {
	if v, ok := s.Lookup(key); ok {
		return v
	}
	return key
}

// Lookup returns the string of the first language defining the key.
func (s *Strings) Lookup(key string) (string, bool) {
	for _, t := range s.tables {
		if v, ok := t[key]; ok {
			return v, true
		}
	}
	return "", false
}

func load(lang string) (map[string]string, error) {
	b, err := tables.ReadFile(path.Join("lang", lang+".yml"))
	if err != nil {
		return nil, fmt.Errorf("no translation table: %w", err)
	}

	var doc map[string]any
	if err = yaml.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse translation table: %w", err)
	}

	flat := make(map[string]string)
	flatten("", doc, flat)
	return flat, nil
}

func flatten(prefix string, node map[string]any, out map[string]string) {
	for k, v := range node {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch val := v.(type) {
		case map[string]any:
			flatten(key, val, out)
		case string:
			out[key] = val
		default:
			out[key] = fmt.Sprint(val)
		}
	}
}
