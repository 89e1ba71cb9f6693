package utils

import (
	"sort"
	"strings"
)

// Format replaces every {KEY} placeholder of the template with the value stored under KEY.
// Placeholders without a value are left as is.
func Format(template string, keys map[string]string) string {
	if len(keys) == 0 {
		return template
	}
	return replacer(keys).Replace(template)
}

// FormatAll applies Format to every template of the list.
func FormatAll(templates []string, keys map[string]string) []string {
	r := replacer(keys)
	out := make([]string, 0, len(templates))
	for _, t := range templates {
		out = append(out, r.Replace(t))
	}
	return out
}

func replacer(keys map[string]string) *strings.Replacer {
	names := make([]string, 0, len(keys))
	for k := range keys {
		names = append(names, k)
	}
	sort.Strings(names)

	pairs := make([]string, 0, 2*len(names))
	for _, k := range names {
		pairs = append(pairs, "{"+k+"}", keys[k])
	}
	return strings.NewReplacer(pairs...)
}
