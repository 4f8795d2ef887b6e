// Package planning turns raw calendar components into structured events.
package planning

import (
	"regexp"
	"strings"
)

// exportBannerPrefixes mark footer lines the scheduling backend appends to every exported field.
var exportBannerPrefixes = []string{"(Exporté", "(Exported"}

var spaceRun = regexp.MustCompile(` +`)

// CleanLines splits a free-text field into normalized, non-empty lines: asterisks removed,
// space runs collapsed, surrounding whitespace trimmed, export banners dropped.
// Applying it to its own joined output yields the same lines.
func CleanLines(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, "\n")
	out := make([]string, 0, len(raw))
	for _, line := range raw {
		if isBanner(line) {
			continue
		}
		line = strings.ReplaceAll(line, "*", "")
		line = spaceRun.ReplaceAllString(line, " ")
		line = strings.TrimSpace(line)
		// checked again once cleaned: "*(Exporté" only reveals its prefix after stripping.
		if line == "" || isBanner(line) {
			continue
		}
		out = append(out, line)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// CleanText cleans s and joins the resulting lines with single spaces.
// It returns nil when nothing is left.
func CleanText(s string) *string {
	lines := CleanLines(s)
	if len(lines) == 0 {
		return nil
	}
	joined := strings.Join(lines, " ")
	return &joined
}

func isBanner(line string) bool {
	for _, p := range exportBannerPrefixes {
		if strings.HasPrefix(line, p) {
			return true
		}
	}
	return false
}
