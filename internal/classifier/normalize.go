package classifier

import (
	"strings"

	"golang.org/x/text/cases"
)

// folder case-folds text for comparisons. A cases.Caser keeps state, so
// every extraction makes its own folder.
type folder struct {
	caser cases.Caser
}

func newFolder() *folder {
	return &folder{caser: cases.Fold()}
}

func (f *folder) fold(s string) string {
	return f.caser.String(s)
}

// dedupe trims every fragment and drops those whose folded form was already
// seen. The first occurrence wins and relative order is kept.
func (f *folder) dedupe(raw []string) []string {
	out := make([]string, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, r := range raw {
		frag := strings.TrimSpace(r)
		if frag == "" {
			continue
		}
		key := f.fold(frag)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, frag)
	}
	return out
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
