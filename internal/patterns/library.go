// Package patterns holds the ordered set of text rules used to find temporal
// evidence in a message.
package patterns

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

type Category string

const (
	CategoryDate       Category = "date"
	CategoryTime       Category = "time"
	CategoryRelative   Category = "relative"
	CategoryObligation Category = "obligation-keyword"
)

// DefaultWindow is how many characters an obligation keyword captures after
// itself when no sentence boundary comes first.
const DefaultWindow = 100

// maxWindow is the largest repeat count RE2 accepts.
const maxWindow = 1000

// DefaultKeywords anchor the obligation-keyword rules.
var DefaultKeywords = []string{
	"due", "deadline", "submit", "payment", "bill", "assignment",
	"homework", "project", "exam", "meeting", "appointment", "call",
}

// Pattern is a named matching rule.
type Pattern struct {
	Name     string
	Category Category

	re *regexp.Regexp
	// group selects the submatch to emit; 0 is the whole match.
	group int
}

// Expr returns the regular expression source of the rule.
func (p Pattern) Expr() string {
	return p.re.String()
}

// Library is immutable after construction and safe for concurrent use.
type Library struct {
	patterns []Pattern
}

type ruleDef struct {
	name     string
	category Category
	expr     string
	group    int
}

const (
	monthNames  = `January|February|March|April|May|June|July|August|September|October|November|December`
	monthAbbrev = `Jan|Feb|Mar|Apr|May|Jun|Jul|Aug|Sept|Sep|Oct|Nov|Dec`
	dayOfMonth  = `\d{1,2}(?:st|nd|rd|th)?`
	unitOfTime  = `(?:days?|weeks?|months?|years?)`
)

var fixedRules = []ruleDef{
	{"numeric-date-slash", CategoryDate, `\b\d{1,2}/\d{1,2}/\d{2,4}\b`, 0},
	{"numeric-date-dash", CategoryDate, `\b\d{1,2}-\d{1,2}-\d{2,4}\b`, 0},
	{"iso-date", CategoryDate, `\b\d{4}-\d{1,2}-\d{1,2}\b`, 0},
	{"month-name-date", CategoryDate, `(?i)\b(?:` + monthNames + `)\s+` + dayOfMonth + `,?\s+\d{4}\b`, 0},
	{"month-abbrev-date", CategoryDate, `(?i)\b(?:` + monthAbbrev + `)\.?\s+` + dayOfMonth + `,?\s+\d{4}\b`, 0},

	{"clock-time", CategoryTime, `(?i)\b\d{1,2}:\d{2}(?:\s*[ap]m)?\b`, 0},
	// The leading class keeps "59 PM" out of "11:59 PM".
	{"hour-meridiem", CategoryTime, `(?i)(?:^|[^:\w])(\d{1,2}\s*[ap]m)\b`, 1},

	{"relative-word", CategoryRelative, `(?i)\b(?:tomorrow|today|yesterday|next\s+week|next\s+month|next\s+year|this\s+week|this\s+month|this\s+year)\b`, 0},
	{"relative-in", CategoryRelative, `(?i)\bin\s+\d+\s+` + unitOfTime + `\b`, 0},
	{"relative-from-now", CategoryRelative, `(?i)\b\d+\s+` + unitOfTime + `\s+from\s+now\b`, 0},
}

// New builds a library with the fixed date, time and relative rules followed
// by one obligation rule per keyword. Each obligation rule captures the
// keyword plus up to window characters, stopping before the next '.'.
func New(keywords []string, window int) (*Library, error) {
	if window < 1 || window > maxWindow {
		return nil, fmt.Errorf("window must be between 1 and %d, got %d", maxWindow, window)
	}
	if len(keywords) == 0 {
		return nil, fmt.Errorf("at least one obligation keyword is required")
	}

	defs := make([]ruleDef, 0, len(fixedRules)+len(keywords))
	defs = append(defs, fixedRules...)
	seen := make(map[string]struct{}, len(keywords))
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			return nil, fmt.Errorf("obligation keyword must not be blank")
		}
		if _, dup := seen[kw]; dup {
			continue
		}
		seen[kw] = struct{}{}
		defs = append(defs, ruleDef{
			name:     "keyword-" + kw,
			category: CategoryObligation,
			expr:     keywordExpr(kw, window),
		})
	}

	lib := &Library{patterns: make([]Pattern, 0, len(defs))}
	for _, d := range defs {
		re, err := regexp.Compile(d.expr)
		if err != nil {
			return nil, fmt.Errorf("compile %s: %w", d.name, err)
		}
		lib.patterns = append(lib.patterns, Pattern{
			Name:     d.name,
			Category: d.category,
			re:       re,
			group:    d.group,
		})
	}
	return lib, nil
}

// keywordExpr anchors kw on word boundaries. Edges that are not word
// characters get no anchor, since \b would never hold there.
func keywordExpr(kw string, window int) string {
	var b strings.Builder
	b.WriteString(`(?i)`)
	if isWordByte(kw[0]) {
		b.WriteString(`\b`)
	}
	b.WriteString(regexp.QuoteMeta(kw))
	if isWordByte(kw[len(kw)-1]) {
		b.WriteString(`\b`)
	}
	fmt.Fprintf(&b, `[^.]{0,%d}`, window)
	return b.String()
}

func isWordByte(c byte) bool {
	return c == '_' || '0' <= c && c <= '9' || 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z'
}

var defaultLibrary = mustNew(DefaultKeywords, DefaultWindow)

func mustNew(keywords []string, window int) *Library {
	lib, err := New(keywords, window)
	if err != nil {
		panic(err)
	}
	return lib
}

// Default returns the canonical library.
func Default() *Library {
	return defaultLibrary
}

// Patterns returns the rules in scan order.
func (l *Library) Patterns() []Pattern {
	out := make([]Pattern, len(l.patterns))
	copy(out, l.patterns)
	return out
}

type hit struct {
	start int
	text  string
}

// Scan returns every raw match in text. Results are grouped by category in
// library order and sorted left to right inside each group.
func (l *Library) Scan(text string) []string {
	var out []string
	var group []hit

	flush := func() {
		sort.SliceStable(group, func(i, j int) bool { return group[i].start < group[j].start })
		for _, h := range group {
			out = append(out, h.text)
		}
		group = group[:0]
	}

	for i, p := range l.patterns {
		if i > 0 && l.patterns[i-1].Category != p.Category {
			flush()
		}
		for _, loc := range p.re.FindAllStringSubmatchIndex(text, -1) {
			start, end := loc[2*p.group], loc[2*p.group+1]
			if start < 0 {
				continue
			}
			group = append(group, hit{start: start, text: text[start:end]})
		}
	}
	flush()

	return out
}
