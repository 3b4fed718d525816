package rules

import (
	"regexp"
	"strings"
	"sync"
)

var (
	wordBoundaryCache   = map[string]*regexp.Regexp{}
	wordBoundaryCacheMu sync.Mutex
)

// wholeWordPattern compiles (and caches) a \b<escaped keyword>\b regexp
// so that "port" never matches inside "sport" and "strike" never matches
// inside "striker".
func wholeWordPattern(keyword string) *regexp.Regexp {
	wordBoundaryCacheMu.Lock()
	defer wordBoundaryCacheMu.Unlock()
	if re, ok := wordBoundaryCache[keyword]; ok {
		return re
	}
	re := regexp.MustCompile(`\b` + regexp.QuoteMeta(keyword) + `\b`)
	wordBoundaryCache[keyword] = re
	return re
}

// ContainsWholeWord reports whether keyword appears as a whole word in
// text (case-insensitive).
func ContainsWholeWord(text, keyword string) bool {
	return wholeWordPattern(keyword).MatchString(strings.ToLower(text))
}

// MatchWholeWords returns every keyword (in input order) that appears as
// a whole word in text.
func MatchWholeWords(text string, keywords []string) []string {
	lower := strings.ToLower(text)
	var out []string
	for _, k := range keywords {
		if wholeWordPattern(k).MatchString(lower) {
			out = append(out, k)
		}
	}
	return out
}
