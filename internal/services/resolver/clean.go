package resolver

import (
	"regexp"
	"strings"
)

// minCleanLength is the shortest cleaned query still worth searching for
const minCleanLength = 10

type replacement struct {
	pattern *regexp.Regexp
	with    string
}

var decorations = []replacement{
	{regexp.MustCompile(`【.*?】`), ""},
	{regexp.MustCompile(`♬`), ""},
	{regexp.MustCompile(`(?i)\[.*?Playlist.*?\]`), ""},
	{regexp.MustCompile(`(?i)\[.*?BGM.*?\]`), ""},
	{regexp.MustCompile(`(?i)lofi hip hop radio`), "lofi hip hop"},
	{regexp.MustCompile(`24/7`), ""},
	{regexp.MustCompile(`(?i)\blive\b`), ""},
	{regexp.MustCompile(`(?i)\bradio\b`), ""},
	{regexp.MustCompile(`\s+`), " "},
}

var genres = []struct {
	keyword string
	phrase  string
}{
	{"r&b", "R&B music hits"},
	{"jazz", "Jazz music"},
	{"chill", "chill music"},
}

// CleanQuery strips playlist-style decorations that hurt search relevance.
// When too little is left, a genre phrase inferred from the original query is used,
// or the original query itself. CleanQuery(CleanQuery(q)) == CleanQuery(q).
func CleanQuery(query string) string {
	cleaned := stripDecorations(query)
	if len([]rune(cleaned)) >= minCleanLength {
		return cleaned
	}

	lower := strings.ToLower(query)
	for _, g := range genres {
		if strings.Contains(lower, g.keyword) {
			return g.phrase
		}
	}
	return query
}

// stripDecorations applies the replacements until nothing changes
func stripDecorations(s string) string {
	for {
		next := strings.TrimSpace(s)
		for _, r := range decorations {
			next = r.pattern.ReplaceAllString(next, r.with)
		}
		next = strings.TrimSpace(next)
		if next == s {
			return next
		}
		s = next
	}
}
