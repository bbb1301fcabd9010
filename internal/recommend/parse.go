package recommend

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// DefaultTopSongs is how many titles the API returns alongside the raw text
const DefaultTopSongs = 5

var (
	titleArtistSeparators = []string{" - ", " — ", " – ", " by "}
	jsonListKeys          = []string{"recommendations", "songs", "top", "top_5", "result", "titles"}
	skippedPrefixes       = []string{"step", "analysis", "music recommendations"}

	listItemPattern   = regexp.MustCompile(`^\s*(?:\d+[).:\-]\s*|[\-*•]\s+)(.+)$`)
	quotedPattern     = regexp.MustCompile(`^\s*["“](.+?)["”](?:\s*[—–-]\s*.+)?$`)
	trailingYearRegex = regexp.MustCompile(`\s+\(\d{4}\)$`)
)

const quoteChars = "\"'“”‘’"

// ParseTopSongs extracts up to k song titles from an LLM answer. It accepts a
// JSON list (bare or under a well-known key) and falls back to list items,
// quoted titles and "title - artist" lines.
func ParseTopSongs(text string, k int) []string {
	if k <= 0 {
		return []string{}
	}

	if items, ok := jsonItems(text); ok {
		return dedupe(items, k)
	}

	lines := nonEmptyLines(text)

	var candidates []string
	for _, line := range lines {
		if m := listItemPattern.FindStringSubmatch(line); m != nil {
			candidates = append(candidates, splitTitleArtist(m[1]))
		} else if m := quotedPattern.FindStringSubmatch(line); m != nil {
			candidates = append(candidates, splitTitleArtist(m[1]))
		}
	}

	if len(candidates) == 0 {
		for _, line := range lines {
			if hasSeparator(line) {
				candidates = append(candidates, splitTitleArtist(line))
			}
		}
	}

	if cleaned := dedupe(candidates, k); len(cleaned) > 0 {
		return cleaned
	}

	fallback := []string{}
	for _, line := range lines {
		if len(fallback) >= k {
			break
		}
		if len(strings.Fields(line)) >= 2 && !hasSkippedPrefix(line) {
			fallback = append(fallback, splitTitleArtist(line))
		}
	}
	return fallback
}

// jsonItems returns the titles of a JSON answer. ok is false when the text is
// not JSON or holds no usable list.
func jsonItems(text string) ([]string, bool) {
	var data any
	if err := json.Unmarshal([]byte(strings.TrimSpace(text)), &data); err != nil {
		return nil, false
	}

	var raw []any
	switch v := data.(type) {
	case []any:
		raw = v
	case map[string]any:
		for _, key := range jsonListKeys {
			if list, ok := v[key].([]any); ok {
				raw = list
				break
			}
		}
	}
	if len(raw) == 0 {
		return nil, false
	}

	items := make([]string, 0, len(raw))
	for _, item := range raw {
		switch x := item.(type) {
		case string:
			items = append(items, splitTitleArtist(x))
		case map[string]any:
			if title, ok := x["title"].(string); ok {
				items = append(items, splitTitleArtist(title))
			} else {
				items = append(items, splitTitleArtist(fmt.Sprint(x)))
			}
		default:
			items = append(items, splitTitleArtist(fmt.Sprint(x)))
		}
	}
	return items, true
}

// splitTitleArtist keeps the title part of "Title - Artist" or "Title by Artist"
func splitTitleArtist(s string) string {
	s = strings.Trim(strings.TrimSpace(s), quoteChars)
	for _, sep := range titleArtistSeparators {
		if before, _, found := strings.Cut(s, sep); found {
			return strings.Trim(strings.TrimSpace(before), quoteChars)
		}
	}
	return s
}

func dedupe(candidates []string, k int) []string {
	seen := make(map[string]bool, len(candidates))
	out := []string{}
	for _, c := range candidates {
		c = strings.TrimSpace(trailingYearRegex.ReplaceAllString(c, ""))
		key := strings.ToLower(c)
		if c == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, c)
		if len(out) == k {
			break
		}
	}
	return out
}

func nonEmptyLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func hasSeparator(line string) bool {
	for _, sep := range titleArtistSeparators {
		if strings.Contains(line, sep) {
			return true
		}
	}
	return false
}

func hasSkippedPrefix(line string) bool {
	lower := strings.ToLower(line)
	for _, p := range skippedPrefixes {
		if strings.HasPrefix(lower, p) {
			return true
		}
	}
	return false
}
