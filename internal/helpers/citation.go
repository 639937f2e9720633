package helpers

import (
	"net/url"
	"regexp"
	"strings"
)

// Citation is a source reference found in response text. Label is empty for bare URLs.
type Citation struct {
	Label string `json:"label,omitempty"`
	URL   string `json:"url"`
}

// urlChars is one URL character: anything but ")" and whitespace. RE2's \s is
// ASCII only, so the remaining Unicode whitespace is excluded explicitly.
const urlChars = `[^\s\v\x1c-\x1f\x85\p{Z})]`

var (
	markdownLinkRe = regexp.MustCompile(`\[([^\]]+)\]\((https?://` + urlChars + `+)\)`)
	bareURLRe      = regexp.MustCompile(`https?://` + urlChars + `+`)
)

// ExtractCitations returns the Markdown links in text followed by any bare URLs
// not already listed. The first occurrence of a URL wins; URLs are compared as
// exact strings.
func ExtractCitations(text string) []Citation {
	seen := make(map[string]struct{})
	var out []Citation
	for _, m := range markdownLinkRe.FindAllStringSubmatch(text, -1) {
		label, link := m[1], m[2]
		if _, ok := seen[link]; ok {
			continue
		}
		seen[link] = struct{}{}
		out = append(out, Citation{Label: label, URL: link})
	}
	for _, link := range bareURLs(text) {
		if _, ok := seen[link]; ok {
			continue
		}
		seen[link] = struct{}{}
		out = append(out, Citation{URL: link})
	}
	return out
}

// bareURLs finds URLs not directly preceded by "(", which skips the target of
// most Markdown links. A rejected match resumes scanning one byte later so a
// URL nested inside it can still be found.
func bareURLs(text string) []string {
	var out []string
	pos := 0
	for pos < len(text) {
		loc := bareURLRe.FindStringIndex(text[pos:])
		if loc == nil {
			break
		}
		start, end := pos+loc[0], pos+loc[1]
		if start > 0 && text[start-1] == '(' {
			pos = start + 1
			continue
		}
		out = append(out, text[start:end])
		pos = end
	}
	return out
}

// FormatCitation renders a citation as a Markdown bullet:
// "- [label](url)" or "- <url>" when there is no label.
func FormatCitation(c Citation) string {
	if c.Label != "" {
		return "- [" + c.Label + "](" + c.URL + ")"
	}
	return "- <" + c.URL + ">"
}

// FormatCitations renders a collection of citations.
func FormatCitations(citations []Citation) []string {
	if len(citations) == 0 {
		return nil
	}
	out := make([]string, 0, len(citations))
	for _, c := range citations {
		out = append(out, FormatCitation(c))
	}
	return out
}

// RenderSources extracts and formats the sources of text as a Markdown list.
func RenderSources(text string) string {
	return strings.Join(FormatCitations(ExtractCitations(text)), "\n")
}

// Host returns the lowercased host of the citation URL without default ports.
func (c Citation) Host() string {
	raw := strings.TrimSpace(c.URL)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Host)
	host = strings.TrimSuffix(host, ":80")
	host = strings.TrimSuffix(host, ":443")
	return host
}
