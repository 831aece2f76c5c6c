// Package htmlsanitize cleans blog post bodies before they are stored.
// Admin editors submit rich text; public clients render it as-is, so every
// body passes through a bluemonday UGC policy on write.
package htmlsanitize

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	policy     *bluemonday.Policy
	policyOnce sync.Once
)

func getPolicy() *bluemonday.Policy {
	policyOnce.Do(func() {
		policy = bluemonday.UGCPolicy()

		// Editor tables and inline formatting
		policy.AllowElements("table", "thead", "tbody", "tfoot", "tr", "th", "td")
		policy.AllowAttrs("colspan", "rowspan").OnElements("th", "td")
		policy.AllowElements("u", "s", "sub", "sup", "mark", "figure", "figcaption")
		policy.AllowAttrs("class").OnElements("p", "span", "pre", "code", "figure", "table")
	})
	return policy
}

// Sanitize removes dangerous elements and attributes from an HTML fragment.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	return getPolicy().Sanitize(s)
}

// IsPlainText reports whether content has no HTML tags.
func IsPlainText(content string) bool {
	return !strings.Contains(content, "<") || !strings.Contains(content, ">")
}

// PlainTextToHTML escapes text and turns blank-line separated blocks
// into paragraphs and single newlines into <br>.
func PlainTextToHTML(text string) string {
	text = strings.TrimSpace(strings.ReplaceAll(text, "\r\n", "\n"))
	if text == "" {
		return ""
	}
	var b strings.Builder
	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		b.WriteString("<p>")
		b.WriteString(strings.ReplaceAll(html.EscapeString(para), "\n", "<br>"))
		b.WriteString("</p>")
	}
	return b.String()
}

// Body prepares a post body for storage: plain text is converted to
// paragraphs, HTML is sanitized.
func Body(content string) string {
	if strings.TrimSpace(content) == "" {
		return ""
	}
	if IsPlainText(content) {
		return PlainTextToHTML(content)
	}
	return Sanitize(content)
}
