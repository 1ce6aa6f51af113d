package snippet

import (
	"strings"

	"github.com/neurosnap/sentences/english"
	"golang.org/x/net/html"
)

// DefaultTitleLength caps derived display titles.
const DefaultTitleLength = 60

/*
Title derives a display name for a pasted-text submission: the first
sentence of the text, truncated to max runes. Pasted text has no file name,
so this is what the record list renders.
*/
func Title(text string, max int) string {
	if max <= 0 {
		max = DefaultTitleLength
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "Pasted text"
	}

	first := text
	if tokenizer, err := english.NewSentenceTokenizer(nil); err == nil {
		if sents := tokenizer.Tokenize(text); len(sents) > 0 {
			if s := strings.TrimSpace(sents[0].Text); s != "" {
				first = s
			}
		}
	}

	// Collapse internal whitespace so multi-line pastes stay on one line.
	first = strings.Join(strings.Fields(first), " ")
	runes := []rune(first)
	if len(runes) > max {
		return strings.TrimSpace(string(runes[:max])) + "..."
	}
	return first
}

/*
FromHTML extracts readable text from HTML markup so HTML sources get a
legible title instead of raw tags. Script, style and other non-content
subtrees are skipped. On parse failure the markup is returned as-is; the
caller truncates either way.
*/
func FromHTML(markup string) string {
	doc, err := html.Parse(strings.NewReader(markup))
	if err != nil {
		return markup
	}

	ignore := map[string]bool{
		"script": true, "style": true, "head": true, "nav": true,
		"footer": true, "noscript": true,
	}

	var b strings.Builder
	var traverse func(*html.Node)
	traverse = func(n *html.Node) {
		if n == nil {
			return
		}
		if n.Type == html.ElementNode && ignore[n.Data] {
			return
		}
		if n.Type == html.TextNode {
			if text := strings.TrimSpace(n.Data); text != "" {
				if b.Len() > 0 {
					b.WriteByte(' ')
				}
				b.WriteString(text)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
		}
	}
	traverse(doc)

	if b.Len() == 0 {
		return markup
	}
	return b.String()
}
