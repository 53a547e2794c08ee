package fetch

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	noiseSelector = "script, style, noscript, svg, template, iframe, head"
	blockSelector = "p, div, li, ul, ol, h1, h2, h3, h4, h5, h6, br, tr, td, th, section, article, header, footer, nav, main, aside, dt, dd, pre, blockquote"
)

// ExtractText returns the visible text of an HTML document with one line per
// block element and blank lines dropped.
func ExtractText(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc.Find(noiseSelector).Remove()
	doc.Find(blockSelector).AppendHtml("\n")

	root := doc.Find("body")
	if root.Length() == 0 {
		root = doc.Selection
	}

	return cleanLines(root.Text()), nil
}

func cleanLines(text string) string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
