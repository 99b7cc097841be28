// Package render turns stored rich text into terminal text.
package render

import (
	"strconv"
	"strings"
	"unicode/utf8"

	xhtml "golang.org/x/net/html"
)

// NoteToText converts the HTML produced by the notes editor to wrapped plain
// text. Handled tags: p, br, b/strong, i/em, ul/ol/li and a. Unknown tags are
// dropped and their text kept.
func NoteToText(raw string, width int) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}

	tokenizer := xhtml.NewTokenizer(strings.NewReader(raw))
	var sb strings.Builder
	var anchorURL string
	var lists []int // item counter per open list; -1 for unordered

	newline := func() {
		s := sb.String()
		if s != "" && !strings.HasSuffix(s, "\n") {
			sb.WriteString("\n")
		}
	}

	for {
		tt := tokenizer.Next()
		switch tt {
		case xhtml.ErrorToken:
			return wrapText(strings.TrimSpace(sb.String()), width)

		case xhtml.StartTagToken, xhtml.SelfClosingTagToken:
			t := tokenizer.Token()
			switch t.Data {
			case "p", "div":
				if sb.Len() > 0 {
					newline()
					sb.WriteString("\n")
				}
			case "br":
				sb.WriteString("\n")
			case "b", "strong":
				sb.WriteString("**")
			case "i", "em":
				sb.WriteString("*")
			case "ul":
				newline()
				lists = append(lists, -1)
			case "ol":
				newline()
				lists = append(lists, 0)
			case "li":
				newline()
				marker := "- "
				if n := len(lists); n > 0 && lists[n-1] >= 0 {
					lists[n-1]++
					marker = strconv.Itoa(lists[n-1]) + ". "
				}
				sb.WriteString(marker)
			case "a":
				for _, attr := range t.Attr {
					if attr.Key == "href" {
						anchorURL = attr.Val
					}
				}
			}

		case xhtml.EndTagToken:
			t := tokenizer.Token()
			switch t.Data {
			case "b", "strong":
				sb.WriteString("**")
			case "i", "em":
				sb.WriteString("*")
			case "ul", "ol":
				if n := len(lists); n > 0 {
					lists = lists[:n-1]
				}
				newline()
			case "a":
				if anchorURL != "" {
					text := strings.TrimSpace(sb.String())
					// Only append URL if it differs from the link text.
					if !strings.HasSuffix(text, anchorURL) {
						sb.WriteString(" [")
						sb.WriteString(anchorURL)
						sb.WriteString("]")
					}
				}
				anchorURL = ""
			}

		case xhtml.TextToken:
			sb.Write(tokenizer.Text())
		}
	}
}

// Truncate shortens s to at most width runes, marking the cut with "…".
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= width {
		return s
	}
	r := []rune(s)
	return string(r[:width-1]) + "…"
}

// wrapText performs simple word wrapping to the given width.
func wrapText(text string, width int) string {
	if width <= 0 {
		return text
	}
	var result strings.Builder
	for _, paragraph := range strings.Split(text, "\n") {
		words := strings.Fields(paragraph)
		if len(words) == 0 {
			result.WriteString("\n")
			continue
		}
		lineLen := 0
		for i, word := range words {
			wlen := utf8.RuneCountInString(word)
			if i > 0 && lineLen+1+wlen > width {
				result.WriteString("\n")
				lineLen = 0
			} else if i > 0 {
				result.WriteString(" ")
				lineLen++
			}
			result.WriteString(word)
			lineLen += wlen
		}
		result.WriteString("\n")
	}
	return strings.TrimRight(result.String(), "\n")
}
