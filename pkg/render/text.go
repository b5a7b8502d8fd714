package render

import (
	"bytes"
	"encoding/xml"
	"strings"
	"unicode/utf8"
)

const (
	charWidthRatio = 0.55
	lineHeight     = 1.3
	textInset      = 12.0
)

// wrapLabel breaks label into lines that fit width at the given font size.
// Explicit newlines are kept. Lines that do not fit the available height
// are dropped and the last kept line ends with an ellipsis.
func wrapLabel(label string, width, height, size float64) []string {
	maxChars := max(3, int((width-2*textInset)/(size*charWidthRatio)))
	maxLines := max(1, int((height-textInset)/(size*lineHeight)))

	var lines []string
	for _, para := range strings.Split(label, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		cur := ""
		for _, w := range words {
			for utf8.RuneCountInString(w) > maxChars {
				if cur != "" {
					lines = append(lines, cur)
					cur = ""
				}
				r := []rune(w)
				lines = append(lines, string(r[:maxChars]))
				w = string(r[maxChars:])
			}
			switch {
			case cur == "":
				cur = w
			case utf8.RuneCountInString(cur)+1+utf8.RuneCountInString(w) <= maxChars:
				cur += " " + w
			default:
				lines = append(lines, cur)
				cur = w
			}
		}
		lines = append(lines, cur)
	}
	if len(lines) > maxLines {
		lines = lines[:maxLines]
		last := []rune(lines[maxLines-1])
		if len(last) >= maxChars {
			last = last[:maxChars-1]
		}
		lines[maxLines-1] = string(last) + "…"
	}
	return lines
}

func escapeXML(s string) string {
	var buf bytes.Buffer
	_ = xml.EscapeText(&buf, []byte(s))
	return buf.String()
}
