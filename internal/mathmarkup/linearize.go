package mathmarkup

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Blank lines after these.
var paragraphElements = map[string]bool{
	"p": true, "pre": true, "blockquote": true, "table": true,
	"ul": true, "ol": true, "section": true, "dl": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
}

// Line breaks around these.
var lineElements = map[string]bool{
	"div": true, "li": true, "tr": true, "dt": true, "dd": true,
	"center": true, "article": true, "header": true, "footer": true,
	"main": true, "aside": true, "figure": true, "figcaption": true,
	"thead": true, "tbody": true, "details": true, "summary": true,
}

var skippedElements = map[string]bool{
	"script": true, "style": true, "noscript": true, "template": true,
	"svg": true, "button": true, "head": true, "iframe": true,
}

// Linearize flattens sel into text. Block boundaries become line breaks and
// every inline wrapper boundary becomes a space, so adjacent inline runs
// never fuse into one word. Whitespace inside <pre> is kept verbatim.
func Linearize(sel *goquery.Selection) string {
	l := &linearizer{}
	for _, n := range sel.Nodes {
		l.node(n)
	}
	return strings.TrimSpace(extraBlankLines.ReplaceAllString(l.sb.String(), "\n\n"))
}

var extraBlankLines = regexp.MustCompile(`\n[ \t]*\n(?:[ \t]*\n)+`)

type linearizer struct {
	sb           strings.Builder
	pendingNL    int
	pendingSpace bool
	preDepth     int
}

func (l *linearizer) node(n *html.Node) {
	switch n.Type {
	case html.TextNode:
		l.text(n.Data)
	case html.DocumentNode:
		l.children(n)
	case html.ElementNode:
		l.element(n)
	}
}

func (l *linearizer) children(n *html.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		l.node(c)
	}
}

func (l *linearizer) element(n *html.Node) {
	tag := n.Data
	switch {
	case skippedElements[tag]:
		return
	case tag == "br":
		l.breakLine(1)
	case tag == "hr":
		l.breakLine(2)
	case tag == "img":
		if src := attr(n, "src"); src != "" {
			l.space()
			l.write("![](" + src + ")")
			l.space()
		}
	case tag == "pre":
		l.breakLine(2)
		l.preDepth++
		l.children(n)
		l.preDepth--
		l.breakLine(2)
	case l.preDepth > 0:
		l.children(n)
	case tag == "table":
		md := tableMarkdown(n)
		if md == "" {
			return
		}
		l.breakLine(2)
		l.write(md)
		l.breakLine(2)
	case tag == "sup" || tag == "sub":
		marker := "^"
		if tag == "sub" {
			marker = "_"
		}
		inner := innerText(n)
		if utf8.RuneCountInString(inner) > 1 {
			inner = "{" + inner + "}"
		}
		l.attach(marker + inner)
	case tag == "code":
		if inner := innerText(n); inner != "" {
			l.space()
			l.write("`" + inner + "`")
			l.space()
		}
	case tag == "li":
		l.breakLine(1)
		l.write(listMarker(n))
		l.space()
		l.children(n)
		l.breakLine(1)
	case paragraphElements[tag]:
		l.breakLine(2)
		l.children(n)
		l.breakLine(2)
	case lineElements[tag]:
		l.breakLine(1)
		l.children(n)
		l.breakLine(1)
	default:
		l.space()
		l.children(n)
		l.space()
	}
}

func (l *linearizer) text(data string) {
	if data == "" {
		return
	}
	if l.preDepth > 0 {
		l.write(data)
		return
	}
	first, _ := utf8.DecodeRuneInString(data)
	last, _ := utf8.DecodeLastRuneInString(data)
	if unicode.IsSpace(first) {
		l.space()
	}
	if collapsed := strings.Join(strings.Fields(data), " "); collapsed != "" {
		l.write(collapsed)
	}
	if unicode.IsSpace(last) {
		l.space()
	}
}

func (l *linearizer) breakLine(n int) {
	if n > l.pendingNL {
		l.pendingNL = n
	}
}

func (l *linearizer) space() {
	l.pendingSpace = true
}

// write flushes the pending separator, then s.
func (l *linearizer) write(s string) {
	if s == "" {
		return
	}
	if l.sb.Len() > 0 {
		switch {
		case l.pendingNL > 0:
			l.trimTrailingSpace()
			l.sb.WriteString(strings.Repeat("\n", l.pendingNL))
		case l.pendingSpace && l.wantsSpaceBefore(s):
			l.sb.WriteByte(' ')
		}
	}
	l.pendingNL = 0
	l.pendingSpace = false
	l.sb.WriteString(s)
}

// attach writes s glued to the preceding text.
func (l *linearizer) attach(s string) {
	if l.pendingNL == 0 {
		l.pendingSpace = false
	}
	l.write(s)
}

func (l *linearizer) wantsSpaceBefore(s string) bool {
	if l.preDepth > 0 {
		return false
	}
	prev := l.sb.String()
	last, _ := utf8.DecodeLastRuneInString(prev)
	if unicode.IsSpace(last) || last == '(' || last == '[' {
		return false
	}
	next, _ := utf8.DecodeRuneInString(s)
	return !strings.ContainsRune(",.;:?)]", next)
}

func (l *linearizer) trimTrailingSpace() {
	current := l.sb.String()
	trimmed := strings.TrimRight(current, " \t")
	if len(trimmed) != len(current) {
		l.sb.Reset()
		l.sb.WriteString(trimmed)
	}
}

func listMarker(li *html.Node) string {
	if li.Parent == nil || li.Parent.Data != "ol" {
		return "-"
	}
	index := 1
	for s := li.PrevSibling; s != nil; s = s.PrevSibling {
		if s.Type == html.ElementNode && s.Data == "li" {
			index++
		}
	}
	return strconv.Itoa(index) + "."
}

func innerText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			return
		}
		if n.Type == html.ElementNode && skippedElements[n.Data] {
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(sb.String()), " ")
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
