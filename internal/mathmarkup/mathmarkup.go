// Package mathmarkup turns rendered problem statements back into portable
// text. Formulas rendered by KaTeX or MathJax are collapsed to $...$ or
// $$...$$, the assistive copies both engines inject are dropped, and the
// remaining HTML is linearized without gluing adjacent inline runs together.
package mathmarkup

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// assistiveSelectors match the duplicate representations each engine adds
// for screen readers. Left in place they make every formula appear twice.
var assistiveSelectors = strings.Join([]string{
	".katex-mathml",
	".MJX_Assistive_MathML",
	"mjx-assistive-mml",
	".MathJax_Preview",
}, ", ")

type options struct {
	rawTeX []string
}

// Option tweaks Normalize for a source-specific convention.
type Option func(*options)

// WithRawTeX treats elements matching selector as unrendered inline TeX,
// e.g. AtCoder's <var>.
func WithRawTeX(selector string) Option {
	return func(o *options) {
		o.rawTeX = append(o.rawTeX, selector)
	}
}

// Normalize rewrites the formulas inside sel in place and returns the
// linearized text of the fragment.
func Normalize(sel *goquery.Selection, opts ...Option) string {
	if sel == nil || sel.Length() == 0 {
		return ""
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	ReplaceFormulas(sel)
	for _, selector := range o.rawTeX {
		wrapRawTeX(sel, selector)
	}
	return CollapseTripleDollar(Linearize(sel))
}

// NormalizeHTML parses fragment and normalizes its body.
func NormalizeHTML(fragment string, opts ...Option) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}
	return Normalize(doc.Find("body"), opts...), nil
}

// ReplaceFormulas replaces every formula element under sel with a text node
// holding its delimited source, then deletes the assistive duplicates.
func ReplaceFormulas(sel *goquery.Selection) {
	// KaTeX keeps the source in a MathML annotation.
	sel.Find(".katex-display").Each(func(_ int, s *goquery.Selection) {
		replaceSafely(s, true, katexSource)
	})
	sel.Find(".katex").Each(func(_ int, s *goquery.Selection) {
		replaceSafely(s, false, katexSource)
	})

	// MathJax 2 keeps the source in a sibling script; the rendered frame
	// next to it is a visual duplicate.
	sel.Find(`script[type^="math/tex"]`).Each(func(_ int, s *goquery.Selection) {
		removeMathJaxFrame(sel, s)
		display := strings.Contains(s.AttrOr("type", ""), "mode=display")
		replaceSafely(s, display, func(s *goquery.Selection) (string, bool) {
			return s.Text(), true
		})
	})

	// MathJax 3 output and orphaned MathJax 2 frames have no recoverable
	// source, only rendered text.
	sel.Find("mjx-container").Each(func(_ int, s *goquery.Selection) {
		replaceSafely(s, s.AttrOr("display", "") == "true", renderedSource)
	})
	sel.Find(".MathJax_Display, .MathJax_SVG_Display").Each(func(_ int, s *goquery.Selection) {
		replaceSafely(s, true, renderedSource)
	})
	sel.Find(".MathJax, .MathJax_SVG, .MathJax_CHTML").Each(func(_ int, s *goquery.Selection) {
		replaceSafely(s, false, renderedSource)
	})

	sel.Find(assistiveSelectors).Remove()
}

func katexSource(s *goquery.Selection) (string, bool) {
	ann := s.Find(`annotation[encoding="application/x-tex"]`).First()
	if ann.Length() > 0 {
		return ann.Text(), true
	}
	return renderedSource(s)
}

// renderedSource is the best-effort substitute when no source notation is
// present: the accessible name, else the visible text without the
// assistive copy.
func renderedSource(s *goquery.Selection) (string, bool) {
	if ann := s.Find(`annotation[encoding="application/x-tex"]`).First(); ann.Length() > 0 {
		return ann.Text(), true
	}
	if label := strings.TrimSpace(s.AttrOr("aria-label", "")); label != "" {
		return label, true
	}
	visible := s.Clone()
	visible.Find(assistiveSelectors).Remove()
	if h := visible.Find(".katex-html"); h.Length() > 0 {
		visible = h
	}
	text := strings.TrimSpace(visible.Text())
	return text, text != ""
}

// removeMathJaxFrame deletes the rendered output belonging to a MathJax 2
// source script. MathJax names the frame "<script id>-Frame".
func removeMathJaxFrame(root, script *goquery.Selection) {
	if id, ok := script.Attr("id"); ok && id != "" {
		frame := root.Find(fmt.Sprintf(`[id="%s-Frame"]`, id))
		frame.Each(func(_ int, f *goquery.Selection) {
			if p := f.Parent(); p.Is(".MathJax_Display, .MathJax_SVG_Display") {
				p.Remove()
				return
			}
			f.Remove()
		})
	}
	script.PrevAllFiltered(".MathJax_Preview").First().Remove()
	prev := script.Prev()
	if prev.Is(".MathJax, .MathJax_SVG, .MathJax_CHTML, .MathJax_Display, .MathJax_SVG_Display") {
		prev.Remove()
	}
}

// replaceSafely swaps s for its delimited source. A failing or empty
// extraction falls back to the element's raw text so a garbled formula is
// kept rather than the problem being lost.
func replaceSafely(s *goquery.Selection, display bool, source func(*goquery.Selection) (string, bool)) {
	if len(s.Nodes) == 0 || s.Nodes[0].Parent == nil {
		// Already replaced through an enclosing element.
		return
	}

	tex, ok := func() (tex string, ok bool) {
		defer func() {
			if r := recover(); r != nil {
				log.Debug().Interface("panic", r).Msg("formula extraction failed, using raw text")
				tex, ok = "", false
			}
		}()
		return source(s)
	}()
	if !ok {
		tex = s.Text()
	}

	node := &html.Node{Type: html.TextNode, Data: Wrap(tex, display)}
	if display {
		// Display math stands on its own line.
		div := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
		div.AppendChild(node)
		node = div
	}
	s.ReplaceWithNodes(node)
}

// Wrap delimits tex as inline or display math.
func Wrap(tex string, display bool) string {
	tex = strings.TrimSpace(tex)
	if tex == "" {
		return ""
	}
	if display {
		return "$$" + tex + "$$"
	}
	return "$" + tex + "$"
}

func wrapRawTeX(sel *goquery.Selection, selector string) {
	sel.Find(selector).Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if strings.HasPrefix(text, "$") {
			return
		}
		s.ReplaceWithNodes(&html.Node{Type: html.TextNode, Data: Wrap(text, false)})
	})
}

var (
	sixDollar    = regexp.MustCompile(`(?s)\${6}(.+?)\${6}`)
	tripleDollar = regexp.MustCompile(`(?s)\${3}(.+?)\${3}`)
)

// CollapseTripleDollar rewrites Codeforces' $$$x$$$ inline and
// $$$$$$x$$$$$$ display delimiters to $x$ and $$x$$.
func CollapseTripleDollar(s string) string {
	s = sixDollar.ReplaceAllStringFunc(s, func(m string) string {
		return Wrap(sixDollar.FindStringSubmatch(m)[1], true)
	})
	return tripleDollar.ReplaceAllStringFunc(s, func(m string) string {
		return Wrap(tripleDollar.FindStringSubmatch(m)[1], false)
	})
}
