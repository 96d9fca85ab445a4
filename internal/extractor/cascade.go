// Package extractor holds the source-independent pieces of problem
// extraction: ordered selector cascades, sample-test pairing, explanation
// association and the language probe used on bilingual pages.
package extractor

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog/log"
)

// Strategy locates one field in a document. Find returns ok=false when the
// strategy does not apply to the page it was given.
type Strategy[T any] struct {
	Name string
	Find func(doc *goquery.Selection) (T, bool)
}

// First runs strategies in order and returns the first non-trivial result
// with the name of the strategy that produced it. A strategy that panics is
// treated as not matching.
func First[T any](doc *goquery.Selection, strategies ...Strategy[T]) (T, string, bool) {
	for _, s := range strategies {
		v, ok := try(doc, s)
		if ok {
			return v, s.Name, true
		}
	}
	var zero T
	return zero, "", false
}

func try[T any](doc *goquery.Selection, s Strategy[T]) (v T, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Debug().Str("strategy", s.Name).Interface("panic", r).Msg("strategy failed")
			var zero T
			v, ok = zero, false
		}
	}()
	return s.Find(doc)
}

// Filter rejects a candidate element.
type Filter func(*goquery.Selection) bool

// Selector returns a strategy yielding the first element matching css that
// has non-empty text and passes every filter.
func Selector(css string, filters ...Filter) Strategy[*goquery.Selection] {
	return Strategy[*goquery.Selection]{
		Name: css,
		Find: func(doc *goquery.Selection) (*goquery.Selection, bool) {
			var found *goquery.Selection
			doc.Find(css).EachWithBreak(func(_ int, s *goquery.Selection) bool {
				if strings.TrimSpace(s.Text()) == "" && s.Find("img").Length() == 0 {
					return true
				}
				for _, accept := range filters {
					if !accept(s) {
						return true
					}
				}
				found = s
				return false
			})
			return found, found != nil
		},
	}
}

// TextSelector is Selector reduced to the element's collapsed text.
func TextSelector(css string, filters ...Filter) Strategy[string] {
	sel := Selector(css, filters...)
	return Strategy[string]{
		Name: css,
		Find: func(doc *goquery.Selection) (string, bool) {
			s, ok := sel.Find(doc)
			if !ok {
				return "", false
			}
			text := CollapseSpace(s.Text())
			return text, text != ""
		},
	}
}

// CollapseSpace joins the whitespace-separated fields of s with one space.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
