package extractor

import (
	"errors"
	"fmt"
	"strings"

	"cparchive/internal/mathmarkup"
	"cparchive/internal/problem"

	"github.com/PuerkitoBio/goquery"
)

// Document parses a fetched page.
func Document(html string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return doc, nil
}

// RichText drops the elements of sel matching drop (section headings, copy
// buttons), normalizes its math and returns the linearized text. sel is
// modified in place.
func RichText(sel *goquery.Selection, drop string, opts ...mathmarkup.Option) string {
	if sel == nil || sel.Length() == 0 {
		return ""
	}
	if drop != "" {
		sel.Find(drop).Remove()
	}
	return mathmarkup.Normalize(sel, opts...)
}

// RichTextStrategy wraps a selector so the cascade yields normalized text.
// The strategy only matches when normalization leaves something behind.
func RichTextStrategy(css, drop string, filters []Filter, opts ...mathmarkup.Option) Strategy[string] {
	sel := Selector(css, filters...)
	return Strategy[string]{
		Name: css,
		Find: func(doc *goquery.Selection) (string, bool) {
			s, ok := sel.Find(doc)
			if !ok {
				return "", false
			}
			text := RichText(s, drop, opts...)
			return text, text != ""
		},
	}
}

// Images returns the absolute src of every image in or under sel.
func Images(sel *goquery.Selection, base string) []string {
	var out []string
	sel.Filter("img[src]").AddSelection(sel.Find("img[src]")).Each(func(_ int, img *goquery.Selection) {
		src := strings.TrimSpace(img.AttrOr("src", ""))
		switch {
		case src == "":
			return
		case strings.HasPrefix(src, "//"):
			src = "https:" + src
		case strings.HasPrefix(src, "/"):
			src = strings.TrimRight(base, "/") + src
		}
		out = append(out, src)
	})
	return out
}

// Complete fails with problem.ErrExtractionFailed when neither a title nor
// a body was recovered.
func Complete(r *problem.Record) error {
	if r.HasContent() {
		return nil
	}
	return problem.NewError(problem.ErrExtractionFailed, r.Source, r.URL, errors.New("no title or statement matched any strategy"))
}
