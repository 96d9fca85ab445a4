package atcoder

import (
	"regexp"
	"strings"

	"cparchive/internal/extractor"
	"cparchive/internal/mathmarkup"
	"cparchive/internal/problem"

	"github.com/PuerkitoBio/goquery"
)

// AtCoder writes unrendered TeX in <var>; KaTeX renders it client side.
var rawTeX = mathmarkup.WithRawTeX("var")

var taskPrefix = regexp.MustCompile(`^[A-Za-z][0-9]?\s+-\s+`)

// taskTitle accepts only titles shaped like "A - Title"; sign-in and error
// pages carry other document titles.
func taskTitle(sel *goquery.Selection) bool {
	s := extractor.CollapseSpace(sel.Text())
	return taskPrefix.MatchString(s) && taskPrefix.ReplaceAllString(s, "") != ""
}

var titleStrategies = []extractor.Strategy[string]{
	{
		// "A - N-choice question" followed by an Editorial button.
		Name: "span.h2",
		Find: func(doc *goquery.Selection) (string, bool) {
			h := doc.Find("span.h2").First().Clone()
			h.Find("a, .btn").Remove()
			title := extractor.CollapseSpace(h.Text())
			return title, taskPrefix.MatchString(title) && !extractor.HasJapanese(title)
		},
	},
	extractor.TextSelector("title", extractor.NotJapanese, taskTitle),
}

var limits = regexp.MustCompile(`Time Limit:\s*([^/]+?)\s*/\s*Memory Limit:\s*(.+)`)

// roots are the statement containers in order of preference. The English
// half of the bilingual statement comes first.
var roots = []string{"#task-statement .lang-en", "#task-statement"}

// section is one headed part of the statement.
type section struct {
	heading string
	body    *goquery.Selection
}

// sections lists the headed parts under the first root that has any.
// Parts whose heading is Japanese are skipped.
func sections(doc *goquery.Selection) []section {
	for _, css := range roots {
		var out []section
		doc.Find(css).First().Find("section").Each(func(_ int, s *goquery.Selection) {
			h := s.ChildrenFiltered("h3").First()
			if h.Length() == 0 {
				return
			}
			heading := headingText(h)
			if heading == "" || extractor.HasJapanese(heading) {
				return
			}
			out = append(out, section{heading: heading, body: s})
		})
		if len(out) > 0 {
			return out
		}
	}
	return nil
}

func headingText(h *goquery.Selection) string {
	h = h.Clone()
	h.Find(".btn, .btn-copy, button").Remove()
	return extractor.CollapseSpace(h.Text())
}

// sectionStrategy matches the first English section whose heading equals
// one of names.
func sectionStrategy(names ...string) extractor.Strategy[string] {
	return extractor.Strategy[string]{
		Name: strings.Join(names, "|"),
		Find: func(doc *goquery.Selection) (string, bool) {
			for _, s := range sections(doc) {
				for _, name := range names {
					if !strings.EqualFold(s.heading, name) {
						continue
					}
					body := s.body.Clone()
					text := extractor.RichText(body, "h3", rawTeX)
					if text != "" && !extractor.HasJapanese(text) {
						return text, true
					}
				}
			}
			return "", false
		},
	}
}

var (
	descriptionStrategies = []extractor.Strategy[string]{
		sectionStrategy("Problem Statement", "Problem", "Statement"),
		extractor.RichTextStrategy("#task-statement .lang-en .part:first-of-type", "h3", []extractor.Filter{extractor.NotJapanese}, rawTeX),
	}
	constraintStrategies = []extractor.Strategy[string]{sectionStrategy("Constraints")}
	inputStrategies      = []extractor.Strategy[string]{sectionStrategy("Input", "Input Format")}
	outputStrategies     = []extractor.Strategy[string]{sectionStrategy("Output", "Output Format")}
)

// sampleStrategy pairs "Sample Input N"/"Sample Output N" sections. Text
// after the output block is that sample's explanation.
func sampleStrategy(name string) extractor.Strategy[[]problem.SampleTest] {
	return extractor.Strategy[[]problem.SampleTest]{
		Name: name,
		Find: func(doc *goquery.Selection) ([]problem.SampleTest, bool) {
			var blocks []extractor.Block
			for _, s := range sections(doc) {
				role, _ := extractor.ParseHeader(s.heading)
				pre := s.body.Find("pre").First()
				if role == extractor.RoleUnknown || pre.Length() == 0 {
					continue
				}
				b := extractor.Block{Header: s.heading, Text: extractor.PreText(pre)}
				if role == extractor.RoleOutput {
					rest := s.body.Clone()
					rest.Find("h3, pre").Remove()
					if text := extractor.RichText(rest, "", rawTeX); !extractor.HasJapanese(text) {
						b.Explanation = text
					}
				}
				blocks = append(blocks, b)
			}
			samples := extractor.PairBlocks(blocks)
			return samples, len(samples) > 0
		},
	}
}

var sampleStrategies = []extractor.Strategy[[]problem.SampleTest]{
	sampleStrategy("english sections"),
	{
		Name: "sample pre ids",
		Find: func(doc *goquery.Selection) ([]problem.SampleTest, bool) {
			var inputs, outputs []string
			doc.Find(`#task-statement .lang-en pre[id^="pre-sample"]`).Each(func(i int, s *goquery.Selection) {
				if i%2 == 0 {
					inputs = append(inputs, extractor.PreText(s))
				} else {
					outputs = append(outputs, extractor.PreText(s))
				}
			})
			samples := extractor.PairPositional(inputs, outputs)
			return samples, len(samples) > 0
		},
	},
}

func parse(doc *goquery.Selection, r *problem.Record) {
	if title, _, ok := extractor.First(doc, titleStrategies...); ok {
		r.Title = taskPrefix.ReplaceAllString(title, "")
	}

	doc.Find("p").EachWithBreak(func(_ int, p *goquery.Selection) bool {
		m := limits.FindStringSubmatch(extractor.CollapseSpace(p.Text()))
		if m == nil {
			return true
		}
		r.TimeLimit, r.MemoryLimit = strings.TrimSpace(m[1]), strings.TrimSpace(m[2])
		return false
	})

	samples, _, _ := extractor.First(doc, sampleStrategies...)
	for _, t := range samples {
		r.AddSample(t)
	}

	r.Description, _, _ = extractor.First(doc, descriptionStrategies...)
	r.Constraints, _, _ = extractor.First(doc, constraintStrategies...)
	r.InputFormat, _, _ = extractor.First(doc, inputStrategies...)
	r.OutputFormat, _, _ = extractor.First(doc, outputStrategies...)
}
