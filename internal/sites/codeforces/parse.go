package codeforces

import (
	"regexp"
	"strings"

	"cparchive/internal/extractor"
	"cparchive/internal/problem"

	"github.com/PuerkitoBio/goquery"
)

var indexPrefix = regexp.MustCompile(`^[A-Z][0-9]?\.\s+`)

var titleStrategies = []extractor.Strategy[string]{
	extractor.TextSelector(".problem-statement > .header > .title"),
	extractor.TextSelector(".problem-statement .title"),
	{
		// "Problem - 158A - Codeforces"
		Name: "document title",
		Find: func(doc *goquery.Selection) (string, bool) {
			parts := strings.Split(doc.Find("title").First().Text(), " - ")
			if len(parts) < 3 || !strings.EqualFold(strings.TrimSpace(parts[0]), "problem") {
				return "", false
			}
			title := strings.TrimSpace(strings.Join(parts[1:len(parts)-1], " - "))
			return title, title != ""
		},
	},
}

// Statement body: the untitled div after the header, or the legend class
// used by newer Polygon exports.
var descriptionStrategies = []extractor.Strategy[string]{
	extractor.RichTextStrategy(".problem-statement .legend", "", nil),
	extractor.RichTextStrategy(".problem-statement > .header + div:not([class])", "", nil),
	extractor.RichTextStrategy(".problem-statement > div:not([class])", "", nil),
	extractor.RichTextStrategy(".ttypography .problem-statement", ".header, .input-specification, .output-specification, .sample-tests, .note", nil),
}

const sectionTitle = ".section-title"

var inputStrategies = []extractor.Strategy[string]{
	extractor.RichTextStrategy(".problem-statement .input-specification", sectionTitle, nil),
}

var outputStrategies = []extractor.Strategy[string]{
	extractor.RichTextStrategy(".problem-statement .output-specification", sectionTitle, nil),
}

var noteStrategies = []extractor.Strategy[string]{
	extractor.RichTextStrategy(".problem-statement .note", sectionTitle, nil),
}

var sampleStrategies = []extractor.Strategy[[]problem.SampleTest]{
	{
		// Input and output blocks interleaved in one .sample-test.
		Name: "labeled blocks",
		Find: func(doc *goquery.Selection) ([]problem.SampleTest, bool) {
			var blocks []extractor.Block
			doc.Find(".sample-test").Children().Filter(".input, .output").Each(func(_ int, s *goquery.Selection) {
				header := "Sample Output"
				if s.HasClass("input") {
					header = "Sample Input"
				}
				blocks = append(blocks, extractor.Block{Header: header, Text: extractor.PreText(s.Find("pre").First())})
			})
			samples := extractor.PairBlocks(blocks)
			return samples, len(samples) > 0
		},
	},
	{
		Name: "positional",
		Find: func(doc *goquery.Selection) ([]problem.SampleTest, bool) {
			var inputs, outputs []string
			doc.Find(".input pre").Each(func(_ int, s *goquery.Selection) {
				inputs = append(inputs, extractor.PreText(s))
			})
			doc.Find(".output pre").Each(func(_ int, s *goquery.Selection) {
				outputs = append(outputs, extractor.PreText(s))
			})
			samples := extractor.PairPositional(inputs, outputs)
			return samples, len(samples) > 0
		},
	},
}

// parse fills r from a rendered problem page.
func parse(doc *goquery.Selection, r *problem.Record) {
	if title, _, ok := extractor.First(doc, titleStrategies...); ok {
		r.Title = indexPrefix.ReplaceAllString(title, "")
	}

	header := doc.Find(".problem-statement > .header").First()
	r.TimeLimit = property(header.Find(".time-limit"))
	r.MemoryLimit = property(header.Find(".memory-limit"))

	// Samples are read before the rich-text passes rewrite the DOM.
	samples, _, _ := extractor.First(doc, sampleStrategies...)
	doc.Find(".sample-tests").Remove()

	r.InputFormat, _, _ = extractor.First(doc, inputStrategies...)
	r.OutputFormat, _, _ = extractor.First(doc, outputStrategies...)
	note, _, _ := extractor.First(doc, noteStrategies...)
	r.Description, _, _ = extractor.First(doc, descriptionStrategies...)

	for _, t := range extractor.AssociateExplanations(samples, note) {
		r.AddSample(t)
	}

	doc.Find(".tag-box").Each(func(_ int, s *goquery.Selection) {
		tag := extractor.CollapseSpace(s.Text())
		switch {
		case tag == "":
		case strings.HasPrefix(tag, "*") && r.Difficulty == "":
			r.Difficulty = strings.TrimPrefix(tag, "*")
		default:
			r.Tags = append(r.Tags, tag)
		}
	})
}

// property reads "time limit per test 2 seconds" style header values.
func property(sel *goquery.Selection) string {
	if sel.Length() == 0 {
		return ""
	}
	sel = sel.First().Clone()
	sel.Find(".property-title").Remove()
	return extractor.CollapseSpace(sel.Text())
}
