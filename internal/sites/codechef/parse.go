package codechef

import (
	"regexp"
	"strings"

	"cparchive/internal/extractor"
	"cparchive/internal/problem"

	"github.com/PuerkitoBio/goquery"
)

// roots are the statement containers of the current and the legacy page.
// A page with none of them is a shell or an error view.
var roots = []string{
	"#problem-statement",
	`[class*="problemBody"]`,
	".problem-statement",
}

const headings = "h2, h3, h4"

func root(doc *goquery.Selection) (*goquery.Selection, bool) {
	for _, css := range roots {
		if s := doc.Find(css).First(); s.Length() > 0 && strings.TrimSpace(s.Text()) != "" {
			return s, true
		}
	}
	return nil, false
}

var titleSuffix = regexp.MustCompile(`(?i)\s*(?:practice\s+coding\s+problem|problem)?\s*[-|]\s*codechef\s*$`)

var titleStrategies = []extractor.Strategy[string]{
	extractor.TextSelector(`[class*="problem__title"]`),
	extractor.TextSelector("#problem-statement h1"),
	extractor.TextSelector(".problem-statement h1, .problem-name"),
	{
		Name: "document title",
		Find: func(doc *goquery.Selection) (string, bool) {
			title := extractor.CollapseSpace(doc.Find("title").First().Text())
			if !titleSuffix.MatchString(title) {
				return "", false
			}
			title = strings.TrimSpace(titleSuffix.ReplaceAllString(title, ""))
			return title, title != ""
		},
	},
}

// section is a heading and the siblings that follow it up to the next
// heading.
type section struct {
	heading string
	body    *goquery.Selection
}

func sections(doc *goquery.Selection) []section {
	statement, ok := root(doc)
	if !ok {
		return nil
	}
	var out []section
	statement.Find(headings).Each(func(_ int, h *goquery.Selection) {
		heading := h.Clone()
		heading.Find("button").Remove()
		name := strings.TrimSuffix(extractor.CollapseSpace(heading.Text()), ":")
		if name == "" {
			return
		}
		out = append(out, section{heading: strings.TrimSpace(name), body: h.NextUntil(headings)})
	})
	return out
}

func named(s section, names ...string) bool {
	for _, name := range names {
		if strings.EqualFold(s.heading, name) {
			return true
		}
	}
	return false
}

func sectionStrategy(names ...string) extractor.Strategy[string] {
	return extractor.Strategy[string]{
		Name: strings.Join(names, "|"),
		Find: func(doc *goquery.Selection) (string, bool) {
			for _, s := range sections(doc) {
				if !named(s, names...) {
					continue
				}
				if text := extractor.RichText(s.body.Clone(), "button"); text != "" {
					return text, true
				}
			}
			return "", false
		},
	}
}

var (
	descriptionStrategies = []extractor.Strategy[string]{
		sectionStrategy("Problem", "Problem Statement", "Statement"),
		{
			// Statements that open without a heading.
			Name: "leading text",
			Find: func(doc *goquery.Selection) (string, bool) {
				statement, ok := root(doc)
				if !ok {
					return "", false
				}
				r := statement.Clone()
				r.Find(`h1, [class*="problem__title"], button`).Remove()
				if first := r.Find(headings).First(); first.Length() > 0 {
					first.NextAll().Remove()
					first.Remove()
				}
				text := extractor.RichText(r, "")
				return text, text != ""
			},
		},
	}
	inputStrategies      = []extractor.Strategy[string]{sectionStrategy("Input Format", "Input")}
	outputStrategies     = []extractor.Strategy[string]{sectionStrategy("Output Format", "Output")}
	constraintStrategies = []extractor.Strategy[string]{sectionStrategy("Constraints", "Subtasks")}
)

// explanations returns the text of every Explanation section in document
// order.
func explanations(doc *goquery.Selection) []string {
	var out []string
	for _, s := range sections(doc) {
		if !strings.HasPrefix(strings.ToLower(s.heading), "explanation") {
			continue
		}
		if text := extractor.RichText(s.body.Clone(), "button"); text != "" {
			out = append(out, text)
		}
	}
	return out
}

// attach gives each sample its own explanation when there is one per
// sample, and otherwise associates the joined text by reference.
func attach(samples []problem.SampleTest, texts []string) {
	if len(texts) == 0 {
		return
	}
	if len(texts) == len(samples) {
		for i := range samples {
			samples[i].Explanation = texts[i]
		}
		return
	}
	extractor.AssociateExplanations(samples, strings.Join(texts, "\n\n"))
}

var sampleStrategies = []extractor.Strategy[[]problem.SampleTest]{
	{
		// Current UI: one table per sample holding an input and an output pre.
		Name: "input/output tables",
		Find: func(doc *goquery.Selection) ([]problem.SampleTest, bool) {
			statement, ok := root(doc)
			if !ok {
				return nil, false
			}
			var inputs, outputs []string
			statement.Find(`[class*="input_output__table"]`).Each(func(_ int, table *goquery.Selection) {
				pres := table.Find("pre")
				if pres.Length() < 2 {
					return
				}
				inputs = append(inputs, extractor.PreText(pres.Eq(0)))
				outputs = append(outputs, extractor.PreText(pres.Eq(1)))
			})
			samples := extractor.PairPositional(inputs, outputs)
			return samples, len(samples) > 0
		},
	},
	{
		// Legacy pages: "Example Input" / "Sample Output 1" headings over pres.
		Name: "headed pre",
		Find: func(doc *goquery.Selection) ([]problem.SampleTest, bool) {
			var blocks []extractor.Block
			for _, s := range sections(doc) {
				if role, _ := extractor.ParseHeader(s.heading); role == extractor.RoleUnknown {
					continue
				}
				pre := s.body.Filter("pre").AddSelection(s.body.Find("pre")).First()
				if pre.Length() == 0 {
					continue
				}
				blocks = append(blocks, extractor.Block{Header: s.heading, Text: extractor.PreText(pre)})
			}
			samples := extractor.PairBlocks(blocks)
			return samples, len(samples) > 0
		},
	},
}

var (
	timeLimit   = regexp.MustCompile(`(?i)time\s*limit\s*:?\s*([\d.]+\s*(?:secs?|seconds?|s)\b)`)
	memoryLimit = regexp.MustCompile(`(?i)memory\s*limit\s*:?\s*([\d.]+\s*[KMG]i?B)`)
	rating      = regexp.MustCompile(`(?i)difficulty\s*rating\s*:?\s*(\d+)`)
	notFound    = regexp.MustCompile(`(?i)problem\s+(?:does\s+not\s+exist|not\s+found)`)
)

// missing reports whether the page is CodeChef's "no such problem" view.
func missing(doc *goquery.Selection) bool {
	return doc.Find(`[class*="problem__title"], #problem-statement h1`).Length() == 0 &&
		notFound.MatchString(doc.Find("body").Text())
}

func parse(doc *goquery.Selection, r *problem.Record) {
	if title, _, ok := extractor.First(doc, titleStrategies...); ok {
		r.Title = title
	}

	page := extractor.CollapseSpace(doc.Find("body").Text())
	if m := timeLimit.FindStringSubmatch(page); m != nil {
		r.TimeLimit = m[1]
	}
	if m := memoryLimit.FindStringSubmatch(page); m != nil {
		r.MemoryLimit = m[1]
	}
	if m := rating.FindStringSubmatch(page); m != nil {
		r.Difficulty = m[1]
	}
	doc.Find(`[class*="problem-tags"] a, [class*="tags__container"] a`).Each(func(_ int, a *goquery.Selection) {
		if tag := extractor.CollapseSpace(a.Text()); tag != "" {
			r.Tags = append(r.Tags, tag)
		}
	})

	samples, _, _ := extractor.First(doc, sampleStrategies...)
	attach(samples, explanations(doc))
	for _, t := range samples {
		r.AddSample(t)
	}

	r.Description, _, _ = extractor.First(doc, descriptionStrategies...)
	r.InputFormat, _, _ = extractor.First(doc, inputStrategies...)
	r.OutputFormat, _, _ = extractor.First(doc, outputStrategies...)
	r.Constraints, _, _ = extractor.First(doc, constraintStrategies...)
}
