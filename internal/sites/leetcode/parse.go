package leetcode

import (
	"regexp"
	"strings"

	"cparchive/internal/extractor"
	"cparchive/internal/mathmarkup"
	"cparchive/internal/problem"

	"github.com/PuerkitoBio/goquery"
)

// part is the statement region a top-level content node belongs to.
type part int

const (
	partDescription part = iota
	partExamples
	partConstraints
	partFollowUp
)

var (
	exampleHeading    = regexp.MustCompile(`^\s*Example\s*\d*\s*:`)
	constraintHeading = regexp.MustCompile(`^\s*Constraints\s*:`)
	followUpHeading   = regexp.MustCompile(`^\s*Follow[- ]?up\b`)
)

// split groups the top-level nodes of the content by the headings that
// separate them and returns each group as an HTML fragment.
func split(doc *goquery.Document) map[part]string {
	var builders [partFollowUp + 1]strings.Builder
	current := partDescription

	doc.Find("body").Contents().Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(strings.ReplaceAll(s.Text(), "\u00a0", " "))
		switch {
		case exampleHeading.MatchString(text) && current <= partExamples:
			current = partExamples
		case constraintHeading.MatchString(text):
			current = partConstraints
			// The heading itself is not part of the constraints.
			return
		case followUpHeading.MatchString(text):
			current = partFollowUp
		}
		html, err := goquery.OuterHtml(s)
		if err != nil {
			return
		}
		builders[current].WriteString(html)
	})

	out := make(map[part]string, len(builders))
	for i := range builders {
		out[part(i)] = builders[i].String()
	}
	return out
}

var ioLabels = regexp.MustCompile(`(?s)Input\s*:\s*(.*?)\s*Output\s*:\s*(.*?)\s*(?:Explanation\s*:\s*(.*))?$`)

var sampleStrategies = []extractor.Strategy[[]problem.SampleTest]{
	{
		// <div class="example-block"> with labeled example-io spans.
		Name: "example-block",
		Find: func(doc *goquery.Selection) ([]problem.SampleTest, bool) {
			var samples []problem.SampleTest
			doc.Find(".example-block").Each(func(_ int, block *goquery.Selection) {
				t := problem.SampleTest{Images: extractor.Images(block, "https://leetcode.com")}
				block.Find("p").Each(func(_ int, p *goquery.Selection) {
					label := strings.TrimSpace(p.Find("strong").First().Text())
					value := p.Find(".example-io").First()
					switch {
					case strings.HasPrefix(label, "Input"):
						t.Input = extractor.CollapseSpace(value.Text())
					case strings.HasPrefix(label, "Output"):
						t.Output = extractor.CollapseSpace(value.Text())
					}
				})
				explanation := block.Clone()
				explanation.Find("p").FilterFunction(func(_ int, p *goquery.Selection) bool {
					return p.Find(".example-io").Length() > 0
				}).Remove()
				explanation.Find("img").Remove()
				t.Explanation = strings.TrimSpace(strings.TrimPrefix(
					extractor.RichText(explanation, ""), "Explanation:"))
				if extractor.ValidSample(t.Input, t.Output) {
					samples = append(samples, t)
				}
			})
			return samples, len(samples) > 0
		},
	},
	{
		// <pre><strong>Input:</strong> ... <strong>Output:</strong> ...</pre>
		Name: "labeled pre",
		Find: func(doc *goquery.Selection) ([]problem.SampleTest, bool) {
			var samples []problem.SampleTest
			doc.Find("pre").Each(func(_ int, pre *goquery.Selection) {
				m := ioLabels.FindStringSubmatch(extractor.PreText(pre))
				if m == nil || !extractor.ValidSample(m[1], m[2]) {
					return
				}
				t := problem.SampleTest{
					Input:       strings.TrimSpace(m[1]),
					Output:      strings.TrimSpace(m[2]),
					Explanation: extractor.CollapseSpace(m[3]),
				}
				// Figures sit right before the pre.
				t.Images = extractor.Images(pre.Prev().Filter("img"), "https://leetcode.com")
				samples = append(samples, t)
			})
			return samples, len(samples) > 0
		},
	},
}

// parse builds the record fields held in question content.
func parse(q *Question, r *problem.Record) error {
	r.Title = strings.TrimSpace(q.Title)
	r.Difficulty = q.Difficulty
	for _, tag := range q.TopicTags {
		if tag.Name != "" {
			r.Tags = append(r.Tags, tag.Name)
		}
	}
	if strings.TrimSpace(q.Content) == "" {
		return nil
	}

	doc, err := extractor.Document(q.Content)
	if err != nil {
		return err
	}
	samples, _, _ := extractor.First(doc.Selection, sampleStrategies...)
	for _, t := range samples {
		r.AddSample(t)
	}

	parts := split(doc)
	description, err := mathmarkup.NormalizeHTML(parts[partDescription])
	if err != nil {
		return err
	}
	if followUp, err := mathmarkup.NormalizeHTML(parts[partFollowUp]); err == nil && followUp != "" {
		description += "\n\n" + followUp
	}
	r.Description = strings.TrimSpace(description)

	if r.Constraints, err = mathmarkup.NormalizeHTML(parts[partConstraints]); err != nil {
		return err
	}
	return nil
}
