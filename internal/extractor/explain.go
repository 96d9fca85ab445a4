package extractor

import (
	"regexp"
	"strconv"
	"strings"

	"cparchive/internal/problem"
)

var ordinals = map[string]int{
	"first": 1, "second": 2, "third": 3, "fourth": 4, "fifth": 5,
	"sixth": 6, "seventh": 7, "eighth": 8, "ninth": 9, "tenth": 10,
}

var (
	ordinalRef = regexp.MustCompile(`(?i)\b(first|second|third|fourth|fifth|sixth|seventh|eighth|ninth|tenth)\s+(?:example|sample|test(?:\s*case)?|query)`)
	numberRef  = regexp.MustCompile(`(?i)\b(?:example|sample|test\s*case|test)\s*#?\s*(\d+)\b`)
)

// ReferencedSample returns the 1-based sample number paragraph refers to,
// or 0 when it names none.
func ReferencedSample(paragraph string) int {
	first, n := -1, 0
	if m := ordinalRef.FindStringSubmatchIndex(paragraph); m != nil {
		first = m[0]
		n = ordinals[strings.ToLower(paragraph[m[2]:m[3]])]
	}
	if m := numberRef.FindStringSubmatchIndex(paragraph); m != nil && (first < 0 || m[0] < first) {
		n, _ = strconv.Atoi(paragraph[m[2]:m[3]])
	}
	return n
}

// AssociateExplanations distributes a note block over samples. Each
// paragraph goes to the sample it names ("In the first example", "Test
// case 2"); paragraphs without a reference follow the previous one. When no
// paragraph names a sample, or one names a sample that does not exist, the
// whole block goes to the first sample. Nothing is dropped.
func AssociateExplanations(samples []problem.SampleTest, explanation string) []problem.SampleTest {
	explanation = strings.TrimSpace(explanation)
	if explanation == "" || len(samples) == 0 {
		return samples
	}
	if len(samples) == 1 {
		appendExplanation(&samples[0], explanation)
		return samples
	}

	paragraphs := splitParagraphs(explanation)
	assigned := make([]int, len(paragraphs))
	current, referenced := 0, false
	for i, p := range paragraphs {
		if n := ReferencedSample(p); n > 0 {
			if n > len(samples) {
				appendExplanation(&samples[0], explanation)
				return samples
			}
			current, referenced = n-1, true
		}
		assigned[i] = current
	}
	if !referenced {
		appendExplanation(&samples[0], explanation)
		return samples
	}

	for i, p := range paragraphs {
		appendExplanation(&samples[assigned[i]], p)
	}
	return samples
}

func appendExplanation(t *problem.SampleTest, text string) {
	if t.Explanation == "" {
		t.Explanation = text
		return
	}
	t.Explanation += "\n\n" + text
}

var paragraphBreak = regexp.MustCompile(`\n\s*\n`)

func splitParagraphs(s string) []string {
	var out []string
	for _, p := range paragraphBreak.Split(s, -1) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	if len(out) > 1 {
		return out
	}
	// Single-newline separated notes.
	out = out[:0]
	for _, p := range strings.Split(s, "\n") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
