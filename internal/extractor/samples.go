package extractor

import (
	"regexp"
	"strconv"
	"strings"

	"cparchive/internal/problem"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// chromeLabels are texts of UI widgets that sit next to sample blocks and
// end up selected along with them.
var chromeLabels = map[string]bool{
	"copy":              true,
	"copied":            true,
	"copied!":           true,
	"copy to clipboard": true,
	"copy input":        true,
	"copy output":       true,
	"コピー":               true,
}

// IsChrome reports whether text is nothing but a UI widget label.
func IsChrome(text string) bool {
	return chromeLabels[strings.ToLower(strings.TrimSpace(text))]
}

// StripChrome removes trailing or leading chrome lines from a sample block.
func StripChrome(text string) string {
	lines := strings.Split(text, "\n")
	for len(lines) > 0 && IsChrome(lines[0]) {
		lines = lines[1:]
	}
	for len(lines) > 0 && IsChrome(lines[len(lines)-1]) {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n")
}

// ValidSample reports whether a recovered pair is worth keeping.
func ValidSample(input, output string) bool {
	input, output = strings.TrimSpace(input), strings.TrimSpace(output)
	return input != "" && output != "" && !IsChrome(input) && !IsChrome(output)
}

// PreText returns the text of a preformatted block. Line structure is kept:
// <br> and block children (Codeforces splits multi-test input into one div
// per line) become newlines, trailing spaces are trimmed from every line and
// surrounding blank lines are dropped.
func PreText(sel *goquery.Selection) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			sb.WriteString(n.Data)
			return
		case html.ElementNode:
			switch n.Data {
			case "br":
				sb.WriteByte('\n')
				return
			case "button", "script", "style":
				return
			}
		}
		block := n.Type == html.ElementNode && (n.Data == "div" || n.Data == "p")
		if block && sb.Len() > 0 && !strings.HasSuffix(sb.String(), "\n") {
			sb.WriteByte('\n')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if block && !strings.HasSuffix(sb.String(), "\n") {
			sb.WriteByte('\n')
		}
	}
	for _, n := range sel.Nodes {
		walk(n)
	}

	lines := strings.Split(strings.ReplaceAll(sb.String(), "\r\n", "\n"), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t\u00a0")
	}
	return StripChrome(strings.Trim(strings.Join(lines, "\n"), "\n"))
}

// Block is a preformatted block with the header text found next to it.
// Explanation, if any, travels with an output block into its sample.
type Block struct {
	Header      string
	Text        string
	Explanation string
}

// Role classifies a sample block.
type Role int

const (
	RoleUnknown Role = iota
	RoleInput
	RoleOutput
)

var (
	inputHeader  = regexp.MustCompile(`(?i)(?:sample|example)?\s*input\s*#?\s*(\d+)?|入力例\s*(\d+)?`)
	outputHeader = regexp.MustCompile(`(?i)(?:sample|example)?\s*output\s*#?\s*(\d+)?|出力例\s*(\d+)?`)
)

// ParseHeader reads a "Sample Input 2" style header. n is 0 when the header
// carries no number.
func ParseHeader(header string) (role Role, n int) {
	header = strings.TrimSpace(header)
	match := func(re *regexp.Regexp) (bool, int) {
		m := re.FindStringSubmatch(header)
		if m == nil {
			return false, 0
		}
		for _, g := range m[1:] {
			if g != "" {
				v, _ := strconv.Atoi(g)
				return true, v
			}
		}
		return true, 0
	}
	// Output is checked first: "Sample Output" never contains "input",
	// but a header like "Input/Output" is treated as an input.
	if ok, v := match(outputHeader); ok && !strings.Contains(strings.ToLower(header), "input") {
		return RoleOutput, v
	}
	if ok, v := match(inputHeader); ok {
		return RoleInput, v
	}
	return RoleUnknown, 0
}

// PairBlocks turns labeled blocks in document order into sample tests.
// Numbered headers pair input N with output N wherever they appear;
// otherwise each input is paired with the next output. Blocks without a
// recognizable header alternate input, output. Pairs failing ValidSample
// are dropped.
func PairBlocks(blocks []Block) []problem.SampleTest {
	type slot struct {
		input, output string
		explanation   string
		hasIn, hasOut bool
	}
	var (
		numbered = map[int]*slot{}
		pending  *slot
		pairs    []*slot
	)

	for i, b := range blocks {
		role, n := ParseHeader(b.Header)
		if role == RoleUnknown {
			if i%2 == 0 {
				role = RoleInput
			} else {
				role = RoleOutput
			}
		}

		if n > 0 {
			s, ok := numbered[n]
			if !ok {
				s = &slot{}
				numbered[n] = s
				pairs = append(pairs, s)
			}
			if role == RoleInput {
				s.input, s.hasIn = b.Text, true
			} else {
				s.output, s.explanation, s.hasOut = b.Text, b.Explanation, true
			}
			continue
		}

		switch role {
		case RoleInput:
			pending = &slot{input: b.Text, hasIn: true}
			pairs = append(pairs, pending)
		case RoleOutput:
			if pending == nil || pending.hasOut {
				// An output with no input before it.
				continue
			}
			pending.output, pending.explanation, pending.hasOut = b.Text, b.Explanation, true
		}
	}

	samples := make([]problem.SampleTest, 0, len(pairs))
	for _, s := range pairs {
		if !s.hasIn || !s.hasOut || !ValidSample(s.input, s.output) {
			continue
		}
		samples = append(samples, problem.SampleTest{
			Input:       strings.TrimSpace(s.input),
			Output:      strings.TrimSpace(s.output),
			Explanation: strings.TrimSpace(s.explanation),
		})
	}
	return samples
}

// PairPositional pairs inputs[i] with outputs[i]. Extra blocks on either
// side are dangling and dropped.
func PairPositional(inputs, outputs []string) []problem.SampleTest {
	n := min(len(inputs), len(outputs))
	samples := make([]problem.SampleTest, 0, n)
	for i := 0; i < n; i++ {
		if !ValidSample(inputs[i], outputs[i]) {
			continue
		}
		samples = append(samples, problem.SampleTest{
			Input:  strings.TrimSpace(inputs[i]),
			Output: strings.TrimSpace(outputs[i]),
		})
	}
	return samples
}
