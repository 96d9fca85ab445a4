package extractor

import (
	"strings"
	"testing"

	"cparchive/internal/problem"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, fragment string) *goquery.Selection {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	require.NoError(t, err)
	return doc.Selection
}

func TestFirstPicksEarliestMatchingStrategy(t *testing.T) {
	doc := parse(t, `<div class="old-title">Old</div><h1 class="title">New</h1>`)

	title, name, ok := First(doc,
		TextSelector(".missing"),
		TextSelector("h1.title"),
		TextSelector(".old-title"),
	)
	require.True(t, ok)
	assert.Equal(t, "New", title)
	assert.Equal(t, "h1.title", name)
}

func TestFirstRecoversFromPanickingStrategy(t *testing.T) {
	doc := parse(t, `<h1>Title</h1>`)
	broken := Strategy[string]{Name: "broken", Find: func(*goquery.Selection) (string, bool) {
		panic("selector exploded")
	}}

	title, name, ok := First(doc, broken, TextSelector("h1"))
	require.True(t, ok)
	assert.Equal(t, "Title", title)
	assert.Equal(t, "h1", name)
}

func TestFirstReportsExhaustion(t *testing.T) {
	_, _, ok := First(parse(t, `<p></p>`), TextSelector("h1"), TextSelector(".title"))
	assert.False(t, ok)
}

func TestSelectorSkipsEmptyAndFiltered(t *testing.T) {
	doc := parse(t, `<span class="lang-ja"><h3>問題文</h3></span><h3> </h3><span class="lang-en"><h3>Problem Statement</h3></span>`)
	text, _, ok := First(doc, TextSelector("h3", NotJapanese))
	require.True(t, ok)
	assert.Equal(t, "Problem Statement", text)
}

func TestHasJapanese(t *testing.T) {
	assert.True(t, HasJapanese("入力例 1"))
	assert.True(t, HasJapanese("ひらがな"))
	assert.True(t, HasJapanese("カタカナ"))
	assert.False(t, HasJapanese("Sample Input 1"))
	assert.False(t, HasJapanese("1 ≤ N ≤ 10^5"))
}

func TestParseHeader(t *testing.T) {
	tests := []struct {
		header string
		role   Role
		n      int
	}{
		{"Sample Input 1", RoleInput, 1},
		{"Sample Output 2", RoleOutput, 2},
		{"Input", RoleInput, 0},
		{"Output", RoleOutput, 0},
		{"Example Input #3", RoleInput, 3},
		{"入力例 1", RoleInput, 1},
		{"出力例 2", RoleOutput, 2},
		{"Explanation", RoleUnknown, 0},
	}
	for _, tt := range tests {
		role, n := ParseHeader(tt.header)
		assert.Equal(t, tt.role, role, tt.header)
		assert.Equal(t, tt.n, n, tt.header)
	}
}

func TestPairBlocksByNumber(t *testing.T) {
	// Inputs first, then outputs: positional adjacency would be wrong.
	blocks := []Block{
		{Header: "Sample Input 1", Text: "3"},
		{Header: "Sample Input 2", Text: "5"},
		{Header: "Sample Output 1", Text: "6"},
		{Header: "Sample Output 2", Text: "10"},
		{Header: "Sample Input 3", Text: "1"},
		{Header: "Sample Output 3", Text: "2"},
	}
	samples := PairBlocks(blocks)
	require.Len(t, samples, 3)
	assert.Equal(t, problem.SampleTest{Input: "3", Output: "6"}, samples[0])
	assert.Equal(t, problem.SampleTest{Input: "5", Output: "10"}, samples[1])
	assert.Equal(t, problem.SampleTest{Input: "1", Output: "2"}, samples[2])
}

func TestPairBlocksUnnumberedAndDangling(t *testing.T) {
	blocks := []Block{
		{Header: "Input", Text: "1 2"},
		{Header: "Output", Text: "3"},
		{Header: "Input", Text: "4 5"},
		{Header: "Input", Text: "7 8"},
		{Header: "Output", Text: "15"},
		{Header: "Output", Text: "orphan"},
	}
	samples := PairBlocks(blocks)
	require.Len(t, samples, 2)
	assert.Equal(t, "1 2", samples[0].Input)
	assert.Equal(t, "7 8", samples[1].Input)
	assert.Equal(t, "15", samples[1].Output)
}

func TestPairBlocksRejectsChrome(t *testing.T) {
	samples := PairBlocks([]Block{
		{Header: "Sample Input 1", Text: "Copy"},
		{Header: "Sample Output 1", Text: "1"},
		{Header: "Sample Input 2", Text: "2"},
		{Header: "Sample Output 2", Text: "4"},
	})
	require.Len(t, samples, 1)
	assert.Equal(t, "2", samples[0].Input)
}

func TestPairPositional(t *testing.T) {
	samples := PairPositional([]string{"a", "b", "c"}, []string{"x", ""})
	require.Len(t, samples, 1)
	assert.Equal(t, problem.SampleTest{Input: "a", Output: "x"}, samples[0])
}

func TestPreTextKeepsLines(t *testing.T) {
	doc := parse(t, `<pre><div class="test-example-line">3</div><div class="test-example-line">1 2 3</div></pre>
<pre>4<br>5 6   <br></pre>
<pre>
10
<button>Copy</button></pre>`)
	pres := doc.Find("pre")
	assert.Equal(t, "3\n1 2 3", PreText(pres.Eq(0)))
	assert.Equal(t, "4\n5 6", PreText(pres.Eq(1)))
	assert.Equal(t, "10", PreText(pres.Eq(2)))
}

func TestStripChrome(t *testing.T) {
	assert.Equal(t, "1 2", StripChrome("Copy\n1 2\nCopied!"))
	assert.True(t, IsChrome(" Copy "))
	assert.False(t, IsChrome("copy 3 numbers"))
}

func TestAssociateExplanationsByOrdinal(t *testing.T) {
	samples := []problem.SampleTest{{Input: "1", Output: "1"}, {Input: "2", Output: "4"}}
	note := "In the second example, double it.\n\nIn the first example, keep it."

	got := AssociateExplanations(samples, note)
	assert.Equal(t, "In the first example, keep it.", got[0].Explanation)
	assert.Equal(t, "In the second example, double it.", got[1].Explanation)
}

func TestAssociateExplanationsByNumberWithContinuation(t *testing.T) {
	samples := []problem.SampleTest{{Input: "1", Output: "1"}, {Input: "2", Output: "4"}}
	note := "Test case 1: trivial.\nTest case 2: the answer is 4.\nBecause 2*2 = 4."

	got := AssociateExplanations(samples, note)
	assert.Equal(t, "Test case 1: trivial.", got[0].Explanation)
	assert.Equal(t, "Test case 2: the answer is 4.\n\nBecause 2*2 = 4.", got[1].Explanation)
}

func TestAssociateExplanationsFallsBackToFirst(t *testing.T) {
	tests := map[string]string{
		"no reference":     "Just pick the maximum.",
		"unknown ordinal":  "In the third example the answer is 0.",
		"number too large": "Sample 9 is special.",
	}
	for name, note := range tests {
		t.Run(name, func(t *testing.T) {
			samples := []problem.SampleTest{{Input: "1", Output: "1"}, {Input: "2", Output: "4"}}
			got := AssociateExplanations(samples, note)
			assert.Equal(t, note, got[0].Explanation)
			assert.Empty(t, got[1].Explanation)
		})
	}
}

func TestAssociateExplanationsSingleSample(t *testing.T) {
	samples := []problem.SampleTest{{Input: "1", Output: "1"}}
	got := AssociateExplanations(samples, "In the second example nothing happens.")
	assert.Equal(t, "In the second example nothing happens.", got[0].Explanation)
}

func TestReferencedSample(t *testing.T) {
	assert.Equal(t, 1, ReferencedSample("In the first sample, output 3."))
	assert.Equal(t, 3, ReferencedSample("Example 3 shows the worst case."))
	assert.Equal(t, 2, ReferencedSample("test case #2 is tricky"))
	assert.Equal(t, 0, ReferencedSample("First, read the input."))
}

func TestPairBlocksCarriesOutputExplanation(t *testing.T) {
	samples := PairBlocks([]Block{
		{Header: "Sample Input 1", Text: "2 3"},
		{Header: "Sample Output 1", Text: "5", Explanation: " 2+3=5. "},
	})
	require.Len(t, samples, 1)
	assert.Equal(t, "2+3=5.", samples[0].Explanation)
}
