package problem

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMakeIDIsPure(t *testing.T) {
	assert.Equal(t, "codeforces-158A", MakeID(Codeforces, "158A"))
	assert.Equal(t, MakeID(LeetCode, "two-sum"), MakeID(LeetCode, "two-sum"))

	a := NewRecord(AtCoder, "abc300_a", "https://atcoder.jp/contests/abc300/tasks/abc300_a", time.Unix(0, 0))
	b := NewRecord(AtCoder, "abc300_a", "https://atcoder.jp/contests/abc300/tasks/abc300_a/", time.Now())
	assert.Equal(t, a.ID, b.ID)
}

func TestAddSampleDropsDanglingPairs(t *testing.T) {
	r := NewRecord(Codeforces, "1A", "https://codeforces.com/problemset/problem/1/A", time.Now())

	assert.True(t, r.AddSample(SampleTest{Input: "1 2\n", Output: " 3 "}))
	assert.False(t, r.AddSample(SampleTest{Input: "5"}))
	assert.False(t, r.AddSample(SampleTest{Input: "   ", Output: "1"}))

	require.Len(t, r.SampleTests, 1)
	assert.Equal(t, "1 2", r.SampleTests[0].Input)
	assert.Equal(t, "3", r.SampleTests[0].Output)
}

func TestEmptySamplesSerializeAsList(t *testing.T) {
	r := NewRecord(LeetCode, "two-sum", "https://leetcode.com/problems/two-sum", time.Now())
	b, err := json.Marshal(r)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"sampleTests":[]`)
	assert.Contains(t, string(b), `"sourceProblemId":"two-sum"`)
}

func TestErrorKinds(t *testing.T) {
	inner := errors.New("dial tcp: timeout")
	err := fmt.Errorf("failed to extract: %w", NewError(ErrUpstreamBlocked, Codeforces, "https://codeforces.com", inner))

	assert.ErrorIs(t, err, ErrUpstreamBlocked)
	assert.ErrorIs(t, err, inner)
	assert.NotErrorIs(t, err, ErrSourceNotFound)
	assert.Equal(t, ErrUpstreamBlocked, KindOf(err))
	assert.Contains(t, err.Error(), "codeforces: upstream blocked")
}

func TestUserMessagesAreDistinct(t *testing.T) {
	seen := map[string]bool{}
	for _, kind := range []error{
		ErrInvalidURLFormat, ErrSourceNotFound, ErrExtractionFailed,
		ErrAutomationUnavailable, ErrUpstreamBlocked, ErrUnsupportedPlatform,
	} {
		msg := UserMessage(NewError(kind, "", "", nil))
		assert.False(t, seen[msg], "duplicate message for %v", kind)
		seen[msg] = true
	}
	assert.Equal(t, "Something went wrong while fetching the problem.", UserMessage(errors.New("boom")))
}

func TestContentRendering(t *testing.T) {
	r := NewRecord(Codeforces, "158A", "https://codeforces.com/problemset/problem/158/A", time.Now())
	r.Title = "Next Round"
	r.Description = "Let $n$ be the number of participants.\n\nSecond paragraph."
	r.Tags = []string{"implementation"}
	r.AddSample(SampleTest{Input: "8 5\n10 9 8 7 7 7 5 5", Output: "6", Explanation: "In the first example..."})

	c := NewContent(r)

	h, err := c.ToHTML()
	require.NoError(t, err)
	assert.Contains(t, h, "<h1>Next Round</h1>")
	assert.Contains(t, h, "<pre>8 5\n10 9 8 7 7 7 5 5</pre>")

	m, err := c.ToMarkdown()
	require.NoError(t, err)
	assert.Contains(t, m, "# Next Round")
	assert.Contains(t, m, "$n$")

	txt, err := c.ToText()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(txt, "Next Round\n"))

	csvOut, err := c.ToCSV()
	require.NoError(t, err)
	assert.Contains(t, csvOut, "codeforces-158A,1,")

	js, err := c.ToJSON()
	require.NoError(t, err)
	var back Record
	require.NoError(t, json.Unmarshal(js, &back))
	assert.Equal(t, r.ID, back.ID)
}
