package leetcode

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"cparchive/internal/canonical"
	"cparchive/internal/fetcher"
	"cparchive/internal/problem"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const twoSumContent = `<p>Given an array of integers <code>nums</code>&nbsp;and an integer <code>target</code>, return <em>indices of the two numbers such that they add up to <code>target</code></em>.</p>

<p>You may assume that each input would have <strong><em>exactly</em> one solution</strong>, and you may not use the <em>same</em> element twice.</p>

<p>&nbsp;</p>
<p><strong class="example">Example 1:</strong></p>

<pre>
<strong>Input:</strong> nums = [2,7,11,15], target = 9
<strong>Output:</strong> [0,1]
<strong>Explanation:</strong> Because nums[0] + nums[1] == 9, we return [0, 1].
</pre>

<p><strong class="example">Example 2:</strong></p>

<pre>
<strong>Input:</strong> nums = [3,2,4], target = 6
<strong>Output:</strong> [1,2]
</pre>

<p>&nbsp;</p>
<p><strong>Constraints:</strong></p>

<ul>
	<li><code>2 &lt;= nums.length &lt;= 10<sup>4</sup></code></li>
	<li><strong>Only one valid answer exists.</strong></li>
</ul>

<p>&nbsp;</p>
<strong>Follow-up:&nbsp;</strong>Can you come up with an algorithm that is less than O(n<sup>2</sup>) time complexity?`

// Newer statements wrap each example in a block with labeled spans.
const blockContent = `<p>Return the number of <code>1</code> bits in <code>n</code>.</p>
<p><strong class="example">Example 1:</strong></p>
<div class="example-block">
<p><strong>Input:</strong> <span class="example-io">n = 11</span></p>
<p><strong>Output:</strong> <span class="example-io">3</span></p>
<p><strong>Explanation:</strong></p>
<p>The input binary string <strong>1011</strong> has a total of three set bits.</p>
</div>
<p><strong class="example">Example 2:</strong></p>
<div class="example-block">
<p><strong>Input:</strong> <span class="example-io">n = 128</span></p>
<p><strong>Output:</strong> <span class="example-io">1</span></p>
</div>
<p><strong>Constraints:</strong></p>
<ul><li><code>1 &lt;= n &lt;= 2<sup>31</sup> - 1</code></li></ul>`

type server struct {
	*httptest.Server
	requests atomic.Int32
}

func newServer(t *testing.T, questions map[string]map[string]any) *server {
	s := &server{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.requests.Add(1)
		var req graphqlRequest
		if r.Method != http.MethodPost || json.NewDecoder(r.Body).Decode(&req) != nil || req.OperationName != "questionData" {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		slug, _ := req.Variables["titleSlug"].(string)
		if r.Header.Get("Referer") != "https://leetcode.com/problems/"+slug+"/" {
			http.Error(w, "missing referer", http.StatusForbidden)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		q, ok := questions[slug]
		if !ok {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"data":   map[string]any{"question": nil},
				"errors": []map[string]any{{"message": "That question does not exist."}},
			})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"data": map[string]any{"question": q}})
	}))
	t.Cleanup(s.Close)
	return s
}

func newScraper(srv *server) *Scraper {
	client := NewClient(fetcher.NewHTTPClient(fetcher.HTTPConfig{}), srv.URL+"/graphql")
	return New(client, func() time.Time { return time.Unix(1700000000, 0).UTC() })
}

var questions = map[string]map[string]any{
	"two-sum": {
		"questionId":         "1",
		"questionFrontendId": "1",
		"title":              "Two Sum",
		"titleSlug":          "two-sum",
		"content":            twoSumContent,
		"difficulty":         "Easy",
		"exampleTestcases":   "[2,7,11,15]\n9\n[3,2,4]\n6",
		"topicTags":          []map[string]string{{"name": "Array", "slug": "array"}, {"name": "Hash Table", "slug": "hash-table"}},
	},
	"number-of-1-bits": {
		"title":      "Number of 1 Bits",
		"titleSlug":  "number-of-1-bits",
		"content":    blockContent,
		"difficulty": "Easy",
	},
	"paid-only": {
		"title":      "Paid Only",
		"titleSlug":  "paid-only",
		"content":    nil,
		"isPaidOnly": true,
		"difficulty": "Medium",
	},
}

func TestExtractTwoSum(t *testing.T) {
	srv := newServer(t, questions)

	r, err := newScraper(srv).Extract(context.Background(), "https://leetcode.com/problems/two-sum/description/")
	require.NoError(t, err)

	assert.Equal(t, "leetcode-two-sum", r.ID)
	assert.Equal(t, problem.LeetCode, r.Source)
	assert.Equal(t, "https://leetcode.com/problems/two-sum", r.URL)
	assert.Equal(t, "Two Sum", r.Title)
	assert.Equal(t, "Easy", r.Difficulty)
	assert.Equal(t, []string{"Array", "Hash Table"}, r.Tags)

	assert.Contains(t, r.Description, "return indices of the two numbers")
	assert.Contains(t, r.Description, "Can you come up with an algorithm")
	assert.NotContains(t, r.Description, "Example 1")
	assert.NotContains(t, r.Description, "nums.length")

	assert.Contains(t, r.Constraints, "nums.length")
	assert.Contains(t, r.Constraints, "Only one valid answer exists.")
	assert.NotContains(t, r.Constraints, "Constraints:")

	require.Len(t, r.SampleTests, 2)
	assert.Equal(t, problem.SampleTest{
		Input:       "nums = [2,7,11,15], target = 9",
		Output:      "[0,1]",
		Explanation: "Because nums[0] + nums[1] == 9, we return [0, 1].",
	}, r.SampleTests[0])
	assert.Equal(t, problem.SampleTest{Input: "nums = [3,2,4], target = 6", Output: "[1,2]"}, r.SampleTests[1])
}

func TestDescriptionTabSharesIdentity(t *testing.T) {
	srv := newServer(t, questions)
	s := newScraper(srv)

	a, err := s.Extract(context.Background(), "https://leetcode.com/problems/two-sum/description/")
	require.NoError(t, err)
	b, err := s.Extract(context.Background(), "https://leetcode.com/problems/two-sum/")
	require.NoError(t, err)

	assert.Equal(t, canonical.Canonicalize("https://leetcode.com/problems/two-sum/"),
		canonical.Canonicalize("https://leetcode.com/problems/two-sum/description/"))
	assert.Equal(t, a.ID, b.ID)
	assert.Equal(t, a.URL, b.URL)
}

func TestExtractExampleBlocks(t *testing.T) {
	srv := newServer(t, questions)

	r, err := newScraper(srv).Extract(context.Background(), "https://leetcode.com/problems/number-of-1-bits/")
	require.NoError(t, err)

	assert.Equal(t, "Return the number of `1` bits in `n`.", r.Description)
	require.Len(t, r.SampleTests, 2)
	assert.Equal(t, "n = 11", r.SampleTests[0].Input)
	assert.Equal(t, "3", r.SampleTests[0].Output)
	assert.Contains(t, r.SampleTests[0].Explanation, "three set bits")
	assert.NotContains(t, r.SampleTests[0].Explanation, "Explanation:")
	assert.Equal(t, problem.SampleTest{Input: "n = 128", Output: "1"}, r.SampleTests[1])
}

func TestPaidOnlyKeepsTitle(t *testing.T) {
	srv := newServer(t, questions)

	r, err := newScraper(srv).Extract(context.Background(), "https://leetcode.com/problems/paid-only")
	require.NoError(t, err)
	assert.Equal(t, "Paid Only", r.Title)
	assert.Empty(t, r.Description)
	assert.Empty(t, r.SampleTests)
}

func TestUnknownQuestion(t *testing.T) {
	srv := newServer(t, questions)

	_, err := newScraper(srv).Extract(context.Background(), "https://leetcode.com/problems/no-such-problem/")
	assert.ErrorIs(t, err, problem.ErrSourceNotFound)
	assert.Contains(t, err.Error(), "That question does not exist.")
}

func TestInvalidURLMakesNoRequest(t *testing.T) {
	srv := newServer(t, questions)

	for _, bad := range []string{
		"https://leetcode.com/problemset/all/",
		"https://leetcode.com/problems/two-sum/playground/",
		"https://codeforces.com/problems/two-sum",
	} {
		_, err := newScraper(srv).Extract(context.Background(), bad)
		assert.ErrorIs(t, err, problem.ErrInvalidURLFormat, bad)
	}
	assert.Equal(t, int32(0), srv.requests.Load())
}

func TestSlug(t *testing.T) {
	slug, err := Slug("https://leetcode.com/problems/Two-Sum/description")
	require.NoError(t, err)
	assert.Equal(t, "two-sum", slug)
}

func TestOtherTabsResolveToProblem(t *testing.T) {
	srv := newServer(t, questions)
	s := newScraper(srv)

	for _, tab := range []string{
		"https://leetcode.com/problems/two-sum/solutions/",
		"https://leetcode.com/problems/two-sum/solutions/3619262/hash-map-approach/",
		"https://leetcode.com/problems/two-sum/editorial/?envType=daily",
		"https://leetcode.com/problems/two-sum/submissions/",
	} {
		r, err := s.Extract(context.Background(), tab)
		require.NoError(t, err, tab)
		assert.Equal(t, "leetcode-two-sum", r.ID, tab)
		assert.Equal(t, "https://leetcode.com/problems/two-sum", r.URL, tab)
	}
}
