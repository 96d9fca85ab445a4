package scraper

import (
	"context"
	"testing"
	"time"

	"cparchive/internal/problem"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubExtractor struct {
	source problem.Source
	calls  []string
}

func (s *stubExtractor) Source() problem.Source { return s.source }

func (s *stubExtractor) Extract(_ context.Context, url string) (*problem.Record, error) {
	s.calls = append(s.calls, url)
	r := problem.NewRecord(s.source, "X", url, time.Unix(0, 0))
	r.Title = "stub"
	return r, nil
}

func TestDetect(t *testing.T) {
	tests := []struct {
		url  string
		want problem.Source
		ok   bool
	}{
		{"https://codeforces.com/problemset/problem/158/A", problem.Codeforces, true},
		{"https://m1.codeforces.com/contest/1/problem/A", problem.Codeforces, true},
		{"https://atcoder.jp/contests/abc300/tasks/abc300_a", problem.AtCoder, true},
		{"https://leetcode.com/problems/two-sum/", problem.LeetCode, true},
		{"https://www.codechef.com/problems/FLOW001", problem.CodeChef, true},
		{"codechef.com/problems/FLOW001", problem.CodeChef, true},
		{"HTTPS://LEETCODE.COM/problems/two-sum", problem.LeetCode, true},
		{"https://example.com/codeforces.com/problem", "", false},
		{"https://leetcode.cn/problems/two-sum/", "", false},
		{"not a url", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := Detect(tt.url)
		assert.Equal(t, tt.ok, ok, tt.url)
		assert.Equal(t, tt.want, got, tt.url)
	}
}

func TestDispatchRoutesBySource(t *testing.T) {
	cf := &stubExtractor{source: problem.Codeforces}
	lc := &stubExtractor{source: problem.LeetCode}
	d := NewDispatcherWith(cf, lc)

	r, err := d.Dispatch(context.Background(), " https://leetcode.com/problems/two-sum/ ")
	require.NoError(t, err)
	assert.Equal(t, problem.LeetCode, r.Source)
	assert.Equal(t, []string{"https://leetcode.com/problems/two-sum/"}, lc.calls)
	assert.Empty(t, cf.calls)
}

func TestDispatchUnsupported(t *testing.T) {
	d := NewDispatcherWith(&stubExtractor{source: problem.Codeforces})

	_, err := d.Dispatch(context.Background(), "https://example.com/problem/1")
	assert.ErrorIs(t, err, problem.ErrUnsupportedPlatform)

	// Known host, but no extractor wired.
	_, err = d.Dispatch(context.Background(), "https://atcoder.jp/contests/abc300/tasks/abc300_a")
	assert.ErrorIs(t, err, problem.ErrUnsupportedPlatform)
}

func TestRegisterAndNewDispatcher(t *testing.T) {
	Register(problem.CodeChef, func(Deps) Extractor { return &stubExtractor{source: problem.CodeChef} })
	t.Cleanup(func() {
		mu.Lock()
		delete(factories, problem.CodeChef)
		mu.Unlock()
	})

	assert.Contains(t, Registered(), problem.CodeChef)
	r, err := NewDispatcher(Deps{}).Dispatch(context.Background(), "https://www.codechef.com/problems/FLOW001")
	require.NoError(t, err)
	assert.Equal(t, problem.CodeChef, r.Source)
}
