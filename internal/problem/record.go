// Package problem defines the unified record produced by every source
// extractor, the error kinds extraction can fail with, and the renderings
// of a record used by the CLI.
package problem

import (
	"fmt"
	"strings"
	"time"
)

// Source identifies one of the supported problem websites.
type Source string

const (
	Codeforces Source = "codeforces"
	AtCoder    Source = "atcoder"
	LeetCode   Source = "leetcode"
	CodeChef   Source = "codechef"
)

// Sources lists every supported source in detection order.
var Sources = []Source{Codeforces, AtCoder, LeetCode, CodeChef}

// Valid reports whether s is one of the supported sources.
func (s Source) Valid() bool {
	for _, known := range Sources {
		if s == known {
			return true
		}
	}
	return false
}

func (s Source) String() string {
	return string(s)
}

// SampleTest is one published example of a problem.
type SampleTest struct {
	Input       string   `json:"input"`
	Output      string   `json:"output"`
	Explanation string   `json:"explanation,omitempty"`
	Images      []string `json:"images,omitempty"`
}

// Record is the normalized form of a problem regardless of where it came from.
type Record struct {
	ID              string       `json:"id"`
	Source          Source       `json:"source"`
	SourceProblemID string       `json:"sourceProblemId"`
	URL             string       `json:"url"`
	Title           string       `json:"title"`
	Description     string       `json:"description"`
	InputFormat     string       `json:"inputFormat,omitempty"`
	OutputFormat    string       `json:"outputFormat,omitempty"`
	Constraints     string       `json:"constraints,omitempty"`
	TimeLimit       string       `json:"timeLimit,omitempty"`
	MemoryLimit     string       `json:"memoryLimit,omitempty"`
	SampleTests     []SampleTest `json:"sampleTests"`
	Difficulty      string       `json:"difficulty,omitempty"`
	Tags            []string     `json:"tags,omitempty"`
	CreatedAt       time.Time    `json:"createdAt"`
	UpdatedAt       time.Time    `json:"updatedAt"`
}

// MakeID derives the record identifier. It depends on nothing but its
// arguments so re-extracting the same problem reproduces the same id.
func MakeID(source Source, sourceProblemID string) string {
	return fmt.Sprintf("%s-%s", source, sourceProblemID)
}

// NewRecord starts a record for the given problem. SampleTests is never nil
// so an extraction without samples still serializes as an empty list.
func NewRecord(source Source, sourceProblemID, url string, now time.Time) *Record {
	return &Record{
		ID:              MakeID(source, sourceProblemID),
		Source:          source,
		SourceProblemID: sourceProblemID,
		URL:             url,
		SampleTests:     []SampleTest{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// AddSample appends t if both its input and output are non-empty and
// reports whether it was kept.
func (r *Record) AddSample(t SampleTest) bool {
	t.Input = strings.TrimSpace(t.Input)
	t.Output = strings.TrimSpace(t.Output)
	if t.Input == "" || t.Output == "" {
		return false
	}
	t.Explanation = strings.TrimSpace(t.Explanation)
	r.SampleTests = append(r.SampleTests, t)
	return true
}

// HasContent reports whether the minimum viable content (title or body)
// was recovered.
func (r *Record) HasContent() bool {
	return strings.TrimSpace(r.Title) != "" || strings.TrimSpace(r.Description) != ""
}
