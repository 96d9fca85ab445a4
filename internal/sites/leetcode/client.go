package leetcode

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cparchive/internal/fetcher"
	"cparchive/internal/problem"
)

// Endpoint is LeetCode's public GraphQL API.
const Endpoint = "https://leetcode.com/graphql"

const questionQuery = `query questionData($titleSlug: String!) {
  question(titleSlug: $titleSlug) {
    questionId
    questionFrontendId
    title
    titleSlug
    content
    isPaidOnly
    difficulty
    exampleTestcases
    topicTags {
      name
      slug
    }
  }
}`

// Question is the subset of the question type we read.
type Question struct {
	QuestionID         string `json:"questionId"`
	QuestionFrontendID string `json:"questionFrontendId"`
	Title              string `json:"title"`
	TitleSlug          string `json:"titleSlug"`
	Content            string `json:"content"`
	IsPaidOnly         bool   `json:"isPaidOnly"`
	Difficulty         string `json:"difficulty"`
	ExampleTestcases   string `json:"exampleTestcases"`
	TopicTags          []struct {
		Name string `json:"name"`
		Slug string `json:"slug"`
	} `json:"topicTags"`
}

type graphqlRequest struct {
	OperationName string         `json:"operationName"`
	Query         string         `json:"query"`
	Variables     map[string]any `json:"variables"`
}

type graphqlError struct {
	Message string `json:"message"`
}

type questionResponse struct {
	Data struct {
		Question *Question `json:"question"`
	} `json:"data"`
	Errors []graphqlError `json:"errors"`
}

// Client queries the GraphQL API.
type Client struct {
	http     *fetcher.HTTPClient
	endpoint string
}

// NewClient returns a client posting to endpoint.
func NewClient(c *fetcher.HTTPClient, endpoint string) *Client {
	return &Client{http: c, endpoint: endpoint}
}

// Question fetches the question with the given slug. It fails with
// problem.ErrSourceNotFound when the API reports no such question.
func (c *Client) Question(ctx context.Context, slug, problemURL string) (*Question, error) {
	req := graphqlRequest{
		OperationName: "questionData",
		Query:         questionQuery,
		Variables:     map[string]any{"titleSlug": slug},
	}
	headers := map[string]string{
		"referer": "https://leetcode.com/problems/" + slug + "/",
		"origin":  "https://leetcode.com",
	}

	var res questionResponse
	if err := c.http.PostJSON(ctx, problem.LeetCode, c.endpoint, headers, req, &res); err != nil {
		return nil, err
	}

	if res.Data.Question == nil {
		var cause error = errors.New("question is null")
		if len(res.Errors) > 0 {
			msgs := make([]string, 0, len(res.Errors))
			for _, e := range res.Errors {
				msgs = append(msgs, e.Message)
			}
			cause = fmt.Errorf("graphql: %s", strings.Join(msgs, "; "))
		}
		return nil, problem.NewError(problem.ErrSourceNotFound, problem.LeetCode, problemURL, cause)
	}
	return res.Data.Question, nil
}
