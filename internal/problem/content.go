package problem

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"html"
	"strconv"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
)

// Content renders a Record in the CLI output formats. Rendering never
// touches the network, so it can run after every browser context is gone.
type Content struct {
	record *Record
}

// NewContent wraps r for rendering.
func NewContent(r *Record) *Content {
	return &Content{record: r}
}

// ToHTML returns a standalone HTML fragment of the record.
func (c *Content) ToHTML() (string, error) {
	r := c.record
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("<h1>%s</h1>\n", html.EscapeString(r.Title)))
	sb.WriteString(fmt.Sprintf("<p><a href=%q>%s</a></p>\n", r.URL, html.EscapeString(r.ID)))

	var meta []string
	if r.Difficulty != "" {
		meta = append(meta, "Difficulty: "+html.EscapeString(r.Difficulty))
	}
	if r.TimeLimit != "" {
		meta = append(meta, "Time limit: "+html.EscapeString(r.TimeLimit))
	}
	if r.MemoryLimit != "" {
		meta = append(meta, "Memory limit: "+html.EscapeString(r.MemoryLimit))
	}
	if len(r.Tags) > 0 {
		meta = append(meta, "Tags: "+html.EscapeString(strings.Join(r.Tags, ", ")))
	}
	if len(meta) > 0 {
		sb.WriteString("<p>" + strings.Join(meta, "<br>") + "</p>\n")
	}

	writeSection(&sb, "", r.Description)
	writeSection(&sb, "Input", r.InputFormat)
	writeSection(&sb, "Output", r.OutputFormat)
	writeSection(&sb, "Constraints", r.Constraints)

	for i, t := range r.SampleTests {
		sb.WriteString(fmt.Sprintf("<h2>Example %d</h2>\n", i+1))
		sb.WriteString("<h3>Input</h3>\n<pre>" + html.EscapeString(t.Input) + "</pre>\n")
		sb.WriteString("<h3>Output</h3>\n<pre>" + html.EscapeString(t.Output) + "</pre>\n")
		for _, img := range t.Images {
			sb.WriteString(fmt.Sprintf("<p><img src=%q></p>\n", img))
		}
		if t.Explanation != "" {
			writeSection(&sb, "Explanation", t.Explanation)
		}
	}

	return sb.String(), nil
}

func writeSection(sb *strings.Builder, heading, text string) {
	if strings.TrimSpace(text) == "" {
		return
	}
	if heading != "" {
		sb.WriteString("<h2>" + heading + "</h2>\n")
	}
	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		sb.WriteString("<p>" + strings.ReplaceAll(html.EscapeString(para), "\n", "<br>") + "</p>\n")
	}
}

// ToMarkdown returns Markdown format content.
func (c *Content) ToMarkdown() (string, error) {
	h, err := c.ToHTML()
	if err != nil {
		return "", err
	}

	// Escaping would mangle the $...$ formulas.
	converter := md.NewConverter("", true, &md.Options{EscapeMode: "disabled"})
	markdown, err := converter.ConvertString(h)
	if err != nil {
		return "", fmt.Errorf("failed to convert HTML to Markdown: %w", err)
	}
	return markdown, nil
}

// ToText returns plain text content.
func (c *Content) ToText() (string, error) {
	r := c.record
	var sb strings.Builder

	sb.WriteString(r.Title + "\n")
	sb.WriteString(r.URL + "\n\n")
	for _, part := range []struct{ heading, body string }{
		{"", r.Description},
		{"Input", r.InputFormat},
		{"Output", r.OutputFormat},
		{"Constraints", r.Constraints},
	} {
		if strings.TrimSpace(part.body) == "" {
			continue
		}
		if part.heading != "" {
			sb.WriteString(part.heading + "\n")
		}
		sb.WriteString(strings.TrimSpace(part.body) + "\n\n")
	}
	for i, t := range r.SampleTests {
		sb.WriteString(fmt.Sprintf("Example %d\nInput:\n%s\nOutput:\n%s\n", i+1, t.Input, t.Output))
		if t.Explanation != "" {
			sb.WriteString("Explanation:\n" + t.Explanation + "\n")
		}
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

// ToJSON returns the record in its JSON shape.
func (c *Content) ToJSON() ([]byte, error) {
	return json.MarshalIndent(c.record, "", "  ")
}

// ToCSV returns one row per sample test.
func (c *Content) ToCSV() (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	_ = w.Write([]string{"ID", "Sample", "Input", "Output", "Explanation"})
	for i, t := range c.record.SampleTests {
		_ = w.Write([]string{c.record.ID, strconv.Itoa(i + 1), t.Input, t.Output, t.Explanation})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("failed to write CSV: %w", err)
	}
	return buf.String(), nil
}
