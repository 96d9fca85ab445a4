package mathmarkup

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// tableMarkdown renders a <table> as a Markdown table. The first row is
// the header. It returns "" for tables without cells.
func tableMarkdown(n *html.Node) string {
	table := goquery.NewDocumentFromNode(n).Selection

	headerRow := table.Find("thead tr").First()
	if headerRow.Length() == 0 {
		headerRow = table.Find("tr").First()
	}
	headers := rowCells(headerRow)
	if len(headers) == 0 {
		return ""
	}

	var builder strings.Builder
	writeRow(&builder, headers)
	separator := make([]string, len(headers))
	for i := range separator {
		separator[i] = "---"
	}
	writeRow(&builder, separator)

	dataRows := table.Find("tbody tr")
	if table.Find("thead tr").Length() == 0 || dataRows.Length() == 0 {
		dataRows = table.Find("tr").Slice(1, goquery.ToEnd)
	}
	dataRows.Each(func(_ int, row *goquery.Selection) {
		if cells := rowCells(row); len(cells) > 0 {
			writeRow(&builder, cells)
		}
	})
	return strings.TrimRight(builder.String(), "\n")
}

func rowCells(row *goquery.Selection) []string {
	var cells []string
	row.Find("th, td").Each(func(_ int, cell *goquery.Selection) {
		text := strings.Join(strings.Fields(cell.Text()), " ")
		cells = append(cells, strings.ReplaceAll(text, "|", `\|`))
	})
	return cells
}

func writeRow(builder *strings.Builder, cells []string) {
	builder.WriteString("| ")
	builder.WriteString(strings.Join(cells, " | "))
	builder.WriteString(" |\n")
}
