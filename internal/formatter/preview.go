package formatter

import (
	"strconv"
	"strings"

	"ttmusic/internal/models"
	"ttmusic/pkg/utils"

	"github.com/mattn/go-runewidth"
)

// MaxCellWidth caps the display width of free-text preview cells.
const MaxCellWidth = 40

var previewHeader = []string{"id_str", "title", "author", "duration", "user_count"}

// PreviewTable renders the first n items as an aligned markdown table.
// A non-positive n renders the header only.
func PreviewTable(items []*models.MusicItem, n int) string {
	if n > len(items) {
		n = len(items)
	}

	text := utils.NewStringHelper()

	lines := []string{
		row(previewHeader),
		row(separator(len(previewHeader))),
	}

	for i := 0; i < n; i++ {
		item := items[i]
		if item == nil {
			continue
		}

		lines = append(lines, row([]string{
			item.IDStr,
			cell(text, item.DisplayTitle()),
			cell(text, item.DisplayAuthor()),
			intCell(item.Duration),
			intCell(item.UserCount),
		}))
	}

	return AlignTables(strings.Join(lines, "\n"))
}

func separator(n int) []string {
	cells := make([]string, n)
	for i := range cells {
		cells[i] = "---"
	}

	return cells
}

func row(cells []string) string {
	return "| " + strings.Join(cells, " | ") + " |"
}

func cell(text *utils.StringHelper, s string) string {
	s = strings.ReplaceAll(text.NormalizeWhitespace(s), "|", "/")

	return runewidth.Truncate(s, MaxCellWidth, "...")
}

func intCell(v *int) string {
	if v == nil {
		return "-"
	}

	return strconv.Itoa(*v)
}
