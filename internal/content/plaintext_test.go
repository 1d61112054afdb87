package content

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlainText_StripsMarkdown(t *testing.T) {
	source := `# Welcome

This is **bold** and this is *italic* text with a [link](https://example.com).

## Details

- first item
- second item
`

	plain := PlainText([]byte(source))

	assert.Contains(t, plain, "Welcome")
	assert.Contains(t, plain, "This is bold and this is italic text with a link.")
	assert.Contains(t, plain, "first item")
	assert.NotContains(t, plain, "**")
	assert.NotContains(t, plain, "](")
	assert.NotContains(t, plain, "# ")
}

func TestPlainText_KeepsCodeBlockText(t *testing.T) {
	source := "# Usage\n\n```go\nfunc main() {}\n```\n"

	plain := PlainText([]byte(source))
	assert.Contains(t, plain, "func main() {}")
	assert.NotContains(t, plain, "```")
}

func TestPlainText_JoinsSoftBreaks(t *testing.T) {
	source := "A sentence\nsplit over\nthree lines.\n"

	plain := PlainText([]byte(source))
	assert.Equal(t, "A sentence split over three lines.", plain)
}

func TestPlainText_CollapsesBlankLines(t *testing.T) {
	source := "First paragraph.\n\n\n\n\nSecond paragraph.\n"

	plain := PlainText([]byte(source))
	assert.NotContains(t, plain, "\n\n\n")
	assert.Contains(t, plain, "First paragraph.")
	assert.Contains(t, plain, "Second paragraph.")
}

func TestPlainText_Empty(t *testing.T) {
	assert.Equal(t, "", PlainText(nil))
	assert.Equal(t, "", PlainText([]byte("   \n\n  ")))
}

func TestHeadings_CollectsInOrder(t *testing.T) {
	source := `# Top

intro

## Middle

content

### Deep

more

#### TooDeep

ignored
`

	headings := Headings([]byte(source))
	assert.Equal(t, []string{"Top", "Middle", "Deep"}, headings)
}

func TestHeadings_NoHeadings(t *testing.T) {
	headings := Headings([]byte("just a paragraph\n"))
	assert.Empty(t, headings)
}

func TestHeadings_InlineFormatting(t *testing.T) {
	headings := Headings([]byte("## Using `PlainText` helpers\n"))
	if assert.Len(t, headings, 1) {
		assert.True(t, strings.Contains(headings[0], "PlainText"))
	}
}
