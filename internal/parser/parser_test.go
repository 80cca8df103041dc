package parser

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunk_SingleChunkWhenShort(t *testing.T) {
	content := strings.Repeat("a", 500)

	chunks := Chunk(content, 1000, 200)

	require.Len(t, chunks, 1)
	assert.Equal(t, content, chunks[0].Content)
	assert.Equal(t, 0, chunks[0].Index)
}

func TestChunk_CountMatchesFormula(t *testing.T) {
	size := 1000
	overlap := 200
	step := size - overlap

	for _, length := range []int{1001, 1800, 2500, 2600, 5000} {
		content := strings.Repeat("x", length)
		chunks := Chunk(content, size, overlap)

		// ceil((L-overlap)/(size-overlap))
		want := (length - overlap + step - 1) / step
		assert.Len(t, chunks, want, "length %d", length)
	}
}

func TestChunk_BoundsAndExactOverlap(t *testing.T) {
	// distinct characters so overlapping regions can be compared
	var b strings.Builder
	for i := 0; i < 2600; i++ {
		b.WriteByte(byte('a' + i%26))
	}
	content := b.String()

	chunks := Chunk(content, 1000, 200)
	require.True(t, len(chunks) > 1)

	for i, chunk := range chunks {
		assert.LessOrEqual(t, len(chunk.Content), 1000)
		assert.Equal(t, i, chunk.Index)
	}
	for i := 0; i < len(chunks)-1; i++ {
		prev := chunks[i].Content
		next := chunks[i+1].Content
		require.Equal(t, 1000, len(prev))
		assert.Equal(t, prev[len(prev)-200:], next[:200], "chunks %d and %d", i, i+1)
	}
}

func TestChunk_MultibyteRunesNeverSplit(t *testing.T) {
	// three-byte runes, so any byte-offset window would cut mid-character
	content := strings.Repeat("語", 2600)

	chunks := Chunk(content, 1000, 200)

	// windows count runes, so the count formula holds for the rune length
	want := (2600 - 200 + 799) / 800
	require.Len(t, chunks, want)
	for _, chunk := range chunks {
		assert.True(t, utf8.ValidString(chunk.Content))
		assert.LessOrEqual(t, utf8.RuneCountInString(chunk.Content), 1000)
	}
	for i := 0; i < len(chunks)-1; i++ {
		prev := []rune(chunks[i].Content)
		next := []rune(chunks[i+1].Content)
		assert.Equal(t, string(prev[len(prev)-200:]), string(next[:200]))
	}
}

func TestChunk_Deterministic(t *testing.T) {
	content := strings.Repeat("the quick brown fox ", 200)

	first := Chunk(content, 1000, 200)
	second := Chunk(content, 1000, 200)

	assert.Equal(t, first, second)
}

func TestChunk_Empty(t *testing.T) {
	assert.Nil(t, Chunk("", 1000, 200))
	assert.Nil(t, Chunk("   \n\t  ", 1000, 200))
}

func TestLoad_UnsupportedFormat(t *testing.T) {
	_, err := Load("notes.txt")

	var formatErr *UnsupportedFormatError
	require.ErrorAs(t, err, &formatErr)
	assert.Equal(t, ".txt", formatErr.Ext)
	assert.Contains(t, err.Error(), ".txt")
}

func TestLoad_HTML(t *testing.T) {
	html := `<html><head><script>var hidden = 1;</script><style>body{}</style></head>
<body><h1>Quarterly Report</h1><p>Revenue grew by   12 percent.</p></body></html>`
	path := filepath.Join(t.TempDir(), "report.html")
	require.NoError(t, os.WriteFile(path, []byte(html), 0o644))

	text, err := Load(path)

	require.NoError(t, err)
	assert.Contains(t, text, "Quarterly Report")
	assert.Contains(t, text, "Revenue grew by 12 percent.")
	assert.NotContains(t, text, "hidden")
}

func TestLoadAndChunk_HTML(t *testing.T) {
	body := strings.Repeat("word ", 600)
	html := "<html><body><p>" + body + "</p></body></html>"
	path := filepath.Join(t.TempDir(), "long.html")
	require.NoError(t, os.WriteFile(path, []byte(html), 0o644))

	chunks, err := LoadAndChunk(path, 1000, 200)

	require.NoError(t, err)
	require.True(t, len(chunks) > 1)
	for _, chunk := range chunks {
		assert.LessOrEqual(t, len(chunk.Content), 1000)
	}
}

func TestLoadAndChunk_UnsupportedFormat(t *testing.T) {
	_, err := LoadAndChunk("slides.pptx", 1000, 200)

	var formatErr *UnsupportedFormatError
	require.True(t, errors.As(err, &formatErr))
	assert.Equal(t, ".pptx", formatErr.Ext)
}

func TestIsAllowedExtension(t *testing.T) {
	assert.True(t, IsAllowedExtension("report.pdf"))
	assert.True(t, IsAllowedExtension("Report.DOCX"))
	assert.True(t, IsAllowedExtension("page.html"))
	assert.False(t, IsAllowedExtension("notes.txt"))
	assert.False(t, IsAllowedExtension("archive.zip"))
	assert.False(t, IsAllowedExtension("README"))
}

func TestExtractTextFromXML(t *testing.T) {
	xml := `<w:p><w:r><w:t>Hello</w:t></w:r><w:r><w:t xml:space="preserve">world</w:t></w:r></w:p>`

	text := extractTextFromXML(xml, "w:t")

	assert.Contains(t, text, "Hello")
	assert.Contains(t, text, "world")
	assert.NotContains(t, text, "w:r")
}
