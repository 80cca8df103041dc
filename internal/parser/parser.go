package parser

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"

	"document-chat/internal/models"
)

const (
	DefaultChunkSize    = 1000 // chars
	DefaultChunkOverlap = 200  // chars
)

// AllowedExtensions lists the upload formats the parser understands.
var AllowedExtensions = []string{".pdf", ".docx", ".html"}

// UnsupportedFormatError is returned when a file has an extension outside
// of AllowedExtensions.
type UnsupportedFormatError struct {
	Ext string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported file format: %s", e.Ext)
}

// IsAllowedExtension reports whether the filename's extension is supported.
func IsAllowedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, allowed := range AllowedExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

// Load extracts the plain text of a document based on its extension.
func Load(filePath string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filePath))
	switch ext {
	case ".pdf":
		return loadPDF(filePath)
	case ".docx":
		return loadDOCX(filePath)
	case ".html":
		return loadHTML(filePath)
	default:
		return "", &UnsupportedFormatError{Ext: ext}
	}
}

// LoadAndChunk extracts a document's text and splits it into overlapping chunks.
func LoadAndChunk(filePath string, maxChars, overlapChars int) ([]models.Chunk, error) {
	content, err := Load(filePath)
	if err != nil {
		return nil, err
	}
	return Chunk(content, maxChars, overlapChars), nil
}

func loadPDF(filePath string) (string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return "", err
	}

	reader, err := pdf.NewReader(f, stat.Size())
	if err != nil {
		return "", err
	}

	var text strings.Builder
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return "", err
		}
		text.WriteString(pageText)
		text.WriteString("\n")
	}
	return text.String(), nil
}

func loadDOCX(filePath string) (string, error) {
	r, err := docx.ReadDocxFile(filePath)
	if err != nil {
		return "", err
	}
	defer r.Close()

	// GetContent returns WordprocessingML; the visible text lives in <w:t> runs
	content := r.Editable().GetContent()
	return extractTextFromXML(content, "w:t"), nil
}

func loadHTML(filePath string) (string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer f.Close()

	doc, err := goquery.NewDocumentFromReader(f)
	if err != nil {
		return "", err
	}
	doc.Find("script, style, noscript").Remove()
	text := doc.Find("body").Text()
	if strings.TrimSpace(text) == "" {
		text = doc.Text()
	}
	// collapse runs of whitespace left over from markup
	return strings.Join(strings.Fields(text), " "), nil
}

// extractTextFromXML pulls the character data out of every <tag>...</tag> run.
func extractTextFromXML(xmlContent, tag string) string {
	var text strings.Builder
	openTag := "<" + tag
	closeTag := "</" + tag + ">"
	parts := strings.Split(xmlContent, openTag)
	for i, part := range parts {
		if i == 0 {
			continue
		}
		// reject longer tag names sharing the prefix, e.g. w:tbl for w:t
		if part != "" && part[0] != '>' && part[0] != ' ' && part[0] != '/' {
			continue
		}
		// skip the rest of the opening tag, attributes included
		gt := strings.Index(part, ">")
		if gt < 0 {
			continue
		}
		part = part[gt+1:]
		endIdx := strings.Index(part, closeTag)
		if endIdx >= 0 {
			text.WriteString(part[:endIdx] + " ")
		}
	}
	return text.String()
}

// Chunk splits content into chunks of at most maxChars characters with
// exactly overlapChars shared between consecutive chunks. Windows are counted
// in runes so multibyte text is never split mid-character. Identical input
// always produces identical chunks.
func Chunk(content string, maxChars, overlapChars int) []models.Chunk {
	if maxChars <= 0 {
		return nil
	}
	if overlapChars < 0 {
		overlapChars = 0
	}
	if overlapChars >= maxChars {
		overlapChars = maxChars / 2
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return nil
	}
	runes := []rune(content)
	if len(runes) <= maxChars {
		return []models.Chunk{{Content: content, Index: 0}}
	}

	step := maxChars - overlapChars
	var chunks []models.Chunk
	for start := 0; start < len(runes); start += step {
		end := min(start+maxChars, len(runes))
		chunks = append(chunks, models.Chunk{
			Content: string(runes[start:end]),
			Index:   len(chunks),
		})
		if end == len(runes) {
			break
		}
	}
	return chunks
}
