package textextract

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	enginerr "github.com/hrygo/ragcontext/internal/errors"
)

// ContentUnit is the content of one page of one source document.
type ContentUnit struct {
	SourceID  string
	PageIndex int // 1-based
	Text      string
	Tables    []string // CSV, one entry per table
}

// Content renders the unit as stored and embedded: the narrative text
// followed by each table, separated by blank lines.
func (u ContentUnit) Content() string {
	parts := make([]string, 0, 1+len(u.Tables))
	if u.Text != "" {
		parts = append(parts, u.Text)
	}
	for _, table := range u.Tables {
		if table != "" {
			parts = append(parts, table)
		}
	}
	return strings.Join(parts, "\n\n")
}

// IsEmpty reports whether the unit has neither text nor tables.
func (u ContentUnit) IsEmpty() bool {
	return strings.TrimSpace(u.Content()) == ""
}

// contentTypes maps file extensions to the MIME types sent to Tika.
var contentTypes = map[string]string{
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".xls":  "application/vnd.ms-excel",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".ppt":  "application/vnd.ms-powerpoint",
	".pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	".rtf":  "application/rtf",
}

// plainTextExts are read locally; pages are separated by form feeds.
var plainTextExts = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
}

// IsSupportedFile reports whether a file name has an extractable extension.
func IsSupportedFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	_, ok := contentTypes[ext]
	return ok || plainTextExts[ext]
}

// ListDocuments returns the supported files of dir, sorted by name.
// Subdirectories, hidden files and unsupported formats are ignored.
func ListDocuments(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read directory %s", dir)
	}

	var paths []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || !IsSupportedFile(name) {
			continue
		}
		paths = append(paths, filepath.Join(dir, name))
	}
	return paths, nil
}

// Extractor produces content units from files.
type Extractor struct {
	client *Client
}

// NewExtractor creates an extractor. client may be nil when only plain
// text documents are ingested.
func NewExtractor(client *Client) *Extractor {
	return &Extractor{client: client}
}

// Extract returns the non-empty pages of a document in page order.
// A document without content yields an empty slice and no error.
// Page text and tables come from separate Tika passes; a failed pass leaves
// its kind of content out, and the document fails only when both fail.
func (e *Extractor) Extract(ctx context.Context, path string) ([]ContentUnit, error) {
	sourceID := filepath.Base(path)
	ext := strings.ToLower(filepath.Ext(path))

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}

	if plainTextExts[ext] {
		return splitPlainText(sourceID, string(data)), nil
	}

	contentType, ok := contentTypes[ext]
	if !ok {
		return nil, errors.Errorf("unsupported document type: %s", ext)
	}
	if e.client == nil {
		return nil, errors.New("no Tika client configured")
	}

	texts, textErr := e.textPass(ctx, data, contentType)
	if textErr != nil {
		slog.Warn("text extraction failed",
			"source_id", sourceID,
			"error", enginerr.Extraction(sourceID, 0, textErr))
	}
	tables, tableErr := e.tablePass(ctx, sourceID, data, contentType)
	if tableErr != nil {
		slog.Warn("table extraction failed",
			"source_id", sourceID,
			"error", enginerr.Extraction(sourceID, 0, tableErr))
	}
	if textErr != nil && tableErr != nil {
		return nil, enginerr.Extraction(sourceID, 0, textErr)
	}
	return mergePages(sourceID, texts, tables), nil
}

// textPass returns the narrative text of each page.
func (e *Extractor) textPass(ctx context.Context, data []byte, contentType string) ([]string, error) {
	markup, err := e.client.ExtractXHTML(ctx, data, contentType, RenderHTML)
	if err != nil {
		return nil, err
	}
	pages, err := parsePages(bytes.NewReader(markup))
	if err != nil {
		return nil, err
	}
	texts := make([]string, len(pages))
	for i, p := range pages {
		texts[i] = p.text()
	}
	return texts, nil
}

// tablePass returns the CSV tables of each page. A page whose tables cannot
// be rendered keeps no tables.
func (e *Extractor) tablePass(ctx context.Context, sourceID string, data []byte, contentType string) ([][]string, error) {
	markup, err := e.client.ExtractXHTML(ctx, data, contentType, RenderXML)
	if err != nil {
		return nil, err
	}
	pages, err := parsePages(bytes.NewReader(markup))
	if err != nil {
		return nil, err
	}
	tables := make([][]string, len(pages))
	for i, p := range pages {
		pageTables, err := p.tables()
		if err != nil {
			slog.Warn("table extraction failed",
				"source_id", sourceID,
				"page_index", i+1,
				"error", enginerr.Extraction(sourceID, i+1, err))
			continue
		}
		tables[i] = pageTables
	}
	return tables, nil
}

// mergePages joins both passes by page index and drops empty pages.
func mergePages(sourceID string, texts []string, tables [][]string) []ContentUnit {
	n := max(len(texts), len(tables))
	units := make([]ContentUnit, 0, n)
	for i := 0; i < n; i++ {
		unit := ContentUnit{SourceID: sourceID, PageIndex: i + 1}
		if i < len(texts) {
			unit.Text = texts[i]
		}
		if i < len(tables) {
			unit.Tables = tables[i]
		}
		if unit.IsEmpty() {
			continue
		}
		units = append(units, unit)
	}
	return units
}

// splitPlainText splits a text document into pages on form feeds.
func splitPlainText(sourceID, text string) []ContentUnit {
	var units []ContentUnit
	for i, raw := range strings.Split(text, "\f") {
		content := strings.TrimSpace(strings.ReplaceAll(raw, "\r\n", "\n"))
		if content == "" {
			continue
		}
		units = append(units, ContentUnit{
			SourceID:  sourceID,
			PageIndex: i + 1,
			Text:      content,
		})
	}
	if units == nil {
		units = []ContentUnit{}
	}
	return units
}
