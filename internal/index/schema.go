package index

import (
	"fmt"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"

	domdoc "github.com/shaond/tax2go-search/internal/domain/document"
)

// Indexed field names.
const (
	FieldID        = "id"
	FieldTitle     = "title"
	FieldBody      = "body"
	FieldTags      = "tags"
	FieldSource    = "source"
	FieldCreatedAt = "created_at"
)

// BodyPreviewLength is the number of characters of body returned with a search hit.
const BodyPreviewLength = 500

// scoringBM25 selects the BM25 similarity in the index mapping.
const scoringBM25 = "bm25"

var storedFields = []string{FieldTitle, FieldBody, FieldTags, FieldSource, FieldCreatedAt}

// Schema returns the field mapping shared by every per-user index.
// It is built once per process; every call returns the same mapping.
var Schema = sync.OnceValues(buildMapping)

func buildMapping() (*mapping.IndexMappingImpl, error) {
	text := func() *mapping.FieldMapping {
		fm := bleve.NewTextFieldMapping()
		fm.Analyzer = standard.Name
		fm.Store = true
		fm.IncludeInAll = false
		fm.IncludeTermVectors = false
		return fm
	}
	exact := func() *mapping.FieldMapping {
		fm := bleve.NewKeywordFieldMapping()
		fm.Store = true
		fm.IncludeInAll = false
		fm.IncludeTermVectors = false
		return fm
	}
	storedOnly := bleve.NewTextFieldMapping()
	storedOnly.Analyzer = keyword.Name
	storedOnly.Index = false
	storedOnly.Store = true
	storedOnly.IncludeInAll = false
	storedOnly.IncludeTermVectors = false
	storedOnly.DocValues = false

	doc := bleve.NewDocumentStaticMapping()
	doc.AddFieldMappingsAt(FieldID, exact())
	doc.AddFieldMappingsAt(FieldTitle, text())
	doc.AddFieldMappingsAt(FieldBody, text())
	doc.AddFieldMappingsAt(FieldTags, exact())
	doc.AddFieldMappingsAt(FieldSource, exact())
	doc.AddFieldMappingsAt(FieldCreatedAt, storedOnly)

	im := bleve.NewIndexMapping()
	im.DefaultMapping = doc
	im.DefaultAnalyzer = standard.Name
	im.ScoringModel = scoringBM25
	im.StoreDynamic = false
	im.IndexDynamic = false
	im.DocValuesDynamic = false

	if err := im.Validate(); err != nil {
		return nil, fmt.Errorf("validate index mapping: %w", err)
	}
	return im, nil
}

// toStored converts a document into the field map handed to the engine.
// Empty optional fields are omitted so they never match a filter.
func toStored(d *domdoc.Document) map[string]any {
	m := map[string]any{
		FieldID:        d.ID(),
		FieldTitle:     d.Title(),
		FieldBody:      d.Body(),
		FieldCreatedAt: d.CreatedAt().UTC().Format(time.RFC3339Nano),
	}
	if len(d.Tags()) > 0 {
		m[FieldTags] = d.Tags()
	}
	if d.Source() != "" {
		m[FieldSource] = d.Source()
	}
	return m
}

// fromStored hydrates a document from the stored fields of a hit.
func fromStored(id string, fields map[string]any) domdoc.Document {
	title, _ := fields[FieldTitle].(string)
	body, _ := fields[FieldBody].(string)
	source, _ := fields[FieldSource].(string)

	var createdAt time.Time
	if s, ok := fields[FieldCreatedAt].(string); ok {
		createdAt, _ = time.Parse(time.RFC3339Nano, s)
	}
	return domdoc.Reconstruct(id, title, body, stringValues(fields[FieldTags]), source, createdAt)
}

// stringValues normalizes a stored field that is a single string or a list.
func stringValues(v any) []string {
	switch t := v.(type) {
	case string:
		return []string{t}
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			if s, ok := e.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case []string:
		return t
	default:
		return nil
	}
}

// TruncateBody cuts s to BodyPreviewLength characters.
func TruncateBody(s string) string {
	if utf8.RuneCountInString(s) <= BodyPreviewLength {
		return s
	}
	n := 0
	for i := range s {
		if n == BodyPreviewLength {
			return s[:i]
		}
		n++
	}
	return s
}
