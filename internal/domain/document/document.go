package document

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

// Document size limits.
const (
	MaxIDLength     = 256
	MaxTitleLength  = 1024
	MaxBodyLength   = 4 << 20 // 4MB
	MaxTags         = 64
	MaxTagLength    = 128
	MaxSourceLength = 256
)

// Metadata holds the filterable attributes of a document.
type Metadata struct {
	Tags      []string
	Source    string
	CreatedAt time.Time
}

// Document is the document aggregate (immutable value object).
type Document struct {
	id        string
	title     string
	body      string
	tags      []string
	source    string
	createdAt time.Time
}

// New validates and creates a Document.
// ID is optional (generated on write when empty). Title and body must not be blank.
// Tags are de-duplicated preserving first occurrence order.
func New(id, title, body string, meta Metadata) (Document, error) {
	if err := validateID(id); err != nil {
		return Document{}, err
	}
	if strings.TrimSpace(title) == "" {
		return Document{}, fmt.Errorf("title cannot be empty")
	}
	if len(title) > MaxTitleLength {
		return Document{}, fmt.Errorf("title too long (max %d bytes)", MaxTitleLength)
	}
	if strings.TrimSpace(body) == "" {
		return Document{}, fmt.Errorf("body cannot be empty")
	}
	if len(body) > MaxBodyLength {
		return Document{}, fmt.Errorf("body too large (max %d bytes)", MaxBodyLength)
	}
	tags, err := normalizeTags(meta.Tags)
	if err != nil {
		return Document{}, err
	}
	if len(meta.Source) > MaxSourceLength {
		return Document{}, fmt.Errorf("source too long (max %d bytes)", MaxSourceLength)
	}

	var createdAt time.Time
	if !meta.CreatedAt.IsZero() {
		createdAt = meta.CreatedAt.UTC()
	}

	return Document{
		id:        id,
		title:     title,
		body:      body,
		tags:      tags,
		source:    meta.Source,
		createdAt: createdAt,
	}, nil
}

// Reconstruct creates a Document without validation (storage hydration).
func Reconstruct(id, title, body string, tags []string, source string, createdAt time.Time) Document {
	return Document{id: id, title: title, body: body, tags: tags, source: source, createdAt: createdAt}
}

// ValidateID checks a caller-supplied document identifier.
func ValidateID(id string) error {
	if id == "" {
		return fmt.Errorf("document ID is required")
	}
	return validateID(id)
}

func validateID(id string) error {
	if id == "" {
		return nil
	}
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("document ID cannot be blank")
	}
	if len(id) > MaxIDLength {
		return fmt.Errorf("document ID too long (max %d)", MaxIDLength)
	}
	for _, r := range id {
		if unicode.IsControl(r) {
			return fmt.Errorf("document ID must not contain control characters")
		}
	}
	return nil
}

func normalizeTags(in []string) ([]string, error) {
	if len(in) == 0 {
		return nil, nil
	}
	if len(in) > MaxTags {
		return nil, fmt.Errorf("too many tags (max %d)", MaxTags)
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, t := range in {
		if strings.TrimSpace(t) == "" {
			return nil, fmt.Errorf("tags must not be blank")
		}
		if len(t) > MaxTagLength {
			return nil, fmt.Errorf("tag %q... too long (max %d bytes)", excerpt(t, 16), MaxTagLength)
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out, nil
}

// excerpt returns at most n leading runes of s.
func excerpt(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// ID returns the document identifier, empty when it has not been assigned yet.
func (d *Document) ID() string { return d.id }

// Title returns the document title.
func (d *Document) Title() string { return d.title }

// Body returns the full document body.
func (d *Document) Body() string { return d.body }

// Tags returns the document tags in insertion order.
func (d *Document) Tags() []string { return d.tags }

// Source returns the optional source identifier.
func (d *Document) Source() string { return d.source }

// CreatedAt returns the creation timestamp, zero when not set.
func (d *Document) CreatedAt() time.Time { return d.createdAt }

// WithID returns a copy with the given identifier.
func (d *Document) WithID(id string) Document {
	c := *d
	c.id = id
	return c
}

// WithCreatedAt returns a copy with the given creation timestamp.
func (d *Document) WithCreatedAt(t time.Time) Document {
	c := *d
	c.createdAt = t.UTC()
	return c
}
