package document

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"
)

func TestNew_Valid(t *testing.T) {
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.FixedZone("X", 3600))
	doc, err := New("doc-1", "Rust Guide", "Rust is a systems language", Metadata{
		Tags:      []string{"lang", "systems"},
		Source:    "blog",
		CreatedAt: created,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.ID() != "doc-1" {
		t.Errorf("ID() = %q", doc.ID())
	}
	if doc.Title() != "Rust Guide" {
		t.Errorf("Title() = %q", doc.Title())
	}
	if doc.Body() != "Rust is a systems language" {
		t.Errorf("Body() = %q", doc.Body())
	}
	if len(doc.Tags()) != 2 || doc.Tags()[0] != "lang" || doc.Tags()[1] != "systems" {
		t.Errorf("Tags() = %v", doc.Tags())
	}
	if doc.Source() != "blog" {
		t.Errorf("Source() = %q", doc.Source())
	}
	if !doc.CreatedAt().Equal(created) || doc.CreatedAt().Location() != time.UTC {
		t.Errorf("CreatedAt() = %v, want %v in UTC", doc.CreatedAt(), created)
	}
}

func TestNew_EmptyIDAllowed(t *testing.T) {
	doc, err := New("", "title", "body", Metadata{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.ID() != "" {
		t.Errorf("ID() = %q, want empty", doc.ID())
	}
	if !doc.CreatedAt().IsZero() {
		t.Errorf("CreatedAt() = %v, want zero", doc.CreatedAt())
	}
}

func TestNew_DeduplicatesTags(t *testing.T) {
	doc, err := New("d", "t", "b", Metadata{Tags: []string{"a", "b", "a", "c", "b"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := strings.Join(doc.Tags(), ",")
	if got != "a,b,c" {
		t.Errorf("Tags() = %q, want a,b,c", got)
	}
}

func TestNew_Invalid(t *testing.T) {
	manyTags := make([]string, MaxTags+1)
	for i := range manyTags {
		manyTags[i] = "t" + strings.Repeat("x", i%5)
	}

	tests := []struct {
		name  string
		id    string
		title string
		body  string
		meta  Metadata
		want  string
	}{
		{"blank title", "d", "   ", "body", Metadata{}, "title cannot be empty"},
		{"blank body", "d", "title", "\n\t", Metadata{}, "body cannot be empty"},
		{"blank id", "  ", "title", "body", Metadata{}, "document ID cannot be blank"},
		{"long id", strings.Repeat("a", MaxIDLength+1), "title", "body", Metadata{}, "document ID too long"},
		{"control id", "a\x00b", "title", "body", Metadata{}, "control characters"},
		{"long title", "d", strings.Repeat("t", MaxTitleLength+1), "body", Metadata{}, "title too long"},
		{"blank tag", "d", "title", "body", Metadata{Tags: []string{"ok", " "}}, "tags must not be blank"},
		{"long tag", "d", "title", "body", Metadata{Tags: []string{strings.Repeat("t", MaxTagLength+1)}}, "too long"},
		{"too many tags", "d", "title", "body", Metadata{Tags: manyTags}, "too many tags"},
		{"long source", "d", "title", "body", Metadata{Source: strings.Repeat("s", MaxSourceLength+1)}, "source too long"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.id, tc.title, tc.body, tc.meta)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error = %q, want substring %q", err.Error(), tc.want)
			}
		})
	}
}

func TestNew_BodyTooLarge(t *testing.T) {
	_, err := New("d", "t", strings.Repeat("x", MaxBodyLength+1), Metadata{})
	if err == nil || !strings.Contains(err.Error(), "body too large") {
		t.Errorf("expected body too large error, got %v", err)
	}
}

func TestValidateID(t *testing.T) {
	if err := ValidateID(""); err == nil {
		t.Error("empty ID must be rejected")
	}
	if err := ValidateID("doc-1"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestWithID_DoesNotMutateOriginal(t *testing.T) {
	doc, _ := New("", "t", "b", Metadata{})
	withID := doc.WithID("generated")
	if doc.ID() != "" {
		t.Errorf("original ID mutated to %q", doc.ID())
	}
	if withID.ID() != "generated" {
		t.Errorf("WithID().ID() = %q", withID.ID())
	}
}

func TestWithCreatedAt(t *testing.T) {
	doc, _ := New("d", "t", "b", Metadata{})
	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.FixedZone("Y", -7200))
	got := doc.WithCreatedAt(ts)
	if !got.CreatedAt().Equal(ts) {
		t.Errorf("CreatedAt() = %v", got.CreatedAt())
	}
	if got.CreatedAt().Location() != time.UTC {
		t.Error("CreatedAt() must be normalized to UTC")
	}
	if !doc.CreatedAt().IsZero() {
		t.Error("original CreatedAt mutated")
	}
}

func TestNew_LongMultibyteTagErrorIsValidUTF8(t *testing.T) {
	// 'ж' is two bytes, so a byte cut at 15 would split a rune.
	tag := "x" + strings.Repeat("ж", MaxTagLength)
	_, err := New("", "t", "b", Metadata{Tags: []string{tag}})
	if err == nil {
		t.Fatal("expected error for long tag")
	}
	if !utf8.ValidString(err.Error()) {
		t.Errorf("error message is not valid UTF-8: %q", err.Error())
	}
	if !strings.Contains(err.Error(), "x"+strings.Repeat("ж", 15)) {
		t.Errorf("error message lacks the tag excerpt: %q", err.Error())
	}
}

func TestExcerpt(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"", 3, ""},
		{"ab", 3, "ab"},
		{"abcd", 3, "abc"},
		{"жжжж", 2, "жж"},
	}
	for _, tc := range tests {
		if got := excerpt(tc.in, tc.n); got != tc.want {
			t.Errorf("excerpt(%q, %d) = %q, want %q", tc.in, tc.n, got, tc.want)
		}
	}
}
