package document

import (
	"context"
	"errors"
	"testing"

	"github.com/shaond/tax2go-search/internal/domain"
	domdoc "github.com/shaond/tax2go-search/internal/domain/document"
	"github.com/shaond/tax2go-search/internal/domain/search/request"
	"github.com/shaond/tax2go-search/internal/domain/search/result"
	"github.com/shaond/tax2go-search/internal/domain/tenant"
)

// --- Mocks ---

type mockIndex struct {
	putID     string
	putErr    error
	putDoc    domdoc.Document
	deleteErr error
	deletedID string
	listing   result.Listing
	listErr   error
	listReq   request.Browse
	stats     result.Stats
	statsErr  error
}

func (m *mockIndex) Put(_ context.Context, _ tenant.ID, doc domdoc.Document) (string, error) {
	m.putDoc = doc
	return m.putID, m.putErr
}
func (m *mockIndex) Delete(_ context.Context, _ tenant.ID, id string) error {
	m.deletedID = id
	return m.deleteErr
}
func (m *mockIndex) List(_ context.Context, _ tenant.ID, br request.Browse) (result.Listing, error) {
	m.listReq = br
	return m.listing, m.listErr
}
func (m *mockIndex) Stats(_ context.Context, _ tenant.ID) (result.Stats, error) {
	return m.stats, m.statsErr
}

func makeDoc(t *testing.T) domdoc.Document {
	t.Helper()
	d, err := domdoc.New("", "Title", "Body", domdoc.Metadata{})
	if err != nil {
		t.Fatalf("domdoc.New: %v", err)
	}
	return d
}

// --- Tests ---

func TestPut_ReturnsAssignedID(t *testing.T) {
	idx := &mockIndex{putID: "generated"}
	svc := New(idx)

	id, err := svc.Put(context.Background(), tenant.New(), makeDoc(t))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "generated" {
		t.Errorf("expected id %q, got %q", "generated", id)
	}
	if idx.putDoc.Title() != "Title" {
		t.Errorf("document not forwarded, got title %q", idx.putDoc.Title())
	}
}

func TestPut_StorageError(t *testing.T) {
	svc := New(&mockIndex{putErr: domain.ErrStorage})

	_, err := svc.Put(context.Background(), tenant.New(), makeDoc(t))
	if !errors.Is(err, domain.ErrStorage) {
		t.Fatalf("expected ErrStorage, got %v", err)
	}
}

func TestDelete_EmptyIDIsInvalid(t *testing.T) {
	idx := &mockIndex{}
	svc := New(idx)

	err := svc.Delete(context.Background(), tenant.New(), "")
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if idx.deletedID != "" {
		t.Error("index must not be called for an invalid id")
	}
}

func TestDelete_Forwards(t *testing.T) {
	idx := &mockIndex{}
	svc := New(idx)

	if err := svc.Delete(context.Background(), tenant.New(), "doc-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if idx.deletedID != "doc-1" {
		t.Errorf("expected doc-1 deleted, got %q", idx.deletedID)
	}
}

func TestList_DefaultPageSize(t *testing.T) {
	idx := &mockIndex{}
	svc := New(idx).WithPagination(25)

	if _, err := svc.List(context.Background(), tenant.New(), 0, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if idx.listReq.Limit() != 25 {
		t.Errorf("expected limit 25, got %d", idx.listReq.Limit())
	}
}

func TestList_InvalidPagination(t *testing.T) {
	svc := New(&mockIndex{})

	_, err := svc.List(context.Background(), tenant.New(), request.MaxBrowseLimit+1, 0)
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	_, err = svc.List(context.Background(), tenant.New(), 10, -1)
	if !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for negative offset, got %v", err)
	}
}

func TestWithPagination_IgnoresOutOfRange(t *testing.T) {
	svc := New(&mockIndex{}).WithPagination(request.MaxBrowseLimit + 1)
	if svc.defaultPageSize != request.DefaultBrowseLimit {
		t.Errorf("expected default %d kept, got %d", request.DefaultBrowseLimit, svc.defaultPageSize)
	}
}

func TestCount(t *testing.T) {
	svc := New(&mockIndex{stats: result.Stats{Documents: 7}})

	n, err := svc.Count(context.Background(), tenant.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 7 {
		t.Errorf("expected 7, got %d", n)
	}
}

func TestCount_Closed(t *testing.T) {
	svc := New(&mockIndex{statsErr: domain.ErrClosed})

	if _, err := svc.Count(context.Background(), tenant.New()); !errors.Is(err, domain.ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}
