package pipeline

import (
	"errors"
	"testing"

	"wishlist-backend/models"
)

type collectingWriter struct {
	books []*models.BookRecord
	err   error
}

func (cw *collectingWriter) Write(books []*models.BookRecord) error {
	if cw.err != nil {
		return cw.err
	}
	cw.books = append(cw.books, books...)
	return nil
}

func (cw *collectingWriter) Close() error    { return nil }
func (cw *collectingWriter) Validate() error { return nil }

func record(id, title string) *models.BookRecord {
	return &models.BookRecord{ID: id, Title: title, Author: models.UnknownAuthor}
}

func TestPipelineFiltersInvalidAndDuplicateRecords(t *testing.T) {
	writer := &collectingWriter{}
	p := NewPipeline(writer)

	err := p.Run([]*models.BookRecord{
		record("page:1:index:0:slug:a", "Alpha"),
		nil,
		record("", "No ID"),
		record("page:1:index:1:slug:b", "   "),
		record("page:1:index:0:slug:a", "Alpha Again"),
		record("page:1:index:2:slug:c", "Gamma"),
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(writer.books) != 2 {
		t.Fatalf("wrote %d records, want 2", len(writer.books))
	}
	dropped := p.Dropped()
	if dropped["invalid_record"] != 3 {
		t.Errorf("invalid_record = %d, want 3", dropped["invalid_record"])
	}
	if dropped["duplicate_id"] != 1 {
		t.Errorf("duplicate_id = %d, want 1", dropped["duplicate_id"])
	}
}

func TestPipelineSkipsWriteForEmptyBatch(t *testing.T) {
	writer := &collectingWriter{err: errors.New("should not be called")}
	p := NewPipeline(writer)

	if err := p.Run([]*models.BookRecord{nil, record("", "x")}); err != nil {
		t.Fatalf("run: %v", err)
	}
}

func TestPipelineWrapsWriterErrors(t *testing.T) {
	sentinel := errors.New("disk full")
	p := NewPipeline(&collectingWriter{err: sentinel})

	err := p.Run([]*models.BookRecord{record("page:1:index:0:slug:a", "Alpha")})
	if !errors.Is(err, sentinel) {
		t.Fatalf("run error = %v, want wrapped %v", err, sentinel)
	}
}
