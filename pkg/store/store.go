// Package store persists letters as records of the portal's document API.
//
// A [Record] is the wire and storage shape: a handful of indexed columns
// (recipient, subject, kind, status, date, rejection note, owner) plus the
// full document as an opaque JSON blob in Konten. The indexed columns are
// authoritative for status; the blob is authoritative for content.
//
// Implementations live in subpackages:
//
//   - store/memory: mutex-guarded map, for tests and the CLI default
//   - store/mongo: MongoDB collection
//   - store/httpclient: client for a remote document API
//
// store/httpapi serves the same API over any [Store]. Lifecycle rules are
// applied by [Service], never by the Store implementations themselves.
package store

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/suratkita/suratkita/pkg/document"
	"github.com/suratkita/suratkita/pkg/errors"
)

// Record is one stored document.
type Record struct {
	ID        string          `json:"id"`
	Tujuan    string          `json:"tujuan"`  // recipient name
	Perihal   string          `json:"perihal"` // subject
	Jenis     document.Kind   `json:"jenis"`
	Status    document.Status `json:"status"`
	Tanggal   time.Time       `json:"tanggal"`
	Catatan   string          `json:"catatan,omitempty"` // rejection note
	Konten    json.RawMessage `json:"konten"`
	OwnerID   string          `json:"ownerId"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// FromDocument builds the record of doc.
func FromDocument(doc *document.Document) (*Record, error) {
	blob, err := document.Marshal(doc)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode document %s", doc.ID)
	}
	return &Record{
		ID:        doc.ID,
		Tujuan:    doc.Recipient.Name,
		Perihal:   doc.Header.Subject,
		Jenis:     doc.Kind,
		Status:    doc.Status,
		Tanggal:   doc.Header.Date,
		Catatan:   doc.RejectionNote,
		Konten:    blob,
		OwnerID:   doc.OwnerID,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}, nil
}

// Document decodes the record's content. Identity, owner and lifecycle
// fields are taken from the record columns.
func (r *Record) Document(maxCaption int) (*document.Document, error) {
	if len(r.Konten) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "document %s has no content", r.ID)
	}
	doc, err := document.Unmarshal(r.Konten, maxCaption)
	if err != nil {
		return nil, err
	}
	doc.ID = r.ID
	doc.OwnerID = r.OwnerID
	if r.Jenis != "" {
		doc.Kind = r.Jenis
	}
	if r.Status != "" {
		doc.SetStatus(r.Status, r.Catatan)
	}
	if !r.CreatedAt.IsZero() {
		doc.CreatedAt = r.CreatedAt
	}
	if !r.UpdatedAt.IsZero() {
		doc.UpdatedAt = r.UpdatedAt
	}
	return doc, nil
}

// Clone returns a copy that shares no memory with r.
func (r *Record) Clone() *Record {
	c := *r
	c.Konten = append(json.RawMessage(nil), r.Konten...)
	return &c
}

// Filter selects records in [Store.List]. Zero fields match everything.
type Filter struct {
	Status  document.Status
	Jenis   document.Kind
	OwnerID string
	Limit   int
}

// Match reports whether r passes the filter.
func (f Filter) Match(r *Record) bool {
	if f.Status != "" && r.Status != f.Status {
		return false
	}
	if f.Jenis != "" && r.Jenis != f.Jenis {
		return false
	}
	if f.OwnerID != "" && r.OwnerID != f.OwnerID {
		return false
	}
	return true
}

// Store persists records.
type Store interface {
	// Get returns the record with the given id, or a NOT_FOUND error.
	Get(ctx context.Context, id string) (*Record, error)

	// Create inserts a new record. An existing id is a CONFLICT.
	Create(ctx context.Context, rec *Record) error

	// Update replaces the content columns and blob of an existing record.
	// Status and rejection note are left unchanged.
	Update(ctx context.Context, rec *Record) error

	// SetStatus changes only the lifecycle columns.
	SetStatus(ctx context.Context, id string, status document.Status, note string) error

	// Delete removes a record.
	Delete(ctx context.Context, id string) error

	// List returns matching records, newest first.
	List(ctx context.Context, f Filter) ([]Record, error)

	// Close releases the connection.
	Close() error
}

// NewID issues a document id.
func NewID() string {
	return uuid.NewString()
}

// ErrNotFound builds the error returned for a missing id.
func ErrNotFound(id string) error {
	return errors.New(errors.ErrCodeNotFound, "document %s not found", id)
}

// ErrConflict builds the error returned when creating an existing id.
func ErrConflict(id string) error {
	return errors.New(errors.ErrCodeConflict, "document %s already exists", id)
}

// ValidateID rejects blank or malformed ids before they reach a backend.
func ValidateID(id string) error {
	return errors.ValidateDocumentID(strings.TrimSpace(id))
}

// ApplyStatus sets the lifecycle columns the way [document.Document.SetStatus]
// does: the note is kept only for REJECTED.
func (r *Record) ApplyStatus(status document.Status, note string, now time.Time) {
	r.Status = status
	r.Catatan = ""
	if status == document.StatusRejected {
		r.Catatan = strings.TrimSpace(note)
	}
	r.UpdatedAt = now
}
