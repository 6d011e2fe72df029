package store

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/suratkita/suratkita/pkg/document"
	"github.com/suratkita/suratkita/pkg/errors"
	"github.com/suratkita/suratkita/pkg/lifecycle"
)

// Service applies lifecycle and permission rules on top of a Store. Every
// operation re-reads the stored record, so decisions are always made
// against the current status.
type Service struct {
	Store      Store
	Machine    lifecycle.Machine
	MaxCaption int
	Logger     *log.Logger
}

// NewService creates a service over s with the default clock.
func NewService(s Store, logger *log.Logger) *Service {
	return &Service{
		Store:      s,
		Machine:    lifecycle.Default,
		MaxCaption: document.DefaultMaxCaptionRunes,
		Logger:     logger,
	}
}

// Load fetches and decodes a document.
func (s *Service) Load(ctx context.Context, id string) (*document.Document, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}
	rec, err := s.Store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return rec.Document(s.MaxCaption)
}

// Create stores a new DRAFT owned by actor and returns it with its id.
// Drafts may be incomplete; required fields are checked on submit.
func (s *Service) Create(ctx context.Context, doc *document.Document, actor lifecycle.Actor) (*document.Document, error) {
	if actor.Role != lifecycle.RoleAuthor && actor.Role != lifecycle.RoleOwnerAdmin {
		return nil, errors.Permission("role %s cannot create documents", actor.Role)
	}
	if !doc.Kind.Valid() {
		return nil, errors.Validation("unknown document kind %q", doc.Kind)
	}
	created := doc.Clone()
	if created.ID == "" {
		created.ID = NewID()
	}
	if err := ValidateID(created.ID); err != nil {
		return nil, err
	}
	now := s.now()
	created.OwnerID = actor.ID
	created.SetStatus(document.StatusDraft, "")
	created.CreatedAt = now
	created.UpdatedAt = now
	if created.Version == 0 {
		created.Version = 1
	}
	rec, err := FromDocument(created)
	if err != nil {
		return nil, err
	}
	if err := s.Store.Create(ctx, rec); err != nil {
		return nil, err
	}
	s.logger().Info("document created", "id", created.ID, "kind", created.Kind, "owner", actor.ID)
	return created, nil
}

// Update replaces the content of an editable document. Status, owner and
// creation time are kept from the stored record.
func (s *Service) Update(ctx context.Context, doc *document.Document, actor lifecycle.Actor) (*document.Document, error) {
	current, err := s.Load(ctx, doc.ID)
	if err != nil {
		return nil, err
	}
	if err := lifecycle.CanEdit(current, actor); err != nil {
		return nil, err
	}
	updated := doc.Clone()
	updated.OwnerID = current.OwnerID
	updated.Kind = current.Kind
	updated.CreatedAt = current.CreatedAt
	updated.SetStatus(current.Status, current.RejectionNote)
	updated.Version = current.Version
	updated.Touch(s.now())
	rec, err := FromDocument(updated)
	if err != nil {
		return nil, err
	}
	if err := s.Store.Update(ctx, rec); err != nil {
		return nil, err
	}
	s.logger().Info("document updated", "id", updated.ID, "version", updated.Version)
	return updated, nil
}

// Submit moves a document to SUBMITTED.
func (s *Service) Submit(ctx context.Context, id string, actor lifecycle.Actor) (lifecycle.Transition, error) {
	return s.Transition(ctx, id, actor, document.StatusSubmitted, "")
}

// Approve moves a document to APPROVED.
func (s *Service) Approve(ctx context.Context, id string, actor lifecycle.Actor) (lifecycle.Transition, error) {
	return s.Transition(ctx, id, actor, document.StatusApproved, "")
}

// Reject moves a document to REJECTED with a note.
func (s *Service) Reject(ctx context.Context, id string, actor lifecycle.Actor, note string) (lifecycle.Transition, error) {
	return s.Transition(ctx, id, actor, document.StatusRejected, note)
}

// Transition applies the lifecycle move to the target status and persists
// only the status columns.
func (s *Service) Transition(ctx context.Context, id string, actor lifecycle.Actor, to document.Status, note string) (lifecycle.Transition, error) {
	doc, err := s.Load(ctx, id)
	if err != nil {
		return lifecycle.Transition{}, err
	}

	var tr lifecycle.Transition
	switch to {
	case document.StatusSubmitted:
		tr, err = s.Machine.Submit(doc, actor)
	case document.StatusApproved:
		tr, err = s.Machine.Approve(doc, actor)
	case document.StatusRejected:
		tr, err = s.Machine.Reject(doc, actor, note)
	default:
		err = errors.New(errors.ErrCodeInvalidTransition, "cannot move a document to %s", to)
	}
	if err != nil {
		return lifecycle.Transition{}, err
	}

	if err := s.Store.SetStatus(ctx, id, doc.Status, doc.RejectionNote); err != nil {
		return lifecycle.Transition{}, err
	}
	s.logger().Info("document status changed", "id", id, "from", tr.From, "to", tr.To, "actor", actor.ID)
	return tr, nil
}

// Delete removes a document if actor may delete it.
func (s *Service) Delete(ctx context.Context, id string, actor lifecycle.Actor) error {
	doc, err := s.Load(ctx, id)
	if err != nil {
		return err
	}
	if err := lifecycle.CanDelete(doc, actor); err != nil {
		return err
	}
	if err := s.Store.Delete(ctx, id); err != nil {
		return err
	}
	s.logger().Info("document deleted", "id", id, "actor", actor.ID)
	return nil
}

// List returns matching records.
func (s *Service) List(ctx context.Context, f Filter) ([]Record, error) {
	return s.Store.List(ctx, f)
}

func (s *Service) now() time.Time {
	if s.Machine.Now != nil {
		return s.Machine.Now()
	}
	return time.Now()
}

func (s *Service) logger() *log.Logger {
	if s.Logger == nil {
		return log.New(io.Discard)
	}
	return s.Logger
}
