// Package lifecycle implements the review workflow of a letter.
//
// The state machine is:
//
//	DRAFT ──Submit──▶ SUBMITTED ──Approve──▶ APPROVED
//	  ▲                  │
//	  │                Reject(note)
//	  │                  ▼
//	  └──────Submit─── REJECTED
//
// Transitions mutate the document in place and return a [Transition] that
// callers log or persist for audit. Permission checks ([CanDelete],
// [CanEdit], [CanExport]) never mutate.
package lifecycle

import (
	"strings"
	"time"

	"github.com/suratkita/suratkita/pkg/document"
	"github.com/suratkita/suratkita/pkg/errors"
)

// Role is the actor's role in the organization.
type Role string

const (
	RoleAuthor     Role = "AUTHOR"
	RoleReviewer   Role = "REVIEWER"
	RoleOwnerAdmin Role = "OWNER_ADMIN"
	RoleMember     Role = "MEMBER"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleAuthor, RoleReviewer, RoleOwnerAdmin, RoleMember:
		return true
	}
	return false
}

// ParseRole parses a role case-insensitively.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", errors.Validation("unknown role %q", s)
	}
	return r, nil
}

// CanReview reports whether r may approve or reject.
func (r Role) CanReview() bool {
	return r == RoleReviewer || r == RoleOwnerAdmin
}

// Actor identifies who performs an operation.
type Actor struct {
	ID   string
	Role Role
}

// Transition records one status change.
type Transition struct {
	DocumentID string
	From       document.Status
	To         document.Status
	Actor      Actor
	Note       string
	At         time.Time
}

// Machine applies transitions using Now for timestamps.
type Machine struct {
	Now func() time.Time
}

// Default is the machine used by the package-level functions.
var Default = Machine{Now: time.Now}

func (m Machine) now() time.Time {
	if m.Now == nil {
		return time.Now()
	}
	return m.Now()
}

// =============================================================================
// Transitions
// =============================================================================

// Submit moves a DRAFT or REJECTED document to SUBMITTED. The header must
// be complete; the rejection note is cleared.
func (m Machine) Submit(doc *document.Document, actor Actor) (Transition, error) {
	if doc.Status != document.StatusDraft && doc.Status != document.StatusRejected {
		return Transition{}, invalidTransition(doc.Status, document.StatusSubmitted)
	}
	if err := doc.Validate(); err != nil {
		return Transition{}, err
	}
	return m.apply(doc, actor, document.StatusSubmitted, ""), nil
}

// Approve moves a SUBMITTED document to APPROVED. Only reviewers may approve.
func (m Machine) Approve(doc *document.Document, actor Actor) (Transition, error) {
	if !actor.Role.CanReview() {
		return Transition{}, errors.Permission("role %s cannot approve documents", roleName(actor.Role))
	}
	if doc.Status != document.StatusSubmitted {
		return Transition{}, invalidTransition(doc.Status, document.StatusApproved)
	}
	return m.apply(doc, actor, document.StatusApproved, ""), nil
}

// Reject moves a SUBMITTED document to REJECTED with a mandatory note.
func (m Machine) Reject(doc *document.Document, actor Actor, note string) (Transition, error) {
	if !actor.Role.CanReview() {
		return Transition{}, errors.Permission("role %s cannot reject documents", roleName(actor.Role))
	}
	if strings.TrimSpace(note) == "" {
		return Transition{}, errors.New(errors.ErrCodeBlankNote, "a rejection note is required")
	}
	if doc.Status != document.StatusSubmitted {
		return Transition{}, invalidTransition(doc.Status, document.StatusRejected)
	}
	return m.apply(doc, actor, document.StatusRejected, note), nil
}

func (m Machine) apply(doc *document.Document, actor Actor, to document.Status, note string) Transition {
	from := doc.Status
	doc.SetStatus(to, note)
	at := m.now()
	doc.UpdatedAt = at
	return Transition{
		DocumentID: doc.ID,
		From:       from,
		To:         to,
		Actor:      actor,
		Note:       doc.RejectionNote,
		At:         at,
	}
}

// Submit applies [Machine.Submit] with the default clock.
func Submit(doc *document.Document, actor Actor) (Transition, error) {
	return Default.Submit(doc, actor)
}

// Approve applies [Machine.Approve] with the default clock.
func Approve(doc *document.Document, actor Actor) (Transition, error) {
	return Default.Approve(doc, actor)
}

// Reject applies [Machine.Reject] with the default clock.
func Reject(doc *document.Document, actor Actor, note string) (Transition, error) {
	return Default.Reject(doc, actor, note)
}

// =============================================================================
// Permission Checks
// =============================================================================

// CanDelete allows deleting drafts, and anything for the owner admin.
func CanDelete(doc *document.Document, actor Actor) error {
	if doc.Status == document.StatusDraft || actor.Role == RoleOwnerAdmin {
		return nil
	}
	return errors.Permission("only the owner admin can delete a %s document", strings.ToLower(string(doc.Status)))
}

// CanEdit allows authors to edit their own drafts and rejected documents.
// The owner admin may edit anything; reviewers and members never edit.
func CanEdit(doc *document.Document, actor Actor) error {
	if actor.Role == RoleOwnerAdmin {
		return nil
	}
	if actor.Role != RoleAuthor {
		return errors.Permission("role %s cannot edit documents", roleName(actor.Role))
	}
	if doc.OwnerID != "" && actor.ID != doc.OwnerID {
		return errors.Permission("only the author can edit this document")
	}
	if doc.Status != document.StatusDraft && doc.Status != document.StatusRejected {
		return errors.Permission("a %s document is locked for editing", strings.ToLower(string(doc.Status)))
	}
	return nil
}

// CanExport allows reviewers and the owner admin to export at any status;
// everyone else only once the document is APPROVED. Callers must check on
// every export against the current stored status.
func CanExport(doc *document.Document, actor Actor) error {
	if actor.Role.CanReview() || doc.Status == document.StatusApproved {
		return nil
	}
	return errors.Permission("document must be approved before export (status %s)", doc.Status)
}

func invalidTransition(from, to document.Status) error {
	return errors.New(errors.ErrCodeInvalidTransition, "cannot move document from %s to %s", from, to)
}

func roleName(r Role) string {
	if r == "" {
		return "(none)"
	}
	return string(r)
}
