package lifecycle

import (
	"testing"
	"time"

	"github.com/suratkita/suratkita/pkg/document"
	"github.com/suratkita/suratkita/pkg/errors"
)

var (
	author   = Actor{ID: "author-1", Role: RoleAuthor}
	reviewer = Actor{ID: "rev-1", Role: RoleReviewer}
	admin    = Actor{ID: "admin-1", Role: RoleOwnerAdmin}
	member   = Actor{ID: "member-1", Role: RoleMember}
)

var fixed = time.Date(2026, 5, 2, 10, 0, 0, 0, time.UTC)

func machine() Machine {
	return Machine{Now: func() time.Time { return fixed }}
}

func draft() *document.Document {
	d := document.New(document.KindProposal, author.ID, fixed.Add(-time.Hour))
	d.ID = "doc-1"
	d.Header = document.Header{
		OrganizationName: "Karang Taruna",
		LetterNumber:     "001/KT/2026",
		Subject:          "Proposal",
		Date:             fixed,
		Place:            "Bandung",
	}
	return d
}

func withStatus(s document.Status) *document.Document {
	d := draft()
	d.Status = s
	return d
}

func TestSubmit(t *testing.T) {
	m := machine()
	d := draft()
	tr, err := m.Submit(d, author)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if d.Status != document.StatusSubmitted {
		t.Errorf("Status = %s", d.Status)
	}
	if tr.From != document.StatusDraft || tr.To != document.StatusSubmitted || !tr.At.Equal(fixed) {
		t.Errorf("Transition = %+v", tr)
	}
	if tr.Actor != author || tr.DocumentID != "doc-1" {
		t.Errorf("Transition actor = %+v", tr)
	}
}

func TestSubmitRequiresHeader(t *testing.T) {
	d := draft()
	d.Header.Subject = ""
	_, err := machine().Submit(d, author)
	if !errors.Is(err, errors.ErrCodeMissingField) {
		t.Fatalf("Submit() error = %v, want MISSING_FIELD", err)
	}
	if d.Status != document.StatusDraft {
		t.Errorf("failed submit changed status to %s", d.Status)
	}
}

func TestSubmitFromInvalidStates(t *testing.T) {
	for _, s := range []document.Status{document.StatusSubmitted, document.StatusApproved} {
		_, err := machine().Submit(withStatus(s), author)
		if !errors.Is(err, errors.ErrCodeInvalidTransition) {
			t.Errorf("Submit from %s error = %v", s, err)
		}
	}
}

func TestRejectThenResubmitClearsNote(t *testing.T) {
	m := machine()
	d := withStatus(document.StatusSubmitted)

	if _, err := m.Reject(d, reviewer, "  "); !errors.Is(err, errors.ErrCodeBlankNote) {
		t.Fatalf("Reject with blank note error = %v", err)
	}
	if d.Status != document.StatusSubmitted {
		t.Fatalf("blank-note reject changed status to %s", d.Status)
	}

	tr, err := m.Reject(d, reviewer, "nomor surat salah")
	if err != nil {
		t.Fatalf("Reject: %v", err)
	}
	if d.RejectionNote != "nomor surat salah" || tr.Note != "nomor surat salah" {
		t.Errorf("note = %q / %q", d.RejectionNote, tr.Note)
	}

	if _, err := m.Submit(d, author); err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if d.RejectionNote != "" {
		t.Errorf("RejectionNote = %q after resubmit", d.RejectionNote)
	}
}

func TestReviewerOnly(t *testing.T) {
	tests := []struct {
		name  string
		actor Actor
		ok    bool
	}{
		{"author", author, false},
		{"member", member, false},
		{"no role", Actor{}, false},
		{"reviewer", reviewer, true},
		{"owner admin", admin, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := machine().Approve(withStatus(document.StatusSubmitted), tt.actor)
			if tt.ok != (err == nil) {
				t.Errorf("Approve() error = %v", err)
			}
			if !tt.ok && !errors.IsCategory(err, errors.CategoryPermission) {
				t.Errorf("Approve() error category = %s", errors.CategoryOf(err))
			}

			_, err = machine().Reject(withStatus(document.StatusSubmitted), tt.actor, "note")
			if tt.ok != (err == nil) {
				t.Errorf("Reject() error = %v", err)
			}
			if !tt.ok && !errors.IsCategory(err, errors.CategoryPermission) {
				t.Errorf("Reject() error category = %s", errors.CategoryOf(err))
			}
		})
	}
}

func TestApproveRequiresSubmitted(t *testing.T) {
	for _, s := range []document.Status{document.StatusDraft, document.StatusApproved, document.StatusRejected} {
		if _, err := machine().Approve(withStatus(s), reviewer); !errors.Is(err, errors.ErrCodeInvalidTransition) {
			t.Errorf("Approve from %s error = %v", s, err)
		}
	}
}

func TestCanDelete(t *testing.T) {
	tests := []struct {
		status document.Status
		actor  Actor
		ok     bool
	}{
		{document.StatusDraft, author, true},
		{document.StatusDraft, member, true},
		{document.StatusApproved, author, false},
		{document.StatusApproved, reviewer, false},
		{document.StatusApproved, admin, true},
		{document.StatusSubmitted, author, false},
		{document.StatusRejected, admin, true},
	}
	for _, tt := range tests {
		err := CanDelete(withStatus(tt.status), tt.actor)
		if tt.ok != (err == nil) {
			t.Errorf("CanDelete(%s, %s) = %v", tt.status, tt.actor.Role, err)
		}
	}
}

func TestCanEdit(t *testing.T) {
	tests := []struct {
		name   string
		status document.Status
		actor  Actor
		ok     bool
	}{
		{"author draft", document.StatusDraft, author, true},
		{"author rejected", document.StatusRejected, author, true},
		{"author submitted", document.StatusSubmitted, author, false},
		{"author approved", document.StatusApproved, author, false},
		{"other author", document.StatusDraft, Actor{ID: "someone", Role: RoleAuthor}, false},
		{"reviewer", document.StatusDraft, reviewer, false},
		{"admin approved", document.StatusApproved, admin, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CanEdit(withStatus(tt.status), tt.actor)
			if tt.ok != (err == nil) {
				t.Errorf("CanEdit() = %v", err)
			}
		})
	}
}

func TestCanExport(t *testing.T) {
	tests := []struct {
		status document.Status
		actor  Actor
		ok     bool
	}{
		{document.StatusDraft, reviewer, true},
		{document.StatusSubmitted, admin, true},
		{document.StatusDraft, author, false},
		{document.StatusRejected, member, false},
		{document.StatusApproved, author, true},
		{document.StatusApproved, member, true},
	}
	for _, tt := range tests {
		err := CanExport(withStatus(tt.status), tt.actor)
		if tt.ok != (err == nil) {
			t.Errorf("CanExport(%s, %s) = %v", tt.status, tt.actor.Role, err)
		}
	}
}

func TestParseRole(t *testing.T) {
	if r, err := ParseRole(" reviewer "); err != nil || r != RoleReviewer {
		t.Errorf("ParseRole = %q, %v", r, err)
	}
	if _, err := ParseRole("superuser"); err == nil {
		t.Error("ParseRole(superuser) succeeded")
	}
}
