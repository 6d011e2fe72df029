package merge

import (
	"github.com/suratkita/suratkita/pkg/document"
	"github.com/suratkita/suratkita/pkg/errors"
)

// Preview is a navigable, read-only view of a base document resolved for
// each recipient in turn. It owns private copies of the base and the list,
// so later changes by the caller do not show through.
type Preview struct {
	base       *document.Document
	recipients []document.Recipient
	pos        int
}

// NewPreview creates a preview positioned at the first recipient.
func NewPreview(base *document.Document, recipients []document.Recipient) *Preview {
	return &Preview{
		base:       base.Clone(),
		recipients: append([]document.Recipient(nil), recipients...),
	}
}

// Len returns the number of recipients.
func (p *Preview) Len() int { return len(p.recipients) }

// Position returns the 0-based index of the current recipient.
func (p *Preview) Position() int { return p.pos }

// Next moves forward and reports whether it moved.
func (p *Preview) Next() bool {
	if p.pos+1 >= len(p.recipients) {
		return false
	}
	p.pos++
	return true
}

// Prev moves back and reports whether it moved.
func (p *Preview) Prev() bool {
	if p.pos == 0 {
		return false
	}
	p.pos--
	return true
}

// Seek jumps to the recipient at index i.
func (p *Preview) Seek(i int) error {
	if i < 0 || i >= len(p.recipients) {
		return errors.Validation("recipient %d out of range [0, %d)", i, len(p.recipients))
	}
	p.pos = i
	return nil
}

// Recipients returns a copy of the recipient list.
func (p *Preview) Recipients() []document.Recipient {
	return append([]document.Recipient(nil), p.recipients...)
}

// Current returns the current recipient and the document resolved for it.
// With an empty list it returns the base document's own recipient.
func (p *Preview) Current() (document.Recipient, *document.Document) {
	if len(p.recipients) == 0 {
		return p.base.Recipient, p.base.Clone()
	}
	rec := p.recipients[p.pos]
	return rec, Resolve(p.base, rec)
}
