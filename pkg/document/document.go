package document

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/suratkita/suratkita/pkg/errors"
)

// =============================================================================
// Enumerations
// =============================================================================

// Kind identifies the letter template, which fixes page geometry and the
// assembly strategy.
type Kind string

const (
	KindProposal        Kind = "PROPOSAL"
	KindInvitation      Kind = "INVITATION"
	KindFinancialReport Kind = "FINANCIAL_REPORT"
	KindGenericLetter   Kind = "GENERIC_LETTER"
)

// Kinds lists every document kind in declaration order.
var Kinds = []Kind{KindProposal, KindInvitation, KindFinancialReport, KindGenericLetter}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	switch k {
	case KindProposal, KindInvitation, KindFinancialReport, KindGenericLetter:
		return true
	}
	return false
}

// ParseKind parses a kind case-insensitively.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToUpper(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", errors.New(errors.ErrCodeInvalidInput, "unknown document kind %q", s)
	}
	return k, nil
}

// Status is the lifecycle state of a document.
type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusSubmitted Status = "SUBMITTED"
	StatusApproved  Status = "APPROVED"
	StatusRejected  Status = "REJECTED"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusDraft, StatusSubmitted, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// SectionKind identifies the payload carried by a [Section].
type SectionKind string

const (
	SectionCover        SectionKind = "cover"
	SectionText         SectionKind = "text"
	SectionPoints       SectionKind = "points"
	SectionBudget       SectionKind = "budget"
	SectionPhotos       SectionKind = "photos"
	SectionSignatures   SectionKind = "signatures"
	SectionStructure    SectionKind = "structure"
	SectionDistribution SectionKind = "distribution"
)

// IsCollection reports whether sections of this kind are split across pages.
func (k SectionKind) IsCollection() bool {
	switch k {
	case SectionBudget, SectionPhotos, SectionDistribution:
		return true
	}
	return false
}

// Valid reports whether k is a known section kind.
func (k SectionKind) Valid() bool {
	switch k {
	case SectionCover, SectionText, SectionPoints, SectionBudget, SectionPhotos,
		SectionSignatures, SectionStructure, SectionDistribution:
		return true
	}
	return false
}

// DefaultMaxCaptionRunes is the caption limit applied when none is configured.
const DefaultMaxCaptionRunes = 120

// =============================================================================
// Model
// =============================================================================

// Document is a letter's full content plus its lifecycle metadata.
type Document struct {
	ID            string    `json:"id"`
	Kind          Kind      `json:"kind"`
	Status        Status    `json:"status"`
	OwnerID       string    `json:"ownerId"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt,omitempty"`
	Version       int       `json:"version"`
	Header        Header    `json:"header"`
	Sections      []Section `json:"sections"`
	Recipient     Recipient `json:"recipient"`
	RejectionNote string    `json:"rejectionNote,omitempty"`
	Theme         Theme     `json:"theme,omitempty"`
}

// Header is the letterhead and letter metadata block.
type Header struct {
	OrganizationName string    `json:"organizationName" validate:"notblank"`
	AddressLines     []string  `json:"addressLines,omitempty"`
	ContactLine      string    `json:"contactLine,omitempty"`
	LeftEmblem       *Image    `json:"leftEmblem,omitempty"`
	RightEmblem      *Image    `json:"rightEmblem,omitempty"`
	LetterNumber     string    `json:"letterNumber" validate:"notblank"`
	Reference        string    `json:"reference,omitempty"`
	Subject          string    `json:"subject" validate:"notblank"`
	Date             time.Time `json:"date" validate:"required"`
	Place            string    `json:"place" validate:"notblank"`
}

// Recipient is the addressee of a letter. In batch mode it is the
// RecipientRecord bound into each resolved document.
type Recipient struct {
	Name  string `json:"name"`
	Title string `json:"title,omitempty"`
	Place string `json:"place,omitempty"`
}

// IsZero reports whether no field is set.
func (r Recipient) IsZero() bool {
	return r.Name == "" && r.Title == "" && r.Place == ""
}

// Image is an opaque encoded picture (PNG or JPEG). The core never fetches images.
type Image struct {
	Name     string `json:"name,omitempty"`
	MIMEType string `json:"mimeType,omitempty"`
	Data     []byte `json:"data"`
}

// Section is one typed block of the document. Only the payload matching
// Kind is read; the others stay empty.
type Section struct {
	Kind  SectionKind `json:"kind"`
	Title string      `json:"title,omitempty"`

	Text        string       `json:"text,omitempty"`        // cover, text
	Points      []string     `json:"points,omitempty"`      // points
	Budget      []BudgetItem `json:"budget,omitempty"`      // budget
	Photos      []Photo      `json:"photos,omitempty"`      // photos
	Signatories []Signatory  `json:"signatories,omitempty"` // signatures
	Tiers       []Tier       `json:"tiers,omitempty"`       // structure
	Recipients  []Recipient  `json:"recipients,omitempty"`  // distribution
}

// Len returns the number of items in a collection section, or 0.
func (s *Section) Len() int {
	switch s.Kind {
	case SectionBudget:
		return len(s.Budget)
	case SectionPhotos:
		return len(s.Photos)
	case SectionDistribution:
		return len(s.Recipients)
	}
	return 0
}

// Photo is one entry of a photo collection.
type Photo struct {
	Image   Image  `json:"image"`
	Caption string `json:"caption,omitempty"`
}

// Signatory is a named signer with a role label.
type Signatory struct {
	Role string `json:"role"`
	Name string `json:"name"`
}

// Tier is a named structural group on the organization structure page.
type Tier struct {
	Name    string      `json:"name"`
	Members []Signatory `json:"members"`
}

// Theme holds the document colors. Zero values mean renderer defaults.
type Theme struct {
	Primary Color `json:"primary,omitempty"`
	Text    Color `json:"text,omitempty"`
	Accent  Color `json:"accent,omitempty"`
}

// =============================================================================
// Mutators
// =============================================================================

// New creates an empty DRAFT document of the given kind.
func New(kind Kind, ownerID string, now time.Time) *Document {
	return &Document{
		Kind:      kind,
		Status:    StatusDraft,
		OwnerID:   ownerID,
		CreatedAt: now,
		Version:   1,
	}
}

// SetStatus moves the document to s, attaching note only for REJECTED.
// Leaving REJECTED always clears the rejection note.
func (d *Document) SetStatus(s Status, note string) {
	d.Status = s
	if s == StatusRejected {
		d.RejectionNote = strings.TrimSpace(note)
		return
	}
	d.RejectionNote = ""
}

// Touch marks a content mutation.
func (d *Document) Touch(now time.Time) {
	d.UpdatedAt = now
	d.Version++
}

// AddSection appends s and returns its index.
func (d *Document) AddSection(s Section) int {
	d.Sections = append(d.Sections, s)
	return len(d.Sections) - 1
}

// SectionsOf returns the indexes of sections of kind k in reading order.
func (d *Document) SectionsOf(k SectionKind) []int {
	var idx []int
	for i := range d.Sections {
		if d.Sections[i].Kind == k {
			idx = append(idx, i)
		}
	}
	return idx
}

// AddBudgetItem appends an item to the budget section at index.
func (d *Document) AddBudgetItem(index int, item BudgetItem) error {
	s, err := d.section(index, SectionBudget)
	if err != nil {
		return err
	}
	s.Budget = append(s.Budget, item)
	return nil
}

// AddPhoto appends a photo to the photo section at index, truncating the caption.
func (d *Document) AddPhoto(index int, img Image, caption string, maxCaption int) error {
	s, err := d.section(index, SectionPhotos)
	if err != nil {
		return err
	}
	s.Photos = append(s.Photos, Photo{Image: img, Caption: TruncateCaption(caption, maxCaption)})
	return nil
}

func (d *Document) section(index int, want SectionKind) (*Section, error) {
	if index < 0 || index >= len(d.Sections) {
		return nil, errors.New(errors.ErrCodeInvalidInput, "section %d out of range", index)
	}
	s := &d.Sections[index]
	if s.Kind != want {
		return nil, errors.New(errors.ErrCodeInvalidInput, "section %d is %s, not %s", index, s.Kind, want)
	}
	return s, nil
}

// Normalize applies the truncation policies in place. A maxCaption of 0
// uses [DefaultMaxCaptionRunes].
func (d *Document) Normalize(maxCaption int) {
	for i := range d.Sections {
		for j := range d.Sections[i].Photos {
			p := &d.Sections[i].Photos[j]
			p.Caption = TruncateCaption(p.Caption, maxCaption)
		}
	}
	if d.Status != StatusRejected {
		d.RejectionNote = ""
	}
}

// TruncateCaption cuts s to at most max runes.
func TruncateCaption(s string, max int) string {
	if max <= 0 {
		max = DefaultMaxCaptionRunes
	}
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:max]))
}

// BudgetGrandTotal sums every line total across all budget sections.
func (d *Document) BudgetGrandTotal() Money {
	total := Zero
	for i := range d.Sections {
		if d.Sections[i].Kind == SectionBudget {
			total = total.Add(SumTotals(d.Sections[i].Budget))
		}
	}
	return total
}

// =============================================================================
// Serialization
// =============================================================================

// Marshal encodes the document as the canonical JSON blob stored by the
// document store.
func Marshal(d *Document) ([]byte, error) {
	return json.Marshal(d)
}

// Unmarshal decodes a JSON blob, validating colors and applying the
// caption policy. Budget totals are recomputed from their inputs.
func Unmarshal(data []byte, maxCaption int) (*Document, error) {
	var d Document
	if err := json.Unmarshal(data, &d); err != nil {
		var e *errors.Error
		if stderrors.As(err, &e) {
			return nil, e
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "decode document")
	}
	if d.Kind != "" && !d.Kind.Valid() {
		return nil, errors.New(errors.ErrCodeInvalidInput, "unknown document kind %q", d.Kind)
	}
	if d.Status == "" {
		d.Status = StatusDraft
	}
	if !d.Status.Valid() {
		return nil, errors.New(errors.ErrCodeInvalidInput, "unknown document status %q", d.Status)
	}
	for i, s := range d.Sections {
		if !s.Kind.Valid() {
			return nil, errors.New(errors.ErrCodeInvalidInput, "section %d has unknown kind %q", i, s.Kind)
		}
	}
	d.Normalize(maxCaption)
	return &d, nil
}

// FileStem returns a file-name-safe stem derived from the subject.
func (d *Document) FileStem() string {
	stem := strings.Trim(Sanitize(d.Header.Subject), "_")
	if stem == "" {
		stem = strings.ToLower(string(d.Kind))
	}
	if stem == "" {
		stem = "document"
	}
	return stem
}

// Sanitize replaces every rune outside [A-Za-z0-9] with '_', guaranteeing a
// value that is safe inside a file name.
func Sanitize(s string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(s) {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

// String implements fmt.Stringer for logs.
func (d *Document) String() string {
	return fmt.Sprintf("%s %s (%s)", d.Kind, d.ID, d.Status)
}
