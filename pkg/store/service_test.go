package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suratkita/suratkita/pkg/document"
	"github.com/suratkita/suratkita/pkg/errors"
	"github.com/suratkita/suratkita/pkg/lifecycle"
	"github.com/suratkita/suratkita/pkg/store"
	"github.com/suratkita/suratkita/pkg/store/memory"
)

var (
	author   = lifecycle.Actor{ID: "u-author", Role: lifecycle.RoleAuthor}
	other    = lifecycle.Actor{ID: "u-other", Role: lifecycle.RoleAuthor}
	reviewer = lifecycle.Actor{ID: "u-rev", Role: lifecycle.RoleReviewer}
	admin    = lifecycle.Actor{ID: "u-admin", Role: lifecycle.RoleOwnerAdmin}
	member   = lifecycle.Actor{ID: "u-member", Role: lifecycle.RoleMember}
)

func letter() *document.Document {
	d := document.New(document.KindGenericLetter, "", time.Time{})
	d.Header = document.Header{
		OrganizationName: "Karang Taruna Tunas Muda",
		LetterNumber:     "001/KT/III/2026",
		Subject:          "Pemberitahuan Kerja Bakti",
		Date:             time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		Place:            "Bandung",
	}
	d.Recipient = document.Recipient{Name: "Warga RW 05"}
	d.AddSection(document.Section{Kind: document.SectionText, Text: "Dengan hormat"})
	return d
}

func setupService(t *testing.T) (*store.Service, *memory.Store) {
	t.Helper()
	mem := memory.New()
	svc := store.NewService(mem, nil)
	svc.Machine = lifecycle.Machine{Now: func() time.Time { return time.Unix(100, 0) }}
	return svc, mem
}

func TestServiceCreate(t *testing.T) {
	ctx := context.Background()
	svc, mem := setupService(t)

	doc, err := svc.Create(ctx, letter(), author)
	require.NoError(t, err)
	assert.NotEmpty(t, doc.ID)
	assert.Equal(t, author.ID, doc.OwnerID)
	assert.Equal(t, document.StatusDraft, doc.Status)

	rec, err := mem.Get(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "Pemberitahuan Kerja Bakti", rec.Perihal)
	assert.Equal(t, "Warga RW 05", rec.Tujuan)
	assert.Equal(t, document.KindGenericLetter, rec.Jenis)

	_, err = svc.Create(ctx, letter(), member)
	assert.True(t, errors.IsCategory(err, errors.CategoryPermission))
}

func TestServiceLifecycle(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)
	doc, err := svc.Create(ctx, letter(), author)
	require.NoError(t, err)

	_, err = svc.Approve(ctx, doc.ID, reviewer)
	assert.True(t, errors.Is(err, errors.ErrCodeInvalidTransition), "approve a draft")

	_, err = svc.Submit(ctx, doc.ID, author)
	require.NoError(t, err)

	_, err = svc.Reject(ctx, doc.ID, reviewer, "   ")
	assert.True(t, errors.Is(err, errors.ErrCodeBlankNote))

	_, err = svc.Approve(ctx, doc.ID, author)
	assert.True(t, errors.IsCategory(err, errors.CategoryPermission))

	tr, err := svc.Reject(ctx, doc.ID, reviewer, "tanggal salah")
	require.NoError(t, err)
	assert.Equal(t, document.StatusSubmitted, tr.From)

	got, err := svc.Load(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, document.StatusRejected, got.Status)
	assert.Equal(t, "tanggal salah", got.RejectionNote)

	_, err = svc.Submit(ctx, doc.ID, author)
	require.NoError(t, err)
	got, _ = svc.Load(ctx, doc.ID)
	assert.Empty(t, got.RejectionNote, "resubmission clears the note")

	_, err = svc.Approve(ctx, doc.ID, reviewer)
	require.NoError(t, err)
	got, _ = svc.Load(ctx, doc.ID)
	assert.Equal(t, document.StatusApproved, got.Status)
}

func TestServiceSubmitIncomplete(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)
	d := letter()
	d.Header.Subject = " "
	doc, err := svc.Create(ctx, d, author)
	require.NoError(t, err)

	_, err = svc.Submit(ctx, doc.ID, author)
	assert.True(t, errors.Is(err, errors.ErrCodeMissingField))
	assert.Contains(t, document.MissingFields(err), "subject")
}

func TestServiceUpdate(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)
	doc, err := svc.Create(ctx, letter(), author)
	require.NoError(t, err)

	doc.Header.Subject = "Kerja Bakti Minggu"
	doc.Status = document.StatusApproved
	upd, err := svc.Update(ctx, doc, author)
	require.NoError(t, err)
	assert.Equal(t, document.StatusDraft, upd.Status, "update cannot change status")
	assert.Equal(t, 2, upd.Version)

	upd.Header.Subject = "Kerja Bakti Sabtu"
	again, err := svc.Update(ctx, upd, author)
	require.NoError(t, err)
	assert.Equal(t, 3, again.Version, "each edit bumps the version once")

	_, err = svc.Update(ctx, doc, other)
	assert.True(t, errors.IsCategory(err, errors.CategoryPermission), "non-owner edit")

	_, err = svc.Submit(ctx, doc.ID, author)
	require.NoError(t, err)
	_, err = svc.Update(ctx, doc, author)
	assert.True(t, errors.IsCategory(err, errors.CategoryPermission), "submitted is locked")
}

func TestServiceDelete(t *testing.T) {
	ctx := context.Background()
	svc, _ := setupService(t)
	doc, err := svc.Create(ctx, letter(), author)
	require.NoError(t, err)
	_, err = svc.Submit(ctx, doc.ID, author)
	require.NoError(t, err)
	_, err = svc.Approve(ctx, doc.ID, reviewer)
	require.NoError(t, err)

	err = svc.Delete(ctx, doc.ID, author)
	assert.True(t, errors.IsCategory(err, errors.CategoryPermission), "delete approved by non-admin")

	require.NoError(t, svc.Delete(ctx, doc.ID, admin))
	_, err = svc.Load(ctx, doc.ID)
	assert.True(t, errors.Is(err, errors.ErrCodeNotFound))
}

func TestRecordRoundTrip(t *testing.T) {
	d := letter()
	d.ID = "doc-9"
	d.OwnerID = "u1"
	d.SetStatus(document.StatusRejected, "kurang stempel")

	rec, err := store.FromDocument(d)
	require.NoError(t, err)
	assert.Equal(t, "kurang stempel", rec.Catatan)

	rec.Status = document.StatusSubmitted
	rec.Catatan = ""
	back, err := rec.Document(0)
	require.NoError(t, err)
	assert.Equal(t, document.StatusSubmitted, back.Status, "record columns win over the blob")
	assert.Empty(t, back.RejectionNote)
	assert.Equal(t, "doc-9", back.ID)

	_, err = (&store.Record{ID: "x"}).Document(0)
	assert.Error(t, err)
}
