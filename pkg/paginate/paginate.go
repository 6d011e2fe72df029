// Package paginate splits a document's sections into fixed-size pages.
//
// Pagination is a pure function of the section order and the capacity
// policy: collection sections (budget rows, photos, distribution rows) are
// chunked into consecutive groups of at most Capacity items, and every other
// section occupies exactly one page.
//
//	pages, err := paginate.Paginate(doc, paginate.DefaultPolicy(doc.Kind))
//	for _, p := range pages {
//	    fmt.Println(p.SectionKind, p.ChunkIndex+1, "/", p.ChunkCount)
//	}
//
// Page numbers are not assigned here. The assembler numbers pages as it
// places them, see [PageDescriptor.PageIndex].
package paginate

import (
	"github.com/suratkita/suratkita/pkg/document"
	"github.com/suratkita/suratkita/pkg/errors"
)

// =============================================================================
// Default Values
// =============================================================================

const (
	// DefaultBudgetRows is the number of budget rows that fit one page.
	DefaultBudgetRows = 15

	// DefaultPhotos is the number of photos per page (a 2×2 grid).
	DefaultPhotos = 4

	// DefaultDistributionRows is the number of recipient rows per annex page.
	DefaultDistributionRows = 20

	// DefaultDPI is the raster resolution used when a geometry omits it.
	DefaultDPI = 150
)

// DefaultCapacity returns a fresh copy of the default capacity table.
func DefaultCapacity() map[document.SectionKind]int {
	return map[document.SectionKind]int{
		document.SectionBudget:       DefaultBudgetRows,
		document.SectionPhotos:       DefaultPhotos,
		document.SectionDistribution: DefaultDistributionRows,
	}
}

// =============================================================================
// Policy
// =============================================================================

// Policy is the per-kind layout policy: page geometry plus the maximum
// number of items per page for each collection section kind.
type Policy struct {
	Geometry Geometry
	Capacity map[document.SectionKind]int
}

// DefaultPolicy returns the default policy for a document kind.
func DefaultPolicy(kind document.Kind) Policy {
	return Policy{
		Geometry: DefaultGeometry(kind),
		Capacity: DefaultCapacity(),
	}
}

// CapacityOf returns the configured capacity for k, falling back to the
// default when k is not present in the table.
func (p Policy) CapacityOf(k document.SectionKind) int {
	if c, ok := p.Capacity[k]; ok {
		return c
	}
	return DefaultCapacity()[k]
}

// Validate checks the geometry and every collection capacity.
func (p Policy) Validate() error {
	if err := p.Geometry.Validate(); err != nil {
		return err
	}
	for k, c := range p.Capacity {
		if !k.IsCollection() {
			return errors.Validation("capacity set for non-collection section %q", k)
		}
		if c <= 0 {
			return errors.Validation("capacity for %s must be positive, got %d", k, c)
		}
	}
	return nil
}

// =============================================================================
// Page Descriptors
// =============================================================================

// PageDescriptor describes the content of one page.
type PageDescriptor struct {
	// SectionIndex is the index of the source section in Document.Sections.
	SectionIndex int
	SectionKind  document.SectionKind
	Title        string

	// ChunkIndex is 0-based; ChunkCount is the number of pages the section spans.
	ChunkIndex int
	ChunkCount int

	// Content is a copy of the source section carrying only this chunk's items.
	Content document.Section

	// ItemOffset is the position of the chunk's first item in the full collection.
	ItemOffset   int
	IsFinalChunk bool

	// PageIndex is the 1-based page number, zero until assembly.
	PageIndex int
}

// ItemCount returns the number of collection items on the page.
func (p PageDescriptor) ItemCount() int {
	return p.Content.Len()
}

// Paginate lays out doc under policy. The result order depends only on
// section order; no global page index is assigned.
func Paginate(doc *document.Document, policy Policy) ([]PageDescriptor, error) {
	if doc == nil {
		return nil, errors.Validation("document is nil")
	}
	if err := policy.Validate(); err != nil {
		return nil, err
	}

	var pages []PageDescriptor
	for i := range doc.Sections {
		s := &doc.Sections[i]
		if !s.Kind.IsCollection() {
			pages = append(pages, PageDescriptor{
				SectionIndex: i,
				SectionKind:  s.Kind,
				Title:        s.Title,
				ChunkCount:   1,
				Content:      cloneSection(s),
				IsFinalChunk: true,
			})
			continue
		}
		pages = append(pages, chunkSection(i, s, policy.CapacityOf(s.Kind))...)
	}
	return pages, nil
}

// Count returns the number of pages holding n items at capacity c:
// ceil(n/c), or 1 when n is zero. It returns 0 for a non-positive capacity.
func Count(n, capacity int) int {
	if capacity <= 0 {
		return 0
	}
	if n <= 0 {
		return 1
	}
	return (n + capacity - 1) / capacity
}

func chunkSection(index int, s *document.Section, capacity int) []PageDescriptor {
	n := s.Len()
	count := Count(n, capacity)
	pages := make([]PageDescriptor, 0, count)
	for c := 0; c < count; c++ {
		lo := c * capacity
		hi := min(lo+capacity, n)
		pages = append(pages, PageDescriptor{
			SectionIndex: index,
			SectionKind:  s.Kind,
			Title:        s.Title,
			ChunkIndex:   c,
			ChunkCount:   count,
			Content:      chunk(s, lo, hi),
			ItemOffset:   lo,
			IsFinalChunk: c == count-1,
		})
	}
	return pages
}

// chunk copies items [lo, hi) of a collection section.
func chunk(s *document.Section, lo, hi int) document.Section {
	out := document.Section{Kind: s.Kind, Title: s.Title}
	switch s.Kind {
	case document.SectionBudget:
		out.Budget = append([]document.BudgetItem{}, s.Budget[lo:hi]...)
	case document.SectionPhotos:
		out.Photos = append([]document.Photo{}, s.Photos[lo:hi]...)
	case document.SectionDistribution:
		out.Recipients = append([]document.Recipient{}, s.Recipients[lo:hi]...)
	}
	return out
}

func cloneSection(s *document.Section) document.Section {
	d := &document.Document{Sections: []document.Section{*s}}
	return d.Clone().Sections[0]
}
