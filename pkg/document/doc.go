// Package document provides the typed, versioned model of an official letter.
//
// A [Document] is the unit of work for the whole core: the lifecycle package
// moves it between statuses, the paginate package splits its collections into
// pages, the merge package resolves it once per recipient, and the render
// package draws it.
//
// # Structure
//
//   - [Header]: letterhead (organization, address, emblems) and letter metadata
//     (number, reference, subject, date, place)
//   - [Section]: ordered, typed payloads. Reading order is the slice order.
//   - [Recipient]: the default addressee, replaced per item in batch mode
//
// Collection-bearing sections are [SectionBudget], [SectionPhotos] and
// [SectionDistribution]. All other kinds occupy exactly one page.
//
// # Invariants
//
//   - A [BudgetItem] has no stored total: [BudgetItem.Total] is always
//     Quantity × UnitPrice, and the serialized total is ignored on decode.
//   - RejectionNote is non-empty only while Status is [StatusRejected];
//     [Document.SetStatus] is the only writer.
//   - Photo captions longer than the configured limit are truncated, never rejected.
//   - [Color] holds only #RRGGBB or a palette name; anything else is rejected
//     when it enters the model.
//
// # Concurrency
//
// A Document is a plain value with slices; it is not safe for concurrent
// mutation. Use [Document.Clone] to hand an independent copy to another goroutine.
package document
