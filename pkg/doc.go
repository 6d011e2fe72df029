// Package pkg provides the libraries behind suratkita, the letter composer
// of a community organization portal.
//
// # Overview
//
// Suratkita turns a structured letter (an invitation, a proposal, a
// financial report or a general letter) into a print-ready PDF, and
// mail-merges one letter over a spreadsheet of recipients. The pkg
// directory is organized into four areas:
//
//  1. Model: [document] (the letter and its sections), [lifecycle] (review
//     workflow and permissions)
//  2. Layout: [paginate] (page descriptors per kind), [render] (page images),
//     [assemble] (images onto PDF pages)
//  3. Orchestration: [pipeline] (load, gate, render, cache), [merge] (mail
//     merge and archive)
//  4. Infrastructure: [store], [cache], [sheet], [config], [errors],
//     [observability], [buildinfo]
//
// # Architecture
//
// The typical data flow of an export:
//
//	store.Record (konten JSON)
//	         ↓
//	    [document] Document
//	         ↓
//	    [lifecycle] CanExport (stored status)
//	         ↓
//	    [paginate] page descriptors
//	         ↓
//	    [render/raster] page images
//	         ↓
//	    [assemble] PDF
//
// # Quick Start
//
//	cfg, _ := config.Load("suratkita.toml")
//	runner := pipeline.NewRunner(cfg, memory.New(), nil, nil, logger)
//	art, err := runner.ExportDocument(ctx, doc, lifecycle.Actor{ID: "u1", Role: lifecycle.RoleReviewer})
//	if err != nil {
//	    return err
//	}
//	os.WriteFile(art.FileName, art.Bytes, 0o644)
//
// Mail merge over a spreadsheet:
//
//	recipients, _ := sheet.Import(ctx, f)
//	res, _ := runner.BatchDocument(ctx, doc, actor, recipients, pipeline.BatchOptions{})
//	os.WriteFile("surat.zip", res.Archive, 0o644)
//
// [document]: github.com/suratkita/suratkita/pkg/document
// [lifecycle]: github.com/suratkita/suratkita/pkg/lifecycle
// [paginate]: github.com/suratkita/suratkita/pkg/paginate
// [render]: github.com/suratkita/suratkita/pkg/render
// [render/raster]: github.com/suratkita/suratkita/pkg/render/raster
// [assemble]: github.com/suratkita/suratkita/pkg/assemble
// [pipeline]: github.com/suratkita/suratkita/pkg/pipeline
// [merge]: github.com/suratkita/suratkita/pkg/merge
// [store]: github.com/suratkita/suratkita/pkg/store
// [cache]: github.com/suratkita/suratkita/pkg/cache
// [sheet]: github.com/suratkita/suratkita/pkg/sheet
// [config]: github.com/suratkita/suratkita/pkg/config
// [errors]: github.com/suratkita/suratkita/pkg/errors
// [observability]: github.com/suratkita/suratkita/pkg/observability
// [buildinfo]: github.com/suratkita/suratkita/pkg/buildinfo
package pkg
