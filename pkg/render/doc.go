// Package render turns paginated document content into page images.
//
// # Overview
//
// A [Backend] draws either one discrete page ([Backend.RenderPage]) or the
// whole document as one continuous image ([Backend.RenderFlow]). The
// assemble package decides which strategy a document kind uses and places
// the resulting images onto physical pages.
//
// This package holds what every backend shares:
//
//   - [Palette] normalizes document colors to opaque 8-bit sRGB
//   - [WithTimeout] bounds a render call with its own deadline
//   - [CheckImage] rejects empty or undersized backend output
//   - [OverflowPolicy] decides what a fixed page does with content that does not fit
//
// The raster backend lives in the [raster] subpackage and the organization
// chart used by structure pages in [orgchart].
//
//	backend := render.WithTimeout(raster.New(raster.Options{}), 30*time.Second)
//	img, err := backend.RenderPage(ctx, doc, page, geometry)
//
// # Errors
//
// Backend failures are render errors ([errors.CategoryRender]). A timeout
// carries [errors.ErrCodeRenderTimeout] and is never retried here; the
// caller re-triggers the export.
//
// [raster]: github.com/suratkita/suratkita/pkg/render/raster
// [orgchart]: github.com/suratkita/suratkita/pkg/render/orgchart
package render
