// Package merge personalizes one base document for many recipients.
//
// [Resolve] is pure: it deep-copies the base and binds a recipient into the
// copy. The base document is never mutated, so a batch run leaves nothing to
// restore, whether it succeeds, fails part-way or is canceled.
//
// A [Driver] walks a recipient list in order, resolves and renders each
// entry, and collects the successes into a ZIP archive. One recipient's
// failure is recorded and the run continues with the next.
//
//	d := merge.Driver{Render: runner.RenderDocument, Logger: logger}
//	res, err := d.Run(ctx, base, recipients)
//	fmt.Println(res.Summary())
package merge

import (
	"fmt"
	"strings"

	"github.com/suratkita/suratkita/pkg/document"
)

// Resolve returns a deep copy of base addressed to rec.
func Resolve(base *document.Document, rec document.Recipient) *document.Document {
	doc := base.Clone()
	doc.Recipient = document.Recipient{
		Name:  strings.TrimSpace(rec.Name),
		Title: strings.TrimSpace(rec.Title),
		Place: strings.TrimSpace(rec.Place),
	}
	return doc
}

// DefaultArtifactStem is used when a recipient name has no usable characters.
const DefaultArtifactStem = "recipient"

// ArtifactName names the artifact of the index-th recipient (1-based):
// "{index}_{name}.{ext}" with every character outside [A-Za-z0-9] in the
// name replaced by '_'.
func ArtifactName(index int, name, ext string) string {
	stem := document.Sanitize(name)
	if strings.Trim(stem, "_") == "" {
		stem = DefaultArtifactStem
	}
	if ext == "" {
		return fmt.Sprintf("%d_%s", index, stem)
	}
	return fmt.Sprintf("%d_%s.%s", index, stem, strings.TrimPrefix(ext, "."))
}
