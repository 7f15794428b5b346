// Package render implements the document rendering seam with go-fitz
// (MuPDF bindings).
package render

import (
	"context"
	"fmt"
	"image"

	"github.com/gen2brain/go-fitz"

	"secure-library/internal/domain"
	apperrors "secure-library/pkg/errors"
)

// baseDPI corresponds to scale 1.0. PDF user space is 72 units per inch,
// so rendering at 72 DPI yields one pixel per point.
const baseDPI = 72

// FitzOpener opens decrypted PDF bytes with MuPDF.
type FitzOpener struct {
	logger domain.Logger
}

// NewFitzOpener creates a fitz-backed document opener
func NewFitzOpener(logger domain.Logger) *FitzOpener {
	return &FitzOpener{logger: logger}
}

// Open parses the document from memory. A plaintext that decrypted fine
// but is not a readable PDF fails here with a render error.
func (o *FitzOpener) Open(data []byte) (domain.RenderedDocument, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, apperrors.NewRenderError("failed to open document", err)
	}
	o.logger.Debug("Document opened", "pages", doc.NumPage())
	return &fitzDocument{doc: doc}, nil
}

type fitzDocument struct {
	doc *fitz.Document
}

func (d *fitzDocument) PageCount() int {
	return d.doc.NumPage()
}

// RenderPage rasterizes one page. pageNum is 1-indexed; scale 1.0 means
// 72 DPI. MuPDF render calls are synchronous, so the context is checked
// up front rather than threaded through.
func (d *fitzDocument) RenderPage(ctx context.Context, pageNum int, scale float64) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if pageNum < 1 || pageNum > d.doc.NumPage() {
		return nil, apperrors.NewRenderError(
			fmt.Sprintf("page %d out of range [1,%d]", pageNum, d.doc.NumPage()), nil)
	}

	img, err := d.doc.ImageDPI(pageNum-1, baseDPI*scale)
	if err != nil {
		return nil, apperrors.NewRenderError(fmt.Sprintf("failed to render page %d", pageNum), err)
	}
	return img, nil
}

func (d *fitzDocument) Close() error {
	return d.doc.Close()
}
