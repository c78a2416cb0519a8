package raster

import (
	"context"
	"fmt"
	"image"
	"strconv"

	"github.com/gen2brain/go-fitz"
	xdraw "golang.org/x/image/draw"

	"github.com/ivlev/svgmotion/internal/svg"
)

// Fitz renders documents through MuPDF. The document is serialized to XML,
// opened from memory and rendered at 72 DPI, then scaled to the target size.
type Fitz struct{}

// Rasterize implements Rasterizer.
func (f *Fitz) Rasterize(ctx context.Context, doc *svg.Element, width, height int) (image.Image, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid raster size %dx%d", width, height)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sized := *doc
	sized.Attrs = append([]svg.Attr(nil), doc.Attrs...)
	if _, ok := sized.Get("viewBox"); !ok {
		props := properties(doc)
		if ow, oh := attrLength(props, "width"), attrLength(props, "height"); ow > 0 && oh > 0 {
			sized.Set("viewBox", "0 0 "+svg.FormatNumber(ow)+" "+svg.FormatNumber(oh))
		}
	}
	sized.Set("width", strconv.Itoa(width)).Set("height", strconv.Itoa(height))
	if _, ok := sized.Get("xmlns"); !ok {
		sized.Set("xmlns", svg.Namespace)
	}
	data, err := svg.Marshal(&sized)
	if err != nil {
		return nil, err
	}

	d, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("mupdf open: %w", err)
	}
	defer d.Close()

	img, err := d.ImageDPI(0, 72)
	if err != nil {
		return nil, fmt.Errorf("mupdf render: %w", err)
	}
	if img.Bounds().Dx() == width && img.Bounds().Dy() == height {
		return img, nil
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), xdraw.Src, nil)
	return dst, nil
}
