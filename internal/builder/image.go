package builder

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"

	"github.com/fumiama/imgsz"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

// EMUPerInch is the number of English Metric Units in one inch.
const EMUPerInch = 914400

// emuPerPixel assumes 96 DPI for images without a width hint.
const emuPerPixel = EMUPerInch / 96

var ErrUnsupportedImage = errors.New("unsupported image format")

// loadImage reads an image file and returns bytes go-docx can embed along
// with the pixel dimensions. Formats the package cannot carry directly
// (BMP, TIFF) are transcoded to PNG.
func loadImage(path string) ([]byte, imgsz.Size, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, imgsz.Size{}, fmt.Errorf("read image: %w", err)
	}
	return prepareImage(data)
}

func prepareImage(data []byte) ([]byte, imgsz.Size, error) {
	sz, _, err := imgsz.DecodeSize(bytes.NewReader(data))
	if err == nil {
		if sz.Width <= 0 || sz.Height <= 0 {
			return nil, imgsz.Size{}, fmt.Errorf("%w: empty image", ErrUnsupportedImage)
		}
		return data, sz, nil
	}
	if !errors.Is(err, imgsz.ErrFormat) {
		return nil, imgsz.Size{}, fmt.Errorf("decode image size: %w", err)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, imgsz.Size{}, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, imgsz.Size{}, fmt.Errorf("transcode %s to png: %w", format, err)
	}
	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, imgsz.Size{}, fmt.Errorf("%w: empty image", ErrUnsupportedImage)
	}
	return buf.Bytes(), imgsz.Size{Width: b.Dx(), Height: b.Dy()}, nil
}

// extent computes the drawing size in EMU. A positive width hint in inches
// fixes the width; otherwise the natural size at 96 DPI is used, capped to
// maxWidth. Height follows the aspect ratio.
func extent(sz imgsz.Size, widthInches float64, maxWidth int64) (int64, int64) {
	var w int64
	if widthInches > 0 {
		w = int64(widthInches * EMUPerInch)
	} else {
		w = int64(sz.Width) * emuPerPixel
		if maxWidth > 0 && w > maxWidth {
			w = maxWidth
		}
	}
	h := w * int64(sz.Height) / int64(sz.Width)
	return w, h
}
