package services

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	imagedraw "image/draw"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"

	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

var ErrUnsupportedImage = errors.New("unsupported image")

// LogoProcessor normalizes uploaded program logos
type LogoProcessor interface {
	// Normalize decodes data, downsizes it to fit the configured square and
	// re-encodes it as PNG
	Normalize(data []byte) ([]byte, error)
}

type LogoProcessorImpl struct {
	maxSide int
}

func NewLogoProcessor(maxSide int) LogoProcessor {
	if maxSide <= 0 {
		maxSide = 512
	}
	return &LogoProcessorImpl{maxSide: maxSide}
}

func (p *LogoProcessorImpl) Normalize(data []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}

	out := &bytes.Buffer{}
	if err := png.Encode(out, fitImage(img, p.maxSide)); err != nil {
		return nil, fmt.Errorf("failed to encode logo: %w", err)
	}
	return out.Bytes(), nil
}

// fitImage scales src down so that neither side exceeds maxSide, keeping
// transparency.
func fitImage(src image.Image, maxSide int) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxSide && h <= maxSide {
		return src
	}

	var nw, nh int
	if w >= h {
		nw = maxSide
		nh = max(1, int(float64(h)*float64(maxSide)/float64(w)))
	} else {
		nh = maxSide
		nw = max(1, int(float64(w)*float64(maxSide)/float64(h)))
	}

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	imagedraw.Draw(dst, dst.Bounds(), &image.Uniform{C: color.Transparent}, image.Point{}, imagedraw.Src)
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, b, xdraw.Over, nil)
	return dst
}
