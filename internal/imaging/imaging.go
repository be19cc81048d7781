// Package imaging normalizes uploaded pictures into small WebP files.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/chai2010/webp"
	"github.com/gabriel-vasile/mimetype"
	"golang.org/x/image/draw"
)

const (
	DefaultMaxSide = 512
	ContentType    = "image/webp"
	MaxUploadBytes = 8 << 20
)

var (
	ErrUnsupported = errors.New("imaging: unsupported image type")
	ErrTooLarge    = errors.New("imaging: image too large")
)

var accepted = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

// Detect returns the sniffed MIME type when it is an accepted image.
func Detect(data []byte) (string, error) {
	mt := mimetype.Detect(data)
	for _, a := range accepted {
		if mt.Is(a) {
			return a, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupported, mt.String())
}

// ToWebP decodes data, shrinks it so the longest side is at most maxSide
// and re-encodes it as lossy WebP.
func ToWebP(data []byte, maxSide int) ([]byte, error) {
	if len(data) > MaxUploadBytes {
		return nil, ErrTooLarge
	}
	if _, err := Detect(data); err != nil {
		return nil, err
	}
	if maxSide <= 0 {
		maxSide = DefaultMaxSide
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("imaging: decode: %w", err)
	}

	img := Fit(src, maxSide)

	var buf bytes.Buffer
	if err := webp.Encode(&buf, img, &webp.Options{Quality: 80}); err != nil {
		return nil, fmt.Errorf("imaging: encode webp: %w", err)
	}
	return buf.Bytes(), nil
}

// Fit scales src down preserving aspect ratio; smaller images are returned as-is.
func Fit(src image.Image, maxSide int) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxSide && h <= maxSide {
		return src
	}

	nw, nh := maxSide, maxSide
	if w >= h {
		nh = max(1, h*maxSide/w)
	} else {
		nw = max(1, w*maxSide/h)
	}

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	return dst
}
