package mosaic

import (
	"bytes"
	"fmt"
	"hash/fnv"
	"image"
	"image/draw"
)

// ImageID is an opaque content-derived image identity. Two loads of
// byte-identical content compare equal; different content compares
// unequal (modulo hash collision, which the cache tolerates the same way
// any content-addressed store does).
type ImageID uint64

// String formats the identity for logging.
func (id ImageID) String() string {
	return fmt.Sprintf("img-%016x", uint64(id))
}

// SourceImage is a decoded source frame: an RGBA raster plus its
// content identity and natural dimensions. SourceImages are immutable
// after construction; the pipeline reads but never writes the raster.
type SourceImage struct {
	id   ImageID
	rgba *image.RGBA
}

// DecodeImage decodes raw image bytes (any format registered with
// image.Decode) into a SourceImage. The identity is derived from the raw
// bytes, so re-decoding identical content yields an equal ID.
func DecodeImage(data []byte) (*SourceImage, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("mosaic: decode image: %w", err)
	}
	return &SourceImage{id: hashBytes(data), rgba: toRGBA(img)}, nil
}

// NewSourceImage wraps an already-decoded image. The identity is derived
// from the pixel content.
func NewSourceImage(img image.Image) *SourceImage {
	rgba := toRGBA(img)
	return &SourceImage{id: hashBytes(rgba.Pix), rgba: rgba}
}

// ID returns the content identity.
func (s *SourceImage) ID() ImageID { return s.id }

// RGBA returns the decoded raster. Callers must not modify it.
func (s *SourceImage) RGBA() *image.RGBA { return s.rgba }

// Size returns the natural pixel dimensions.
func (s *SourceImage) Size() (w, h int) {
	b := s.rgba.Bounds()
	return b.Dx(), b.Dy()
}

// hashBytes computes the FNV-1a content hash used for image identity.
func hashBytes(data []byte) ImageID {
	h := fnv.New64a()
	_, _ = h.Write(data) // fnv.Write never returns an error
	return ImageID(h.Sum64())
}

// toRGBA converts any image to RGBA with a zero-origin bounds, copying
// when the input is not already in that form.
func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Bounds().Min == image.Pt(0, 0) {
		return rgba
	}
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}
