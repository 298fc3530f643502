// Package floorplan holds the image primitives the pipeline needs: decoding
// an uploaded plan, cropping the isolated per-room sub-images, and encoding
// crops back to PNG for the generation calls.
package floorplan

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/png"

	_ "image/gif"  // register decoder
	_ "image/jpeg" // register decoder
)

// Decode parses uploaded plan bytes into an image plus its pixel dimensions.
func Decode(data []byte) (image.Image, int, int, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, 0, 0, fmt.Errorf("undecodable plan image: %w", err)
	}
	b := img.Bounds()
	return img, b.Dx(), b.Dy(), nil
}

// Crop copies the given rectangle out of img into a freshly allocated image,
// so the crop is owned exclusively by its caller and shares no pixels with
// the source plan.
func Crop(img image.Image, r image.Rectangle) image.Image {
	r = r.Intersect(img.Bounds())
	out := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	draw.Draw(out, out.Bounds(), img, r.Min, draw.Src)
	return out
}

// EncodePNG renders img to PNG bytes.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("png encode failed: %w", err)
	}
	return buf.Bytes(), nil
}
