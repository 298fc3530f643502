package floorplan

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

// testPlan builds a small two-tone image: the left half white, the right
// half black, so crops can be told apart by pixel color.
func testPlan(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.RGBA{0xff, 0xff, 0xff, 0xff}
			if x >= w/2 {
				c = color.RGBA{0x00, 0x00, 0x00, 0xff}
			}
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

// TestDecodePNG verifies PNG uploads decode with correct dimensions.
func TestDecodePNG(t *testing.T) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, testPlan(40, 30)); err != nil {
		t.Fatalf("encoding fixture: %v", err)
	}

	img, w, h, err := Decode(buf.Bytes())
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if img == nil || w != 40 || h != 30 {
		t.Errorf("expected 40x30 image, got %dx%d", w, h)
	}
}

// TestDecodeJPEG verifies the JPEG decoder is registered.
func TestDecodeJPEG(t *testing.T) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, testPlan(20, 10), nil); err != nil {
		t.Fatalf("encoding fixture: %v", err)
	}

	_, w, h, err := Decode(buf.Bytes())
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if w != 20 || h != 10 {
		t.Errorf("expected 20x10 image, got %dx%d", w, h)
	}
}

// TestDecodeGarbage verifies non-image bytes fail cleanly.
func TestDecodeGarbage(t *testing.T) {
	if _, _, _, err := Decode([]byte("not an image")); err == nil {
		t.Fatal("expected an error for undecodable bytes")
	}
}

// TestCrop verifies the crop has its own origin, the right size, and the
// right pixels.
func TestCrop(t *testing.T) {
	plan := testPlan(100, 50)

	// Crop entirely inside the black right half.
	crop := Crop(plan, image.Rect(60, 10, 90, 40))
	b := crop.Bounds()
	if b.Min.X != 0 || b.Min.Y != 0 {
		t.Errorf("crop origin should be (0,0), got %v", b.Min)
	}
	if b.Dx() != 30 || b.Dy() != 30 {
		t.Errorf("expected 30x30 crop, got %dx%d", b.Dx(), b.Dy())
	}
	r, g, bl, _ := crop.At(0, 0).RGBA()
	if r != 0 || g != 0 || bl != 0 {
		t.Errorf("expected black pixel at crop origin, got (%d,%d,%d)", r, g, bl)
	}
}

// TestCropClipsToBounds verifies an oversized rectangle is intersected with
// the image rather than producing out-of-range pixels.
func TestCropClipsToBounds(t *testing.T) {
	plan := testPlan(50, 50)
	crop := Crop(plan, image.Rect(40, 40, 200, 200))
	b := crop.Bounds()
	if b.Dx() != 10 || b.Dy() != 10 {
		t.Errorf("expected 10x10 clipped crop, got %dx%d", b.Dx(), b.Dy())
	}
}

// TestEncodePNGRoundTrip verifies a crop encodes to decodable PNG bytes.
func TestEncodePNGRoundTrip(t *testing.T) {
	crop := Crop(testPlan(16, 16), image.Rect(0, 0, 8, 8))

	data, err := EncodePNG(crop)
	if err != nil {
		t.Fatalf("EncodePNG failed: %v", err)
	}
	decoded, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("encoded PNG does not decode: %v", err)
	}
	if decoded.Bounds().Dx() != 8 {
		t.Errorf("round trip changed dimensions: %v", decoded.Bounds())
	}
}
