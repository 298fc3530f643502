package geometry

import (
	"testing"
)

// TestNormalizeRescale verifies the canonical rescale case: a 1000x800 plan
// with a [100,100,400,400] normalized box and no expansion.
func TestNormalizeRescale(t *testing.T) {
	raw := `[{"label": "Living Room", "box_2d": [100, 100, 400, 400], "dimensions": "5m x 4m"}]`

	boxes, err := Normalize(raw, 1000, 800, 0)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if len(boxes) != 1 {
		t.Fatalf("expected 1 box, got %d", len(boxes))
	}

	b := boxes[0]
	if b.X0 != 100 || b.Y0 != 80 || b.X1 != 400 || b.Y1 != 320 {
		t.Errorf("expected (100,80)-(400,320), got (%d,%d)-(%d,%d)", b.X0, b.Y0, b.X1, b.Y1)
	}
	if b.Label != "Living Room" {
		t.Errorf("expected label Living Room, got %q", b.Label)
	}
	if b.Dimensions != "5m x 4m" {
		t.Errorf("expected dimensions 5m x 4m, got %q", b.Dimensions)
	}
	if b.Width() != 300 || b.Height() != 240 {
		t.Errorf("expected 300x240, got %dx%d", b.Width(), b.Height())
	}
}

// TestNormalizeExpansion verifies symmetric expansion distributes half the
// growth to each side.
func TestNormalizeExpansion(t *testing.T) {
	// 100px wide and tall at scale; 10% expansion adds 5px per side.
	raw := `[{"label": "Bath", "box_2d": [100, 100, 200, 200]}]`

	boxes, err := Normalize(raw, 1000, 1000, 10)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if len(boxes) != 1 {
		t.Fatalf("expected 1 box, got %d", len(boxes))
	}

	b := boxes[0]
	if b.X0 != 95 || b.Y0 != 95 || b.X1 != 205 || b.Y1 != 205 {
		t.Errorf("expected (95,95)-(205,205), got (%d,%d)-(%d,%d)", b.X0, b.Y0, b.X1, b.Y1)
	}
}

// TestNormalizeClamping verifies expanded boxes are clamped to the image
// bounds rather than rejected.
func TestNormalizeClamping(t *testing.T) {
	// Box touches all four edges; expansion would push it outside.
	raw := `[{"label": "Garage", "box_2d": [0, 0, 1000, 1000]}]`

	boxes, err := Normalize(raw, 640, 480, 20)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if len(boxes) != 1 {
		t.Fatalf("expected 1 box, got %d", len(boxes))
	}

	b := boxes[0]
	if b.X0 != 0 || b.Y0 != 0 || b.X1 != 640 || b.Y1 != 480 {
		t.Errorf("expected full-image box (0,0)-(640,480), got (%d,%d)-(%d,%d)", b.X0, b.Y0, b.X1, b.Y1)
	}
}

// TestNormalizeSkipsDegenerate verifies zero-area and inverted rectangles
// are dropped without aborting the batch.
func TestNormalizeSkipsDegenerate(t *testing.T) {
	raw := `[
		{"label": "Point", "box_2d": [500, 500, 500, 500]},
		{"label": "Inverted", "box_2d": [400, 400, 100, 100]},
		{"label": "Hallway", "box_2d": [0, 0, 100, 100]}
	]`

	boxes, err := Normalize(raw, 1000, 1000, 0)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if len(boxes) != 1 {
		t.Fatalf("expected 1 surviving box, got %d", len(boxes))
	}
	if boxes[0].Label != "Hallway" {
		t.Errorf("wrong survivor: %q", boxes[0].Label)
	}
}

// TestNormalizeDegeneracyBeforeExpansion verifies that expansion cannot
// rescue a degenerate rectangle.
func TestNormalizeDegeneracyBeforeExpansion(t *testing.T) {
	raw := `[{"label": "Sliver", "box_2d": [200, 300, 200, 300]}]`

	boxes, err := Normalize(raw, 1000, 1000, 50)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if len(boxes) != 0 {
		t.Fatalf("degenerate box survived expansion: %v", boxes)
	}
}

// TestNormalizeSkipsMalformedEntries verifies a broken entry does not take
// its siblings down with it.
func TestNormalizeSkipsMalformedEntries(t *testing.T) {
	raw := `[
		{"label": "NoBox"},
		{"label": "ShortBox", "box_2d": [1, 2, 3]},
		{"label": 42, "box_2d": [0, 0, 100, 100]},
		{"label": "Kitchen", "box_2d": [0, 0, 500, 500]}
	]`

	boxes, err := Normalize(raw, 100, 100, 0)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if len(boxes) != 1 {
		t.Fatalf("expected 1 box, got %d", len(boxes))
	}
	if boxes[0].Label != "Kitchen" {
		t.Errorf("wrong survivor: %q", boxes[0].Label)
	}
}

// TestNormalizeFencedPayload verifies markdown-fenced model output parses.
func TestNormalizeFencedPayload(t *testing.T) {
	raw := "Here are the rooms:\n```json\n" +
		`[{"label": "Bedroom", "box_2d": [100, 100, 300, 300], "dimensions": "4m x 3m"}]` +
		"\n```\nLet me know if you need more."

	boxes, err := Normalize(raw, 1000, 1000, 0)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if len(boxes) != 1 || boxes[0].Label != "Bedroom" {
		t.Fatalf("fenced payload not parsed: %v", boxes)
	}
}

// TestNormalizeUnparseable verifies garbage input yields no boxes and an
// advisory error rather than a panic or partial result.
func TestNormalizeUnparseable(t *testing.T) {
	boxes, err := Normalize("I could not find any rooms, sorry!", 1000, 1000, 0)
	if err == nil {
		t.Fatal("expected an error for unparseable payload")
	}
	if len(boxes) != 0 {
		t.Fatalf("expected no boxes, got %v", boxes)
	}
}

// TestNormalizeDefaults verifies missing label and dimensions fall back to
// placeholder values.
func TestNormalizeDefaults(t *testing.T) {
	raw := `[{"box_2d": [0, 0, 200, 200]}]`

	boxes, err := Normalize(raw, 500, 500, 0)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if len(boxes) != 1 {
		t.Fatalf("expected 1 box, got %d", len(boxes))
	}
	if boxes[0].Label != "Unknown" {
		t.Errorf("expected Unknown label, got %q", boxes[0].Label)
	}
	if boxes[0].Dimensions != "unknown" {
		t.Errorf("expected unknown dimensions, got %q", boxes[0].Dimensions)
	}
}

// TestNormalizeOrderPreserved verifies boxes come back in input order.
func TestNormalizeOrderPreserved(t *testing.T) {
	raw := `[
		{"label": "A", "box_2d": [0, 0, 100, 100]},
		{"label": "B", "box_2d": [200, 200, 300, 300]},
		{"label": "C", "box_2d": [400, 400, 500, 500]}
	]`

	boxes, err := Normalize(raw, 1000, 1000, 0)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	want := []string{"A", "B", "C"}
	if len(boxes) != len(want) {
		t.Fatalf("expected %d boxes, got %d", len(want), len(boxes))
	}
	for i, w := range want {
		if boxes[i].Label != w {
			t.Errorf("position %d: expected %q, got %q", i, w, boxes[i].Label)
		}
	}
}
