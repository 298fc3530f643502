// Package geometry converts raw model detections into validated pixel-space
// room bounding boxes. The detection model reports boxes on a 0..1000
// normalized grid as [y0, x0, y1, x1]; this package rescales them to the
// plan image's dimensions, discards degenerate entries, applies an optional
// symmetric expansion to compensate for under-cropped walls, and clamps the
// result to the image bounds.
package geometry

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// Box is one normalized room rectangle in pixel space. X0 < X1 and Y0 < Y1
// always hold; (X1, Y1) is exclusive, so X1 may equal the image width.
type Box struct {
	X0, Y0, X1, Y1 int
	Label          string
	Dimensions     string
}

// Width returns the box width in pixels.
func (b Box) Width() int { return b.X1 - b.X0 }

// Height returns the box height in pixels.
func (b Box) Height() int { return b.Y1 - b.Y0 }

func (b Box) String() string {
	return fmt.Sprintf("%s (%d,%d)-(%d,%d)", b.Label, b.X0, b.Y0, b.X1, b.Y1)
}

// rawDetection mirrors one entry of the model's detection JSON.
type rawDetection struct {
	Label      string    `json:"label"`
	Box2D      []float64 `json:"box_2d"`
	Dimensions string    `json:"dimensions"`
}

// Normalize parses the model's raw detection output and returns validated
// boxes in pixel space, in input order.
//
// Individual entries that fail structural validation or rescale to a
// degenerate rectangle are skipped; they never abort the batch. If the
// top-level payload is unparseable even after fence stripping, Normalize
// returns an empty slice together with an advisory error — callers should
// log the warning and continue with zero rooms.
func Normalize(raw string, width, height, expandPercent int) ([]Box, error) {
	entries, err := parseDetectionJSON(raw)
	if err != nil {
		return nil, err
	}

	boxes := make([]Box, 0, len(entries))
	for _, entry := range entries {
		var det rawDetection
		if err := json.Unmarshal(entry, &det); err != nil {
			continue
		}
		if len(det.Box2D) != 4 {
			continue
		}

		// Model order is [y0, x0, y1, x1] on a 0..1000 grid.
		y0 := rescale(det.Box2D[0], height)
		x0 := rescale(det.Box2D[1], width)
		y1 := rescale(det.Box2D[2], height)
		x1 := rescale(det.Box2D[3], width)

		// Degeneracy is judged on the pre-expansion rectangle.
		if y0 >= y1 || x0 >= x1 {
			continue
		}

		if expandPercent > 0 {
			dx := float64(x1-x0) * float64(expandPercent) / 100 / 2
			dy := float64(y1-y0) * float64(expandPercent) / 100 / 2
			x0 = int(float64(x0) - dx)
			y0 = int(float64(y0) - dy)
			x1 = int(float64(x1) + dx)
			y1 = int(float64(y1) + dy)
		}

		boxes = append(boxes, Box{
			X0:         max(0, x0),
			Y0:         max(0, y0),
			X1:         min(width, x1),
			Y1:         min(height, y1),
			Label:      labelOrDefault(det.Label),
			Dimensions: dimensionsOrDefault(det.Dimensions),
		})
	}
	return boxes, nil
}

// rescale maps a 0..1000 normalized coordinate to pixel space.
func rescale(normalized float64, dimension int) int {
	return int(math.Round(normalized / 1000 * float64(dimension)))
}

// parseDetectionJSON splits the payload into per-entry raw messages so a
// malformed entry can be skipped without losing its siblings. Models often
// wrap their JSON in prose or a markdown code fence; the fenced content is
// extracted before parsing.
func parseDetectionJSON(raw string) ([]json.RawMessage, error) {
	raw = stripFence(raw)

	var entries []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, fmt.Errorf("unparseable detection payload: %w", err)
	}
	return entries, nil
}

// stripFence extracts the content of a ```json markdown fence, if present.
func stripFence(s string) string {
	_, after, found := strings.Cut(s, "```json")
	if !found {
		return s
	}
	inner, _, _ := strings.Cut(after, "```")
	return inner
}

func labelOrDefault(label string) string {
	if label == "" {
		return "Unknown"
	}
	return label
}

func dimensionsOrDefault(dims string) string {
	if dims == "" {
		return "unknown"
	}
	return dims
}
