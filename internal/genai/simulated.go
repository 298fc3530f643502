package genai

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"strings"
	"sync/atomic"
	"time"
)

// Simulated is an offline Generator that produces canned detections, style
// text, and tiny synthetic renders with plausible latency. It lets the full
// daemon, CLI, and stream be exercised end to end without credentials or
// network access, the same way the real hardware is simulated in demo mode.
type Simulated struct {
	// Latency is applied to every call. Zero means no delay (tests).
	Latency time.Duration

	// InteriorShots is the number of image parts returned for an
	// interior-shot style request (one with a furnished render attached).
	// Defaults to 2.
	InteriorShots int

	calls atomic.Uint64
}

// simulatedDetections mimics the detection model's habit of wrapping its
// JSON in a markdown fence, so the normalizer's unwrapping path is always
// exercised.
const simulatedDetections = "```json\n" + `[
  {"label": "Living Room", "box_2d": [80, 60, 520, 480], "dimensions": "16ft 0in x 14ft 0in"},
  {"label": "Kitchen/Dining Area", "box_2d": [80, 500, 520, 940], "dimensions": "14ft 0in x 12ft 6in"},
  {"label": "Bedroom", "box_2d": [560, 60, 940, 460], "dimensions": "12ft 0in x 11ft 0in"}
]` + "\n```"

const simulatedStyle = "A calm, light-filled palette of warm whites and oak, " +
	"low-profile furniture in natural linen and leather, matte black accents, " +
	"layered warm lighting from floor lamps and recessed spots, and a few " +
	"large-leaf plants as accessories."

// Generate inspects the request shape to decide what kind of canned content
// to return: JSON output means room detection, text-only means style
// description, and anything with an input image yields synthetic renders.
func (s *Simulated) Generate(ctx context.Context, req Request) (*Response, error) {
	if !s.sleep(ctx) {
		return nil, ctx.Err()
	}

	switch {
	case req.JSONOutput:
		return &Response{Parts: []Part{{Text: simulatedDetections}}}, nil

	case len(req.Images) == 0:
		return &Response{Parts: []Part{{Text: simulatedStyle}}}, nil

	case s.isInteriorRequest(req):
		n := s.InteriorShots
		if n <= 0 {
			n = 2
		}
		parts := make([]Part, 0, n+1)
		for i := 0; i < n; i++ {
			parts = append(parts, Part{Image: s.render(), MIME: "image/png"})
		}
		// A trailing text part, as image models often emit alongside their
		// renders. Consumers are expected to skip it.
		parts = append(parts, Part{Text: "Here are the interior views."})
		return &Response{Parts: parts}, nil

	default:
		return &Response{Parts: []Part{{Image: s.render(), MIME: "image/png"}}}, nil
	}
}

// isInteriorRequest detects the interior-shot stage: the only image request
// that asks for multiple eye-level views.
func (s *Simulated) isInteriorRequest(req Request) bool {
	return len(req.Images) == 1 && strings.Contains(req.Prompt, "eye-level")
}

// render produces a small solid-color PNG, cycling through a palette so
// consecutive renders are distinguishable in a viewer.
func (s *Simulated) render() []byte {
	palette := []color.RGBA{
		{0xe8, 0xd5, 0xb7, 0xff}, // sand
		{0xb7, 0xc9, 0xe8, 0xff}, // sky
		{0xc9, 0xe8, 0xb7, 0xff}, // sage
		{0xe8, 0xb7, 0xc9, 0xff}, // rose
	}
	c := palette[int(s.calls.Add(1))%len(palette)]

	img := image.NewRGBA(image.Rect(0, 0, 64, 48))
	for y := 0; y < 48; y++ {
		for x := 0; x < 64; x++ {
			img.SetRGBA(x, y, c)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		// Encoding an in-memory RGBA cannot fail; keep the signature simple.
		panic(fmt.Sprintf("simulated render: %v", err))
	}
	return buf.Bytes()
}

func (s *Simulated) sleep(ctx context.Context) bool {
	if s.Latency <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(s.Latency)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
