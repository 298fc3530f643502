// Package genai is the boundary to the generative model service. The
// pipeline only ever talks to the Generator interface; behind it sit a REST
// client for a Gemini-style generateContent endpoint and an offline
// simulated generator used for demos and tests.
//
// Model responses are duck-typed on the wire, so this package enforces a
// strict internal contract: a response is a list of parts, each either text
// or an image. Anything else is an error at this boundary, which the
// orchestrator treats as a stage failure rather than a crash.
package genai

import (
	"context"
	"errors"
)

// Image is one input image attached to a generation request.
type Image struct {
	Data []byte
	MIME string // e.g. "image/png"; empty defaults to PNG
}

// Request describes one generation call.
type Request struct {
	Model       string
	Prompt      string
	Images      []Image
	JSONOutput  bool    // ask the model for an application/json response
	Temperature float64 // 0 means provider default
}

// Part is one element of a model response: text, or an image, never both.
type Part struct {
	Text  string
	Image []byte
	MIME  string
}

// IsImage reports whether the part carries image data.
func (p Part) IsImage() bool { return len(p.Image) > 0 }

// Response is the validated result of a generation call.
type Response struct {
	Parts []Part
}

// ErrNoContent is returned when a response carries none of the requested
// content kind.
var ErrNoContent = errors.New("genai: response contains no usable content")

// Text concatenates all text parts of the response.
func (r *Response) Text() string {
	var out string
	for _, p := range r.Parts {
		out += p.Text
	}
	return out
}

// FirstImage returns the first image part, or ErrNoContent if the response
// contains no image.
func (r *Response) FirstImage() ([]byte, error) {
	for _, p := range r.Parts {
		if p.IsImage() {
			return p.Image, nil
		}
	}
	return nil, ErrNoContent
}

// Images returns all image parts in response order.
func (r *Response) Images() [][]byte {
	var imgs [][]byte
	for _, p := range r.Parts {
		if p.IsImage() {
			imgs = append(imgs, p.Image)
		}
	}
	return imgs
}

// Generator is the opaque, fallible, latency-unbounded generation
// collaborator the pipeline depends on.
type Generator interface {
	Generate(ctx context.Context, req Request) (*Response, error)
}
