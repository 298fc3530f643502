// Package pipeline drives the floor-plan generation state machine. One run
// walks a fixed sequence of stages — room detection, style description,
// per-room unfurnished/furnished/interior renders, final assembly — and
// broadcasts a typed event at every milestone. Runs are best-effort
// sequential: malformed individual detections are skipped, but the first
// unrecoverable stage failure emits a single error event and ends the run.
package pipeline

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"log"
	"net/http"

	"github.com/google/uuid"

	"github.com/LuisBackhaus/floorplan-engine/internal/config"
	"github.com/LuisBackhaus/floorplan-engine/internal/floorplan"
	"github.com/LuisBackhaus/floorplan-engine/internal/genai"
	"github.com/LuisBackhaus/floorplan-engine/internal/geometry"
	"github.com/LuisBackhaus/floorplan-engine/internal/stream"
)

// Room is the pipeline-internal record for one detected room. It lives only
// for the duration of a run. IsolatedPlan is the room's cropped sub-image,
// owned exclusively by this room's processing; the render artifacts are each
// produced exactly once and never mutated afterwards.
type Room struct {
	ID         string
	Name       string
	Dimensions string
	BBox       geometry.Box

	IsolatedPlan   []byte // PNG crop of the original plan
	UnfurnishedPNG []byte
	FurnishedPNG   []byte
}

// orchestrator executes a single run against the generation collaborator.
type orchestrator struct {
	gen genai.Generator
	cfg config.Config
	log *log.Logger
}

// emitter publishes a run's envelopes, tagging each with the run ID and
// clamping timestamps so they never decrease within the run.
type emitter struct {
	bus   *stream.Bus
	runID string
	last  float64

	rooms  int
	images int
}

func (e *emitter) emit(t stream.EventType, data map[string]any) {
	env := stream.NewEnvelope(e.runID, t, data)
	if env.Timestamp < e.last {
		env.Timestamp = e.last
	}
	e.last = env.Timestamp

	switch t {
	case stream.EventRoomDetected:
		e.rooms++
	case stream.EventUnfurnishedView, stream.EventFurnishedView,
		stream.EventInteriorShot, stream.EventFinalAssembly:
		e.images++
	}

	e.bus.Publish(env)
}

func (e *emitter) status(message string) {
	e.emit(stream.EventStatus, map[string]any{"message": message})
}

// execute runs every stage in order. Any returned error is unrecoverable
// for this run; the caller converts it into a single error envelope.
func (o *orchestrator) execute(ctx context.Context, em *emitter, planBytes []byte, style string) error {
	planImg, width, height, err := floorplan.Decode(planBytes)
	if err != nil {
		return err
	}
	plan := genai.Image{Data: planBytes, MIME: http.DetectContentType(planBytes)}

	// Stage 1: detection.
	em.status("Step 1: Detecting rooms...")
	resp, err := o.gen.Generate(ctx, genai.Request{
		Model:       o.cfg.GenAI.DetectModel,
		Prompt:      segmentationPrompt,
		Images:      []genai.Image{plan},
		JSONOutput:  true,
		Temperature: o.cfg.GenAI.Temperature,
	})
	if err != nil {
		return fmt.Errorf("room detection: %w", err)
	}

	boxes, warn := geometry.Normalize(resp.Text(), width, height, o.cfg.Pipeline.ExpandPercent)
	if warn != nil {
		// Zero rooms is not fatal: the run continues with an empty set.
		o.log.Printf("run %s: %v", em.runID, warn)
	}

	rooms := make([]*Room, 0, len(boxes))
	for _, box := range boxes {
		crop := floorplan.Crop(planImg, image.Rect(box.X0, box.Y0, box.X1, box.Y1))
		cropPNG, err := floorplan.EncodePNG(crop)
		if err != nil {
			return fmt.Errorf("isolating %q: %w", box.Label, err)
		}
		room := &Room{
			ID:           uuid.NewString()[:8],
			Name:         box.Label,
			Dimensions:   box.Dimensions,
			BBox:         box,
			IsolatedPlan: cropPNG,
		}
		rooms = append(rooms, room)
		em.emit(stream.EventRoomDetected, map[string]any{
			"id":         room.ID,
			"name":       room.Name,
			"dimensions": room.Dimensions,
		})
	}

	// Stage 2: style description. Interpolated verbatim into every
	// furnishing prompt below.
	em.status("Step 2: Generating style description...")
	resp, err = o.gen.Generate(ctx, genai.Request{
		Model:  o.cfg.GenAI.DetectModel,
		Prompt: stylePrompt(style),
	})
	if err != nil {
		return fmt.Errorf("style description: %w", err)
	}
	styleDescription := resp.Text()
	if styleDescription == "" {
		return errors.New("style description: response contained no text")
	}
	em.emit(stream.EventStyleDescription, map[string]any{"description": styleDescription})

	// Stages 3–4, per room. Strictly sequential so at most one external
	// call is in flight and interleaved events stay in a deterministic
	// order across rooms.
	for _, room := range rooms {
		if err := o.processRoom(ctx, em, room, styleDescription); err != nil {
			return fmt.Errorf("room %q: %w", room.Name, err)
		}
	}

	// Stage 5: assembly from the original plan plus every room that made it
	// to a furnished render.
	em.status("Step 5: Assembling final property view...")
	assemblyInputs := []genai.Image{plan}
	for _, room := range rooms {
		if room.FurnishedPNG != nil {
			assemblyInputs = append(assemblyInputs, genai.Image{Data: room.FurnishedPNG, MIME: "image/png"})
		}
	}
	resp, err = o.gen.Generate(ctx, genai.Request{
		Model:  o.cfg.GenAI.ImageModel,
		Prompt: assemblyPrompt,
		Images: assemblyInputs,
	})
	if err != nil {
		return fmt.Errorf("final assembly: %w", err)
	}
	final, err := resp.FirstImage()
	if err != nil {
		return fmt.Errorf("final assembly: %w", err)
	}
	em.emit(stream.EventFinalAssembly, map[string]any{
		"image": base64.StdEncoding.EncodeToString(final),
		"title": "Full Property - Assembled View",
	})

	em.status("Pipeline complete!")
	return nil
}

// processRoom runs the unfurnish, furnish, and interior-shot stages for one
// room.
func (o *orchestrator) processRoom(ctx context.Context, em *emitter, room *Room, styleDescription string) error {
	em.status(fmt.Sprintf("Processing room: %s...", room.Name))

	// Unfurnished isometric view from the isolated crop.
	resp, err := o.gen.Generate(ctx, genai.Request{
		Model:  o.cfg.GenAI.ImageModel,
		Prompt: unfurnishedPrompt(room.Name, room.Dimensions),
		Images: []genai.Image{{Data: room.IsolatedPlan, MIME: "image/png"}},
	})
	if err != nil {
		return fmt.Errorf("unfurnished view: %w", err)
	}
	unfurnished, err := resp.FirstImage()
	if err != nil {
		return fmt.Errorf("unfurnished view: %w", err)
	}
	room.UnfurnishedPNG = unfurnished
	em.emit(stream.EventUnfurnishedView, map[string]any{
		"roomId": room.ID,
		"image":  base64.StdEncoding.EncodeToString(unfurnished),
	})

	// Furnished view conditioned on the unfurnished render and the style
	// description.
	resp, err = o.gen.Generate(ctx, genai.Request{
		Model:  o.cfg.GenAI.ImageModel,
		Prompt: furnishPrompt(room.Name, styleDescription),
		Images: []genai.Image{{Data: unfurnished, MIME: "image/png"}},
	})
	if err != nil {
		return fmt.Errorf("furnished view: %w", err)
	}
	furnished, err := resp.FirstImage()
	if err != nil {
		return fmt.Errorf("furnished view: %w", err)
	}
	room.FurnishedPNG = furnished
	em.emit(stream.EventFurnishedView, map[string]any{
		"roomId": room.ID,
		"image":  base64.StdEncoding.EncodeToString(furnished),
		"title":  room.Name + " - Furnished View",
	})

	// Eye-level interior shots. The model decides how many images come
	// back; non-image parts are skipped and images are numbered in
	// generation order.
	resp, err = o.gen.Generate(ctx, genai.Request{
		Model:  o.cfg.GenAI.ImageModel,
		Prompt: interiorPrompt(room.Name, o.cfg.Pipeline.InteriorShots),
		Images: []genai.Image{{Data: furnished, MIME: "image/png"}},
	})
	if err != nil {
		return fmt.Errorf("interior shots: %w", err)
	}
	shot := 0
	for _, part := range resp.Parts {
		if !part.IsImage() {
			continue
		}
		shot++
		em.emit(stream.EventInteriorShot, map[string]any{
			"roomId": room.ID,
			"image":  base64.StdEncoding.EncodeToString(part.Image),
			"title":  fmt.Sprintf("%s - Interior Shot %d", room.Name, shot),
		})
	}

	return nil
}
