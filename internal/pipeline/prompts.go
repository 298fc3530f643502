package pipeline

import "fmt"

// segmentationPrompt asks the detection model for one bounding box per
// enclosed area, with dimensions inferred from any text labels on the plan.
const segmentationPrompt = `
Analyze the provided floor plan. Identify every enclosed area.
For each area, provide a bounding box and infer its dimensions from any text labels present.
If a space contains multiple functions without walls (e.g., kitchen and dining), label it as a single combined space like "Kitchen/Dining Area".
The walls are the determining factor for separate rooms. Do combine the kitchen and living room if no wall separates them.
Include walls, doors and windows in the bounding box.
`

func stylePrompt(style string) string {
	return fmt.Sprintf("Generate a detailed, concise description for a '%s' interior design style. "+
		"Focus on: color palette, furniture style (materials, shapes), lighting and accessories. "+
		"This will guide image generation. Do not add any intro or outro.", style)
}

func unfurnishedPrompt(name, dimensions string) string {
	return fmt.Sprintf("Generate a clean, unfurnished 3D isometric view of the room shown in this cropped floor plan. "+
		"The room is the '%s' and its dimensions are approximately %s. "+
		"Only model the room itself. Walls are the boundaries. Show only the walls and floor. "+
		"Do not include any furniture, decorations, or ceiling. The background must be plain white. "+
		"Do not add any text or labels. Pay close attention to the placement of doors and windows from the plan.",
		name, dimensions)
}

func furnishPrompt(name, styleDescription string) string {
	return fmt.Sprintf("Take this unfurnished 3D isometric view of the '%s' and furnish it completely "+
		"according to the style description below. The final image must be a photorealistic, beautifully "+
		"decorated room. Maintain perfect consistency with the room's structure (walls, windows).\n\n"+
		"Style Description:\n%s", name, styleDescription)
}

func interiorPrompt(name string, shots int) string {
	return fmt.Sprintf("Based on this furnished isometric view of the '%s', generate %d photorealistic, "+
		"human-eye-level images from inside the room, each from a different angle. These should look like "+
		"professional real estate photos. Maintain extreme consistency in style, furniture, and colors with "+
		"the provided isometric view. Place yourself as a human in the room, looking around. "+
		"RESPECTING THIS VIEW ANGLE AND LAYOUT IS CRUCIAL.", name, shots)
}

const assemblyPrompt = "Assemble a single, complete 3D isometric view of the entire property. " +
	"Use the original floor plan for the overall layout and positioning. Use the following furnished " +
	"isometric room views to fill in the details for each corresponding room. The final image must be a " +
	"cohesive, photorealistic, and beautifully decorated view of the entire floor, with all rooms " +
	"furnished as shown in their individual images. Ensure all rooms are correctly placed and oriented " +
	"relative to each other, as per the original floor plan."
