package task

// Info describes a task kind for clients and for decomposition prompts.
type Info struct {
	ID          Kind     `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Output      string   `json:"output,omitempty"`
	Examples    []string `json:"examples,omitempty"`
}

// Catalog returns the task descriptions exposed on /api/tasks and embedded
// in the decomposition system prompt.
func Catalog() []Info {
	return []Info{
		{
			ID:          KindAuto,
			Name:        "Auto Mode",
			Description: "Automatically detect task type using AI",
		},
		{
			ID:          KindGeneral,
			Name:        "General Chat",
			Description: "General visual question answering - describe scenes, count objects, identify colors, explain content",
			Output:      "Text description or answer",
			Examples:    []string{"What is in this image?", "How many objects are there?", "What color is the car?"},
		},
		{
			ID:          KindGrounding,
			Name:        "Grounding",
			Description: "Locate and find objects in the image, returns bounding box coordinates [x1,y1,x2,y2]",
			Output:      "Bounding box coordinates",
			Examples:    []string{"Where is the cup?", "Find the apple", "Locate the chair"},
		},
		{
			ID:          KindAffordance,
			Name:        "Affordance",
			Description: "Detect graspable areas and manipulation affordances, returns bounding box of graspable region",
			Output:      "Bounding box of graspable area",
			Examples:    []string{"Where to grasp the cup?", "How to pick up this object?", "Find graspable area"},
		},
		{
			ID:          KindTrajectory,
			Name:        "Trajectory",
			Description: "Plan motion paths and trajectories, returns sequence of waypoints [(x1,y1), (x2,y2), ...]",
			Output:      "List of waypoint coordinates",
			Examples:    []string{"Plan path to the cup", "How to reach the object?", "Generate trajectory to target"},
		},
		{
			ID:          KindPointing,
			Name:        "Pointing",
			Description: "Point to specific locations or identify what's at a point, returns single (x,y) coordinate",
			Output:      "Single point coordinate",
			Examples:    []string{"Point to the button", "Click on the handle", "What is at (100,200)?"},
		},
	}
}
