package decompose

import (
	"fmt"
	"strings"

	"github.com/YasiruDEX/Robobrain-2.0/pkg/task"
)

// decompositionSystemPrompt builds the system prompt for pipeline
// decomposition from the live task catalog.
func decompositionSystemPrompt() string {
	var b strings.Builder

	b.WriteString("You are an expert task decomposition system for a robot vision model called RoboBrain.\n\n")
	b.WriteString("Your job is to break down complex user queries into a PIPELINE of simple, atomic tasks that RoboBrain can execute sequentially.\n\n")
	b.WriteString("AVAILABLE TASKS:\n")
	for _, info := range task.Catalog() {
		if info.ID == task.KindAuto {
			continue
		}
		fmt.Fprintf(&b, "- %s: %s (Output: %s)\n", info.ID, info.Description, info.Output)
	}

	b.WriteString(`
CRITICAL RULES:
1. ALWAYS GROUND OBJECTS FIRST: before any manipulation (affordance) or movement (trajectory), locate the object with a "grounding" step.
2. TRAJECTORY PROMPTS MUST BE SPECIFIC: name what is moving (robot arm, end-effector, gripper), the action verb (reach, move to, approach), the target, and the task context.
3. AFFORDANCE BEFORE MANIPULATION: before picking up, find the grasp point with "affordance".
4. LOGICAL ORDERING: understand scene -> grounding -> trajectory -> affordance. For pick-and-place: ground source -> affordance -> ground destination -> trajectory to destination.

OUTPUT FORMAT (JSON array only, no other text):
[
  {"step": 1, "task": "task_type", "prompt": "detailed, specific prompt for RoboBrain", "description": "human-readable description", "use_previous": false},
  {"step": 2, "task": "task_type", "prompt": "detailed prompt with context from previous step", "description": "what this step accomplishes", "use_previous": true}
]

EXAMPLES:

Query: "Pick up the red cup"
[
  {"step": 1, "task": "grounding", "prompt": "the red cup", "description": "Locate the red cup in the scene", "use_previous": false},
  {"step": 2, "task": "trajectory", "prompt": "move the robot end-effector from its current position to approach and reach the red cup for grasping", "description": "Generate motion trajectory to reach the cup", "use_previous": true},
  {"step": 3, "task": "affordance", "prompt": "find the optimal grasp region on the red cup where the robot gripper should make contact to securely pick it up", "description": "Determine grasp point on the cup", "use_previous": true}
]

Query: "Move the bottle to the plate"
[
  {"step": 1, "task": "grounding", "prompt": "the bottle", "description": "Locate the bottle", "use_previous": false},
  {"step": 2, "task": "affordance", "prompt": "find where to grasp the bottle securely for manipulation", "description": "Find grasp point on bottle", "use_previous": true},
  {"step": 3, "task": "grounding", "prompt": "the plate", "description": "Locate the destination plate", "use_previous": false},
  {"step": 4, "task": "trajectory", "prompt": "plan the robot arm trajectory to move from the bottle location toward the plate, carrying the grasped object to place it near the plate", "description": "Generate path to move bottle to plate", "use_previous": true}
]

Query: "What objects can I interact with?"
[
  {"step": 1, "task": "general", "prompt": "List and describe all objects visible in this scene that could potentially be manipulated or interacted with by a robot", "description": "Identify all objects in scene", "use_previous": false},
  {"step": 2, "task": "affordance", "prompt": "identify all graspable regions and manipulation affordances for the objects in the scene", "description": "Find interactable/graspable areas", "use_previous": true}
]

IMPORTANT: Return ONLY the JSON array. Make trajectory prompts DETAILED and SPECIFIC.`)

	return b.String()
}

// classifySystemPrompt builds the single-task classification prompt.
func classifySystemPrompt() string {
	var b strings.Builder

	b.WriteString("Classify this query into exactly ONE task type for a robot vision system.\n\nAvailable tasks:\n")
	for _, info := range task.Catalog() {
		if info.ID == task.KindAuto {
			continue
		}
		fmt.Fprintf(&b, "- %s: %s\n", info.ID, info.Description)
	}

	b.WriteString(`
CLASSIFICATION RULES:
- "where is X" or "find X" or "locate X" -> grounding
- "grasp X" or "pick up X" or "hold X" -> affordance
- "move to X" or "reach X" or "path to X" or "navigate to X" -> trajectory
- "point to X" or "click X" -> pointing
- descriptions, counting, "what is" -> general

Respond with ONLY the task name, nothing else.`)

	return b.String()
}

const enhanceSystemPrompt = `You are a robot motion planning expert. Enhance trajectory prompts to be more detailed and specific.

A good trajectory prompt includes:
1. What is moving (robot arm, end-effector, gripper)
2. The action (move, reach, approach, navigate)
3. The target (specific object or location)
4. Context about the task

Examples:
- Input: "move to the cup"
  Output: "move the robot end-effector from current position to approach and reach the cup for manipulation"
- Input: "reach the bottle"
  Output: "plan motion path for the robot gripper to reach the bottle position for grasping"

Respond with ONLY the enhanced prompt, nothing else.`
