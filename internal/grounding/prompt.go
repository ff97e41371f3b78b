// Package grounding holds the textual protocol with the vision model: the
// instruction that asks for a single cell number, and the resolver that maps
// the model's free-text answer back onto a grid cell.
package grounding

import "fmt"

const promptTemplate = `You are controlling a computer. The user wants to: "%s".
The screen is divided into a grid numbered 1 to %d.

1. Identify the single most relevant grid number to click to achieve the goal.
2. Respond with ONLY the grid number. Nothing else.`

// BuildPrompt formats the instruction for a goal and a grid of cellCount cells.
// It does not enforce compliance; the resolver deals with whatever comes back.
func BuildPrompt(goal string, cellCount int) string {
	return fmt.Sprintf(promptTemplate, goal, cellCount)
}
