package exercise

import "strings"

// fallbackBodyPart is used for categories the API has no mapping for
const fallbackBodyPart = "Chest"

var categoryToBodyPart = map[string]string{
	"legs":      "Legs",
	"arms":      "Arms",
	"chest":     "Chest",
	"abdominal": "Core",
	"back":      "Back",
	"shoulders": "Shoulders",
}

var displayNames = map[string]string{
	"legs":      "Leg Muscles",
	"arms":      "Arm Muscles",
	"chest":     "Chest Muscles",
	"abdominal": "Abdominal Muscles",
	"back":      "Back Muscles",
	"shoulders": "Shoulder Muscles",
}

// Categories lists the workout categories in display order
var Categories = []string{"legs", "arms", "chest", "abdominal", "back", "shoulders"}

// APIBodyPart maps a workout category to the body part the API searches on
func APIBodyPart(category string) string {
	if bp, ok := categoryToBodyPart[strings.ToLower(category)]; ok {
		return bp
	}
	return fallbackBodyPart
}

// DisplayName returns the user-facing name of a category, or the input
// unchanged when the category is unknown
func DisplayName(category string) string {
	if name, ok := displayNames[strings.ToLower(category)]; ok {
		return name
	}
	return category
}
