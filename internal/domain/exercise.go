package domain

import (
	"time"
)

// Exercise is one entry of a body-part search result
type Exercise struct {
	ID       string `json:"id" msgpack:"id"`
	Name     string `json:"name" msgpack:"name"`
	BodyPart string `json:"bodyPart" msgpack:"bodyPart"`
	Image    string `json:"image" msgpack:"image"`
}

// HasImage reports whether the exercise carries a usable image
func (e Exercise) HasImage() bool {
	return e.Image != "" && e.Image != "image_coming_soon"
}

// Instruction is a single ordered step of an exercise
type Instruction struct {
	Order       int    `json:"order" msgpack:"order"`
	Description string `json:"description" msgpack:"description"`
}

// Muscle describes a muscle worked by an exercise
type Muscle struct {
	ID       string `json:"id" msgpack:"id"`
	Name     string `json:"name" msgpack:"name"`
	BodyPart string `json:"bodyPart" msgpack:"bodyPart"`
	Group    string `json:"group" msgpack:"group"`
}

// ExerciseDetail is the full record for a single exercise
type ExerciseDetail struct {
	ID               string           `json:"id" msgpack:"id"`
	Name             string           `json:"name" msgpack:"name"`
	BodyPart         string           `json:"bodyPart" msgpack:"bodyPart"`
	Image            string           `json:"image" msgpack:"image"`
	Equipment        string           `json:"equipment" msgpack:"equipment"`
	Instructions     []Instruction    `json:"instructions" msgpack:"instructions"`
	TargetMuscles    []Muscle         `json:"targetMuscles" msgpack:"targetMuscles"`
	SecondaryMuscles []Muscle         `json:"secondaryMuscles" msgpack:"secondaryMuscles"`
	Variations       []ExerciseDetail `json:"variations,omitempty" msgpack:"variations,omitempty"`
}

// SearchResponse is the envelope returned by the exercise search endpoint
type SearchResponse struct {
	Results []Exercise `json:"results"`
}

// Category is a workout category as shown to users
type Category struct {
	Key           string `json:"key" msgpack:"key"`
	DisplayName   string `json:"display_name" msgpack:"display_name"`
	APIBodyPart   string `json:"api_body_part" msgpack:"api_body_part"`
	ExerciseCount int    `json:"exercise_count" msgpack:"exercise_count"`
}

// PreloadRequest is the payload for warming the exercise list cache
type PreloadRequest struct {
	BodyParts []string `json:"body_parts"`
}

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code"`
}

// HealthResponse represents health check response
type HealthResponse struct {
	Status    string    `json:"status"`
	Service   string    `json:"service"`
	Version   string    `json:"version"`
	Storage   string    `json:"storage"`
	Timestamp time.Time `json:"timestamp"`
}
