package service

import (
	"context"

	"nextrep/internal/domain"
)

// ExerciseAPI is the remote exercise source the service reads through
type ExerciseAPI interface {
	SearchByBodyPart(ctx context.Context, bodyPart string) ([]domain.Exercise, error)
	Details(ctx context.Context, id string) (domain.ExerciseDetail, error)
}

// ExerciseService defines the business logic interface for exercise lookups
// This layer orchestrates between the cache namespaces and the exercise API
type ExerciseService interface {
	// ExercisesByBodyPart returns the exercises for a workout category
	ExercisesByBodyPart(ctx context.Context, category string) ([]domain.Exercise, error)

	// ExerciseDetails returns the full record of one exercise
	ExerciseDetails(ctx context.Context, id string) (domain.ExerciseDetail, error)

	// Categories returns every workout category with its exercise count
	Categories(ctx context.Context) ([]domain.Category, error)

	// Preload warms the exercise list cache; failures are only logged
	Preload(ctx context.Context, categories []string)

	// InvalidateBodyPart drops the cached list for a category
	InvalidateBodyPart(ctx context.Context, category string) error

	// InvalidateExercise drops the cached details for an exercise
	InvalidateExercise(ctx context.Context, id string) error
}
