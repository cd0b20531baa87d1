package service

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"nextrep/internal/cache"
	"nextrep/internal/domain"
	"nextrep/internal/exercise"
	"nextrep/pkg/logger"
	"nextrep/pkg/validator"
)

// CategoriesKey is the general namespace key holding the category summary.
// It is derived from the exercise lists.
const CategoriesKey = "categories"

// Caches groups the fetchers of each cache namespace the service uses
type Caches struct {
	Exercises *cache.Fetcher[[]domain.Exercise]
	Details   *cache.Fetcher[domain.ExerciseDetail]
	General   *cache.Fetcher[[]domain.Category]
}

// exerciseService implements the ExerciseService interface
type exerciseService struct {
	api    ExerciseAPI
	caches Caches
	logger *logger.Logger
}

// NewExerciseService creates a new exercise service with dependencies injected
func NewExerciseService(api ExerciseAPI, caches Caches, logger *logger.Logger) ExerciseService {
	return &exerciseService{
		api:    api,
		caches: caches,
		logger: logger,
	}
}

// ExercisesByBodyPart reads through the exercise list cache
func (s *exerciseService) ExercisesByBodyPart(ctx context.Context, category string) ([]domain.Exercise, error) {
	key, err := normalizeCategory(category)
	if err != nil {
		return nil, err
	}

	exercises, err := s.caches.Exercises.FetchCached(ctx, key, s.searchFunc(key))
	if err != nil {
		s.logger.Warnw("Failed to fetch exercises", "body_part", key, "error", err)
		return nil, err
	}
	return exercises, nil
}

// ExerciseDetails reads through the exercise detail cache
func (s *exerciseService) ExerciseDetails(ctx context.Context, id string) (domain.ExerciseDetail, error) {
	if err := validator.ValidateExerciseID(id); err != nil {
		return domain.ExerciseDetail{}, domain.NewValidationError(domain.ErrInvalidExerciseID, err.Error())
	}

	detail, err := s.caches.Details.FetchCached(ctx, id, func(ctx context.Context) (domain.ExerciseDetail, error) {
		return s.api.Details(ctx, id)
	})
	if err != nil {
		s.logger.Warnw("Failed to fetch exercise details", "exercise_id", id, "error", err)
		return domain.ExerciseDetail{}, err
	}
	return detail, nil
}

// Categories builds the category summaries from the exercise lists and keeps
// the result in the general namespace
func (s *exerciseService) Categories(ctx context.Context) ([]domain.Category, error) {
	return s.caches.General.FetchCached(ctx, CategoriesKey, func(ctx context.Context) ([]domain.Category, error) {
		categories := make([]domain.Category, len(exercise.Categories))

		g, gctx := errgroup.WithContext(ctx)
		for i, key := range exercise.Categories {
			i, key := i, key
			g.Go(func() error {
				exercises, err := s.ExercisesByBodyPart(gctx, key)
				if err != nil {
					return err
				}
				categories[i] = domain.Category{
					Key:           key,
					DisplayName:   exercise.DisplayName(key),
					APIBodyPart:   exercise.APIBodyPart(key),
					ExerciseCount: len(exercises),
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		return categories, nil
	})
}

// Preload warms the exercise list cache for the given categories, or for
// every known category when none are given
func (s *exerciseService) Preload(ctx context.Context, categories []string) {
	if len(categories) == 0 {
		categories = exercise.Categories
	}
	keys := make([]string, 0, len(categories))
	for _, c := range categories {
		key, err := normalizeCategory(c)
		if err != nil {
			s.logger.Warnw("Skipping invalid preload category", "body_part", c, "error", err)
			continue
		}
		keys = append(keys, key)
	}

	s.caches.Exercises.Preload(ctx, keys, func(ctx context.Context, key string) ([]domain.Exercise, error) {
		return s.searchFunc(key)(ctx)
	})
}

// InvalidateBodyPart drops the cached list for a category and the category
// summary derived from it
func (s *exerciseService) InvalidateBodyPart(ctx context.Context, category string) error {
	key, err := normalizeCategory(category)
	if err != nil {
		return err
	}
	s.caches.Exercises.Store().Remove(ctx, key)
	s.caches.General.Store().Remove(ctx, CategoriesKey)
	s.logger.Infow("Exercise list invalidated", "body_part", key)
	return nil
}

// InvalidateExercise drops the cached details for an exercise
func (s *exerciseService) InvalidateExercise(ctx context.Context, id string) error {
	if err := validator.ValidateExerciseID(id); err != nil {
		return domain.NewValidationError(domain.ErrInvalidExerciseID, err.Error())
	}
	s.caches.Details.Store().Remove(ctx, id)
	s.logger.Infow("Exercise details invalidated", "exercise_id", id)
	return nil
}

func (s *exerciseService) searchFunc(key string) cache.FetchFunc[[]domain.Exercise] {
	return func(ctx context.Context) ([]domain.Exercise, error) {
		return s.api.SearchByBodyPart(ctx, exercise.APIBodyPart(key))
	}
}

func normalizeCategory(category string) (string, error) {
	key := validator.NormalizeBodyPart(category)
	if err := validator.ValidateBodyPart(key); err != nil {
		var vErr *validator.ValidationError
		if errors.As(err, &vErr) {
			return "", domain.NewValidationError(domain.ErrInvalidBodyPart, vErr.Message)
		}
		return "", domain.NewValidationError(domain.ErrInvalidBodyPart, err.Error())
	}
	return key, nil
}
