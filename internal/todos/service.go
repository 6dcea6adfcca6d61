package todos

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/google/uuid"

	"github.com/odyssey-erp/odyssey-todo/internal/shared"
)

const (
	maxTitleLen       = 255
	maxDescriptionLen = 1000
)

// Service applies todo business rules on top of the owner-scoped repository.
type Service struct {
	repo     Repository
	validate *validator.Validate
}

// NewService constructs a new Service.
func NewService(repo Repository) *Service {
	v := validator.New()
	_ = v.RegisterValidation("notblank", validators.NotBlank)
	return &Service{repo: repo, validate: v}
}

// Create adds a todo owned by ownerID.
func (s *Service) Create(ctx context.Context, ownerID uuid.UUID, in CreateInput) (Todo, error) {
	if err := s.checkTitle(in.Title); err != nil {
		return Todo{}, err
	}
	if err := s.checkDescription(in.Description); err != nil {
		return Todo{}, err
	}
	return s.repo.Create(ctx, ownerID, in)
}

// List returns every todo owned by ownerID.
func (s *Service) List(ctx context.Context, ownerID uuid.UUID) ([]Todo, error) {
	return s.repo.List(ctx, ownerID)
}

// Get returns one todo, or shared.ErrNotFound when it is absent or not owned.
func (s *Service) Get(ctx context.Context, ownerID, id uuid.UUID) (Todo, error) {
	return s.repo.Get(ctx, ownerID, id)
}

// Update applies a partial update. An empty update returns the todo as is.
func (s *Service) Update(ctx context.Context, ownerID, id uuid.UUID, in UpdateInput) (Todo, error) {
	if in.Title != nil {
		if err := s.checkTitle(*in.Title); err != nil {
			return Todo{}, err
		}
	}
	if err := s.checkDescription(in.Description); err != nil {
		return Todo{}, err
	}
	if in.Empty() {
		return s.repo.Get(ctx, ownerID, id)
	}
	return s.repo.Update(ctx, ownerID, id, in)
}

// SetCompletion flips the completed flag only.
func (s *Service) SetCompletion(ctx context.Context, ownerID, id uuid.UUID, completed bool) (Completion, error) {
	todo, err := s.repo.SetCompletion(ctx, ownerID, id, completed)
	if err != nil {
		return Completion{}, err
	}
	return Completion{ID: todo.ID, Completed: todo.Completed, UpdatedAt: todo.UpdatedAt}, nil
}

// Delete removes a todo, or returns shared.ErrNotFound.
func (s *Service) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	removed, err := s.repo.Delete(ctx, ownerID, id)
	if err != nil {
		return err
	}
	if !removed {
		return shared.ErrNotFound
	}
	return nil
}

func (s *Service) checkTitle(title string) error {
	if err := s.validate.Var(title, "notblank,max=255"); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 && fieldErrs[0].Tag() == "max" {
			return shared.Errorf(shared.ErrValidation, "Title must not exceed %d characters", maxTitleLen)
		}
		return shared.Errorf(shared.ErrValidation, "Title is required")
	}
	return nil
}

func (s *Service) checkDescription(desc *string) error {
	if desc == nil {
		return nil
	}
	if err := s.validate.Var(*desc, "max=1000"); err != nil {
		return shared.Errorf(shared.ErrValidation, "Description must not exceed %d characters", maxDescriptionLen)
	}
	return nil
}
