package repository

import (
	"context"
	"errors"

	"github.com/noah-isme/respondent-registry-api/internal/models"
)

var (
	// ErrNotFound indicates no respondent matched the lookup.
	ErrNotFound = errors.New("respondent not found")
	// ErrDuplicateKey indicates the store rejected a write on its unique phone index.
	ErrDuplicateKey = errors.New("respondent phone already stored")
)

// RespondentRepository persists respondents in the backing store. Create assigns
// ID and CreatedAt; Update never touches them.
type RespondentRepository interface {
	Create(ctx context.Context, respondent *models.Respondent) error
	List(ctx context.Context) ([]models.Respondent, error)
	GetByID(ctx context.Context, id string) (models.Respondent, error)
	FindByPhone(ctx context.Context, phone string) (models.Respondent, error)
	Update(ctx context.Context, id string, respondent models.Respondent) (models.Respondent, error)
	Delete(ctx context.Context, id string) error
	EnsureIndexes(ctx context.Context) error
}
