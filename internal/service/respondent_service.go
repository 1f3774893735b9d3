package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/respondent-registry-api/internal/dto"
	"github.com/noah-isme/respondent-registry-api/internal/models"
	"github.com/noah-isme/respondent-registry-api/internal/observability"
	"github.com/noah-isme/respondent-registry-api/internal/repository"
	"github.com/noah-isme/respondent-registry-api/internal/validation"
)

const (
	respondentListCachePrefix   = "respondents:list"
	respondentListGenerationKey = respondentListCachePrefix + ":gen"
)

// listCacheKey names the cached list for a generation. Writes bump the
// generation, so a list read that raced a write lands under a key no later
// reader consults.
func listCacheKey(generation int64) string {
	return fmt.Sprintf("%s:%d", respondentListCachePrefix, generation)
}

var (
	// ErrDuplicatePhone indicates another respondent already holds the phone number.
	ErrDuplicatePhone = errors.New("respondent phone number already registered")
	// ErrRespondentNotFound indicates the respondent id does not exist.
	ErrRespondentNotFound = errors.New("respondent not found")
)

// StoreError wraps an unexpected failure of the backing store.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("respondent store %s failed: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// ChangePublisher receives a signal after every successful write.
type ChangePublisher interface {
	Publish(ctx context.Context, event dto.RespondentChangeEvent) error
}

// RespondentService exposes the respondent record lifecycle.
type RespondentService interface {
	Create(ctx context.Context, input dto.RespondentInput) (dto.RespondentResponse, error)
	List(ctx context.Context) ([]dto.RespondentResponse, error)
	Get(ctx context.Context, id string) (dto.RespondentResponse, error)
	Update(ctx context.Context, id string, input dto.RespondentInput) (dto.RespondentResponse, error)
	Delete(ctx context.Context, id string) error
	Variant() validation.Variant
}

type respondentService struct {
	repo     repository.RespondentRepository
	schema   *validation.Schema
	cache    *redis.Client
	cacheTTL time.Duration
	changes  ChangePublisher
	logger   zerolog.Logger
	tracer   trace.Tracer
	now      func() time.Time
}

// NewRespondentService constructs the respondent service. cache and changes may be nil.
func NewRespondentService(repo repository.RespondentRepository, schema *validation.Schema, cache *redis.Client, cacheTTL time.Duration, changes ChangePublisher, logger zerolog.Logger) RespondentService {
	if cacheTTL <= 0 {
		cacheTTL = 2 * time.Minute
	}
	return &respondentService{
		repo:     repo,
		schema:   schema,
		cache:    cache,
		cacheTTL: cacheTTL,
		changes:  changes,
		logger:   logger.With().Str("component", "respondent_service").Logger(),
		tracer:   otel.Tracer("github.com/noah-isme/respondent-registry-api/internal/service/respondent"),
		now:      time.Now,
	}
}

func (s *respondentService) Variant() validation.Variant {
	return s.schema.Variant()
}

func (s *respondentService) Create(ctx context.Context, input dto.RespondentInput) (dto.RespondentResponse, error) {
	ctx, span := s.tracer.Start(ctx, "respondents.create")
	defer span.End()

	record, err := s.schema.Validate(input)
	if err != nil {
		return dto.RespondentResponse{}, s.rejected(span, "create", err)
	}

	if _, err := s.repo.FindByPhone(ctx, record.Phone); err == nil {
		return dto.RespondentResponse{}, s.rejected(span, "create", ErrDuplicatePhone)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return dto.RespondentResponse{}, s.storeFailure(span, "create", err)
	}

	if err := s.repo.Create(ctx, &record); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return dto.RespondentResponse{}, s.rejected(span, "create", ErrDuplicatePhone)
		}
		return dto.RespondentResponse{}, s.storeFailure(span, "create", err)
	}

	span.SetAttributes(attribute.String("respondent.id", record.ID))
	s.invalidate(ctx, dto.ChangeCreated, record.ID)
	observability.RespondentOperations().WithLabelValues("create", "success").Inc()
	s.logger.Info().
		Str("respondent_id", record.ID).
		Str("phone", maskPhone(record.Phone)).
		Str("email", maskEmailAddress(record.Email)).
		Msg("respondent created")

	return dto.NewRespondentResponse(record, s.now()), nil
}

func (s *respondentService) List(ctx context.Context) ([]dto.RespondentResponse, error) {
	ctx, span := s.tracer.Start(ctx, "respondents.list")
	defer span.End()

	records, cacheKey, hit := s.cachedList(ctx)
	span.SetAttributes(attribute.Bool("respondents.cache_hit", hit))

	if !hit {
		var err error
		records, err = s.repo.List(ctx)
		if err != nil {
			return nil, s.storeFailure(span, "list", err)
		}
		s.storeList(ctx, cacheKey, records)
	}

	span.SetAttributes(attribute.Int("respondents.count", len(records)))
	observability.RespondentOperations().WithLabelValues("list", "success").Inc()

	return dto.NewRespondentResponseSlice(records, s.now()), nil
}

func (s *respondentService) Get(ctx context.Context, id string) (dto.RespondentResponse, error) {
	ctx, span := s.tracer.Start(ctx, "respondents.get", trace.WithAttributes(attribute.String("respondent.id", id)))
	defer span.End()

	record, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return dto.RespondentResponse{}, s.rejected(span, "get", ErrRespondentNotFound)
		}
		return dto.RespondentResponse{}, s.storeFailure(span, "get", err)
	}

	return dto.NewRespondentResponse(record, s.now()), nil
}

func (s *respondentService) Update(ctx context.Context, id string, input dto.RespondentInput) (dto.RespondentResponse, error) {
	ctx, span := s.tracer.Start(ctx, "respondents.update", trace.WithAttributes(attribute.String("respondent.id", id)))
	defer span.End()

	record, err := s.schema.Validate(input)
	if err != nil {
		return dto.RespondentResponse{}, s.rejected(span, "update", err)
	}

	holder, err := s.repo.FindByPhone(ctx, record.Phone)
	switch {
	case err == nil && holder.ID != id:
		return dto.RespondentResponse{}, s.rejected(span, "update", ErrDuplicatePhone)
	case err != nil && !errors.Is(err, repository.ErrNotFound):
		return dto.RespondentResponse{}, s.storeFailure(span, "update", err)
	}

	updated, err := s.repo.Update(ctx, id, record)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return dto.RespondentResponse{}, s.rejected(span, "update", ErrRespondentNotFound)
		case errors.Is(err, repository.ErrDuplicateKey):
			return dto.RespondentResponse{}, s.rejected(span, "update", ErrDuplicatePhone)
		default:
			return dto.RespondentResponse{}, s.storeFailure(span, "update", err)
		}
	}

	s.invalidate(ctx, dto.ChangeUpdated, id)
	observability.RespondentOperations().WithLabelValues("update", "success").Inc()
	s.logger.Info().Str("respondent_id", id).Str("phone", maskPhone(updated.Phone)).Msg("respondent updated")

	return dto.NewRespondentResponse(updated, s.now()), nil
}

func (s *respondentService) Delete(ctx context.Context, id string) error {
	ctx, span := s.tracer.Start(ctx, "respondents.delete", trace.WithAttributes(attribute.String("respondent.id", id)))
	defer span.End()

	if err := s.repo.Delete(ctx, id); err != nil {
		return s.storeFailure(span, "delete", err)
	}

	s.invalidate(ctx, dto.ChangeDeleted, id)
	observability.RespondentOperations().WithLabelValues("delete", "success").Inc()
	s.logger.Info().Str("respondent_id", id).Msg("respondent deleted")

	return nil
}

// cachedList returns the cached records for the current generation, or the key
// a fresh read should be stored under. An empty key disables storing.
func (s *respondentService) cachedList(ctx context.Context) ([]models.Respondent, string, bool) {
	if s.cache == nil {
		return nil, "", false
	}

	generation, err := s.cache.Get(ctx, respondentListGenerationKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		s.logger.Warn().Err(err).Msg("failed to read respondent list cache generation")
		return nil, "", false
	}
	key := listCacheKey(generation)

	cached, err := s.cache.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Msg("failed to read respondent list cache")
		}
		return nil, key, false
	}

	var records []models.Respondent
	if err := json.Unmarshal([]byte(cached), &records); err != nil {
		s.logger.Warn().Err(err).Msg("discarding malformed respondent list cache")
		return nil, key, false
	}
	return records, key, true
}

func (s *respondentService) storeList(ctx context.Context, key string, records []models.Respondent) {
	if s.cache == nil || key == "" {
		return
	}

	payload, err := json.Marshal(records)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, payload, s.cacheTTL).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("failed to store respondent list cache")
	}
}

func (s *respondentService) invalidate(ctx context.Context, action, id string) {
	if s.cache != nil {
		if err := s.cache.Incr(ctx, respondentListGenerationKey).Err(); err != nil {
			s.logger.Warn().Err(err).Msg("failed to invalidate respondent list cache")
		}
	}

	if s.changes == nil {
		return
	}

	event := dto.RespondentChangeEvent{
		Action:       action,
		RespondentID: id,
		OccurredAt:   s.now().UTC(),
	}
	if err := s.changes.Publish(ctx, event); err != nil {
		s.logger.Warn().Err(err).Str("action", action).Msg("failed to publish respondent change")
	}
}

func (s *respondentService) rejected(span trace.Span, op string, err error) error {
	outcome := "invalid"
	switch {
	case errors.Is(err, ErrDuplicatePhone):
		outcome = "duplicate"
	case errors.Is(err, ErrRespondentNotFound):
		outcome = "not_found"
	}

	span.SetStatus(codes.Error, outcome)
	observability.RespondentOperations().WithLabelValues(op, outcome).Inc()
	return err
}

func (s *respondentService) storeFailure(span trace.Span, op string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, "store failure")
	observability.RespondentOperations().WithLabelValues(op, "error").Inc()
	s.logger.Error().Err(err).Str("operation", op).Msg("respondent store operation failed")
	return &StoreError{Op: op, Err: err}
}
