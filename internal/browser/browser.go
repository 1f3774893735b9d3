// Package browser holds the in-memory respondent table: the fetched record
// set plus the filter and sort that produce the visible view.
package browser

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/respondent-registry-api/internal/dto"
	"github.com/noah-isme/respondent-registry-api/internal/editor"
	"github.com/noah-isme/respondent-registry-api/internal/export"
	"github.com/noah-isme/respondent-registry-api/internal/observability"
	"github.com/noah-isme/respondent-registry-api/internal/validation"
)

// Store is the subset of the respondent service the browser drives.
type Store interface {
	editor.Submitter
	List(ctx context.Context) ([]dto.RespondentResponse, error)
	Delete(ctx context.Context, id string) error
}

// Browser is safe for concurrent use.
type Browser struct {
	mu      sync.RWMutex
	store   Store
	variant validation.Variant
	records []dto.RespondentResponse
	query   Query
	logger  zerolog.Logger
	now     func() time.Time
}

// New constructs an empty browser. Call Refresh to load records.
func New(store Store, variant validation.Variant, logger zerolog.Logger) *Browser {
	return &Browser{
		store:   store,
		variant: variant,
		query:   Query{Direction: Ascending, Variant: variant},
		logger:  logger.With().Str("component", "respondent_browser").Logger(),
		now:     time.Now,
	}
}

// Refresh replaces the record set with the store's current contents. On
// failure the previous set is kept and the error returned.
func (b *Browser) Refresh(ctx context.Context) error {
	records, err := b.store.List(ctx)
	if err != nil {
		b.logger.Warn().Err(err).Msg("failed to refresh respondents")
		return err
	}

	b.mu.Lock()
	b.records = records
	b.mu.Unlock()
	return nil
}

// SetFilter sets the free-text filter.
func (b *Browser) SetFilter(text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.query.Search = text
}

// ToggleSort sorts by column, reversing the direction when column is already active.
func (b *Browser) ToggleSort(column Column) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.query.Sort == column && b.query.Direction == Ascending {
		b.query.Direction = Descending
		return
	}
	b.query.Sort = column
	b.query.Direction = Ascending
}

// SetSort sorts by column in an explicit direction.
func (b *Browser) SetSort(column Column, direction Direction) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.query.Sort = column
	b.query.Direction = direction
}

// Query returns the active filter and sort.
func (b *Browser) Query() Query {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.query
}

// Total returns the size of the full record set.
func (b *Browser) Total() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.records)
}

// Rows returns the visible view.
func (b *Browser) Rows() []dto.RespondentResponse {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return Apply(b.records, b.query)
}

// Delete removes a respondent, dropping it from memory only once the store confirms.
func (b *Browser) Delete(ctx context.Context, id string) error {
	if err := b.store.Delete(ctx, id); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	kept := b.records[:0:0]
	for _, record := range b.records {
		if record.ID != id {
			kept = append(kept, record)
		}
	}
	b.records = kept
	return nil
}

// Edit opens an editor pre-populated with the respondent. A successful submit
// re-fetches the record set.
func (b *Browser) Edit(ctx context.Context, id string) (*editor.Editor, bool) {
	b.mu.RLock()
	var (
		record dto.RespondentResponse
		found  bool
	)
	for _, candidate := range b.records {
		if candidate.ID == id {
			record, found = candidate, true
			break
		}
	}
	b.mu.RUnlock()

	if !found {
		return nil, false
	}

	session := editor.NewEdit(b.store, record, editor.WithClock(b.now))
	session.OnSuccess(func(dto.RespondentResponse) {
		if err := b.Refresh(ctx); err != nil {
			b.logger.Warn().Err(err).Str("respondent_id", id).Msg("refresh after edit failed")
		}
	})
	return session, true
}

// Create opens a blank editor whose successful submits re-fetch the record set.
func (b *Browser) Create(ctx context.Context) *editor.Editor {
	session := editor.NewCreate(b.store, editor.WithClock(b.now))
	session.OnSuccess(func(dto.RespondentResponse) {
		if err := b.Refresh(ctx); err != nil {
			b.logger.Warn().Err(err).Msg("refresh after create failed")
		}
	})
	return session
}

// Export writes the visible view and returns the suggested filename.
func (b *Browser) Export(w io.Writer, format export.Format) (string, error) {
	table := ExportTable(b.Rows(), b.variant)
	if err := export.Write(w, format, table); err != nil {
		return "", err
	}

	observability.RespondentExports().WithLabelValues(string(format)).Inc()
	return export.Filename(format, b.now()), nil
}
