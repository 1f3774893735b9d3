package editor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/noah-isme/respondent-registry-api/internal/dto"
	"github.com/noah-isme/respondent-registry-api/internal/service"
	"github.com/noah-isme/respondent-registry-api/internal/validation"
)

var clock = func() time.Time { return time.Date(2024, time.June, 15, 12, 0, 0, 0, time.UTC) }

type fakeSubmitter struct {
	mu      sync.Mutex
	schema  *validation.Schema
	err     error
	block   chan struct{}
	created []dto.RespondentInput
	updated map[string]dto.RespondentInput
}

func newFakeSubmitter() *fakeSubmitter {
	return &fakeSubmitter{
		schema:  validation.NewSchema(validation.VariantBase, validation.WithClock(clock)),
		updated: make(map[string]dto.RespondentInput),
	}
}

func (f *fakeSubmitter) persist(id string, input dto.RespondentInput) (dto.RespondentResponse, error) {
	if f.block != nil {
		<-f.block
	}
	if f.err != nil {
		return dto.RespondentResponse{}, f.err
	}
	record, err := f.schema.Validate(input)
	if err != nil {
		return dto.RespondentResponse{}, err
	}
	record.ID = id
	record.CreatedAt = clock()
	return dto.NewRespondentResponse(record, clock()), nil
}

func (f *fakeSubmitter) Create(ctx context.Context, input dto.RespondentInput) (dto.RespondentResponse, error) {
	f.mu.Lock()
	f.created = append(f.created, input)
	f.mu.Unlock()
	return f.persist("r-new", input)
}

func (f *fakeSubmitter) Update(ctx context.Context, id string, input dto.RespondentInput) (dto.RespondentResponse, error) {
	f.mu.Lock()
	f.updated[id] = input
	f.mu.Unlock()
	return f.persist(id, input)
}

func fillValid(t *testing.T, e *Editor) {
	t.Helper()
	for field, value := range map[string]interface{}{
		"name":   "Alice",
		"dob":    "2000-01-01",
		"phone":  "+10000000001",
		"email":  "alice@example.com",
		"height": "170",
		"weight": "70",
	} {
		require.NoError(t, e.Set(field, value))
	}
}

func TestEditorLivePreview(t *testing.T) {
	e := NewCreate(newFakeSubmitter(), WithClock(clock))
	require.Equal(t, StateEmpty, e.State())
	require.Equal(t, Preview{}, e.Preview())

	require.NoError(t, e.Set("dob", "2000-01-01"))
	require.NoError(t, e.Set("height", "170"))
	require.Equal(t, StateEditing, e.State())
	require.Equal(t, Preview{Age: 24, HasAge: true}, e.Preview())

	require.NoError(t, e.Set("weight", 70))
	require.Equal(t, 24.22, e.Preview().BMI)

	require.NoError(t, e.Set("height", "-1"))
	require.Zero(t, e.Preview().BMI)
}

func TestEditorCreateSuccessResets(t *testing.T) {
	submitter := newFakeSubmitter()
	e := NewCreate(submitter, WithClock(clock))

	var notified []string
	e.OnSuccess(func(record dto.RespondentResponse) { notified = append(notified, record.ID) })

	fillValid(t, e)
	outcome, err := e.Submit(context.Background())
	require.NoError(t, err)
	require.True(t, outcome.Success)
	require.Equal(t, service.MessageCreated, outcome.Message)
	require.NotNil(t, outcome.Record)
	require.Equal(t, 24.22, outcome.Record.BMI)

	require.Equal(t, StateEmpty, e.State())
	require.Empty(t, e.Input())
	require.Equal(t, []string{"r-new"}, notified)
}

func TestEditorFailurePreservesInput(t *testing.T) {
	submitter := newFakeSubmitter()
	submitter.err = service.ErrDuplicatePhone
	e := NewCreate(submitter, WithClock(clock))

	called := false
	e.OnSuccess(func(dto.RespondentResponse) { called = true })

	fillValid(t, e)
	before := e.Input()

	outcome, err := e.Submit(context.Background())
	require.NoError(t, err)
	require.False(t, outcome.Success)
	require.Equal(t, service.MessageDuplicatePhone, outcome.Message)
	require.Equal(t, StateEditing, e.State())
	require.Equal(t, before, e.Input())
	require.False(t, called)
}

func TestEditorValidationViolations(t *testing.T) {
	e := NewCreate(newFakeSubmitter(), WithClock(clock))
	fillValid(t, e)
	require.NoError(t, e.Set("phone", "123"))

	outcome, err := e.Submit(context.Background())
	require.NoError(t, err)
	require.False(t, outcome.Success)
	require.Equal(t, service.MessageValidationFailed, outcome.Message)
	require.Len(t, outcome.Violations, 1)
	require.Equal(t, "phone", outcome.Violations[0].Field)
	require.Equal(t, "123", e.Input()["phone"])
}

func TestEditorRejectsSubmitWhilePending(t *testing.T) {
	defer goleak.VerifyNone(t)

	submitter := newFakeSubmitter()
	submitter.block = make(chan struct{})
	e := NewCreate(submitter, WithClock(clock))
	fillValid(t, e)

	done := make(chan Outcome)
	go func() {
		outcome, _ := e.Submit(context.Background())
		done <- outcome
	}()

	require.Eventually(t, func() bool { return e.State() == StateSubmitting }, time.Second, 5*time.Millisecond)

	_, err := e.Submit(context.Background())
	require.ErrorIs(t, err, ErrSubmitInProgress)
	require.ErrorIs(t, e.Set("name", "Bob"), ErrSubmitInProgress)

	close(submitter.block)
	outcome := <-done
	require.True(t, outcome.Success)

	submitter.mu.Lock()
	defer submitter.mu.Unlock()
	require.Len(t, submitter.created, 1)
}

func TestEditorEditModePrepopulates(t *testing.T) {
	submitter := newFakeSubmitter()
	existing, err := submitter.persist("r-7", dto.RespondentInput{
		"name":   "Alice",
		"dob":    "2000-01-01",
		"phone":  "+10000000001",
		"email":  "alice@example.com",
		"height": 170,
		"weight": 70,
	})
	require.NoError(t, err)

	e := NewEdit(submitter, existing, WithClock(clock))
	require.Equal(t, ModeEdit, e.Mode())
	require.Equal(t, "r-7", e.ID())
	require.IsType(t, time.Time{}, e.Input()["dob"])
	require.Equal(t, Preview{Age: 24, HasAge: true, BMI: 24.22}, e.Preview())

	require.NoError(t, e.Set("weight", 72))
	outcome, err := e.Submit(context.Background())
	require.NoError(t, err)
	require.True(t, outcome.Success)
	require.Equal(t, service.MessageUpdated, outcome.Message)
	require.Equal(t, StateSucceeded, e.State())
	require.Contains(t, submitter.updated, "r-7")
	require.Equal(t, 72.0, e.Input()["weight"])
}
