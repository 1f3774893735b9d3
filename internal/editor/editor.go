// Package editor implements a single respondent editing session: field
// input with live derived-value preview, and a guarded submit.
package editor

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/noah-isme/respondent-registry-api/internal/derived"
	"github.com/noah-isme/respondent-registry-api/internal/dto"
	"github.com/noah-isme/respondent-registry-api/internal/service"
	"github.com/noah-isme/respondent-registry-api/internal/validation"
)

// State is the lifecycle position of an editing session.
type State int

const (
	StateEmpty State = iota
	StateEditing
	StateSubmitting
	StateSucceeded
)

func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateEditing:
		return "editing"
	case StateSubmitting:
		return "submitting"
	case StateSucceeded:
		return "succeeded"
	default:
		return "unknown"
	}
}

// Mode selects whether a submit creates or updates.
type Mode int

const (
	ModeCreate Mode = iota
	ModeEdit
)

// ErrSubmitInProgress is returned while a submit is pending.
var ErrSubmitInProgress = errors.New("submission already in progress")

// Submitter persists respondents.
type Submitter interface {
	Create(ctx context.Context, input dto.RespondentInput) (dto.RespondentResponse, error)
	Update(ctx context.Context, id string, input dto.RespondentInput) (dto.RespondentResponse, error)
}

// Preview holds the derived values computed from the current input.
type Preview struct {
	Age    int
	HasAge bool
	BMI    float64
}

// Outcome reports a finished submit.
type Outcome struct {
	Success    bool
	Message    string
	Violations []validation.FieldViolation
	Record     *dto.RespondentResponse
}

// Option customises an Editor.
type Option func(*Editor)

// WithClock overrides the clock used for the age preview.
func WithClock(now func() time.Time) Option {
	return func(e *Editor) {
		if now != nil {
			e.now = now
		}
	}
}

// Editor is safe for concurrent use; at most one submit runs at a time.
type Editor struct {
	mu        sync.Mutex
	submitter Submitter
	mode      Mode
	id        string
	state     State
	input     dto.RespondentInput
	preview   Preview
	onSuccess []func(dto.RespondentResponse)
	now       func() time.Time
}

// NewCreate starts a blank creation session.
func NewCreate(submitter Submitter, opts ...Option) *Editor {
	return newEditor(submitter, ModeCreate, "", dto.RespondentInput{}, opts)
}

// NewEdit starts a session pre-populated with an existing respondent.
func NewEdit(submitter Submitter, record dto.RespondentResponse, opts ...Option) *Editor {
	return newEditor(submitter, ModeEdit, record.ID, record.Input(), opts)
}

func newEditor(submitter Submitter, mode Mode, id string, input dto.RespondentInput, opts []Option) *Editor {
	e := &Editor{
		submitter: submitter,
		mode:      mode,
		id:        id,
		state:     StateEmpty,
		input:     input,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.refreshPreview()
	return e
}

// OnSuccess registers a callback run after every successful submit.
func (e *Editor) OnSuccess(fn func(dto.RespondentResponse)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onSuccess = append(e.onSuccess, fn)
}

// Set updates one field and recomputes the preview.
func (e *Editor) Set(field string, value interface{}) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == StateSubmitting {
		return ErrSubmitInProgress
	}

	if value == nil {
		delete(e.input, field)
	} else {
		e.input[field] = value
	}
	e.state = StateEditing

	switch field {
	case "dob", "height", "weight":
		e.refreshPreview()
	}
	return nil
}

// Submit validates and persists the current input through the submitter.
func (e *Editor) Submit(ctx context.Context) (Outcome, error) {
	e.mu.Lock()
	if e.state == StateSubmitting {
		e.mu.Unlock()
		return Outcome{}, ErrSubmitInProgress
	}
	e.state = StateSubmitting
	input := cloneInput(e.input)
	mode, id := e.mode, e.id
	e.mu.Unlock()

	var (
		record dto.RespondentResponse
		err    error
		op     = service.OperationCreate
	)
	if mode == ModeEdit {
		op = service.OperationUpdate
		record, err = e.submitter.Update(ctx, id, input)
	} else {
		record, err = e.submitter.Create(ctx, input)
	}

	result := service.Result(op, err)
	outcome := Outcome{Success: result.Success, Message: result.Message}

	e.mu.Lock()
	if err != nil {
		var validationErr *validation.Error
		if errors.As(err, &validationErr) {
			outcome.Violations = validationErr.Violations
		}
		e.state = StateEditing
		e.mu.Unlock()
		return outcome, nil
	}

	outcome.Record = &record
	if mode == ModeCreate {
		e.input = dto.RespondentInput{}
		e.state = StateEmpty
	} else {
		e.input = record.Input()
		e.state = StateSucceeded
	}
	e.refreshPreview()
	callbacks := append(([]func(dto.RespondentResponse))(nil), e.onSuccess...)
	e.mu.Unlock()

	for _, fn := range callbacks {
		fn(record)
	}
	return outcome, nil
}

// State returns the current lifecycle state.
func (e *Editor) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Mode returns whether the session creates or updates.
func (e *Editor) Mode() Mode {
	return e.mode
}

// ID returns the respondent being edited, empty in create mode.
func (e *Editor) ID() string {
	return e.id
}

// Input returns a copy of the current field values.
func (e *Editor) Input() dto.RespondentInput {
	e.mu.Lock()
	defer e.mu.Unlock()
	return cloneInput(e.input)
}

// Preview returns the derived values for the current input.
func (e *Editor) Preview() Preview {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.preview
}

func (e *Editor) refreshPreview() {
	preview := Preview{}

	if dob, err := validation.ParseDate(e.input["dob"]); err == nil {
		preview.Age = derived.Age(dob, e.now())
		preview.HasAge = true
	}

	height, heightErr := validation.ParseNumber(e.input["height"])
	weight, weightErr := validation.ParseNumber(e.input["weight"])
	if heightErr == nil && weightErr == nil {
		preview.BMI = derived.BMI(height, weight)
	}

	e.preview = preview
}

func cloneInput(input dto.RespondentInput) dto.RespondentInput {
	clone := make(dto.RespondentInput, len(input))
	for key, value := range input {
		clone[key] = value
	}
	return clone
}
