package service

import (
	"errors"

	"github.com/noah-isme/respondent-registry-api/internal/dto"
	"github.com/noah-isme/respondent-registry-api/internal/validation"
)

// Operation names a respondent write for outcome reporting.
type Operation string

const (
	OperationCreate Operation = "create"
	OperationUpdate Operation = "update"
	OperationDelete Operation = "delete"
)

// Messages shown to the operator after a write.
const (
	MessageCreated             = "Respondent added successfully."
	MessageUpdated             = "Respondent updated successfully."
	MessageDeleted             = "Respondent deleted successfully."
	MessageValidationFailed    = "Validation failed. Please check your input."
	MessageDuplicatePhone      = "A respondent with this WhatsApp number already exists."
	MessageDuplicatePhoneOther = "Another respondent with this WhatsApp number already exists."
	MessageNotFound            = "Respondent not found."
	MessageUnexpected          = "An unexpected error occurred."
)

// Result converts the error returned by a write into the operator-facing outcome.
func Result(op Operation, err error) dto.ActionResponse {
	if err == nil {
		switch op {
		case OperationUpdate:
			return dto.ActionResponse{Success: true, Message: MessageUpdated}
		case OperationDelete:
			return dto.ActionResponse{Success: true, Message: MessageDeleted}
		default:
			return dto.ActionResponse{Success: true, Message: MessageCreated}
		}
	}

	var validationErr *validation.Error
	switch {
	case errors.As(err, &validationErr):
		return dto.ActionResponse{Message: MessageValidationFailed}
	case errors.Is(err, ErrDuplicatePhone) && op == OperationUpdate:
		return dto.ActionResponse{Message: MessageDuplicatePhoneOther}
	case errors.Is(err, ErrDuplicatePhone):
		return dto.ActionResponse{Message: MessageDuplicatePhone}
	case errors.Is(err, ErrRespondentNotFound):
		return dto.ActionResponse{Message: MessageNotFound}
	default:
		return dto.ActionResponse{Message: MessageUnexpected}
	}
}
