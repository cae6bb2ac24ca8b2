package services

import (
	"fmt"

	"chat-graph/errors"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Request DTOs at the API boundary. Malformed input is rejected here,
// before any core logic or storage access runs.

type CreateMessageRequest struct {
	GroupID string `validate:"required"`
	Text    string `validate:"required,max=4096"`
}

type CreateGroupRequest struct {
	Name    string   `validate:"required,min=1,max=128"`
	UserIDs []string `validate:"dive,required"`
}

type UpdateGroupRequest struct {
	ID   string  `validate:"required"`
	Name *string `validate:"omitempty,min=1,max=128"`
}

func validateRequest(req any) error {
	if err := validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrValidation, err)
	}
	return nil
}
