package handler

import (
	"strings"

	id "spamstopper/pkg/domain"
	dErrors "spamstopper/pkg/domain-errors"
)

type registerRequest struct {
	Email            string `json:"email"`
	Name             string `json:"name"`
	ForwardingNumber string `json:"forwarding_number"`
	PersonaID        string `json:"persona_id,omitempty"`
}

func (r *registerRequest) Normalize() {
	r.Email = strings.TrimSpace(r.Email)
	r.Name = strings.TrimSpace(r.Name)
	r.ForwardingNumber = strings.TrimSpace(r.ForwardingNumber)
	r.PersonaID = strings.TrimSpace(r.PersonaID)
}

func (r *registerRequest) Validate() error {
	if r.Email == "" {
		return dErrors.New(dErrors.CodeValidation, "email is required")
	}
	if r.ForwardingNumber == "" {
		return dErrors.New(dErrors.CodeValidation, "forwarding_number is required")
	}
	if !id.IsValidPhoneNumber(r.ForwardingNumber) {
		return dErrors.New(dErrors.CodeValidation, "forwarding_number must be E.164")
	}
	return nil
}

type updateSettingsRequest struct {
	Name             *string `json:"name,omitempty"`
	ForwardingNumber *string `json:"forwarding_number,omitempty"`
	PersonaID        *string `json:"persona_id,omitempty"`
}

func (r *updateSettingsRequest) Validate() error {
	if r.Name == nil && r.ForwardingNumber == nil && r.PersonaID == nil {
		return dErrors.New(dErrors.CodeValidation, "no fields to update")
	}
	if r.ForwardingNumber != nil && !id.IsValidPhoneNumber(*r.ForwardingNumber) {
		return dErrors.New(dErrors.CodeValidation, "forwarding_number must be E.164")
	}
	return nil
}

type blockNumberRequest struct {
	Number string `json:"number"`
}

func (r *blockNumberRequest) Normalize() {
	r.Number = strings.TrimSpace(r.Number)
}

func (r *blockNumberRequest) Validate() error {
	if r.Number == "" {
		return dErrors.New(dErrors.CodeValidation, "number is required")
	}
	if !id.IsValidPhoneNumber(r.Number) {
		return dErrors.New(dErrors.CodeValidation, "number must be E.164")
	}
	return nil
}
