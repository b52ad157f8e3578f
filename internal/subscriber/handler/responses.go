package handler

import (
	"time"

	"spamstopper/internal/subscriber/models"
)

type subscriberResponse struct {
	ID               string    `json:"id"`
	Email            string    `json:"email"`
	Name             string    `json:"name,omitempty"`
	ForwardingNumber string    `json:"forwarding_number"`
	PersonaID        string    `json:"persona_id,omitempty"`
	Tier             string    `json:"tier"`
	MonthlyQuota     *int      `json:"monthly_quota"`
	BlockedNumbers   []string  `json:"blocked_numbers"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

type registerResponse struct {
	Subscriber  subscriberResponse `json:"subscriber"`
	AccessToken string             `json:"access_token"`
}

type blocklistResponse struct {
	BlockedNumbers []string `json:"blocked_numbers"`
}

func formatSubscriber(sub *models.Subscriber) subscriberResponse {
	resp := subscriberResponse{
		ID:               sub.ID.String(),
		Email:            sub.Email,
		Name:             sub.Name,
		ForwardingNumber: sub.ForwardingNumber.String(),
		Tier:             string(sub.Tier),
		MonthlyQuota:     sub.MonthlyQuota(),
		BlockedNumbers:   formatBlocklist(sub),
		CreatedAt:        sub.CreatedAt,
		UpdatedAt:        sub.UpdatedAt,
	}
	if !sub.PersonaID.IsNil() {
		resp.PersonaID = sub.PersonaID.String()
	}
	return resp
}

func formatBlocklist(sub *models.Subscriber) []string {
	numbers := make([]string, 0, len(sub.BlockedNumbers))
	for _, n := range sub.BlockedNumbers {
		numbers = append(numbers, n.String())
	}
	return numbers
}
