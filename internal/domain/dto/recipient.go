package dto

import "github.com/storkforge/petconnect/internal/domain/entity"

// Recipient carries the channel addresses of a meet-up participant.
type Recipient struct {
	UserID string
	Name   string
	Email  string
	Phone  string
}

func NewRecipientFromEntity(user entity.User) Recipient {
	return Recipient{
		UserID: user.ID,
		Name:   user.Name,
		Email:  user.Email,
		Phone:  user.Phone,
	}
}
