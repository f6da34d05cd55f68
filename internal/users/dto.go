package users

import (
	"github.com/google/uuid"

	"github.com/pixelfair/pixelfair-backend/pkg/db/models"
)

// CreateUserDTO captures the fields needed to persist a new user.
type CreateUserDTO struct {
	Username     string
	Email        string
	PasswordHash string
	Balance      float64
}

// ToModel maps the DTO onto a persistable user model.
func (d CreateUserDTO) ToModel() *models.User {
	return &models.User{
		ID:           uuid.New(),
		Username:     d.Username,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		Balance:      d.Balance,
	}
}
