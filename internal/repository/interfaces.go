package repository

import (
	"context"

	"github.com/cboderot1/turnos2/internal/models"
)

type UserRepository interface {
	Create(ctx context.Context, username, displayName string, role models.Role, passwordHash string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, string /*passwordHash*/, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	List(ctx context.Context, role models.Role, limit, offset int) ([]models.User, int, error)
}
