package pg

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jinford/schedtask/internal/module/scheduling/adapter/pg/sqlc"
	"github.com/jinford/schedtask/internal/module/scheduling/domain"
)

// UserRepository はユーザー参照アダプターです
type UserRepository struct {
	q sqlc.Querier
}

// NewUserRepository は新しいユーザーリポジトリを作成します
func NewUserRepository(q sqlc.Querier) *UserRepository {
	return &UserRepository{q: q}
}

var _ domain.UserReader = (*UserRepository)(nil)

// GetByUsername はユーザー名でユーザーを取得します
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	user, err := r.q.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("user %q: %w", username, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &domain.User{
		ID:       PgtypeToUUID(user.ID),
		Username: user.Username,
	}, nil
}

// Create はユーザーを登録します
func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	err := r.q.CreateUser(ctx, sqlc.CreateUserParams{
		ID:       UUIDToPgtype(user.ID),
		Username: user.Username,
	})
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}
