package postgres

import (
	"context"
	"fmt"

	"github.com/jomondi/fleetpulse/internal/core/domain"
)

// UserRepo implements ports.UserRepository.
type UserRepo struct {
	db *DB
}

func NewUserRepo(db *DB) *UserRepo {
	return &UserRepo{db: db}
}

func (r *UserRepo) Upsert(ctx context.Context, u *domain.User) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO users (email, name, phone, role, active)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (email) DO UPDATE SET
			name = EXCLUDED.name,
			phone = EXCLUDED.phone,
			role = EXCLUDED.role,
			active = EXCLUDED.active
	`, u.Email, u.Name, nilIfEmpty(u.Phone), u.Role, u.Active)
	return err
}

func (r *UserRepo) UpsertBatch(ctx context.Context, users []domain.User) error {
	for i := range users {
		if err := r.Upsert(ctx, &users[i]); err != nil {
			return fmt.Errorf("upsert user %s: %w", users[i].Email, err)
		}
	}
	return nil
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	row := r.db.Pool.QueryRow(ctx, `
		SELECT id, email, name, COALESCE(phone, ''), role, active, created_at
		FROM users WHERE id = $1
	`, id)

	var u domain.User
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.Phone, &u.Role, &u.Active, &u.CreatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) List(ctx context.Context) ([]domain.User, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, email, name, COALESCE(phone, ''), role, active, created_at
		FROM users ORDER BY email
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.Email, &u.Name, &u.Phone, &u.Role, &u.Active, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
