package postgres

import (
	"context"

	"github.com/jomondi/fleetpulse/internal/core/domain"
)

// TemplateRepo implements ports.TemplateRepository.
type TemplateRepo struct {
	db *DB
}

func NewTemplateRepo(db *DB) *TemplateRepo {
	return &TemplateRepo{db: db}
}

func (r *TemplateRepo) GetBySlug(ctx context.Context, slug, channel string) (*domain.NotificationTemplate, error) {
	row := r.db.Pool.QueryRow(ctx, `
		SELECT id, slug, channel, COALESCE(subject, ''), body, active, created_at
		FROM notification_templates
		WHERE slug = $1 AND channel = $2
	`, slug, channel)

	var t domain.NotificationTemplate
	if err := row.Scan(&t.ID, &t.Slug, &t.Channel, &t.Subject, &t.Body, &t.Active, &t.CreatedAt); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TemplateRepo) List(ctx context.Context) ([]domain.NotificationTemplate, error) {
	rows, err := r.db.Pool.Query(ctx, `
		SELECT id, slug, channel, COALESCE(subject, ''), body, active, created_at
		FROM notification_templates ORDER BY slug, channel
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var templates []domain.NotificationTemplate
	for rows.Next() {
		var t domain.NotificationTemplate
		if err := rows.Scan(&t.ID, &t.Slug, &t.Channel, &t.Subject, &t.Body, &t.Active, &t.CreatedAt); err != nil {
			return nil, err
		}
		templates = append(templates, t)
	}
	return templates, rows.Err()
}

func (r *TemplateRepo) Upsert(ctx context.Context, tpl *domain.NotificationTemplate) error {
	_, err := r.db.Pool.Exec(ctx, `
		INSERT INTO notification_templates (slug, channel, subject, body, active)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (slug, channel) DO UPDATE SET
			subject = EXCLUDED.subject,
			body = EXCLUDED.body,
			active = EXCLUDED.active
	`, tpl.Slug, tpl.Channel, nilIfEmpty(tpl.Subject), tpl.Body, tpl.Active)
	return err
}
