package usecases

import (
	"context"
	"fmt"
	"strings"

	"github.com/jomondi/fleetpulse/internal/core/domain"
	"github.com/jomondi/fleetpulse/internal/core/ports"
)

// TemplateService loads and renders notification templates.
type TemplateService struct {
	templates ports.TemplateRepository
}

// NewTemplateService creates a new TemplateService.
func NewTemplateService(templates ports.TemplateRepository) *TemplateService {
	return &TemplateService{templates: templates}
}

// Render loads a template by slug+channel and substitutes {{key}}
// placeholders. Unknown placeholders are left as-is so a bad template is
// visible instead of silently blank.
func (s *TemplateService) Render(ctx context.Context, slug, channel string, vars map[string]string) (subject, body string, err error) {
	tpl, err := s.templates.GetBySlug(ctx, slug, channel)
	if err != nil {
		return "", "", fmt.Errorf("load template %s/%s: %w", slug, channel, err)
	}
	if !tpl.Active {
		return "", "", fmt.Errorf("template %s/%s is inactive", slug, channel)
	}
	return substitute(tpl.Subject, vars), substitute(tpl.Body, vars), nil
}

// List returns all templates for the admin template editor.
func (s *TemplateService) List(ctx context.Context) ([]domain.NotificationTemplate, error) {
	return s.templates.List(ctx)
}

// Save upserts a template.
func (s *TemplateService) Save(ctx context.Context, tpl *domain.NotificationTemplate) error {
	if tpl.Slug == "" || tpl.Body == "" {
		return fmt.Errorf("template slug and body are required")
	}
	if tpl.Channel != "email" && tpl.Channel != "sms" {
		return fmt.Errorf("unknown channel %q", tpl.Channel)
	}
	return s.templates.Upsert(ctx, tpl)
}

func substitute(text string, vars map[string]string) string {
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{{"+k+"}}", v)
	}
	return strings.NewReplacer(pairs...).Replace(text)
}
