package usecases_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jomondi/fleetpulse/internal/core/domain"
	"github.com/jomondi/fleetpulse/internal/core/usecases"
)

// --- Mock TemplateRepository ---

type mockTemplateRepo struct {
	getBySlugFn func(ctx context.Context, slug, channel string) (*domain.NotificationTemplate, error)
	upserted    []domain.NotificationTemplate
}

func (m *mockTemplateRepo) GetBySlug(ctx context.Context, slug, channel string) (*domain.NotificationTemplate, error) {
	if m.getBySlugFn != nil {
		return m.getBySlugFn(ctx, slug, channel)
	}
	return nil, errors.New("not found")
}
func (m *mockTemplateRepo) List(ctx context.Context) ([]domain.NotificationTemplate, error) {
	return nil, nil
}
func (m *mockTemplateRepo) Upsert(ctx context.Context, tpl *domain.NotificationTemplate) error {
	m.upserted = append(m.upserted, *tpl)
	return nil
}

func alertTemplate() *domain.NotificationTemplate {
	return &domain.NotificationTemplate{
		Slug:    "geofence-alert",
		Channel: "email",
		Subject: "{{vehicle}} {{event}} {{zone}}",
		Body:    "Vehicle {{vehicle}} {{event}} zone {{zone}} at {{time}}.",
		Active:  true,
	}
}

func TestTemplateRender_SubstitutesPlaceholders(t *testing.T) {
	repo := &mockTemplateRepo{
		getBySlugFn: func(ctx context.Context, slug, channel string) (*domain.NotificationTemplate, error) {
			return alertTemplate(), nil
		},
	}
	svc := usecases.NewTemplateService(repo)

	subject, body, err := svc.Render(context.Background(), "geofence-alert", "email", map[string]string{
		"vehicle": "KDA 123X",
		"event":   "entered",
		"zone":    "Main Depot",
		"time":    "12:00",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if subject != "KDA 123X entered Main Depot" {
		t.Errorf("subject: got %q", subject)
	}
	if body != "Vehicle KDA 123X entered zone Main Depot at 12:00." {
		t.Errorf("body: got %q", body)
	}
}

func TestTemplateRender_UnknownPlaceholderKept(t *testing.T) {
	repo := &mockTemplateRepo{
		getBySlugFn: func(ctx context.Context, slug, channel string) (*domain.NotificationTemplate, error) {
			tpl := alertTemplate()
			tpl.Body = "Hello {{nobody}}"
			return tpl, nil
		},
	}
	svc := usecases.NewTemplateService(repo)

	_, body, err := svc.Render(context.Background(), "geofence-alert", "email", map[string]string{"vehicle": "x"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// A bad template should be visible, not silently blank
	if body != "Hello {{nobody}}" {
		t.Errorf("unknown placeholder must survive, got %q", body)
	}
}

func TestTemplateRender_InactiveFails(t *testing.T) {
	repo := &mockTemplateRepo{
		getBySlugFn: func(ctx context.Context, slug, channel string) (*domain.NotificationTemplate, error) {
			tpl := alertTemplate()
			tpl.Active = false
			return tpl, nil
		},
	}
	svc := usecases.NewTemplateService(repo)

	if _, _, err := svc.Render(context.Background(), "geofence-alert", "email", nil); err == nil {
		t.Fatal("expected error for inactive template")
	}
}

func TestTemplateSave_Validates(t *testing.T) {
	repo := &mockTemplateRepo{}
	svc := usecases.NewTemplateService(repo)
	ctx := context.Background()

	cases := []domain.NotificationTemplate{
		{Slug: "", Channel: "email", Body: "x"},
		{Slug: "a", Channel: "email", Body: ""},
		{Slug: "a", Channel: "push", Body: "x"},
	}
	for _, tpl := range cases {
		c := tpl
		if err := svc.Save(ctx, &c); err == nil {
			t.Errorf("expected validation error for %+v", tpl)
		}
	}

	ok := domain.NotificationTemplate{Slug: "a", Channel: "sms", Body: "x"}
	if err := svc.Save(ctx, &ok); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.upserted) != 1 {
		t.Fatalf("expected 1 upsert, got %d", len(repo.upserted))
	}
}
