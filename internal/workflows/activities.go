package workflows

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jomondi/fleetpulse/internal/core/ports"
	"github.com/jomondi/fleetpulse/internal/core/usecases"
)

// AlertActivities holds the activity implementations for the alert dispatch workflow.
type AlertActivities struct {
	Templates *usecases.TemplateService
	Geofences ports.GeofenceRepository
	Users     ports.UserRepository
	Vehicles  ports.VehicleRepository
	Notifier  ports.Notifier
}

// RenderAlertMessage renders the geofence alert template for a channel.
func (a *AlertActivities) RenderAlertMessage(ctx context.Context, input AlertDispatchInput, channel string) (RenderedMessage, error) {
	vars := map[string]string{
		"vehicle": input.VehicleID,
		"zone":    input.ZoneName,
		"event":   input.Event,
		"time":    input.Time,
	}
	if v, err := a.Vehicles.GetByID(ctx, input.VehicleID); err == nil {
		vars["vehicle"] = v.PlateNumber
	}

	subject, body, err := a.Templates.Render(ctx, "geofence-alert", channel, vars)
	if err != nil {
		return RenderedMessage{}, fmt.Errorf("render geofence-alert/%s: %w", channel, err)
	}
	return RenderedMessage{Subject: subject, Body: body}, nil
}

// MarkAlertNotified records delivery on the alert row.
func (a *AlertActivities) MarkAlertNotified(ctx context.Context, alertID string) error {
	if err := a.Geofences.MarkNotified(ctx, alertID); err != nil {
		return fmt.Errorf("mark alert %s notified: %w", alertID, err)
	}
	return nil
}

// SendAlertEmail delivers the rendered message to every active admin.
func (a *AlertActivities) SendAlertEmail(ctx context.Context, msg RenderedMessage) error {
	users, err := a.Users.List(ctx)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}
	for _, u := range users {
		if !u.Active || u.Role != "admin" {
			continue
		}
		if err := a.Notifier.SendEmail(ctx, u.Email, msg.Subject, msg.Body); err != nil {
			return fmt.Errorf("email %s: %w", u.Email, err)
		}
	}
	return nil
}

// SendAlertSMS delivers the rendered message to admins with a phone on file.
func (a *AlertActivities) SendAlertSMS(ctx context.Context, msg RenderedMessage) error {
	users, err := a.Users.List(ctx)
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}
	for _, u := range users {
		if !u.Active || u.Role != "admin" || u.Phone == "" {
			continue
		}
		if err := a.Notifier.SendSMS(ctx, u.Phone, msg.Body); err != nil {
			return fmt.Errorf("sms %s: %w", u.Phone, err)
		}
	}
	return nil
}

// RevertAlertNotified clears the delivery flag (saga compensation / rollback).
func (a *AlertActivities) RevertAlertNotified(ctx context.Context, alertID string) error {
	if err := a.Geofences.RevertNotified(ctx, alertID); err != nil {
		return fmt.Errorf("revert alert %s: %w", alertID, err)
	}
	slog.Info("alert delivery reverted", "alert_id", alertID)
	return nil
}
