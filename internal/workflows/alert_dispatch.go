package workflows

import (
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

// AlertDispatchInput is the input for the alert dispatch workflow.
type AlertDispatchInput struct {
	AlertID   string
	VehicleID string
	ZoneName  string
	Event     string // enter | exit
	Time      string // RFC3339
}

// RenderedMessage is a template rendered for one delivery channel.
type RenderedMessage struct {
	Subject string
	Body    string
}

// AlertDispatchWorkflow renders the geofence alert template, delivers it by
// email and SMS, and marks the alert notified. If delivery ultimately fails
// the notified flag is reverted (saga compensation) so the alert is retried
// on the next dispatch sweep.
func AlertDispatchWorkflow(ctx workflow.Context, input AlertDispatchInput) error {
	logger := workflow.GetLogger(ctx)
	logger.Info("Starting alert dispatch", "alertID", input.AlertID, "event", input.Event)

	actOpts := workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 3,
		},
	}
	ctx = workflow.WithActivityOptions(ctx, actOpts)

	// Step 1: Claim the alert so a concurrent sweep doesn't double-send
	if err := workflow.ExecuteActivity(ctx, "MarkAlertNotified", input.AlertID).Get(ctx, nil); err != nil {
		return err
	}

	// Step 2: Render both channels
	var email, sms RenderedMessage
	if err := workflow.ExecuteActivity(ctx, "RenderAlertMessage", input, "email").Get(ctx, &email); err != nil {
		_ = workflow.ExecuteActivity(ctx, "RevertAlertNotified", input.AlertID).Get(ctx, nil)
		return err
	}
	if err := workflow.ExecuteActivity(ctx, "RenderAlertMessage", input, "sms").Get(ctx, &sms); err != nil {
		_ = workflow.ExecuteActivity(ctx, "RevertAlertNotified", input.AlertID).Get(ctx, nil)
		return err
	}

	// Step 3: Deliver email, then SMS
	if err := workflow.ExecuteActivity(ctx, "SendAlertEmail", email).Get(ctx, nil); err != nil {
		logger.Warn("email delivery failed, compensating", "error", err)
		_ = workflow.ExecuteActivity(ctx, "RevertAlertNotified", input.AlertID).Get(ctx, nil)
		return err
	}
	if err := workflow.ExecuteActivity(ctx, "SendAlertSMS", sms).Get(ctx, nil); err != nil {
		logger.Warn("sms delivery failed, compensating", "error", err)
		_ = workflow.ExecuteActivity(ctx, "RevertAlertNotified", input.AlertID).Get(ctx, nil)
		return err
	}

	logger.Info("Alert dispatched", "alertID", input.AlertID)
	return nil
}
