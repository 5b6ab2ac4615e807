package workflows

import (
	"go.temporal.io/sdk/workflow"

	"github.com/bookwell/bookwell-api/internal/temporal"
	"github.com/bookwell/bookwell-api/internal/temporal/activities"
)

// InviteExpirySweepWorkflow runs one expiry sweep. It is scheduled as a
// cron workflow at startup.
func InviteExpirySweepWorkflow(ctx workflow.Context) error {
	ao := workflow.ActivityOptions{
		StartToCloseTimeout: temporal.DefaultActivityTimeout,
	}
	ctx = workflow.WithActivityOptions(ctx, ao)

	logger := workflow.GetLogger(ctx)

	// The actual implementation is on the worker; this is just a proxy.
	var a *activities.Activities

	var swept int64
	if err := workflow.ExecuteActivity(ctx, a.MarkExpiredInvites).Get(ctx, &swept); err != nil {
		logger.Error("Expiry sweep failed.", "error", err)
		return err
	}

	if swept > 0 {
		logger.Info("Expiry sweep completed.", "swept", swept)
	}
	return nil
}
