package temporal

import "time"

// TaskQueueName is the queue the maintenance worker listens on.
const TaskQueueName = "invite-maintenance"

// SweepWorkflowID keys the cron workflow so restarts reuse the running
// schedule instead of stacking duplicates.
const SweepWorkflowID = "invite-expiry-sweep"

const DefaultActivityTimeout = 30 * time.Second
