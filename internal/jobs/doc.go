// Package jobs persists background jobs and drives them through a bounded
// worker pool.
//
// Enqueue admits a job unless an equivalent one (same kind, target and
// canonical arguments) is already pending or processing. A single dispatch
// goroutine claims pending jobs in priority order while fewer than the
// configured ceiling are processing and never claims a job whose target
// already has one processing. Triggers that arrive while a dispatch pass is
// running collapse into one more pass. Workers report completion back by
// updating the job and target status and triggering dispatch again.
//
// On Start, jobs left processing by an unclean shutdown return to pending and
// finished jobs older than the retention window are deleted. Jobs never retry
// on their own; submitting the same request again after a failure creates a
// new job.
package jobs
