package models

// FileStatus is the publish gate's verdict for one output file.
type FileStatus string

// Gate verdicts.
const (
	StatusUnchanged FileStatus = "unchanged"
	StatusCreated   FileStatus = "created"
	StatusUpdated   FileStatus = "updated"
)

// PublishOutcome is the result of the best-effort git publish step.
type PublishOutcome string

// Publish outcomes. PublishClean means the worktree had nothing to
// commit; PublishFailed means the commit or push mechanism broke, which
// is reported loudly but never fails the run.
const (
	PublishDisabled PublishOutcome = "disabled"
	PublishClean    PublishOutcome = "clean"
	PublishPushed   PublishOutcome = "pushed"
	PublishFailed   PublishOutcome = "failed"
)
