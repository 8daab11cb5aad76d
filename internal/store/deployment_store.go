package store

import (
	"context"
	"time"
)

type IntentStatus string

const (
	IntentPending  IntentStatus = "pending"
	IntentMatched  IntentStatus = "matched"
	IntentOrphaned IntentStatus = "orphaned"
)

type RunStatus string

const (
	RunQueued     RunStatus = "queued"
	RunInProgress RunStatus = "in_progress"
	RunCompleted  RunStatus = "completed"
)

type Conclusion string

const (
	ConclusionSuccess   Conclusion = "success"
	ConclusionFailure   Conclusion = "failure"
	ConclusionCancelled Conclusion = "cancelled"
)

// Deployment is one triggered-or-observed deployment attempt. A row starts
// life as a pending intent with no external run id, and either gets matched
// to a run reported by the forge or is orphaned after a timeout.
type Deployment struct {
	DeploymentID        int64
	DeploymentProjectID int64
	ExternalRunID       *int64
	CommitSha           string
	CommitMessage       string
	CommitAuthor        string
	IntentStatus        IntentStatus
	RunStatus           *RunStatus
	Conclusion          *Conclusion
	IsLive              bool
	RunURL              *string
	TriggeredOn         time.Time
	MatchedOn           *time.Time
	UpdatedOn           time.Time
}

func (d *Deployment) IsActive() bool {
	return d.RunStatus != nil && (*d.RunStatus == RunQueued || *d.RunStatus == RunInProgress)
}

func (d *Deployment) IsSuccessful() bool {
	return d.RunStatus != nil && *d.RunStatus == RunCompleted &&
		d.Conclusion != nil && *d.Conclusion == ConclusionSuccess
}

// ExternalRunUpsert carries the externally-observed fields for a run.
type ExternalRunUpsert struct {
	ExternalRunID int64
	CommitSha     string
	CommitMessage string
	CommitAuthor  string
	RunStatus     RunStatus
	Conclusion    *Conclusion
	RunURL        *string
	CreatedOn     time.Time
}

type DeploymentWriter interface {
	CreateIntent(context.Context, int64, string, string, string) (*Deployment, error)
	UpsertExternalRun(context.Context, int64, ExternalRunUpsert) error
	MatchPendingToRun(context.Context, int64, int64, ExternalRunUpsert) (bool, error)
	MarkOrphaned(context.Context, int64, time.Time) error
	MarkLive(context.Context, int64, int64) error
}

type DeploymentReader interface {
	ReadDeploymentByID(context.Context, int64) (*Deployment, error)
	ReadByExternalRunID(context.Context, int64, int64) (*Deployment, error)
	ReadLive(context.Context, int64) (*Deployment, error)
	ListPending(context.Context, int64) ([]Deployment, error)
	ListProjectDeployments(context.Context, int64, int64) ([]Deployment, error)
}

type DeploymentStore interface {
	DeploymentWriter
	DeploymentReader
}
