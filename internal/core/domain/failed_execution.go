package domain

import "time"

// FailedExecution records an execution that used every retry and still failed.
type FailedExecution struct {
	ID          string                `json:"id"           db:"id"`
	ExecutionID string                `json:"execution_id" db:"execution_id"`
	Operation   string                `json:"operation"    db:"operation"`
	Kind        string                `json:"kind"         db:"kind"`
	Error       string                `json:"error_msg"    db:"error_msg"`
	Attempts    int                   `json:"attempts"     db:"attempts"`
	Status      FailedExecutionStatus `json:"status"       db:"status"`
	CreatedAt   time.Time             `json:"created_at"   db:"created_at"`
}

type FailedExecutionStatus string

const (
	FailedExecutionStatusPending  FailedExecutionStatus = "pending"
	FailedExecutionStatusResolved FailedExecutionStatus = "resolved"
)
