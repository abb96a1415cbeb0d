package models

import (
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type SubmissionAction string

const (
	ActionCreate SubmissionAction = "create"
	ActionUpdate SubmissionAction = "update"
)

// ErrHistoryImmutable is returned when code tries to change a history row.
var ErrHistoryImmutable = errors.New("submission history is append-only")

// SubmissionHistory records one submit or update action with a full payload snapshot.
type SubmissionHistory struct {
	HistoryID   int              `gorm:"primaryKey;column:history_id" json:"history_id"`
	ModuleID    int              `gorm:"column:module_id;not null;index:idx_form_history_module_period,priority:1" json:"module_id"`
	Period      string           `gorm:"column:period;size:7;not null;index:idx_form_history_module_period,priority:2" json:"period"`
	SubmittedBy int              `gorm:"column:submitted_by;not null" json:"submitted_by"`
	Data        datatypes.JSON   `gorm:"column:data" json:"data"`
	ActionType  SubmissionAction `gorm:"column:action_type;size:8;not null" json:"action_type"`
	Remarks     *string          `gorm:"column:remarks;type:text" json:"remarks,omitempty"`
	CreatedAt   time.Time        `gorm:"column:created_at" json:"created_at"`
}

// TableName specifies the table for SubmissionHistory.
func (SubmissionHistory) TableName() string {
	return "form_submission_history"
}

func (SubmissionHistory) BeforeUpdate(*gorm.DB) error {
	return ErrHistoryImmutable
}

func (SubmissionHistory) BeforeDelete(*gorm.DB) error {
	return ErrHistoryImmutable
}
