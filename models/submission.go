package models

import (
	"time"

	"gorm.io/datatypes"
)

// Submission is the current state of one module for one period. The unique
// index on (module_id, period) backs the one-row-per-key invariant.
type Submission struct {
	SubmissionID    int            `gorm:"primaryKey;column:submission_id" json:"submission_id"`
	ModuleID        int            `gorm:"column:module_id;not null;uniqueIndex:uq_form_submissions_module_period,priority:1" json:"module_id"`
	Period          string         `gorm:"column:period;size:7;not null;uniqueIndex:uq_form_submissions_module_period,priority:2;index:idx_form_submissions_period" json:"period"`
	Data            datatypes.JSON `gorm:"column:data" json:"data"`
	SubmittedBy     int            `gorm:"column:submitted_by;not null" json:"submitted_by"`
	SubmissionCount int            `gorm:"column:submission_count;not null" json:"submission_count"`
	Remarks         *string        `gorm:"column:remarks;type:text" json:"remarks,omitempty"`
	Suggestions     *string        `gorm:"column:suggestions;type:text" json:"suggestions,omitempty"`
	CreatedAt       time.Time      `gorm:"column:created_at" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"column:updated_at" json:"updated_at"`
}

func (Submission) TableName() string {
	return "form_submissions"
}
