package models

import (
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ErrAppendOnly is returned when code tries to mutate an audit row.
var ErrAppendOnly = errors.New("audit records are append-only")

// Execution status constants
const (
	ExecutionStatusSuccess = "success"
	ExecutionStatusError   = "error"
)

// Selection mode recorded on each execution
const (
	SelectionModeKeyword = "keyword"
	SelectionModeTitle   = "title"
)

// ExecutionRecord marks one attempted run of a Schedule. It is the durable
// anti-repetition and anti-double-fire ledger and is never updated.
type ExecutionRecord struct {
	ID                  uint      `gorm:"primaryKey"`
	RunID               string    `gorm:"column:run_id;uniqueIndex;not null"`
	ScheduleID          uint      `gorm:"column:schedule_id;not null;index:idx_execution_records_schedule_time,priority:1"`
	SiteConfigurationID uint      `gorm:"column:site_configuration_id;not null"`
	ExecutedAt          time.Time `gorm:"column:executed_at;not null;index:idx_execution_records_schedule_time,priority:2"`
	Mode                string    `gorm:"not null;default:'keyword'"`
	KeywordUsed         string    `gorm:"column:keyword_used;not null;default:''"`
	ArticleTitle        string    `gorm:"column:article_title;not null;default:''"`
	PostID              int64     `gorm:"column:post_id;not null;default:0"`
	PostURL             string    `gorm:"column:post_url;not null;default:''"`
	PublishStatus       string    `gorm:"column:publish_status;not null;default:''"`
	WordCount           int       `gorm:"column:word_count;not null;default:0"`
	Status              string    `gorm:"not null;index"`
	ErrorMessage        string    `gorm:"column:error_message;type:text"`
	CreatedAt           time.Time
}

// BeforeUpdate rejects mutation of an execution record.
func (r *ExecutionRecord) BeforeUpdate(tx *gorm.DB) error {
	return ErrAppendOnly
}

// BeforeDelete rejects deletion of an execution record.
func (r *ExecutionRecord) BeforeDelete(tx *gorm.DB) error {
	return ErrAppendOnly
}

// ExecutionLease claims one firing cycle of a schedule. The unique index on
// (schedule_id, cycle_key) lets exactly one invocation own the cycle.
type ExecutionLease struct {
	ID         uint      `gorm:"primaryKey"`
	ScheduleID uint      `gorm:"column:schedule_id;not null;uniqueIndex:idx_execution_leases_cycle,priority:1"`
	CycleKey   string    `gorm:"column:cycle_key;not null;uniqueIndex:idx_execution_leases_cycle,priority:2"`
	RunID      string    `gorm:"column:run_id;not null"`
	ClaimedAt  time.Time `gorm:"column:claimed_at;not null"`
}

// FactCheckReport is the audit trail of one verification pass.
type FactCheckReport struct {
	ID             uint           `gorm:"primaryKey"`
	RunID          string         `gorm:"column:run_id;not null;index"`
	ScheduleID     uint           `gorm:"column:schedule_id;not null;index"`
	Keyword        string         `gorm:"not null;default:''"`
	Results        datatypes.JSON `gorm:"type:jsonb"`
	TotalClaims    int            `gorm:"column:total_claims;not null;default:0"`
	IncorrectCount int            `gorm:"column:incorrect_count;not null;default:0"`
	ForcedDraft    bool           `gorm:"column:forced_draft;not null;default:false"`
	CreatedAt      time.Time
}

// BeforeUpdate rejects mutation of a fact-check report.
func (r *FactCheckReport) BeforeUpdate(tx *gorm.DB) error {
	return ErrAppendOnly
}

// All lists every model for AutoMigrate in tests and tooling.
func All() []interface{} {
	return []interface{}{
		&AIConfiguration{},
		&SiteConfiguration{},
		&Schedule{},
		&ExecutionRecord{},
		&ExecutionLease{},
		&FactCheckReport{},
	}
}
