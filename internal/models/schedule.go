package models

import (
	"time"

	"gorm.io/gorm"
)

// Frequency is the cadence of a schedule
type Frequency string

// Frequency constants
const (
	FrequencyDaily    Frequency = "daily"
	FrequencyWeekly   Frequency = "weekly"
	FrequencyBiweekly Frequency = "biweekly"
	FrequencyMonthly  Frequency = "monthly"
)

// GenerationMode selects what the schedule draws from its pools
type GenerationMode string

// GenerationMode constants
const (
	GenerationModeKeyword GenerationMode = "keyword"
	GenerationModeTitle   GenerationMode = "title"
	GenerationModeBoth    GenerationMode = "both"
)

// Tone constants
const (
	ToneProfessional = "professional"
	ToneCasual       = "casual"
	ToneTechnical    = "technical"
	ToneFriendly     = "friendly"
)

// Post status constants shared by schedules and execution records
const (
	PostStatusPublish = "publish"
	PostStatusDraft   = "draft"
)

// Schedule is a recurring auto-posting job: which AI configuration writes,
// which site receives the post, when it fires and what it writes about.
type Schedule struct {
	gorm.Model
	Name                string            `gorm:"not null;default:''"`
	AIConfigurationID   uint              `gorm:"column:ai_configuration_id;not null;index"`
	AIConfiguration     AIConfiguration   `gorm:"constraint:OnDelete:RESTRICT;"`
	SiteConfigurationID uint              `gorm:"column:site_configuration_id;not null;index"`
	SiteConfiguration   SiteConfiguration `gorm:"constraint:OnDelete:RESTRICT;"`

	PostTime  string    `gorm:"column:post_time;not null;default:'09:00'"` // HH:MM in the reference timezone
	Frequency Frequency `gorm:"not null;default:'daily'"`
	Enabled   bool      `gorm:"not null;default:true;index"`
	StartDate string    `gorm:"column:start_date;not null;default:''"` // YYYY-MM-DD, inclusive
	EndDate   string    `gorm:"column:end_date;not null;default:''"`   // YYYY-MM-DD, inclusive

	Keywords           string         `gorm:"type:text"`                   // comma-delimited
	TitlePool          string         `gorm:"column:title_pool;type:text"` // newline-delimited
	GenerationMode     GenerationMode `gorm:"column:generation_mode;not null;default:'keyword'"`
	TargetWordCount    int            `gorm:"column:target_word_count;not null;default:2000"`
	Tone               string         `gorm:"not null;default:'professional'"`
	CustomInstructions string         `gorm:"column:custom_instructions;type:text"`
	PostStatus         string         `gorm:"column:post_status;not null;default:'publish'"`

	FactCheckEnabled   bool   `gorm:"column:fact_check_enabled;not null;default:false"`
	FactCheckNote      string `gorm:"column:fact_check_note;type:text"`
	CompetitorResearch bool   `gorm:"column:competitor_research;not null;default:false"`

	NotificationRooms    string `gorm:"column:notification_rooms;not null;default:''"` // comma-separated
	NotificationTemplate string `gorm:"column:notification_template;type:text"`

	LastExecutedAt *time.Time `gorm:"column:last_executed_at"` // advisory; execution_records is authoritative
}

// RequestedStatus returns the configured default post status.
func (s *Schedule) RequestedStatus() string {
	if s.PostStatus == PostStatusDraft {
		return PostStatusDraft
	}
	return PostStatusPublish
}
