package database

import (
	"log"

	"github.com/jimdaga/autoposter/internal/models"
	"gorm.io/gorm"
)

const devScheduleName = "dev-daily-keywords"

// SeedDevData populates the database with a stub AI configuration, a local
// WordPress site and one daily schedule.
// Idempotent: skips if the dev schedule already exists.
func SeedDevData(db *gorm.DB) error {
	var existing models.Schedule
	result := db.Where("name = ?", devScheduleName).First(&existing)
	if result.Error == nil {
		log.Println("Seed data already exists, skipping")
		return nil
	}

	ai := models.AIConfiguration{
		Name:        "dev-stub",
		Provider:    models.ProviderStub,
		APIKey:      "dev-api-key-placeholder",
		ModelName:   "stub-1",
		Temperature: 0.7,
		MaxTokens:   4000,
	}
	if err := db.Create(&ai).Error; err != nil {
		return err
	}

	site := models.SiteConfiguration{
		Name:            "local-wordpress",
		BaseURL:         "http://localhost:8081",
		Username:        "admin",
		AppPassword:     "xxxx xxxx xxxx xxxx xxxx xxxx",
		DefaultCategory: "uncategorized",
		PostType:        models.DefaultPostType,
		Active:          true,
	}
	if err := db.Create(&site).Error; err != nil {
		return err
	}

	schedule := models.Schedule{
		Name:                 devScheduleName,
		AIConfigurationID:    ai.ID,
		SiteConfigurationID:  site.ID,
		PostTime:             "09:00",
		Frequency:            models.FrequencyDaily,
		Enabled:              true,
		Keywords:             "go generics, go concurrency patterns, go error handling",
		GenerationMode:       models.GenerationModeKeyword,
		TargetWordCount:      1200,
		Tone:                 models.ToneFriendly,
		PostStatus:           models.PostStatusDraft,
		NotificationTemplate: "[{status}] {title}\n{url}",
	}
	if err := db.Create(&schedule).Error; err != nil {
		return err
	}

	log.Println("Seeded dev data: 1 AI configuration, 1 site, 1 schedule")
	return nil
}
