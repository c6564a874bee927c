package models

import (
	"gorm.io/gorm"
)

// Provider identifiers understood by the text generation gateway
const (
	ProviderOpenAI = "openai"
	ProviderClaude = "claude"
	ProviderGemini = "gemini"
	ProviderStub   = "stub"
)

// AIConfiguration holds the credential and model parameters for one LLM provider
type AIConfiguration struct {
	gorm.Model
	Name        string  `gorm:"not null;default:''"`
	Provider    string  `gorm:"not null"`
	APIKey      string  `gorm:"column:api_key;type:text"` // stored encrypted
	ModelName   string  `gorm:"column:model;not null"`
	Temperature float64 `gorm:"not null;default:0.7"`
	MaxTokens   int     `gorm:"not null;default:4000"`
	Tone        string  `gorm:"not null;default:''"`
	Style       string  `gorm:"not null;default:''"`
	Length      string  `gorm:"not null;default:''"`
}

// BeforeSave seals the API key before it reaches the database.
func (a *AIConfiguration) BeforeSave(tx *gorm.DB) error {
	return sealField(&a.APIKey)
}

// AfterSave restores the in-memory plaintext so callers keep a usable value.
func (a *AIConfiguration) AfterSave(tx *gorm.DB) error {
	return openField(&a.APIKey)
}

// AfterFind opens the API key after loading from the database.
func (a *AIConfiguration) AfterFind(tx *gorm.DB) error {
	return openField(&a.APIKey)
}
