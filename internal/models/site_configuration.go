package models

import (
	"gorm.io/gorm"
)

// DefaultPostType is the WordPress REST collection used when none is configured.
const DefaultPostType = "posts"

// SiteConfiguration describes a WordPress site reachable over its REST API
// with an application password.
type SiteConfiguration struct {
	gorm.Model
	Name            string `gorm:"not null;default:''"`
	BaseURL         string `gorm:"column:base_url;not null"`
	Username        string `gorm:"not null"`
	AppPassword     string `gorm:"column:app_password;type:text"`               // stored encrypted
	DefaultCategory string `gorm:"column:default_category;not null;default:''"` // numeric ID, slug or name
	PostType        string `gorm:"column:post_type;not null;default:'posts'"`
	Active          bool   `gorm:"not null;default:true"`
}

// ResolvedPostType returns the REST collection slug, defaulting to "posts".
func (s *SiteConfiguration) ResolvedPostType() string {
	if s.PostType == "" {
		return DefaultPostType
	}
	return s.PostType
}

// BeforeSave seals the application password before it reaches the database.
func (s *SiteConfiguration) BeforeSave(tx *gorm.DB) error {
	return sealField(&s.AppPassword)
}

// AfterSave restores the in-memory plaintext.
func (s *SiteConfiguration) AfterSave(tx *gorm.DB) error {
	return openField(&s.AppPassword)
}

// AfterFind opens the application password after loading from the database.
func (s *SiteConfiguration) AfterFind(tx *gorm.DB) error {
	return openField(&s.AppPassword)
}
