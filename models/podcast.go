package models

import (
	"time"

	"github.com/google/uuid"
)

type Podcast struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Title       string     `gorm:"size:255;not null" json:"title"`
	Duration    string     `gorm:"size:20" json:"duration"` // "m:ss"
	Date        string     `gorm:"size:20" json:"date"`     // "Jan 2"
	AreaID      *uuid.UUID `gorm:"type:uuid;index" json:"area_id"`
	AudioData   string     `gorm:"type:text" json:"audio_data,omitempty"` // base64 hoặc URL
	Description string     `gorm:"type:text" json:"description,omitempty"`
	Script      string     `gorm:"type:text" json:"script,omitempty"`
	CreatedBy   *uuid.UUID `gorm:"type:uuid" json:"created_by"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}
