package models

import (
	"time"

	"github.com/google/uuid"
)

type UserRole string

const (
	RoleAdmin   UserRole = "admin"   // Quản trị nội dung
	RoleLearner UserRole = "learner" // Người học
)

// JobRole là vai trò nghề nghiệp, dùng làm ngữ cảnh cho AI
type JobRole string

const (
	JobSiteEngineer JobRole = "Site Engineer"
	JobManager      JobRole = "Manager"
	JobSME          JobRole = "SME"
)

func (r UserRole) Valid() bool {
	return r == RoleAdmin || r == RoleLearner
}

func (j JobRole) Valid() bool {
	switch j {
	case JobSiteEngineer, JobManager, JobSME:
		return true
	}
	return false
}

type User struct {
	ID        uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	FullName  string     `gorm:"size:150;not null" json:"full_name"`
	Email     string     `gorm:"size:150;uniqueIndex;not null" json:"email"`
	Password  string     `gorm:"type:text" json:"-"`
	Role      UserRole   `gorm:"type:varchar(20);not null;default:'learner'" json:"role"`
	JobRole   JobRole    `gorm:"type:varchar(30);default:'Site Engineer'" json:"job_role"`
	AreaID    *uuid.UUID `gorm:"type:uuid;index" json:"area_id"` // nil: chỉ thấy nội dung Public
	XP        int        `gorm:"default:0" json:"xp"`
	Streak    int        `gorm:"default:0" json:"streak"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// Viewer trả về góc nhìn của user để lọc nội dung
func (u User) Viewer() Viewer {
	return Viewer{Role: u.Role, AreaID: u.AreaID}
}
