package models

import "github.com/google/uuid"

// Viewer là người đang xem: role + khu vực được gán (có thể không có)
type Viewer struct {
	Role   UserRole
	AreaID *uuid.UUID
}

// Anonymous là viewer chưa đăng nhập: learner, không có khu vực
var Anonymous = Viewer{Role: RoleLearner}

func (v Viewer) IsAdmin() bool {
	return v.Role == RoleAdmin
}

// AreaScoped là nội dung có thể gắn khu vực. nil nghĩa là Public.
type AreaScoped interface {
	AreaRef() *uuid.UUID
}

func (c Course) AreaRef() *uuid.UUID  { return c.AreaID }
func (p Podcast) AreaRef() *uuid.UUID { return p.AreaID }
