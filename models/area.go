package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Area là khu vực (vùng) dùng để phân vùng hiển thị nội dung
type Area struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name      string    `gorm:"size:150;not null" json:"name"`
	Code      string    `gorm:"size:20;not null;index" json:"code"` // VD: "MU1"
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// AreaCode sinh mã ngắn: 2 ký tự đầu viết hoa + "1".
// Tính theo rune để "Köln" -> "KÖ1".
func AreaCode(name string) string {
	runes := []rune(strings.TrimSpace(name))
	if len(runes) > 2 {
		runes = runes[:2]
	}
	return strings.ToUpper(string(runes)) + "1"
}
