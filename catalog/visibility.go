package catalog

import "github.com/vnkhanh/scl-academy-backend/models"

// FilterVisible trả về các mục viewer được phép thấy, giữ nguyên thứ tự.
// Admin thấy tất cả; người khác thấy nội dung Public và nội dung thuộc khu vực của mình.
func FilterVisible[T models.AreaScoped](items []T, viewer models.Viewer) []T {
	if viewer.IsAdmin() {
		return items
	}
	out := make([]T, 0, len(items))
	for _, item := range items {
		if Visible(item, viewer) {
			out = append(out, item)
		}
	}
	return out
}

func Visible(item models.AreaScoped, viewer models.Viewer) bool {
	if viewer.IsAdmin() {
		return true
	}
	ref := item.AreaRef()
	if ref == nil {
		return true
	}
	return viewer.AreaID != nil && *ref == *viewer.AreaID
}
