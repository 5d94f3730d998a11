package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/vnkhanh/scl-academy-backend/logger"
	"github.com/vnkhanh/scl-academy-backend/models"
	"github.com/vnkhanh/scl-academy-backend/store"
)

var ErrEmptyName = errors.New("area name is required")

// Registry quản lý danh sách khu vực. Mã khu vực có thể trùng nhau;
// ID mới là khoá, mã chỉ để hiển thị.
type Registry struct {
	store store.Store
	log   *logger.Logger
}

func NewRegistry(s store.Store, log *logger.Logger) *Registry {
	return &Registry{store: s, log: log.With("service", "AreaRegistry")}
}

func (r *Registry) CreateArea(ctx context.Context, name string) (models.Area, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Area{}, ErrEmptyName
	}
	area, err := r.store.InsertArea(ctx, models.Area{
		ID:   uuid.New(),
		Name: name,
		Code: models.AreaCode(name),
	})
	if err != nil {
		return models.Area{}, err
	}
	r.log.Info("area created", "area_id", area.ID, "code", area.Code)
	return area, nil
}

func (r *Registry) ListAreas(ctx context.Context) ([]models.Area, error) {
	return r.store.ListAreas(ctx)
}

// RenameArea đổi tên và tính lại mã
func (r *Registry) RenameArea(ctx context.Context, id uuid.UUID, name string) (models.Area, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Area{}, ErrEmptyName
	}
	return r.store.UpdateArea(ctx, models.Area{ID: id, Name: name, Code: models.AreaCode(name)})
}

func (r *Registry) DeleteArea(ctx context.Context, id uuid.UUID) error {
	return r.store.DeleteArea(ctx, id)
}

// Exists dùng để kiểm tra area_id do client gửi lên
func (r *Registry) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	_, err := r.store.GetArea(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}
