package ws

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/vnkhanh/scl-academy-backend/models"
	"github.com/vnkhanh/scl-academy-backend/store"
	"github.com/vnkhanh/scl-academy-backend/utils"
)

type utilsIssuer struct {
	*utils.TokenIssuer
	users *store.MemoryStore
}

func newIssuer() *utilsIssuer {
	return &utilsIssuer{
		TokenIssuer: utils.NewTokenIssuer("ws-test-secret-123", time.Hour),
		users:       store.NewMemoryStore(),
	}
}

// token tạo user với role cho trước trong store rồi cấp token cho user đó
func (i *utilsIssuer) token(t *testing.T, role string) string {
	t.Helper()
	u, err := i.users.CreateUser(context.Background(), models.User{
		FullName: role + " user",
		Email:    uuid.NewString() + "@scl.test",
		Role:     models.UserRole(role),
	})
	if err != nil {
		t.Fatal(err)
	}
	return i.tokenFor(t, u.ID, role)
}

func (i *utilsIssuer) tokenFor(t *testing.T, id uuid.UUID, role string) string {
	t.Helper()
	tok, err := i.GenerateToken(id, role)
	if err != nil {
		t.Fatal(err)
	}
	return tok
}
