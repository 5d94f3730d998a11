package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/vnkhanh/scl-academy-backend/models"
	"github.com/vnkhanh/scl-academy-backend/utils"
)

const (
	ctxUserID = "user_id"
	ctxRole   = "role"
	ctxViewer = "viewer"
)

// UserLoader đọc user theo id (store.Store)
type UserLoader interface {
	GetUser(ctx context.Context, id uuid.UUID) (models.User, error)
}

type Auth struct {
	tokens *utils.TokenIssuer
	users  UserLoader
}

func NewAuth(tokens *utils.TokenIssuer, users UserLoader) *Auth {
	return &Auth{tokens: tokens, users: users}
}

// bearerToken đọc "Authorization: Bearer <token>", thử X-Auth-Token nếu không có
func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		if t := c.GetHeader("X-Auth-Token"); t != "" {
			authHeader = "Bearer " + t
		}
	}
	if authHeader == "" {
		return "", false
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

// authenticate xác thực token và nạp user; viewer lấy role/area hiện tại từ DB
func (a *Auth) authenticate(c *gin.Context) (models.User, int, string) {
	token, ok := bearerToken(c)
	if !ok {
		return models.User{}, http.StatusUnauthorized, "missing or malformed Authorization header"
	}
	claims, err := a.tokens.VerifyToken(token)
	if err != nil {
		return models.User{}, http.StatusUnauthorized, "invalid or expired token"
	}
	user, err := a.users.GetUser(c.Request.Context(), claims.UserID)
	if err != nil {
		return models.User{}, http.StatusUnauthorized, "user not found"
	}
	return user, 0, ""
}

func setUser(c *gin.Context, user models.User) {
	c.Set(ctxUserID, user.ID)
	c.Set(ctxRole, string(user.Role))
	c.Set(ctxViewer, user.Viewer())
}

func (a *Auth) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, status, msg := a.authenticate(c)
		if status != 0 {
			c.AbortWithStatusJSON(status, gin.H{"error": msg})
			return
		}
		setUser(c, user)
		c.Next()
	}
}

// OptionalAuthMiddleware: không có token hoặc token sai thì coi như khách (learner, Public)
func (a *Auth) OptionalAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := bearerToken(c); !ok {
			c.Set(ctxViewer, models.Anonymous)
			c.Next()
			return
		}
		user, status, _ := a.authenticate(c)
		if status != 0 {
			c.Set(ctxViewer, models.Anonymous)
			c.Next()
			return
		}
		setUser(c, user)
		c.Next()
	}
}

// RequireRoles xác thực rồi chỉ cho các role được liệt kê đi qua
func (a *Auth) RequireRoles(allowedRoles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, status, msg := a.authenticate(c)
		if status != 0 {
			c.AbortWithStatusJSON(status, gin.H{"error": msg})
			return
		}
		for _, allowed := range allowedRoles {
			if user.Role == allowed {
				setUser(c, user)
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "you do not have access to this resource"})
	}
}

// ViewerFrom trả về viewer của request; mặc định khách
func ViewerFrom(c *gin.Context) models.Viewer {
	if v, ok := c.Get(ctxViewer); ok {
		if viewer, ok := v.(models.Viewer); ok {
			return viewer
		}
	}
	return models.Anonymous
}

func UserIDFrom(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(ctxUserID)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}
