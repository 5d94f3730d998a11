package controllers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/vnkhanh/scl-academy-backend/middleware"
	"github.com/vnkhanh/scl-academy-backend/models"
	"github.com/vnkhanh/scl-academy-backend/store"
)

// ====== INPUT STRUCTS ======
type RegisterInput struct {
	Email    string         `json:"email" binding:"required,email"`
	Password string         `json:"password" binding:"required,min=6"`
	FullName string         `json:"full_name" binding:"required"`
	JobRole  models.JobRole `json:"job_role"`
}

type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type GoogleLoginInput struct {
	IDToken string `json:"id_token" binding:"required"`
}

type CreateUserInput struct {
	FullName string          `json:"full_name" binding:"required"`
	Email    string          `json:"email" binding:"required,email"`
	Password string          `json:"password" binding:"required,min=8"`
	Role     models.UserRole `json:"role"`
	JobRole  models.JobRole  `json:"job_role"`
	AreaID   *uuid.UUID      `json:"area_id"`
}

type UpdateAreaInput struct {
	AreaID *uuid.UUID `json:"area_id"`
}

func userPayload(u models.User) gin.H {
	return gin.H{
		"id":        u.ID,
		"email":     u.Email,
		"full_name": u.FullName,
		"role":      u.Role,
		"job_role":  u.JobRole,
		"area_id":   u.AreaID,
	}
}

// ====== HANDLERS ======
func (ctl *Controller) Register(c *gin.Context) {
	var input RegisterInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if input.JobRole == "" {
		input.JobRole = models.JobSiteEngineer
	}
	if !input.JobRole.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid job_role"})
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not hash password"})
		return
	}

	// Tự đăng ký luôn là learner, chưa gán khu vực
	user, err := ctl.Store.CreateUser(c.Request.Context(), models.User{
		FullName: strings.TrimSpace(input.FullName),
		Email:    strings.ToLower(input.Email),
		Password: string(hashed),
		Role:     models.RoleLearner,
		JobRole:  input.JobRole,
	})
	if errors.Is(err, store.ErrDuplicate) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email is already in use"})
		return
	}
	if err != nil {
		ctl.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "registered successfully",
		"user":    userPayload(user),
	})
}

func (ctl *Controller) Login(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := ctl.Store.GetUserByEmail(c.Request.Context(), input.Email)
	if err != nil || user.Password == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(input.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
		return
	}

	token, err := ctl.Tokens.GenerateToken(user.ID, string(user.Role))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not issue token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "logged in",
		"token":   token,
		"user":    userPayload(user),
	})
}

func (ctl *Controller) GoogleLogin(c *gin.Context) {
	var input GoogleLoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if ctl.GoogleClientID == "" {
		notConfigured(c, "google sign-in")
		return
	}

	// Xác minh token với đúng GOOGLE_CLIENT_ID
	email, fullName, err := ctl.Google(c.Request.Context(), input.IDToken, ctl.GoogleClientID)
	if err != nil {
		ctl.Log.Warn("google token rejected", "error", err)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid google token"})
		return
	}

	user, err := ctl.Store.GetUserByEmail(c.Request.Context(), email)
	if errors.Is(err, store.ErrNotFound) {
		// Chưa có thì tạo learner mới, không có mật khẩu
		user, err = ctl.Store.CreateUser(c.Request.Context(), models.User{
			Email:    strings.ToLower(email),
			FullName: fullName,
			Role:     models.RoleLearner,
			JobRole:  models.JobSiteEngineer,
		})
	}
	if err != nil {
		ctl.respondError(c, err)
		return
	}

	token, err := ctl.Tokens.GenerateToken(user.ID, string(user.Role))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not issue token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  userPayload(user),
	})
}

// POST /api/admin/users
func (ctl *Controller) AdminCreateUser(c *gin.Context) {
	var input CreateUserInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if input.Role == "" {
		input.Role = models.RoleLearner
	}
	if input.JobRole == "" {
		input.JobRole = models.JobSiteEngineer
	}
	if !input.Role.Valid() || !input.JobRole.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid role or job_role"})
		return
	}
	areaID, ok := ctl.areaRef(c, input.AreaID)
	if !ok {
		return
	}

	user, err := CreateUserWithPassword(c.Request.Context(), ctl.Store, models.User{
		FullName: strings.TrimSpace(input.FullName),
		Email:    strings.ToLower(input.Email),
		Role:     input.Role,
		JobRole:  input.JobRole,
		AreaID:   areaID,
	}, input.Password)
	if err != nil {
		ctl.respondError(c, err)
		return
	}
	ctl.Log.Info("user created by admin", "user_id", user.ID, "role", user.Role)

	c.JSON(http.StatusCreated, gin.H{
		"message": "user created",
		"user":    userPayload(user),
	})
}

// CreateUserWithPassword băm mật khẩu rồi lưu user; dùng cả khi khởi tạo admin
func CreateUserWithPassword(ctx context.Context, s store.Store, user models.User, password string) (models.User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, err
	}
	user.Password = string(hashed)
	return s.CreateUser(ctx, user)
}

// GET /api/user/me
func (ctl *Controller) Me(c *gin.Context) {
	userID, ok := middleware.UserIDFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	user, err := ctl.Store.GetUser(c.Request.Context(), userID)
	if err != nil {
		ctl.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": userPayload(user)})
}

// PATCH /api/user/area: area_id null nghĩa là bỏ gán (chỉ thấy Public)
func (ctl *Controller) UpdateMyArea(c *gin.Context) {
	userID, ok := middleware.UserIDFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	var input UpdateAreaInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	areaID, ok := ctl.areaRef(c, input.AreaID)
	if !ok {
		return
	}
	user, err := ctl.Store.UpdateUserArea(c.Request.Context(), userID, areaID)
	if err != nil {
		ctl.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": userPayload(user)})
}

// areaRef chuẩn hoá area_id từ client: nil hoặc uuid rỗng là Public, còn lại phải tồn tại.
// Đã ghi response lỗi khi trả về false.
func (ctl *Controller) areaRef(c *gin.Context, id *uuid.UUID) (*uuid.UUID, bool) {
	if id == nil || *id == uuid.Nil {
		return nil, true
	}
	exists, err := ctl.Areas.Exists(c.Request.Context(), *id)
	if err != nil {
		ctl.respondError(c, err)
		return nil, false
	}
	if !exists {
		c.JSON(http.StatusBadRequest, gin.H{"error": "area not found"})
		return nil, false
	}
	ref := *id
	return &ref, true
}
