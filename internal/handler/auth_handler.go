package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/inkstreak/internal/db"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const sessionUserIDKey = "user_id"

type registerPayload struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
	Avatar   string `json:"avatar"`
}

type loginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register 处理注册请求并直接建立会话
func (a *API) Register(c *gin.Context) {
	var payload registerPayload
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}

	email := strings.ToLower(strings.TrimSpace(payload.Email))
	password := strings.TrimSpace(payload.Password)
	if email == "" || !strings.Contains(email, "@") {
		respondError(c, http.StatusBadRequest, "邮箱格式不正确")
		return
	}
	if len(password) < 8 {
		respondError(c, http.StatusBadRequest, "密码至少需要 8 个字符")
		return
	}

	var existing db.User
	if err := a.db.Where("email = ?", email).First(&existing).Error; err == nil {
		respondError(c, http.StatusConflict, "邮箱已被注册")
		return
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		respondError(c, http.StatusInternalServerError, "注册失败")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "注册失败")
		return
	}

	user := db.User{
		Email:    email,
		Password: string(hashed),
		Avatar:   strings.TrimSpace(payload.Avatar),
	}
	if username := strings.TrimSpace(payload.Username); username != "" {
		user.Username = &username
	}

	if err := a.db.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			respondError(c, http.StatusConflict, "用户名已被占用")
			return
		}
		respondError(c, http.StatusInternalServerError, "注册失败")
		return
	}

	if !saveSessionUser(c, user.ID) {
		return
	}

	c.JSON(http.StatusCreated, gin.H{"user": userToPayload(user)})
}

// Login 处理登录请求
func (a *API) Login(c *gin.Context) {
	var payload loginPayload
	if !bindJSON(c, &payload, "请求参数不合法") {
		return
	}

	email := strings.ToLower(strings.TrimSpace(payload.Email))

	var user db.User
	if err := a.db.Where("email = ?", email).First(&user).Error; err != nil {
		respondError(c, http.StatusUnauthorized, "邮箱或密码错误")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(payload.Password)); err != nil {
		respondError(c, http.StatusUnauthorized, "邮箱或密码错误")
		return
	}

	if !saveSessionUser(c, user.ID) {
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": userToPayload(user)})
}

// Logout 清除会话
func (a *API) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.Save()
	c.JSON(http.StatusOK, gin.H{"logged_out": true})
}

// AuthRequired 是一个简单的认证中间件
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		if session.Get(sessionUserIDKey) == nil {
			respondError(c, http.StatusUnauthorized, "请先登录")
			c.Abort()
			return
		}
		c.Next()
	}
}

// currentUserID 从会话中解析当前用户
func currentUserID(c *gin.Context) (uint, bool) {
	session := sessions.Default(c)
	raw := session.Get(sessionUserIDKey)
	if raw == nil {
		return 0, false
	}
	id, ok := raw.(uint)
	return id, ok
}

func saveSessionUser(c *gin.Context, userID uint) bool {
	session := sessions.Default(c)
	session.Set(sessionUserIDKey, userID)
	if err := session.Save(); err != nil {
		respondError(c, http.StatusInternalServerError, "会话保存失败")
		return false
	}
	return true
}

func userToPayload(user db.User) gin.H {
	payload := gin.H{
		"id":     user.ID,
		"email":  user.Email,
		"is_pro": user.IsPro,
		"avatar": user.Avatar,
	}
	if user.Username != nil {
		payload["username"] = *user.Username
	}
	return payload
}
