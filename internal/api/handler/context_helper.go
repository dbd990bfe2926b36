package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "github.com/AryanManu544/Presenze/pkg/errors"
	"github.com/AryanManu544/Presenze/pkg/response"
)

// 与 middleware.JWTAuth 约定的上下文键
const (
	ctxUserID   = "user_id"
	ctxTokenJTI = "token_jti"
	ctxTokenExp = "token_exp"
)

// MustGetUserID 从 Gin 上下文中安全提取 user_id。
// 如果 JWT 中间件未正确注入 user_id，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetUserID(c *gin.Context) (string, bool) {
	v, exists := c.Get(ctxUserID)
	if !exists {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		response.Unauthorized(c, 10002, "未认证")
		return "", false
	}
	return s, true
}

// MustGetToken 提取当前 Token 的 jti 与过期时间（登出时使用）
func MustGetToken(c *gin.Context) (string, time.Time, bool) {
	jti := c.GetString(ctxTokenJTI)
	exp, ok := c.Get(ctxTokenExp)
	if jti == "" || !ok {
		response.Unauthorized(c, 10002, "未认证")
		return "", time.Time{}, false
	}
	expiresAt, ok := exp.(time.Time)
	if !ok {
		response.Unauthorized(c, 10002, "未认证")
		return "", time.Time{}, false
	}
	return jti, expiresAt, true
}

// handleKindError 未被模块 Handler 单独处理的错误按分类兜底
func handleKindError(c *gin.Context, err error) {
	switch apperrors.KindOf(err) {
	case apperrors.KindValidation:
		response.BadRequest(c, 10001, apperrors.PublicMessage(err))
	case apperrors.KindUnauthenticated:
		response.Unauthorized(c, 10002, apperrors.PublicMessage(err))
	case apperrors.KindForbidden:
		// 不区分“无权访问”与“未认证”，避免泄露他人资源是否存在
		response.Unauthorized(c, 10003, apperrors.PublicMessage(err))
	case apperrors.KindNotFound:
		response.NotFound(c, 10006, apperrors.PublicMessage(err))
	default:
		_ = c.Error(err)
		response.InternalError(c)
	}
}

// bindError 请求体绑定失败时的统一响应
func bindError(c *gin.Context, err error) {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		response.Error(c, http.StatusRequestEntityTooLarge, 10005, "请求体过大")
		return
	}
	response.ErrorWithDetails(c, http.StatusBadRequest, 10001, "参数校验失败", err.Error())
}
