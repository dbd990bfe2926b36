package dto

// ── 认证模块响应 ──

// TokenResponse 登录 / 注册成功后的 Token 响应
type TokenResponse struct {
	AccessToken string       `json:"access_token"`
	ExpiresIn   int          `json:"expires_in"` // Access Token 有效期（秒）
	ExpiresAt   string       `json:"expires_at"` // RFC3339
	User        UserResponse `json:"user"`
}

// UserResponse 用户信息响应（脱敏）
type UserResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at,omitempty"`
}

// MessageResponse 仅包含提示语的响应
type MessageResponse struct {
	Success string `json:"success"`
}

// HealthResponse 健康检查响应
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Redis    string `json:"redis"`
}
