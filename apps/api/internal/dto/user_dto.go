package dto

// ==================== 用户相关 DTO ====================

// LoginRequest 登录请求 DTO
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email,max=128"`  // 邮箱
	Password string `json:"password" binding:"required,min=6,max=64"` // 密码
}

// LoginResponse 登录响应 DTO
type LoginResponse struct {
	UserUUID string `json:"userUuid"` // 用户UUID
	Nickname string `json:"nickname"` // 昵称
	Token    string `json:"token"`    // 访问令牌
}

// MessageSettingsResponse 私信设置响应 DTO
type MessageSettingsResponse struct {
	Private           bool `json:"private"`           // 是否私密账号
	AllowsAllMessages bool `json:"allowsAllMessages"` // 是否接收陌生人私信
	AllowsReceipts    bool `json:"allowsReceipts"`    // 是否参与已读回执
}

// UpdateMessageSettingsRequest 更新私信设置请求 DTO
// 三个开关整体提交，避免部分更新的歧义。
type UpdateMessageSettingsRequest struct {
	Private           *bool `json:"private" binding:"required"`           // 是否私密账号
	AllowsAllMessages *bool `json:"allowsAllMessages" binding:"required"` // 是否接收陌生人私信
	AllowsReceipts    *bool `json:"allowsReceipts" binding:"required"`    // 是否参与已读回执
}
