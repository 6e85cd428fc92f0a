package v1

import (
	"WaveChat/apps/api/internal/bizerr"
	"WaveChat/apps/api/internal/dto"
	"WaveChat/apps/api/internal/middleware"
	"WaveChat/apps/api/internal/service"
	"WaveChat/consts"
	"WaveChat/pkg/logger"
	"WaveChat/pkg/result"

	"github.com/gin-gonic/gin"
)

// UserHandler 用户处理器
type UserHandler struct {
	userService service.UserService
}

// NewUserHandler 创建用户处理器
func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// Login 登录接口
// @Summary 邮箱密码登录
// @Tags 用户接口
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "登录请求"
// @Success 200 {object} dto.LoginResponse
// @Router /api/v1/public/user/login [post]
func (h *UserHandler) Login(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)

	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		result.Fail(c, nil, consts.CodeParamError)
		return
	}

	resp, err := h.userService.Login(ctx, &req)
	if err != nil {
		if consts.IsNonServerError(bizerr.ExtractErrorCode(err)) {
			result.Fail(c, nil, bizerr.ExtractErrorCode(err))
			return
		}

		logger.Error(ctx, "登录服务内部错误",
			logger.ErrorField("error", err),
		)
		result.Fail(c, nil, consts.CodeInternalError)
		return
	}

	result.Success(c, resp)
}

// GetMessageSettings 获取私信设置接口
// @Summary 获取私信设置
// @Tags 用户接口
// @Produce json
// @Success 200 {object} dto.MessageSettingsResponse
// @Router /api/v1/auth/user/message-settings [get]
func (h *UserHandler) GetMessageSettings(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)

	userUUID, ok := currentUserUUID(c)
	if !ok {
		return
	}

	resp, err := h.userService.GetMessageSettings(ctx, userUUID)
	if err != nil {
		if consts.IsNonServerError(bizerr.ExtractErrorCode(err)) {
			result.Fail(c, nil, bizerr.ExtractErrorCode(err))
			return
		}

		logger.Error(ctx, "获取私信设置服务内部错误",
			logger.ErrorField("error", err),
		)
		result.Fail(c, nil, consts.CodeInternalError)
		return
	}

	result.Success(c, resp)
}

// UpdateMessageSettings 更新私信设置接口
// @Summary 更新私信设置（整体提交）
// @Tags 用户接口
// @Accept json
// @Produce json
// @Param request body dto.UpdateMessageSettingsRequest true "私信设置"
// @Success 200 {object} dto.MessageSettingsResponse
// @Router /api/v1/auth/user/message-settings [put]
func (h *UserHandler) UpdateMessageSettings(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)

	userUUID, ok := currentUserUUID(c)
	if !ok {
		return
	}

	var req dto.UpdateMessageSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		result.Fail(c, nil, consts.CodeParamError)
		return
	}

	resp, err := h.userService.UpdateMessageSettings(ctx, userUUID, &req)
	if err != nil {
		if consts.IsNonServerError(bizerr.ExtractErrorCode(err)) {
			result.Fail(c, nil, bizerr.ExtractErrorCode(err))
			return
		}

		logger.Error(ctx, "更新私信设置服务内部错误",
			logger.ErrorField("error", err),
		)
		result.Fail(c, nil, consts.CodeInternalError)
		return
	}

	result.Success(c, resp)
}
