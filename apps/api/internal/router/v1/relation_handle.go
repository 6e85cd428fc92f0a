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

// RelationHandler 关注/拉黑关系处理器
type RelationHandler struct {
	relationService service.RelationService
}

// NewRelationHandler 创建关系处理器
func NewRelationHandler(relationService service.RelationService) *RelationHandler {
	return &RelationHandler{
		relationService: relationService,
	}
}

// Follow 关注接口
// @Summary 关注用户
// @Tags 关系接口
// @Accept json
// @Produce json
// @Param request body dto.FollowRequest true "关注请求"
// @Router /api/v1/auth/relations/follow [post]
func (h *RelationHandler) Follow(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)

	userUUID, ok := currentUserUUID(c)
	if !ok {
		return
	}

	var req dto.FollowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		result.Fail(c, nil, consts.CodeParamError)
		return
	}

	if err := h.relationService.Follow(ctx, userUUID, req.PeerUUID); err != nil {
		if consts.IsNonServerError(bizerr.ExtractErrorCode(err)) {
			result.Fail(c, nil, bizerr.ExtractErrorCode(err))
			return
		}

		logger.Error(ctx, "关注服务内部错误",
			logger.ErrorField("error", err),
		)
		result.Fail(c, nil, consts.CodeInternalError)
		return
	}

	result.NoContent(c)
}

// Unfollow 取消关注接口
// @Summary 取消关注
// @Tags 关系接口
// @Produce json
// @Param peerUuid path string true "对方UUID"
// @Router /api/v1/auth/relations/follow/{peerUuid} [delete]
func (h *RelationHandler) Unfollow(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)

	userUUID, ok := currentUserUUID(c)
	if !ok {
		return
	}

	peerUuid := c.Param("peerUuid")
	if peerUuid == "" {
		result.Fail(c, nil, consts.CodeParamError)
		return
	}

	if err := h.relationService.Unfollow(ctx, userUUID, peerUuid); err != nil {
		if consts.IsNonServerError(bizerr.ExtractErrorCode(err)) {
			result.Fail(c, nil, bizerr.ExtractErrorCode(err))
			return
		}

		logger.Error(ctx, "取消关注服务内部错误",
			logger.ErrorField("error", err),
		)
		result.Fail(c, nil, consts.CodeInternalError)
		return
	}

	result.NoContent(c)
}

// Block 拉黑接口
// @Summary 拉黑用户（级联移除双向关注）
// @Tags 关系接口
// @Accept json
// @Produce json
// @Param request body dto.BlockRequest true "拉黑请求"
// @Router /api/v1/auth/relations/block [post]
func (h *RelationHandler) Block(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)

	userUUID, ok := currentUserUUID(c)
	if !ok {
		return
	}

	var req dto.BlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		result.Fail(c, nil, consts.CodeParamError)
		return
	}

	if err := h.relationService.Block(ctx, userUUID, req.PeerUUID); err != nil {
		if consts.IsNonServerError(bizerr.ExtractErrorCode(err)) {
			result.Fail(c, nil, bizerr.ExtractErrorCode(err))
			return
		}

		logger.Error(ctx, "拉黑服务内部错误",
			logger.ErrorField("error", err),
		)
		result.Fail(c, nil, consts.CodeInternalError)
		return
	}

	result.NoContent(c)
}

// Unblock 取消拉黑接口
// @Summary 取消拉黑
// @Tags 关系接口
// @Produce json
// @Param peerUuid path string true "对方UUID"
// @Router /api/v1/auth/relations/block/{peerUuid} [delete]
func (h *RelationHandler) Unblock(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)

	userUUID, ok := currentUserUUID(c)
	if !ok {
		return
	}

	peerUuid := c.Param("peerUuid")
	if peerUuid == "" {
		result.Fail(c, nil, consts.CodeParamError)
		return
	}

	if err := h.relationService.Unblock(ctx, userUUID, peerUuid); err != nil {
		if consts.IsNonServerError(bizerr.ExtractErrorCode(err)) {
			result.Fail(c, nil, bizerr.ExtractErrorCode(err))
			return
		}

		logger.Error(ctx, "取消拉黑服务内部错误",
			logger.ErrorField("error", err),
		)
		result.Fail(c, nil, consts.CodeInternalError)
		return
	}

	result.NoContent(c)
}

// GetRelationStatus 关系状态查询接口
// @Summary 查询与对方的关系状态
// @Tags 关系接口
// @Produce json
// @Param peerUuid path string true "对方UUID"
// @Success 200 {object} dto.RelationStatusResponse
// @Router /api/v1/auth/relations/{peerUuid} [get]
func (h *RelationHandler) GetRelationStatus(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)

	userUUID, ok := currentUserUUID(c)
	if !ok {
		return
	}

	peerUuid := c.Param("peerUuid")
	if peerUuid == "" {
		result.Fail(c, nil, consts.CodeParamError)
		return
	}

	resp, err := h.relationService.GetRelationStatus(ctx, userUUID, peerUuid)
	if err != nil {
		if consts.IsNonServerError(bizerr.ExtractErrorCode(err)) {
			result.Fail(c, nil, bizerr.ExtractErrorCode(err))
			return
		}

		logger.Error(ctx, "查询关系状态服务内部错误",
			logger.ErrorField("error", err),
		)
		result.Fail(c, nil, consts.CodeInternalError)
		return
	}

	result.Success(c, resp)
}
