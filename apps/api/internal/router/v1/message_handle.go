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

// MessageHandler 私信处理器
type MessageHandler struct {
	messageService service.MessageService
}

// NewMessageHandler 创建私信处理器
func NewMessageHandler(messageService service.MessageService) *MessageHandler {
	return &MessageHandler{
		messageService: messageService,
	}
}

// SendMessage 发送私信接口
// @Summary 发送私信
// @Description 资格判定通过后写入双方会话视图，并向在线设备推送
// @Tags 私信接口
// @Accept json
// @Produce json
// @Param request body dto.SendMessageRequest true "发送私信请求"
// @Success 200 {object} dto.SendMessageResponse
// @Router /api/v1/auth/messages [post]
func (h *MessageHandler) SendMessage(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)

	userUUID, ok := currentUserUUID(c)
	if !ok {
		return
	}

	var req dto.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		result.Fail(c, nil, consts.CodeParamError)
		return
	}

	resp, err := h.messageService.SendMessage(ctx, userUUID, &req)
	if err != nil {
		if consts.IsNonServerError(bizerr.ExtractErrorCode(err)) {
			result.Fail(c, nil, bizerr.ExtractErrorCode(err))
			return
		}

		logger.Error(ctx, "发送私信服务内部错误",
			logger.ErrorField("error", err),
		)
		result.Fail(c, nil, consts.CodeInternalError)
		return
	}

	result.Success(c, resp)
}

// DeleteMessage 删除消息接口（仅自己的视图）
// @Summary 从自己的会话视图中删除一条消息
// @Tags 私信接口
// @Produce json
// @Param conversationId path int true "会话ID"
// @Param messageId path int true "消息ID"
// @Router /api/v1/auth/conversations/{conversationId}/messages/{messageId} [delete]
func (h *MessageHandler) DeleteMessage(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)

	userUUID, ok := currentUserUUID(c)
	if !ok {
		return
	}

	conversationID, ok := pathID(c, "conversationId")
	if !ok {
		return
	}
	messageID, ok := pathID(c, "messageId")
	if !ok {
		return
	}

	if err := h.messageService.DeleteMessage(ctx, userUUID, conversationID, messageID); err != nil {
		if consts.IsNonServerError(bizerr.ExtractErrorCode(err)) {
			result.Fail(c, nil, bizerr.ExtractErrorCode(err))
			return
		}

		logger.Error(ctx, "删除消息服务内部错误",
			logger.ErrorField("error", err),
		)
		result.Fail(c, nil, consts.CodeInternalError)
		return
	}

	result.NoContent(c)
}

// MarkRead 批量已读接口
// @Summary 将会话内不晚于指定时刻的收到消息置为已读（幂等）
// @Tags 私信接口
// @Accept json
// @Produce json
// @Param conversationId path int true "会话ID"
// @Param request body dto.MarkReadRequest true "已读请求"
// @Success 200 {object} dto.MarkReadResponse
// @Router /api/v1/auth/conversations/{conversationId}/read [post]
func (h *MessageHandler) MarkRead(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)

	userUUID, ok := currentUserUUID(c)
	if !ok {
		return
	}

	conversationID, ok := pathID(c, "conversationId")
	if !ok {
		return
	}

	var req dto.MarkReadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		result.Fail(c, nil, consts.CodeParamError)
		return
	}

	resp, err := h.messageService.MarkRead(ctx, userUUID, conversationID, &req)
	if err != nil {
		if consts.IsNonServerError(bizerr.ExtractErrorCode(err)) {
			result.Fail(c, nil, bizerr.ExtractErrorCode(err))
			return
		}

		logger.Error(ctx, "批量已读服务内部错误",
			logger.ErrorField("error", err),
		)
		result.Fail(c, nil, consts.CodeInternalError)
		return
	}

	result.Success(c, resp)
}
