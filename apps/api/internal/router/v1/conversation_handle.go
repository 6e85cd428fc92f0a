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

// ConversationHandler 会话处理器
type ConversationHandler struct {
	conversationService service.ConversationService
}

// NewConversationHandler 创建会话处理器
func NewConversationHandler(conversationService service.ConversationService) *ConversationHandler {
	return &ConversationHandler{
		conversationService: conversationService,
	}
}

// ListConversations 会话列表接口
// @Summary 按口径列出会话（inbox 收件箱 / requests 请求箱）
// @Tags 会话接口
// @Produce json
// @Param mode query string false "列表口径" Enums(inbox, requests)
// @Param cursor query string false "键集分页游标"
// @Param limit query int false "每页大小"
// @Success 200 {object} dto.ListConversationsResponse
// @Router /api/v1/auth/conversations [get]
func (h *ConversationHandler) ListConversations(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)

	userUUID, ok := currentUserUUID(c)
	if !ok {
		return
	}

	var req dto.ListConversationsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		result.Fail(c, nil, consts.CodeParamError)
		return
	}

	resp, err := h.conversationService.ListConversations(ctx, userUUID, &req)
	if err != nil {
		if consts.IsNonServerError(bizerr.ExtractErrorCode(err)) {
			result.Fail(c, nil, bizerr.ExtractErrorCode(err))
			return
		}

		logger.Error(ctx, "会话列表服务内部错误",
			logger.ErrorField("error", err),
		)
		result.Fail(c, nil, consts.CodeInternalError)
		return
	}

	result.Success(c, resp)
}

// ListMessages 消息列表接口
// @Summary 列出会话内可见消息（时间倒序，键集分页）
// @Tags 会话接口
// @Produce json
// @Param conversationId path int true "会话ID"
// @Param cursor query string false "键集分页游标"
// @Param limit query int false "每页大小"
// @Success 200 {object} dto.ListMessagesResponse
// @Router /api/v1/auth/conversations/{conversationId}/messages [get]
func (h *ConversationHandler) ListMessages(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)

	userUUID, ok := currentUserUUID(c)
	if !ok {
		return
	}

	conversationID, ok := pathID(c, "conversationId")
	if !ok {
		return
	}

	var req dto.ListMessagesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		result.Fail(c, nil, consts.CodeParamError)
		return
	}

	resp, err := h.conversationService.ListMessages(ctx, userUUID, conversationID, &req)
	if err != nil {
		if consts.IsNonServerError(bizerr.ExtractErrorCode(err)) {
			result.Fail(c, nil, bizerr.ExtractErrorCode(err))
			return
		}

		logger.Error(ctx, "消息列表服务内部错误",
			logger.ErrorField("error", err),
		)
		result.Fail(c, nil, consts.CodeInternalError)
		return
	}

	result.Success(c, resp)
}

// DeleteConversation 删除会话接口（仅自己的视图）
// @Summary 删除自己的会话视图，不影响对方
// @Tags 会话接口
// @Produce json
// @Param conversationId path int true "会话ID"
// @Router /api/v1/auth/conversations/{conversationId} [delete]
func (h *ConversationHandler) DeleteConversation(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)

	userUUID, ok := currentUserUUID(c)
	if !ok {
		return
	}

	conversationID, ok := pathID(c, "conversationId")
	if !ok {
		return
	}

	if err := h.conversationService.DeleteConversation(ctx, userUUID, conversationID); err != nil {
		if consts.IsNonServerError(bizerr.ExtractErrorCode(err)) {
			result.Fail(c, nil, bizerr.ExtractErrorCode(err))
			return
		}

		logger.Error(ctx, "删除会话服务内部错误",
			logger.ErrorField("error", err),
		)
		result.Fail(c, nil, consts.CodeInternalError)
		return
	}

	result.NoContent(c)
}

// AcceptConversation 接受私信请求接口
// @Summary 接受该会话对应的私信请求（幂等）
// @Tags 会话接口
// @Produce json
// @Param conversationId path int true "会话ID"
// @Router /api/v1/auth/conversations/{conversationId}/accept [post]
func (h *ConversationHandler) AcceptConversation(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)

	userUUID, ok := currentUserUUID(c)
	if !ok {
		return
	}

	conversationID, ok := pathID(c, "conversationId")
	if !ok {
		return
	}

	if err := h.conversationService.AcceptConversation(ctx, userUUID, conversationID); err != nil {
		if consts.IsNonServerError(bizerr.ExtractErrorCode(err)) {
			result.Fail(c, nil, bizerr.ExtractErrorCode(err))
			return
		}

		logger.Error(ctx, "接受私信请求服务内部错误",
			logger.ErrorField("error", err),
		)
		result.Fail(c, nil, consts.CodeInternalError)
		return
	}

	result.NoContent(c)
}

// IssueWSTicket 签发 WebSocket 升级票据接口
// @Summary 签发短时效一次性 WebSocket 升级票据
// @Tags 会话接口
// @Produce json
// @Success 200 {object} dto.WSTicketResponse
// @Router /api/v1/auth/ws/ticket [post]
func (h *ConversationHandler) IssueWSTicket(c *gin.Context) {
	ctx := middleware.NewContextWithGin(c)

	userUUID, ok := currentUserUUID(c)
	if !ok {
		return
	}

	resp, err := h.conversationService.IssueWSTicket(ctx, userUUID)
	if err != nil {
		if consts.IsNonServerError(bizerr.ExtractErrorCode(err)) {
			result.Fail(c, nil, bizerr.ExtractErrorCode(err))
			return
		}

		logger.Error(ctx, "签发连接票据服务内部错误",
			logger.ErrorField("error", err),
		)
		result.Fail(c, nil, consts.CodeInternalError)
		return
	}

	result.Success(c, resp)
}
