package handler

import (
	"context"
	"errors"
	"net/http"

	"WaveChat/apps/connect/internal/manager"
	"WaveChat/apps/connect/internal/svc"
	"WaveChat/pkg/ctxmeta"
	"WaveChat/pkg/logger"
	"WaveChat/pkg/util"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// 当前阶段默认放开来源校验，方便本地多端调试（Web/Electron/移动端模拟器）。
	// 生产环境建议按域名白名单收紧校验策略。
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

// WSHandler 负责处理 /ws/conversations 接入请求。
// 职责边界：
// - 处理 Gin/HTTP 层参数、升级与错误响应；
// - 调用 svc 完成票据鉴权；
// - 调用 manager 维护连接生命周期。
type WSHandler struct {
	connManager *manager.ConnectionManager
	connectSvc  *svc.ConnectService
}

// NewWSHandler 创建 WebSocket 入口处理器。
func NewWSHandler(connManager *manager.ConnectionManager, connectSvc *svc.ConnectService) *WSHandler {
	return &WSHandler{
		connManager: connManager,
		connectSvc:  connectSvc,
	}
}

// ServeWS 处理 WebSocket 握手与接入。
// 执行流程：
// 1. 从 query 中读取 ticket，并获取 client_ip。
// 2. 调用 connectSvc.Authenticate 校验票据（一次性，验过即作废）。
// 3. 构建连接级 context（注入 trace/user/ip）。
// 4. 完成协议升级并进入连接处理主循环。
func (h *WSHandler) ServeWS(c *gin.Context) {
	rawTicket := c.Query("ticket")
	clientIP := c.ClientIP()
	connID := util.NewUUID()

	session, err := h.connectSvc.Authenticate(rawTicket, connID, clientIP)
	if err != nil {
		h.writeAuthError(c, err)
		return
	}

	connCtx := context.Background()
	if traceID := ctxmeta.TraceIDFromGin(c); traceID != "" {
		connCtx = ctxmeta.WithTraceID(connCtx, traceID)
	}
	connCtx = ctxmeta.WithUserUUID(connCtx, session.UserUUID)
	connCtx = ctxmeta.WithClientIP(connCtx, session.ClientIP)

	conn, err := wsUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn(connCtx, "WebSocket 升级失败",
			logger.ErrorField("error", err),
		)
		return
	}

	h.handleConnection(connCtx, conn, session)
}

// handleConnection 承载单个连接的完整生命周期。
// 关键语义：
// - 同一用户允许多条连接（多端在线），事件按用户广播；
// - 停机阶段拒绝新连接；
// - 日志里保留 user_uuid/conn_id 便于排障。
func (h *WSHandler) handleConnection(ctx context.Context, conn *websocket.Conn, session *svc.Session) {
	client := manager.NewClient(conn, session.UserUUID, session.ConnID)
	replaced, ok := h.connManager.Register(client)
	if !ok {
		client.Close()
		return
	}
	if replaced != nil {
		replaced.Close()
	}

	logger.Info(ctx, "WebSocket 连接已建立",
		logger.String("user_uuid", session.UserUUID),
		logger.String("conn_id", session.ConnID),
		logger.String("client_ip", session.ClientIP),
		logger.Int("online_count", h.connManager.Count()),
	)

	client.Run(ctx, func() {
		h.connManager.Unregister(client)
		logger.Info(ctx, "WebSocket 连接已断开",
			logger.String("user_uuid", session.UserUUID),
			logger.String("conn_id", session.ConnID),
			logger.Int("online_count", h.connManager.Count()),
		)
	})
}

// writeAuthError 将鉴权错误映射为 HTTP 握手阶段错误响应。
// 说明：握手前还未升级为 WebSocket，因此用 HTTP JSON 返回更直观。
func (h *WSHandler) writeAuthError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, svc.ErrTicketRequired):
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    http.StatusBadRequest,
			"message": err.Error(),
		})
	case errors.Is(err, svc.ErrTicketInvalid):
		c.JSON(http.StatusUnauthorized, gin.H{
			"code":    http.StatusUnauthorized,
			"message": "ticket invalid or expired",
		})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    http.StatusInternalServerError,
			"message": "internal error",
		})
	}
}
