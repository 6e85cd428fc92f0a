package svc

import (
	"errors"
	"strings"

	"WaveChat/pkg/ticket"
)

var (
	// ErrTicketRequired 表示握手参数中缺少 ticket。
	ErrTicketRequired = errors.New("ticket is required")
	// ErrTicketInvalid 表示票据非法、已过期或已被使用。
	ErrTicketInvalid = errors.New("ticket is invalid")
)

// Session 保存连接鉴权后的身份信息。
type Session struct {
	UserUUID string
	ConnID   string
	ClientIP string
}

// ConnectService 承载 connect 的接入鉴权逻辑。
// 连接凭证是 api 服务签发的短时效一次性票据，不是登录 token：
// 票据只授权一次升级，后续连接生命周期不再做身份校验。
type ConnectService struct {
	verifier *ticket.Verifier
}

// NewConnectService 创建业务服务实例。
func NewConnectService(verifier *ticket.Verifier) *ConnectService {
	return &ConnectService{verifier: verifier}
}

// Authenticate 校验 WebSocket 握手票据。
// 过期与重放统一折叠为 ErrTicketInvalid：升级失败的客户端
// 一律重新找 api 换票，没有必要区分失败原因。
func (s *ConnectService) Authenticate(rawTicket, connID, clientIP string) (*Session, error) {
	rawTicket = strings.TrimSpace(rawTicket)
	if rawTicket == "" {
		return nil, ErrTicketRequired
	}

	userUUID, err := s.verifier.Verify(rawTicket, ticket.PurposeConversationsWS)
	if err != nil {
		return nil, ErrTicketInvalid
	}

	return &Session{
		UserUUID: userUUID,
		ConnID:   connID,
		ClientIP: strings.TrimSpace(clientIP),
	}, nil
}
