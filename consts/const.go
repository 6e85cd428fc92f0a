package consts

// 通用错误码
const (
	CodeSuccess = 0 // 成功
)

// 客户端错误 (1xxxx)
const (
	CodeParamError       = 10001 // 参数验证失败
	CodeBodyError        = 10002 // 请求体格式错误
	CodeResourceNotFound = 10003 // 资源不存在
	CodeMethodNotAllowed = 10004 // 请求方法不允许
	CodeTooManyRequests  = 10005 // 请求过于频繁
	CodeBodyTooLarge     = 10006 // 请求体过大
	CodeInvalidCursor    = 10007 // 分页游标非法
)

// 认证错误 (2xxxx)
const (
	CodeUnauthorized   = 20001 // 未认证
	CodeInvalidToken   = 20002 // Token 无效
	CodeTokenExpired   = 20003 // Token 已过期
	CodePermissionDeny = 20004 // 权限不足
	CodeTicketInvalid  = 20005 // WebSocket 票据无效
	CodeTicketExpired  = 20006 // WebSocket 票据已过期
)

// 用户模块错误 (11xxx)
const (
	CodeUserNotFound  = 11001 // 用户不存在
	CodePasswordError = 11002 // 密码错误
	CodeUserDisabled  = 11003 // 用户已被禁用
	CodeUserFrozen    = 11004 // 用户已被冻结
)

// 关系模块错误 (12xxx)
const (
	CodeAlreadyFollowing = 12001 // 已经关注
	CodeNotFollowing     = 12002 // 未关注该用户
	CodeAlreadyBlocked   = 12003 // 已经拉黑
	CodeNotBlocked       = 12004 // 未拉黑该用户
	CodeSelfRelation     = 12005 // 不能对自己建立关系
)

// 消息模块错误 (13xxx)
const (
	CodeSelfTarget           = 13001 // 不能给自己发消息
	CodeNotAccessible        = 13002 // 对方或自身账号不可用
	CodeBlocked              = 13003 // 存在拉黑关系
	CodeNotAccepted          = 13004 // 对方的会话请求尚未被接受
	CodeRequestsDisabled     = 13005 // 对方不接收陌生人消息
	CodeMessageNotFound      = 13006 // 消息不存在
	CodeConversationNotFound = 13007 // 会话不存在
	CodeMessageSendFail      = 13008 // 消息发送失败
)

// 服务端错误 (3xxxx)
const (
	CodeInternalError      = 30001 // 服务器内部错误
	CodeServiceUnavailable = 30002 // 服务暂不可用
	CodeTimeoutError       = 30003 // 请求处理超时
)

// 错误消息映射
var CodeMessage = map[int32]string{
	CodeSuccess: "success",

	// 客户端错误
	CodeParamError:       "参数验证失败",
	CodeBodyError:        "请求体格式错误",
	CodeResourceNotFound: "资源不存在",
	CodeMethodNotAllowed: "请求方法不允许",
	CodeTooManyRequests:  "请求过于频繁",
	CodeBodyTooLarge:     "请求体过大",
	CodeInvalidCursor:    "分页游标非法",

	// 认证错误
	CodeUnauthorized:   "未认证",
	CodeInvalidToken:   "Token 无效",
	CodeTokenExpired:   "Token 已过期",
	CodePermissionDeny: "权限不足",
	CodeTicketInvalid:  "WebSocket 票据无效",
	CodeTicketExpired:  "WebSocket 票据已过期",

	// 用户模块
	CodeUserNotFound:  "用户不存在",
	CodePasswordError: "密码错误",
	CodeUserDisabled:  "用户已被禁用",
	CodeUserFrozen:    "用户已被冻结",

	// 关系模块
	CodeAlreadyFollowing: "已经关注该用户",
	CodeNotFollowing:     "未关注该用户",
	CodeAlreadyBlocked:   "已经拉黑该用户",
	CodeNotBlocked:       "未拉黑该用户",
	CodeSelfRelation:     "不能对自己建立关系",

	// 消息模块
	CodeSelfTarget:           "不能给自己发消息",
	CodeNotAccessible:        "对方或自身账号不可用",
	CodeBlocked:              "存在拉黑关系",
	CodeNotAccepted:          "对方的会话请求尚未被接受",
	CodeRequestsDisabled:     "对方不接收陌生人消息",
	CodeMessageNotFound:      "消息不存在",
	CodeConversationNotFound: "会话不存在",
	CodeMessageSendFail:      "消息发送失败",

	// 服务端错误
	CodeInternalError:      "服务器内部错误",
	CodeServiceUnavailable: "服务暂不可用",
	CodeTimeoutError:       "请求处理超时",
}

// GetMessage 根据错误码获取错误消息
func GetMessage(code int32) string {
	if msg, ok := CodeMessage[code]; ok {
		return msg
	}
	return "未知错误"
}

// IsNonServerError 判断是否为客户端/业务侧错误（无需按服务端故障处理）。
func IsNonServerError(code int32) bool {
	return code > 0 && code < 30000
}
