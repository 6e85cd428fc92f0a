package eligibility

// Decision 私信资格判定结果。
// 判定是纯函数：输入全部来自 compose 事务内的一次性快照，
// 每次发送都会重新判定（开关位与拉黑边可能随时变化）。
type Decision int

const (
	Allow                Decision = iota // 允许发送
	DenySelf                             // 不能给自己发
	DenyInaccessible                     // 任一方账号不可用（未激活或已冻结）
	DenyBlock                            // 任一方向存在拉黑
	DenyNotAccepted                      // 对方发起的请求我们从未接受，不能回复
	DenyRequestsDisabled                 // 无历史往来且对方拒收陌生人私信
)

// String 便于日志与测试输出。
func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case DenySelf:
		return "deny_self"
	case DenyInaccessible:
		return "deny_inaccessible"
	case DenyBlock:
		return "deny_block"
	case DenyNotAccepted:
		return "deny_not_accepted"
	case DenyRequestsDisabled:
		return "deny_requests_disabled"
	default:
		return "unknown"
	}
}

// PairRequest 无序用户对上既有会话请求的快照。
type PairRequest struct {
	SenderUuid    string // 首条消息的发起方
	RecipientUuid string
	Accepted      bool
}

// Input 一次发送的资格判定输入。
// 全部字段由 compose 事务内预取，判定本身不做任何 IO。
type Input struct {
	SenderUuid    string
	RecipientUuid string

	SenderAccessible    bool // 发送方 active && !frozen
	RecipientAccessible bool
	Blocked             bool // 任一方向存在拉黑边
	// RecipientFollowsSender 接收方是否关注发送方（信任路径）。
	RecipientFollowsSender bool
	// RecipientAllowsAll 接收方是否接收陌生人私信。
	RecipientAllowsAll bool

	PairRequest *PairRequest // 既有请求，无则为 nil
}

// Decide 按固定顺序执行判定，首个命中的规则生效：
// 1. 自发自收；
// 2. 任一方不可达；
// 3. 拉黑关系；
// 4. 信任路径：接收方关注发送方则直接放行，无需请求握手；
// 5. 既有请求：对方发起且已接受→放行（回复）；对方发起未接受→拒绝；
//    自己发起→无论是否接受都放行（发起方可以持续追加）；
// 6. 无任何往来：看接收方是否接收陌生人私信。
func Decide(in Input) Decision {
	if in.SenderUuid == in.RecipientUuid {
		return DenySelf
	}
	if !in.SenderAccessible || !in.RecipientAccessible {
		return DenyInaccessible
	}
	if in.Blocked {
		return DenyBlock
	}
	if in.RecipientFollowsSender {
		return Allow
	}
	if req := in.PairRequest; req != nil {
		if req.SenderUuid == in.RecipientUuid {
			if req.Accepted {
				return Allow
			}
			return DenyNotAccepted
		}
		// 自己发起的请求：持续写入
		return Allow
	}
	if in.RecipientAllowsAll {
		return Allow
	}
	return DenyRequestsDisabled
}

// ReceiptContextAccepted 判断本条消息是否写入“已接受”的会话语境。
// 写入未接受请求的消息强制不带回执（信息不对称保护：
// 接收方未表态前，发送方不应得知消息是否被看过）。
// 规则：
// - 无既有请求：信任路径（接收方关注发送方）会创建即已接受的请求；
// - 既有请求已接受：是；
// - 既有请求未接受但属于延迟自动接受场景（对方发起且现已关注我们）：是；
// - 其余：否。
func ReceiptContextAccepted(in Input) bool {
	req := in.PairRequest
	if req == nil {
		return in.RecipientFollowsSender
	}
	if req.Accepted {
		return true
	}
	if req.SenderUuid == in.RecipientUuid && in.RecipientFollowsSender {
		return true
	}
	return false
}

// HasReceipt 计算消息落库时的回执开关：
// 双方都开启回执偏好，且消息写入已接受的会话语境。
func HasReceipt(senderAllows, recipientAllows bool, in Input) bool {
	return senderAllows && recipientAllows && ReceiptContextAccepted(in)
}
