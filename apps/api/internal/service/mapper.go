package service

import (
	"strconv"

	"WaveChat/apps/api/internal/dto"
	"WaveChat/model"
)

// formatID 数字 id 转字符串，防止前端 JSON 解析精度丢失
func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

// toMessageItem 落库消息转外发 DTO。
// 回执可见性在这里收口：不参与回执的消息即使内部已写入
// read_at 也不对外暴露。
func toMessageItem(m *model.Message) *dto.MessageItem {
	if m == nil {
		return nil
	}
	item := &dto.MessageItem{
		MessageID:     formatID(m.Id),
		SenderUUID:    m.SenderUuid,
		RecipientUUID: m.RecipientUuid,
		Body:          m.Body,
		HasReceipt:    m.HasReceipt,
		CreatedAt:     m.CreatedAt.UnixMilli(),
	}
	if m.HasReceipt && m.ReadAt != nil {
		item.ReadAt = m.ReadAt.UnixMilli()
	}
	return item
}
