package service

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"WaveChat/apps/api/internal/repository"
)

// 键集游标的对外编码：base64("毫秒时间戳:行id")。
// 两个列表共用同一格式，时间列含义由各自接口决定
// （会话列表是 last_activity_at，消息列表是 created_at）。

var errBadCursor = errors.New("malformed cursor")

func encodeCursor(ts time.Time, id int64) string {
	raw := fmt.Sprintf("%d:%d", ts.UnixMilli(), id)
	return base64.RawURLEncoding.EncodeToString([]byte(raw))
}

func decodeCursor(cursor string) (time.Time, int64, error) {
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return time.Time{}, 0, errBadCursor
	}
	parts := strings.SplitN(string(raw), ":", 2)
	if len(parts) != 2 {
		return time.Time{}, 0, errBadCursor
	}
	milli, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || milli <= 0 {
		return time.Time{}, 0, errBadCursor
	}
	id, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || id <= 0 {
		return time.Time{}, 0, errBadCursor
	}
	return time.UnixMilli(milli), id, nil
}

func decodeConversationCursor(cursor string) (*repository.ConversationCursor, error) {
	if cursor == "" {
		return nil, nil
	}
	ts, id, err := decodeCursor(cursor)
	if err != nil {
		return nil, err
	}
	return &repository.ConversationCursor{BeforeActivity: ts, BeforeId: id}, nil
}

func decodeMessageCursor(cursor string) (*repository.MessageCursor, error) {
	if cursor == "" {
		return nil, nil
	}
	ts, id, err := decodeCursor(cursor)
	if err != nil {
		return nil, err
	}
	return &repository.MessageCursor{BeforeCreated: ts, BeforeId: id}, nil
}
