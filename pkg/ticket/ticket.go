package ticket

import (
	"errors"
	"time"

	"WaveChat/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
)

// PurposeConversationsWS 会话 WebSocket 升级票据的用途标识。
const PurposeConversationsWS = "ws:conversations"

var (
	// ErrInvalid 票据签名非法、结构错误或用途不匹配。
	ErrInvalid = errors.New("ticket is invalid")
	// ErrExpired 票据超出有效窗口。
	ErrExpired = errors.New("ticket is expired")
	// ErrReplayed 票据在本进程内被重复使用。
	ErrReplayed = errors.New("ticket already used")
)

// Claims 票据载荷。
// 只绑定 (user, purpose, issued_at, jti) 四元组：
// 票据不是会话凭证，仅授权一次 WebSocket 升级。
type Claims struct {
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// Issuer 负责签发升级票据。
type Issuer struct {
	secret []byte
}

// NewIssuer 创建签发器。
func NewIssuer(cfg config.TicketConfig) *Issuer {
	return &Issuer{secret: []byte(cfg.Secret)}
}

// Issue 为指定用户签发一张指定用途的票据。
// 票据不携带过期时间声明，有效窗口由校验侧的 max_age 裁决，
// 避免签发侧与校验侧对窗口长度产生两份配置。
func (i *Issuer) Issue(userUUID, purpose string) (string, error) {
	claims := Claims{
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  userUUID,
			IssuedAt: jwt.NewNumericDate(time.Now()),
			ID:       uuid.New().String(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}

// Verifier 负责校验升级票据。
// seen 是单进程内的有界防重放缓存：票据窗口只有 10 秒，
// LRU 容量远大于窗口内可能签发的票据数即可，淘汰旧 jti 无碍安全性。
type Verifier struct {
	secret []byte
	maxAge time.Duration
	seen   *lru.Cache[string, struct{}]
}

// NewVerifier 创建校验器。
func NewVerifier(cfg config.TicketConfig) (*Verifier, error) {
	size := cfg.ReplaySize
	if size <= 0 {
		size = 4096
	}
	seen, err := lru.New[string, struct{}](size)
	if err != nil {
		return nil, err
	}
	maxAge := cfg.MaxAge
	if maxAge <= 0 {
		maxAge = 10 * time.Second
	}
	return &Verifier{
		secret: []byte(cfg.Secret),
		maxAge: maxAge,
		seen:   seen,
	}, nil
}

// Verify 校验票据并返回其绑定的用户 uuid。
// 校验顺序：签名/结构 → 用途 → 时间窗口 → 重放。
func (v *Verifier) Verify(rawTicket, purpose string) (string, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(rawTicket, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalid
		}
		return v.secret, nil
	})
	if err != nil || !token.Valid {
		return "", ErrInvalid
	}
	if claims.Subject == "" || claims.ID == "" || claims.IssuedAt == nil {
		return "", ErrInvalid
	}
	if claims.Purpose != purpose {
		return "", ErrInvalid
	}

	age := time.Since(claims.IssuedAt.Time)
	if age < 0 || age > v.maxAge {
		return "", ErrExpired
	}

	// ContainsOrAdd 原子判重：并发升级同一票据时只有一次成功。
	if present, _ := v.seen.ContainsOrAdd(claims.ID, struct{}{}); present {
		return "", ErrReplayed
	}

	return claims.Subject, nil
}
