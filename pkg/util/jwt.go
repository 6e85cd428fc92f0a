package util

import (
	"errors"
	"time"

	"WaveChat/config"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrTokenInvalid 访问令牌非法或签名不匹配。
	ErrTokenInvalid = errors.New("access token is invalid")
	// ErrTokenExpired 访问令牌已过期。
	ErrTokenExpired = errors.New("access token is expired")
)

// Claims HTTP 访问令牌载荷。
type Claims struct {
	UserUUID string `json:"user_uuid"`
	jwt.RegisteredClaims
}

var accessCfg = config.DefaultAccessTokenConfig()

// SetAccessTokenConfig 覆盖访问令牌配置（进程启动时调用）。
func SetAccessTokenConfig(cfg config.AccessTokenConfig) {
	accessCfg = cfg
}

// GenerateToken 为用户签发访问令牌。
func GenerateToken(userUUID string) (string, error) {
	now := time.Now()
	claims := Claims{
		UserUUID: userUUID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(accessCfg.Expire)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(accessCfg.Secret))
}

// ParseToken 解析并校验访问令牌。
func ParseToken(raw string) (*Claims, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return []byte(accessCfg.Secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if !token.Valid || claims.UserUUID == "" {
		return nil, ErrTokenInvalid
	}
	return &claims, nil
}
