package v1

import (
	"strconv"

	"WaveChat/apps/api/internal/middleware"
	"WaveChat/consts"
	"WaveChat/pkg/result"

	"github.com/gin-gonic/gin"
)

// currentUserUUID 获取当前登录用户，认证中间件缺失时直接返回 401
func currentUserUUID(c *gin.Context) (string, bool) {
	userUUID, ok := middleware.GetUserUUID(c)
	if !ok || userUUID == "" {
		result.Fail(c, nil, consts.CodeUnauthorized)
		return "", false
	}
	return userUUID, true
}

// pathID 解析路径中的数字 ID，非法时返回参数错误
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		result.Fail(c, nil, consts.CodeParamError)
		return 0, false
	}
	return id, true
}
