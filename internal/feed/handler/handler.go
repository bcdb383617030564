package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/bitfantasy/nimo-feed/internal/feed/service"
	"github.com/gin-gonic/gin"
)

// Handlers 处理器集合
type Handlers struct {
	Activity *ActivityHandler
}

// NewHandlers 创建处理器集合
func NewHandlers(svc *service.Services) *Handlers {
	return &Handlers{
		Activity: NewActivityHandler(svc.Feed),
	}
}

// apiError 错误响应，type 为机器可读标签
func apiError(c *gin.Context, status int, errType, message string) {
	c.JSON(status, gin.H{
		"errors": gin.H{"type": errType, "message": message},
	})
}

// BadRequest 参数错误响应
func BadRequest(c *gin.Context, message string) {
	apiError(c, http.StatusBadRequest, "InvalidArgument", message)
}

// Forbidden 禁止访问响应
func Forbidden(c *gin.Context, message string) {
	apiError(c, http.StatusForbidden, "InsufficientPermissions", message)
}

// NotFound 资源不存在响应
func NotFound(c *gin.Context, message string) {
	apiError(c, http.StatusNotFound, "ObjectNotFound", message)
}

// InternalError 服务器错误响应
func InternalError(c *gin.Context, message string) {
	apiError(c, http.StatusInternalServerError, "InternalError", message)
}

// GetUserID 从上下文获取用户ID
func GetUserID(c *gin.Context) int64 {
	userID, _ := c.Get("user_id")
	if id, ok := userID.(int64); ok {
		return id
	}
	return 0
}

// respond 成功响应。format=js 且带 callback 参数时按 JSONP 包装为 callback(JSON)。
func respond(c *gin.Context, status int, payload interface{}) {
	if c.Query("format") == "js" && c.Query("callback") != "" {
		c.JSONP(status, payload)
		return
	}
	c.JSON(status, payload)
}

// queryInt64 可选的 int64 查询参数
func queryInt64(c *gin.Context, name string) (*int64, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%s must be an integer", name)
	}
	return &v, nil
}

// queryInt 可选的 int 查询参数
func queryInt(c *gin.Context, name string) (*int, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("%s must be an integer", name)
	}
	return &v, nil
}
