package service

import (
	"errors"
)

// 错误定义。handler 层据此映射 HTTP 状态码。
var (
	// ErrNotFound 对象不存在，或对请求者而言视同不存在（项目不可达不泄露存在性）
	ErrNotFound = errors.New("object not found")
	// ErrForbidden 项目可达但单条活动的可见性校验未通过
	ErrForbidden = errors.New("insufficient permissions")
	// ErrInvalidCount 分页条数非法
	ErrInvalidCount = errors.New("count must be a positive integer")
)
