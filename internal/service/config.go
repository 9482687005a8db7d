// Package service implements the business logic layer
// Package service 实现业务逻辑层
package service

import "time"

// ServiceConfig service layer configuration
// ServiceConfig 服务层配置
type ServiceConfig struct {
	KeepWarm      time.Duration // Grace period before the warm notes stream stops // 最后一个订阅者离开后保持热流的时间
	DefaultAuthor string        // Author used when no display name is set // 未设置用户名时的作者名
}

func (c *ServiceConfig) defaultAuthor() string {
	if c == nil || c.DefaultAuthor == "" {
		return "guest"
	}
	return c.DefaultAuthor
}
