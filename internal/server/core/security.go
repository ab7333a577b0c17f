// Package core holds the connection-level guards of the websocket server.
package core

import (
	"net"
	"net/http"
	"strings"

	"golang.org/x/time/rate"
)

// --- 来源验证 ---

// OriginChecker 来源验证器
type OriginChecker struct {
	allowedOrigins map[string]bool
	allowAll       bool
}

// NewOriginChecker 创建来源验证器
func NewOriginChecker(origins []string) *OriginChecker {
	oc := &OriginChecker{
		allowedOrigins: make(map[string]bool),
	}

	for _, origin := range origins {
		if origin == "*" {
			oc.allowAll = true
			return oc
		}
		oc.allowedOrigins[strings.ToLower(strings.TrimSpace(origin))] = true
	}

	return oc
}

// Check 检查来源是否允许
func (oc *OriginChecker) Check(r *http.Request) bool {
	if oc.allowAll {
		return true
	}

	origin := r.Header.Get("Origin")
	if origin == "" {
		// 没有 Origin 头，可能是本地客户端
		return true
	}

	return oc.allowedOrigins[strings.ToLower(origin)]
}

// --- 消息速率限制 ---

// MessageLimiter 单连接消息速率限制器. It is owned by one read loop and
// is not safe for concurrent use.
type MessageLimiter struct {
	limiter     *rate.Limiter
	warnings    int
	maxWarnings int
}

// NewMessageLimiter allows perSecond messages on average with bursts of
// up to burst, and tolerates maxWarnings rejected messages.
func NewMessageLimiter(perSecond, burst, maxWarnings int) *MessageLimiter {
	return &MessageLimiter{
		limiter:     rate.NewLimiter(rate.Limit(perSecond), burst),
		maxWarnings: maxWarnings,
	}
}

// Allow reports whether the next message may be handled. Once more than
// maxWarnings messages were rejected, exhausted becomes true and the
// connection should be closed.
func (ml *MessageLimiter) Allow() (allowed, exhausted bool) {
	if ml.limiter.Allow() {
		return true, false
	}
	ml.warnings++
	return false, ml.warnings > ml.maxWarnings
}

// Warnings 获取警告次数
func (ml *MessageLimiter) Warnings() int {
	return ml.warnings
}

// --- 辅助函数 ---

// GetClientIP 获取客户端真实 IP
func GetClientIP(r *http.Request) string {
	// 检查代理头
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		// 取第一个 IP（最原始的客户端）
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}

	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}

	// 从连接中获取
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
