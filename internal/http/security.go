package http

import (
	"strings"
	"sync/atomic"

	"github.com/gin-gonic/gin"

	"finboard/internal/log"
)

// trustedProxies may set X-Forwarded-For / X-Real-IP.
var trustedProxies = []string{
	"127.0.0.0/8",
	"10.0.0.0/8",
	"172.16.0.0/12",
	"192.168.0.0/16",
}

// securityMetrics counts requests flagged by the security middleware.
type securityMetrics struct {
	suspiciousRequests atomic.Int64
}

var (
	suspiciousPatterns = []string{
		"../", "..\\", ".env", "wp-admin", "phpmyadmin",
		"admin.php", "config.php", ".git", ".ssh",
		"eval(", "javascript:", "<script", "union select",
		"etc/passwd", "cmd.exe",
	}
	suspiciousAgents = []string{
		"sqlmap", "nmap", "nikto", "gobuster", "dirb", "scanner",
	}
	unusualMethods = []string{"TRACE", "TRACK", "DEBUG", "CONNECT"}
)

// isSuspicious flags scanner traffic. Flagged requests are logged, not blocked.
func isSuspicious(c *gin.Context) bool {
	path := strings.ToLower(c.Request.URL.Path)
	query := strings.ToLower(c.Request.URL.RawQuery)
	for _, p := range suspiciousPatterns {
		if strings.Contains(path, p) || strings.Contains(query, p) {
			return true
		}
	}
	agent := strings.ToLower(c.Request.UserAgent())
	for _, a := range suspiciousAgents {
		if strings.Contains(agent, a) {
			return true
		}
	}
	for _, m := range unusualMethods {
		if c.Request.Method == m {
			return true
		}
	}
	if len(c.Request.URL.String()) > 2048 {
		return true
	}
	return strings.Count(c.GetHeader("X-Forwarded-For"), ",") > 5
}

// securityHeaders sets the response hardening headers and records suspicious requests.
func securityHeaders(metrics *securityMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if isSuspicious(c) {
			metrics.suspiciousRequests.Add(1)
			log.FromContext(c.Request.Context()).WarnContext(c.Request.Context(), "suspicious request",
				log.FieldClientIP, c.ClientIP(),
				log.FieldMethod, c.Request.Method,
				log.FieldPath, c.Request.URL.Path,
				log.FieldUserAgent, c.Request.UserAgent())
		}

		h := c.Writer.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Cache-Control", "no-store")
		c.Next()
	}
}
