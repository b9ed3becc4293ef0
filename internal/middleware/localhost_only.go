package middleware

import (
	"net"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// LocalhostOnly middleware - only allow localhost or whitelisted IPs access
type LocalhostOnly struct {
	logger     *logrus.Logger
	allowedIPs []string // IP addresses or CIDR ranges
	networks   []*net.IPNet
	ips        []net.IP
}

// NewLocalhostOnly CreatelocalhostAccessRestrictmiddleware
func NewLocalhostOnly(logger *logrus.Logger, allowedIPs []string) *LocalhostOnly {
	l := &LocalhostOnly{
		logger:     logger,
		allowedIPs: allowedIPs,
	}

	for _, allowed := range allowedIPs {
		allowed = strings.TrimSpace(allowed)
		if allowed == "" {
			continue
		}
		if strings.Contains(allowed, "/") {
			_, ipNet, err := net.ParseCIDR(allowed)
			if err != nil {
				logger.WithFields(logrus.Fields{
					"allowed": allowed,
					"error":   err.Error(),
				}).Warn("Invalid CIDR in allowedIPs")
				continue
			}
			l.networks = append(l.networks, ipNet)
			continue
		}
		if ip := net.ParseIP(allowed); ip != nil {
			l.ips = append(l.ips, ip)
		} else {
			logger.WithField("allowed", allowed).Warn("Invalid IP in allowedIPs")
		}
	}
	return l
}

// Restrict restrict access to localhost and the configured allow-list
func (l *LocalhostOnly) Restrict() gin.HandlerFunc {
	return func(c *gin.Context) {
		clientIP := c.ClientIP()
		remoteIP, _, _ := net.SplitHostPort(c.Request.RemoteAddr)

		if !l.isAllowedIP(clientIP) {
			// A direct loopback connection is allowed even if proxy headers say otherwise
			if remoteIP != clientIP && isLocalhost(remoteIP) {
				l.logger.WithFields(logrus.Fields{
					"client_ip": clientIP,
					"remote_ip": remoteIP,
					"path":      c.Request.URL.Path,
				}).Warn("ClientIP denied but RemoteIP is localhost - allowing access")
			} else {
				l.logger.WithFields(logrus.Fields{
					"client_ip":  clientIP,
					"remote_ip":  remoteIP,
					"path":       c.Request.URL.Path,
					"method":     c.Request.Method,
					"user_agent": c.GetHeader("User-Agent"),
				}).Warn("Reject non-whitelisted access to sensitive API")

				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
					"success": false,
					"error":   "This API is only accessible from allowed IP addresses",
					"code":    "IP_NOT_ALLOWED",
				})
				return
			}
		}

		c.Next()
	}
}

// isLocalhost Check if IP is localhost
func isLocalhost(ip string) bool {
	parsedIP := net.ParseIP(ip)
	if parsedIP == nil {
		return ip == "localhost"
	}
	return parsedIP.IsLoopback()
}

// isAllowedIP Check if IP is localhost or in the whitelist (supports CIDR)
func (l *LocalhostOnly) isAllowedIP(ip string) bool {
	if isLocalhost(ip) {
		return true
	}

	parsedIP := net.ParseIP(ip)
	if parsedIP == nil {
		return false
	}
	for _, allowed := range l.ips {
		if allowed.Equal(parsedIP) {
			return true
		}
	}
	for _, ipNet := range l.networks {
		if ipNet.Contains(parsedIP) {
			return true
		}
	}
	return false
}
