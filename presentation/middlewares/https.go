package middlewares

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/hilthontt/burnchat/infrastructure/config"
)

const hstsValue = "max-age=63072000; includeSubDomains"

// ForceHttps redirects plain-HTTP requests to HTTPS. Probe paths are served
// as-is so load balancers can health-check the internal port.
func ForceHttps(cfg *config.Config, exemptPaths ...string) gin.HandlerFunc {
	exempt := make(map[string]struct{}, len(exemptPaths))
	for _, p := range exemptPaths {
		exempt[p] = struct{}{}
	}

	return func(c *gin.Context) {
		if c.Request.TLS != nil || c.GetHeader("X-Forwarded-Proto") == "https" {
			c.Header("Strict-Transport-Security", hstsValue)
			c.Next()
			return
		}

		if _, ok := exempt[c.Request.URL.Path]; ok {
			c.Next()
			return
		}

		host := c.Request.Host
		if cfg.Server.InternalPort != cfg.Server.ExternalPort {
			host = strings.Replace(host, fmt.Sprintf(":%s", cfg.Server.InternalPort), fmt.Sprintf(":%s", cfg.Server.ExternalPort), 1)
		}

		// 308 keeps the method and body of POST/DELETE calls.
		status := http.StatusMovedPermanently
		if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
			status = http.StatusPermanentRedirect
		}

		c.Redirect(status, "https://"+host+c.Request.RequestURI)
		c.Abort()
	}
}
