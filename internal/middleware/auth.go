// internal/middleware/auth.go
package middleware

import (
	"crypto/subtle"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/c13agent/aaas-backend/internal/config"
	"github.com/c13agent/aaas-backend/internal/utils"
)

var walletHeaderRegex = regexp.MustCompile("^0x[0-9a-fA-F]{40}$")

// RequireWallet reads the caller's wallet address from the
// X-Wallet-Address header. Ownership of the address is proven on chain
// by the transactions themselves, so no signature challenge happens
// here.
func RequireWallet() gin.HandlerFunc {
	return func(c *gin.Context) {
		wallet := strings.TrimSpace(c.GetHeader("X-Wallet-Address"))
		if !walletHeaderRegex.MatchString(wallet) {
			utils.UnauthorizedResponse(c, "Valid X-Wallet-Address header required")
			c.Abort()
			return
		}

		c.Set("wallet_address", utils.NormalizeWallet(wallet))
		c.Next()
	}
}

// RequireCronSecret guards the scheduled-job endpoints with a shared
// bearer secret.
func RequireCronSecret(cfg config.CronConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token := strings.TrimPrefix(header, "Bearer ")

		if cfg.Secret == "" ||
			subtle.ConstantTimeCompare([]byte(token), []byte(cfg.Secret)) != 1 {
			utils.UnauthorizedResponse(c, "Invalid cron secret")
			c.Abort()
			return
		}

		c.Next()
	}
}
