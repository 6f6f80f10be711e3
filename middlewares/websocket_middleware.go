package middlewares

import (
	"net/http"

	"github.com/foodcafeshop/food-cafe/utils"
	"github.com/gin-gonic/gin"
)

// WebSocketAuthMiddleware -> browser tidak bisa set header saat upgrade, token dikirim lewat ?token=
func WebSocketAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		claims, err := utils.ParseToken(token)
		if err != nil || claims.ShopID == 0 {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}

		setClaims(c, claims)
		c.Next()
	}
}
