package middlewares

import (
	"errors"
	"net/http"
	"strings"

	"github.com/foodcafeshop/food-cafe/utils"
	"github.com/gin-gonic/gin"
)

func setClaims(c *gin.Context, claims *utils.CustomClaims) {
	c.Set("user_id", claims.UserID)
	c.Set("shop_id", claims.ShopID)
	c.Set("role", claims.Role)
}

// AuthMiddleware memvalidasi Bearer token staff dan menaruh user_id, shop_id, role ke context.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.RespondError(c, http.StatusUnauthorized, errors.New("authorization header missing"))
			c.Abort()
			return
		}
		if !strings.HasPrefix(authHeader, "Bearer ") {
			utils.RespondError(c, http.StatusUnauthorized, errors.New("format token tidak valid"))
			c.Abort()
			return
		}

		claims, err := utils.ParseToken(strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			utils.RespondError(c, http.StatusUnauthorized, err)
			c.Abort()
			return
		}
		if claims.UserID == 0 || claims.ShopID == 0 {
			utils.RespondError(c, http.StatusUnauthorized, errors.New("invalid token claims"))
			c.Abort()
			return
		}

		setClaims(c, claims)
		c.Next()
	}
}
