package middlewares

import (
	"time"

	"github.com/foodcafeshop/food-cafe/utils"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func LoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		if raw != "" {
			path = path + "?" + raw
		}
		entry := utils.InfoLogger.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
			"ip":      c.ClientIP(),
			"path":    path,
		})
		if shopID := c.GetUint("shop_id"); shopID != 0 {
			entry = entry.WithField("shop_id", shopID)
		}
		if len(c.Errors) > 0 {
			entry.Warn(c.Errors.String())
			return
		}
		entry.Info("request")
	}
}

// SettlementLogger mencatat setiap percobaan settlement beserta hasilnya.
func SettlementLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		fields := logrus.Fields{
			"shop_id":  c.GetUint("shop_id"),
			"staff_id": c.GetUint("user_id"),
			"path":     c.FullPath(),
			"table_id": c.Param("table_id"),
			"order_id": c.Param("order_id"),
		}
		utils.InfoLogger.WithFields(fields).Info("settlement requested")

		c.Next()

		if c.Writer.Status() < 300 {
			utils.InfoLogger.WithFields(fields).Info("settlement completed")
		} else {
			utils.ErrorLogger.WithFields(fields).WithField("status", c.Writer.Status()).Error("settlement failed")
		}
	}
}
