package controllers

import (
	"github.com/foodcafeshop/food-cafe/realtime"
	"github.com/foodcafeshop/food-cafe/utils"
	"github.com/gin-gonic/gin"
)

// StreamController -> websocket staff: semua perubahan meja, order dan bill di toko
type StreamController struct {
	Hub *realtime.Hub
}

func NewStreamController(hub *realtime.Hub) *StreamController {
	return &StreamController{Hub: hub}
}

// ShopStream dipasang di belakang WebSocketAuthMiddleware (token lewat query).
func (sc *StreamController) ShopStream(c *gin.Context) {
	conn, err := realtime.Upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		utils.ErrorLogger.Errorf("staff ws upgrade: %v", err)
		return
	}
	utils.InfoLogger.WithField("shop_id", staffShop(c)).Infof("staff stream connected (role=%s)", c.GetString("role"))
	sc.Hub.ServeTopic(conn, realtime.ShopTopic(staffShop(c)))
}
