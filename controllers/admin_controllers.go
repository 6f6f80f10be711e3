package controllers

import (
	"net/http"
	"time"

	"github.com/foodcafeshop/food-cafe/services"
	"github.com/foodcafeshop/food-cafe/utils"
	"github.com/gin-gonic/gin"
)

type AdminController struct {
	Dashboard *services.DashboardService
}

func NewAdminController(dashboard *services.DashboardService) *AdminController {
	return &AdminController{Dashboard: dashboard}
}

// GetDashboardStats -> ringkasan meja, order dan pendapatan. ?day=YYYY-MM-DD, default hari ini.
func (ac *AdminController) GetDashboardStats(c *gin.Context) {
	day := time.Now()
	if raw := c.Query("day"); raw != "" {
		parsed, err := time.ParseInLocation("2006-01-02", raw, time.Local)
		if err != nil {
			utils.RespondError(c, http.StatusBadRequest, err)
			return
		}
		day = parsed
	}

	stats, err := ac.Dashboard.Stats(c.Request.Context(), staffShop(c), day)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Dashboard stats retrieved successfully", stats)
}
