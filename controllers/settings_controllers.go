package controllers

import (
	"net/http"

	"github.com/foodcafeshop/food-cafe/models"
	"github.com/foodcafeshop/food-cafe/services"
	"github.com/foodcafeshop/food-cafe/utils"
	"github.com/gin-gonic/gin"
)

type SettingsController struct {
	Settings *services.SettingsProvider
	OTP      *services.OTPService
}

func NewSettingsController(settings *services.SettingsProvider, otp *services.OTPService) *SettingsController {
	return &SettingsController{Settings: settings, OTP: otp}
}

func (sc *SettingsController) GetSettings(c *gin.Context) {
	settings, err := sc.Settings.Get(c.Request.Context(), staffShop(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Shop settings", settings)
}

// UpdateSettings -> simpan seluruh setting toko (admin)
func (sc *SettingsController) UpdateSettings(c *gin.Context) {
	var body models.ShopSettings
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	settings, err := sc.Settings.Update(c.Request.Context(), staffShop(c), body)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.InfoLogger.WithField("shop_id", staffShop(c)).Info("shop settings updated")
	utils.RespondJSON(c, http.StatusOK, "Shop settings updated", settings)
}

// RotateTakeawayOTP -> OTP baru untuk takeaway/delivery, ditampilkan di kasir
func (sc *SettingsController) RotateTakeawayOTP(c *gin.Context) {
	code, err := sc.OTP.RotateTakeaway(c.Request.Context(), staffShop(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Takeaway OTP rotated", gin.H{"otp": code})
}
