package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/foodcafeshop/food-cafe/services"
	"github.com/foodcafeshop/food-cafe/utils"
	"github.com/gin-gonic/gin"
)

// settleOptionsFromQuery membaca opsi preview: apply_service_charge, discount_amount, discount_reason.
func settleOptionsFromQuery(c *gin.Context) (services.SettleRequest, bool) {
	req := services.SettleRequest{
		ApplyServiceCharge: c.Query("apply_service_charge") == "true",
		DiscountReason:     c.Query("discount_reason"),
	}
	if raw := c.Query("discount_amount"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 {
			utils.RespondError(c, http.StatusBadRequest, errors.New("invalid discount_amount"))
			return req, false
		}
		req.DiscountAmount = v
	}
	return req, true
}
