package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/foodcafeshop/food-cafe/services"
	"github.com/foodcafeshop/food-cafe/utils"
	"github.com/gin-gonic/gin"
)

var errBadID = errors.New("invalid id")

// respondServiceError memetakan kategori error service ke status HTTP.
// Error yang tidak dikenal dicatat lengkap, client hanya menerima pesan generik.
func respondServiceError(c *gin.Context, err error) {
	var avail *services.AvailabilityError
	if errors.As(err, &avail) {
		utils.RespondErrorData(c, http.StatusConflict, avail.Error(), gin.H{"unavailable_items": avail.Items})
		return
	}

	switch services.KindOf(err) {
	case services.KindValidation:
		utils.RespondError(c, http.StatusBadRequest, err)
	case services.KindConflict:
		utils.RespondError(c, http.StatusConflict, err)
	case services.KindNotFound:
		utils.RespondError(c, http.StatusNotFound, err)
	case services.KindAuthorization:
		utils.RespondError(c, http.StatusForbidden, err)
	case services.KindTransient:
		utils.ErrorLogger.WithField("path", c.FullPath()).Errorf("store unavailable: %v", err)
		utils.RespondError(c, http.StatusServiceUnavailable, errors.New("service temporarily unavailable, please try again"))
	default:
		var appErr *services.AppError
		if errors.As(err, &appErr) {
			utils.RespondError(c, http.StatusInternalServerError, err)
			return
		}
		utils.ErrorLogger.WithField("path", c.FullPath()).Errorf("request failed: %v", err)
		utils.RespondError(c, http.StatusInternalServerError, errors.New("operation failed, please try again"))
	}
}

func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		utils.RespondError(c, http.StatusBadRequest, errBadID)
		return 0, false
	}
	return uint(id), true
}

// staffShop -> shop id dari token staff (di-set AuthMiddleware)
func staffShop(c *gin.Context) uint {
	return c.GetUint("shop_id")
}

func staffID(c *gin.Context) *uint {
	id := c.GetUint("user_id")
	if id == 0 {
		return nil
	}
	return &id
}

// publicShop -> shop id dari path untuk endpoint customer
func publicShop(c *gin.Context) (uint, bool) {
	return paramID(c, "shop_id")
}

func queryUint(c *gin.Context, name string) (*uint, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return nil, errors.New("invalid " + name)
	}
	id := uint(v)
	return &id, nil
}

func pageFromQuery(c *gin.Context) services.Page {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	return services.Page{Limit: limit, Offset: offset}
}
