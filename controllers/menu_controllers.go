package controllers

import (
	"net/http"

	"github.com/foodcafeshop/food-cafe/models"
	"github.com/foodcafeshop/food-cafe/services"
	"github.com/foodcafeshop/food-cafe/utils"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// MenuController hanya membaca menu dan mengubah flag ketersediaan.
// CRUD menu dikelola modul lain.
type MenuController struct {
	DB *gorm.DB
}

func NewMenuController(db *gorm.DB) *MenuController {
	return &MenuController{DB: db}
}

// GetMenu -> item menu toko untuk customer; ?all=true ikut menampilkan yang habis
func (mc *MenuController) GetMenu(c *gin.Context) {
	shopID, ok := publicShop(c)
	if !ok {
		return
	}
	q := mc.DB.WithContext(c.Request.Context()).Where("shop_id = ?", shopID)
	if c.Query("all") != "true" {
		q = q.Where("is_available = ?", true)
	}

	var items []models.MenuItem
	if err := q.Order("name ASC").Find(&items).Error; err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of menu items", items)
}

// SetAvailability -> staff menandai item habis / tersedia lagi
func (mc *MenuController) SetAvailability(c *gin.Context) {
	itemID, ok := paramID(c, "menu_id")
	if !ok {
		return
	}
	var body struct {
		IsAvailable *bool `json:"is_available" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	res := mc.DB.WithContext(c.Request.Context()).Model(&models.MenuItem{}).
		Where("id = ? AND shop_id = ?", itemID, staffShop(c)).
		Update("is_available", *body.IsAvailable)
	if res.Error != nil {
		respondServiceError(c, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		respondServiceError(c, services.ErrNotFound.WithMessage("menu item not found"))
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Menu availability updated", gin.H{"id": itemID, "is_available": *body.IsAvailable})
}
