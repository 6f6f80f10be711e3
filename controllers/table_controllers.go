package controllers

import (
	"net/http"

	"github.com/foodcafeshop/food-cafe/services"
	"github.com/foodcafeshop/food-cafe/utils"
	"github.com/gin-gonic/gin"
)

type TableController struct {
	Tables  *services.TableService
	OTP     *services.OTPService
	Orders  *services.OrderService
	Billing *services.BillingService
}

func NewTableController(tables *services.TableService, otp *services.OTPService, orders *services.OrderService, billing *services.BillingService) *TableController {
	return &TableController{Tables: tables, OTP: otp, Orders: orders, Billing: billing}
}

// CreateTable -> menambahkan meja baru (status awal empty, OTP dibuat otomatis)
func (tc *TableController) CreateTable(c *gin.Context) {
	var req services.TableInput
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	table, err := tc.Tables.Create(c.Request.Context(), staffShop(c), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Table created successfully", table)
}

// GetAllTables -> seluruh meja toko beserta OTP-nya
func (tc *TableController) GetAllTables(c *gin.Context) {
	tables, err := tc.Tables.List(c.Request.Context(), staffShop(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of tables", tables)
}

// UpdateTable -> ubah label / kursi / posisi. Status hanya berubah lewat join, settle dan clear.
func (tc *TableController) UpdateTable(c *gin.Context) {
	tableID, ok := paramID(c, "table_id")
	if !ok {
		return
	}
	var body services.TableUpdate
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	table, err := tc.Tables.Update(c.Request.Context(), staffShop(c), tableID, body)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table updated", table)
}

// DeleteTable -> menghapus meja tanpa riwayat order
func (tc *TableController) DeleteTable(c *gin.Context) {
	tableID, ok := paramID(c, "table_id")
	if !ok {
		return
	}
	if err := tc.Tables.Delete(c.Request.Context(), staffShop(c), tableID); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table deleted successfully", nil)
}

// ClearTable -> meja billed kembali ke empty. ?force=true untuk mengosongkan kapan saja.
func (tc *TableController) ClearTable(c *gin.Context) {
	tableID, ok := paramID(c, "table_id")
	if !ok {
		return
	}
	force := c.Query("force") == "true"

	table, err := tc.Tables.Clear(c.Request.Context(), staffShop(c), tableID, force)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table cleared", table)
}

func (tc *TableController) RotateOTP(c *gin.Context) {
	tableID, ok := paramID(c, "table_id")
	if !ok {
		return
	}
	code, err := tc.OTP.RotateTable(c.Request.Context(), staffShop(c), tableID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "OTP rotated", gin.H{"table_id": tableID, "otp": code})
}

// GetTableOrders -> order meja, default hanya yang belum di-bill
func (tc *TableController) GetTableOrders(c *gin.Context) {
	tableID, ok := paramID(c, "table_id")
	if !ok {
		return
	}
	filter := services.OrderFilter{
		TableID: &tableID,
		Status:  c.DefaultQuery("status", "queued,preparing,ready,served"),
		Sort:    "asc",
		Page:    pageFromQuery(c),
	}
	orders, total, err := tc.Orders.List(c.Request.Context(), staffShop(c), filter)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Table orders", gin.H{"orders": orders, "total": total})
}

// PreviewBill menghitung bill meja tanpa menyimpan apa pun.
// Opsi service charge / diskon dibaca dari query.
func (tc *TableController) PreviewBill(c *gin.Context) {
	tableID, ok := paramID(c, "table_id")
	if !ok {
		return
	}
	req, ok := settleOptionsFromQuery(c)
	if !ok {
		return
	}

	preview, err := tc.Billing.PreviewTable(c.Request.Context(), staffShop(c), tableID, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Bill preview", preview)
}

// SettleTable -> tulis bill, tandai order paid, meja ke billed
func (tc *TableController) SettleTable(c *gin.Context) {
	tableID, ok := paramID(c, "table_id")
	if !ok {
		return
	}
	var req services.SettleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	req.StaffID = staffID(c)

	bill, err := tc.Billing.SettleTable(c.Request.Context(), staffShop(c), tableID, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Table settled", bill)
}
