package controllers

import (
	"net/http"

	"github.com/foodcafeshop/food-cafe/services"
	"github.com/foodcafeshop/food-cafe/utils"
	"github.com/gin-gonic/gin"
)

// BillController -> riwayat bill (read-only, bill tidak pernah diubah setelah dibuat)
type BillController struct {
	Billing *services.BillingService
}

func NewBillController(billing *services.BillingService) *BillController {
	return &BillController{Billing: billing}
}

// GetAllBills -> filter: payment_method, table_id, from, to, sort, limit, offset
func (bc *BillController) GetAllBills(c *gin.Context) {
	tableID, err := queryUint(c, "table_id")
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	from, to, err := dateRange(c)
	if err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	bills, total, err := bc.Billing.ListBills(c.Request.Context(), staffShop(c), services.BillFilter{
		PaymentMethod: c.Query("payment_method"),
		TableID:       tableID,
		From:          from,
		To:            to,
		Sort:          c.Query("sort"),
		Page:          pageFromQuery(c),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of bills", gin.H{"bills": bills, "total": total})
}

// GetBillByID -> bill beserta order yang di-settle, dipakai untuk cetak ulang struk
func (bc *BillController) GetBillByID(c *gin.Context) {
	billID, ok := paramID(c, "bill_id")
	if !ok {
		return
	}
	bill, err := bc.Billing.GetBill(c.Request.Context(), staffShop(c), billID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Bill detail", bill)
}
