package controllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/foodcafeshop/food-cafe/services"
	"github.com/foodcafeshop/food-cafe/utils"
	"github.com/gin-gonic/gin"
)

type OrderController struct {
	Orders  *services.OrderService
	Billing *services.BillingService
}

func NewOrderController(orders *services.OrderService, billing *services.BillingService) *OrderController {
	return &OrderController{Orders: orders, Billing: billing}
}

type placeOrderBody struct {
	TableID       *uint                     `json:"table_id"`
	ServiceType   string                    `json:"service_type" binding:"omitempty,oneof=dine_in takeaway delivery"`
	SessionID     string                    `json:"session_id"`
	CustomerName  string                    `json:"customer_name" binding:"max=100"`
	CustomerPhone string                    `json:"customer_phone" binding:"max=20"`
	OTP           string                    `json:"otp"`
	PaymentMethod string                    `json:"payment_method" binding:"max=30"`
	Items         []services.OrderItemInput `json:"items" binding:"required,min=1,dive"`
}

func (b placeOrderBody) request() services.PlaceOrderRequest {
	return services.PlaceOrderRequest{
		TableID:       b.TableID,
		ServiceType:   b.ServiceType,
		SessionID:     b.SessionID,
		CustomerName:  b.CustomerName,
		CustomerPhone: b.CustomerPhone,
		OTP:           b.OTP,
		PaymentMethod: b.PaymentMethod,
		Items:         b.Items,
	}
}

// CreateOrder -> order dari customer (sesi meja atau OTP takeaway)
func (oc *OrderController) CreateOrder(c *gin.Context) {
	shopID, ok := publicShop(c)
	if !ok {
		return
	}
	var body placeOrderBody
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	order, err := oc.Orders.Place(c.Request.Context(), shopID, body.request())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Order created", order)
}

// CreateStaffOrder -> order yang diinput staff, tanpa OTP/sesi
func (oc *OrderController) CreateStaffOrder(c *gin.Context) {
	var body placeOrderBody
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	req := body.request()
	req.ByStaff = true
	req.StaffID = staffID(c)

	order, err := oc.Orders.Place(c.Request.Context(), staffShop(c), req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Order created", order)
}

// GetPublicOrder -> tracking order customer, wajib ?session_id= pemesan atau ?order_number=
func (oc *OrderController) GetPublicOrder(c *gin.Context) {
	shopID, ok := publicShop(c)
	if !ok {
		return
	}
	orderID, ok := paramID(c, "order_id")
	if !ok {
		return
	}
	order, err := oc.Orders.Track(c.Request.Context(), shopID, orderID, c.Query("session_id"), c.Query("order_number"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order detail", order)
}

func (oc *OrderController) GetOrderByID(c *gin.Context) {
	orderID, ok := paramID(c, "order_id")
	if !ok {
		return
	}
	order, err := oc.Orders.Get(c.Request.Context(), staffShop(c), orderID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order detail", order)
}

// GetAllOrders -> filter: status (comma), service_type, table_id, from, to (RFC3339), sort, limit, offset
func (oc *OrderController) GetAllOrders(c *gin.Context) {
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

	orders, total, err := oc.Orders.List(c.Request.Context(), staffShop(c), services.OrderFilter{
		Status:      c.Query("status"),
		ServiceType: c.Query("service_type"),
		TableID:     tableID,
		From:        from,
		To:          to,
		Sort:        c.Query("sort"),
		Page:        pageFromQuery(c),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of orders", gin.H{"orders": orders, "total": total})
}

// ReplaceItems -> ganti seluruh isi order yang belum billed/cancelled
func (oc *OrderController) ReplaceItems(c *gin.Context) {
	orderID, ok := paramID(c, "order_id")
	if !ok {
		return
	}
	var body struct {
		Items []services.OrderItemInput `json:"items" binding:"required,min=1,dive"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	order, err := oc.Orders.ReplaceItems(c.Request.Context(), staffShop(c), orderID, body.Items)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order items updated", order)
}

// UpdateStatus -> pipeline dapur (queued -> preparing -> ready -> served)
func (oc *OrderController) UpdateStatus(c *gin.Context) {
	orderID, ok := paramID(c, "order_id")
	if !ok {
		return
	}
	var body struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	order, err := oc.Orders.UpdateStatus(c.Request.Context(), staffShop(c), orderID, body.Status)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order status updated", order)
}

func (oc *OrderController) CancelOrder(c *gin.Context) {
	orderID, ok := paramID(c, "order_id")
	if !ok {
		return
	}
	order, err := oc.Orders.Cancel(c.Request.Context(), staffShop(c), orderID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order cancelled", order)
}

// PreviewBill -> preview bill order takeaway/delivery
func (oc *OrderController) PreviewBill(c *gin.Context) {
	orderID, ok := paramID(c, "order_id")
	if !ok {
		return
	}
	req, ok := settleOptionsFromQuery(c)
	if !ok {
		return
	}
	preview, err := oc.Billing.PreviewOrder(c.Request.Context(), staffShop(c), orderID, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Bill preview", preview)
}

// SettleOrder -> bill untuk satu order tanpa meja
func (oc *OrderController) SettleOrder(c *gin.Context) {
	orderID, ok := paramID(c, "order_id")
	if !ok {
		return
	}
	var req services.SettleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	req.StaffID = staffID(c)

	bill, err := oc.Billing.SettleOrder(c.Request.Context(), staffShop(c), orderID, req)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Order settled", bill)
}

func dateRange(c *gin.Context) (*time.Time, *time.Time, error) {
	parse := func(name string) (*time.Time, error) {
		raw := c.Query(name)
		if raw == "" {
			return nil, nil
		}
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			if d, derr := time.ParseInLocation("2006-01-02", raw, time.Local); derr == nil {
				return &d, nil
			}
			return nil, errors.New("invalid " + name + ", use RFC3339 or YYYY-MM-DD")
		}
		return &t, nil
	}
	from, err := parse("from")
	if err != nil {
		return nil, nil, err
	}
	to, err := parse("to")
	if err != nil {
		return nil, nil, err
	}
	return from, to, nil
}
