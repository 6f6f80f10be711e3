package controllers

import (
	"net/http"

	"github.com/foodcafeshop/food-cafe/realtime"
	"github.com/foodcafeshop/food-cafe/services"
	"github.com/foodcafeshop/food-cafe/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CustomerController melayani endpoint customer tanpa login (join meja, cek sesi, cek stok)
// dan direktori customer untuk staff.
type CustomerController struct {
	Tables       *services.TableService
	Guard        *services.SessionGuard
	Availability *services.AvailabilityValidator
	Directory    *services.CustomerDirectory
}

func NewCustomerController(tables *services.TableService, guard *services.SessionGuard, availability *services.AvailabilityValidator, directory *services.CustomerDirectory) *CustomerController {
	return &CustomerController{Tables: tables, Guard: guard, Availability: availability, Directory: directory}
}

type joinBody struct {
	SessionID string `json:"session_id"`
	Name      string `json:"name" binding:"required,max=100"`
	Phone     string `json:"phone" binding:"max=20"`
	OTP       string `json:"otp" binding:"required"`
}

// JoinTable -> customer bergabung ke meja setelah scan QR.
// Session id dibuat server jika client belum punya.
func (cc *CustomerController) JoinTable(c *gin.Context) {
	shopID, ok := publicShop(c)
	if !ok {
		return
	}
	tableID, ok := paramID(c, "table_id")
	if !ok {
		return
	}
	var body joinBody
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}
	if body.SessionID == "" {
		body.SessionID = uuid.NewString()
	}

	joined, err := cc.Tables.Join(c.Request.Context(), shopID, tableID, services.JoinRequest{
		SessionID: body.SessionID,
		Name:      body.Name,
		Phone:     body.Phone,
		OTP:       body.OTP,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	data := gin.H{"joined": joined, "session_id": body.SessionID}
	if !joined {
		utils.RespondErrorData(c, http.StatusUnauthorized, "could not join table, check the OTP or ask staff", data)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Joined table", data)
}

// GetSession -> verdict sesi customer terhadap state meja saat ini.
// ?validated=true dikirim client yang sebelumnya sudah tervalidasi.
func (cc *CustomerController) GetSession(c *gin.Context) {
	shopID, ok := publicShop(c)
	if !ok {
		return
	}
	tableID, ok := paramID(c, "table_id")
	if !ok {
		return
	}
	state := services.SessionState{
		SessionID: c.Query("session_id"),
		Validated: c.Query("validated") == "true",
	}

	_, verdict, err := cc.Guard.Check(c.Request.Context(), shopID, tableID, state)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Session verdict", verdict)
}

// SessionStream -> websocket berisi verdict sesi setiap kali meja berubah
func (cc *CustomerController) SessionStream(c *gin.Context) {
	shopID, ok := publicShop(c)
	if !ok {
		return
	}
	tableID, ok := paramID(c, "table_id")
	if !ok {
		return
	}
	sessionID := c.Query("session_id")

	conn, err := realtime.Upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		utils.ErrorLogger.Errorf("session ws upgrade: %v", err)
		return
	}

	ctx := c.Request.Context()
	verdicts, err := cc.Guard.Watch(ctx, shopID, tableID, sessionID)
	if err != nil {
		utils.ErrorLogger.Errorf("session watch: %v", err)
		conn.Close()
		return
	}

	messages := make(chan realtime.Message)
	go func() {
		defer close(messages)
		for v := range verdicts {
			msg := realtime.Message{Topic: realtime.TableTopic(tableID), Event: realtime.EventSessionCheck, Data: v}
			select {
			case messages <- msg:
			case <-ctx.Done():
				return
			}
		}
	}()
	realtime.Pump(conn, messages)
}

type availabilityBody struct {
	Items []services.LineRef `json:"items" binding:"required,dive"`
}

// CheckAvailability -> nama item keranjang yang sudah tidak bisa dipesan
func (cc *CustomerController) CheckAvailability(c *gin.Context) {
	shopID, ok := publicShop(c)
	if !ok {
		return
	}
	var body availabilityBody
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	unavailable, err := cc.Availability.Check(c.Request.Context(), shopID, body.Items)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if unavailable == nil {
		unavailable = []string{}
	}
	utils.RespondJSON(c, http.StatusOK, "Availability checked", gin.H{"unavailable_items": unavailable})
}

// GetAllCustomers -> direktori customer toko, ?phone= untuk filter prefix
func (cc *CustomerController) GetAllCustomers(c *gin.Context) {
	customers, total, err := cc.Directory.List(c.Request.Context(), staffShop(c), c.Query("phone"), pageFromQuery(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "List of customers", gin.H{"customers": customers, "total": total})
}
