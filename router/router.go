package router

import (
	"net/http"

	"github.com/foodcafeshop/food-cafe/controllers"
	"github.com/foodcafeshop/food-cafe/middlewares"
	"github.com/foodcafeshop/food-cafe/models"
	"github.com/foodcafeshop/food-cafe/realtime"
	"github.com/foodcafeshop/food-cafe/services"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Deps adalah semua service yang dibutuhkan router.
type Deps struct {
	DB           *gorm.DB
	Hub          *realtime.Hub
	Settings     *services.SettingsProvider
	OTP          *services.OTPService
	Customers    *services.CustomerDirectory
	Availability *services.AvailabilityValidator
	Tables       *services.TableService
	Orders       *services.OrderService
	Billing      *services.BillingService
	Guard        *services.SessionGuard
	Dashboard    *services.DashboardService

	CORSOrigins       []string
	Release           bool
	JoinRatePerMinute int
}

// NewDeps merangkai semua service dari satu koneksi database.
func NewDeps(db *gorm.DB, hub *realtime.Hub, settings *services.SettingsProvider) *Deps {
	otp := services.NewOTPService(db, settings)
	customers := services.NewCustomerDirectory(db)
	availability := services.NewAvailabilityValidator(db)
	return &Deps{
		DB:           db,
		Hub:          hub,
		Settings:     settings,
		OTP:          otp,
		Customers:    customers,
		Availability: availability,
		Tables:       services.NewTableService(db, otp, settings),
		Orders:       services.NewOrderService(db, settings, otp, customers, availability),
		Billing:      services.NewBillingService(db, settings),
		Guard:        services.NewSessionGuard(db, hub),
		Dashboard:    services.NewDashboardService(db),
	}
}

func SetupRouter(d *Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middlewares.SecurityHeaders(d.Release))
	r.Use(middlewares.CORSMiddlewares(d.CORSOrigins))
	r.Use(middlewares.LoggerMiddleware())

	// Inisialisasi controller
	userCtrl := controllers.NewUserController(d.DB)
	tableCtrl := controllers.NewTableController(d.Tables, d.OTP, d.Orders, d.Billing)
	customerCtrl := controllers.NewCustomerController(d.Tables, d.Guard, d.Availability, d.Customers)
	orderCtrl := controllers.NewOrderController(d.Orders, d.Billing)
	billCtrl := controllers.NewBillController(d.Billing)
	settingsCtrl := controllers.NewSettingsController(d.Settings, d.OTP)
	menuCtrl := controllers.NewMenuController(d.DB)
	adminCtrl := controllers.NewAdminController(d.Dashboard)
	streamCtrl := controllers.NewStreamController(d.Hub)

	joinLimiter := middlewares.NewRateLimiter(d.JoinRatePerMinute)
	authLimiter := middlewares.NewRateLimiter(5)

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	// ----------------------------------------------------------------
	//                      PUBLIC ROUTES
	// ----------------------------------------------------------------
	public := r.Group("/")
	public.Use(authLimiter.RateLimit())
	{
		public.POST("/register", userCtrl.Register)
		public.POST("/login", userCtrl.Login)
	}

	// -- CUSTOMER (tanpa login) --
	shop := r.Group("/shops/:shop_id")
	{
		shop.GET("/menu", menuCtrl.GetMenu)
		shop.POST("/menu/availability", customerCtrl.CheckAvailability)
		shop.POST("/tables/:table_id/join", joinLimiter.RateLimit(), customerCtrl.JoinTable)
		shop.GET("/tables/:table_id/session", customerCtrl.GetSession)
		shop.GET("/tables/:table_id/session/ws", customerCtrl.SessionStream)
		shop.POST("/orders", joinLimiter.RateLimit(), orderCtrl.CreateOrder)
		shop.GET("/orders/:order_id", orderCtrl.GetPublicOrder)
	}

	// ----------------------------------------------------------------
	//                      AUTHENTICATED ROUTES
	// ----------------------------------------------------------------
	auth := r.Group("/admin")
	auth.Use(middlewares.AuthMiddleware())

	auth.GET("/profile", userCtrl.GetProfile)
	auth.POST("/logout", userCtrl.Logout)

	// staff + admin (kitchen hanya boleh pipeline order)
	staff := auth.Group("")
	staff.Use(middlewares.RequireRoles(models.RoleStaff))
	{
		// TABLE
		staff.GET("/tables", tableCtrl.GetAllTables)
		staff.POST("/tables", tableCtrl.CreateTable)
		staff.PATCH("/tables/:table_id", tableCtrl.UpdateTable)
		staff.DELETE("/tables/:table_id", tableCtrl.DeleteTable)
		staff.POST("/tables/:table_id/clear", tableCtrl.ClearTable)
		staff.POST("/tables/:table_id/otp/rotate", tableCtrl.RotateOTP)
		staff.GET("/tables/:table_id/orders", tableCtrl.GetTableOrders)
		staff.GET("/tables/:table_id/bill/preview", tableCtrl.PreviewBill)
		staff.POST("/tables/:table_id/settle", middlewares.SettlementLogger(), tableCtrl.SettleTable)

		// ORDERS
		staff.POST("/orders", orderCtrl.CreateStaffOrder)
		staff.PUT("/orders/:order_id/items", orderCtrl.ReplaceItems)
		staff.POST("/orders/:order_id/cancel", orderCtrl.CancelOrder)
		staff.GET("/orders/:order_id/bill/preview", orderCtrl.PreviewBill)
		staff.POST("/orders/:order_id/settle", middlewares.SettlementLogger(), orderCtrl.SettleOrder)

		// BILLS
		staff.GET("/bills", billCtrl.GetAllBills)
		staff.GET("/bills/:bill_id", billCtrl.GetBillByID)

		// CUSTOMERS
		staff.GET("/customers", customerCtrl.GetAllCustomers)

		// MENU
		staff.PATCH("/menu/:menu_id/availability", menuCtrl.SetAvailability)

		staff.GET("/settings", settingsCtrl.GetSettings)
		staff.POST("/settings/takeaway-otp/rotate", settingsCtrl.RotateTakeawayOTP)
	}

	// kitchen, staff, admin
	kitchen := auth.Group("")
	kitchen.Use(middlewares.RequireRoles(models.RoleStaff, models.RoleKitchen))
	{
		kitchen.GET("/orders", orderCtrl.GetAllOrders)
		kitchen.GET("/orders/:order_id", orderCtrl.GetOrderByID)
		kitchen.PATCH("/orders/:order_id/status", orderCtrl.UpdateStatus)
	}

	// admin only
	admin := auth.Group("")
	admin.Use(middlewares.RequireRoles())
	{
		admin.PUT("/settings", settingsCtrl.UpdateSettings)
		admin.GET("/users", userCtrl.GetAllUsers)
		admin.POST("/users", userCtrl.CreateUser)
		admin.GET("/dashboard/stats", adminCtrl.GetDashboardStats)
	}

	// WebSocket staff dengan token di query
	wsGroup := r.Group("/ws")
	wsGroup.Use(middlewares.WebSocketAuthMiddleware())
	{
		wsGroup.GET("/shop", streamCtrl.ShopStream)
	}

	return r
}
