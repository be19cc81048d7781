package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/BruksfildServices01/barber-manager/internal/audit"
	"github.com/BruksfildServices01/barber-manager/internal/billing"
	"github.com/BruksfildServices01/barber-manager/internal/bizid"
	"github.com/BruksfildServices01/barber-manager/internal/config"
	"github.com/BruksfildServices01/barber-manager/internal/handlers"
	infraRepo "github.com/BruksfildServices01/barber-manager/internal/infra/repository"
	"github.com/BruksfildServices01/barber-manager/internal/lock"
	"github.com/BruksfildServices01/barber-manager/internal/middleware"
	"github.com/BruksfildServices01/barber-manager/internal/models"
	"github.com/BruksfildServices01/barber-manager/internal/notify"
	"github.com/BruksfildServices01/barber-manager/internal/storage"
	ucAppointment "github.com/BruksfildServices01/barber-manager/internal/usecase/appointment"
)

// Deps are the long-lived singletons built by main. Store, Pushes and
// Billing may be nil when the integration is not configured.
type Deps struct {
	DB      *gorm.DB
	Config  *config.Config
	Locker  lock.Locker
	Catalog bizid.Catalog
	Audit   *audit.Dispatcher

	Store    storage.Store
	Notifier notify.Sender
	Pushes   *notify.Dispatcher
	Billing  billing.Provider
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	db := d.DB
	cfg := d.Config

	// ======================================================
	// 🌍 MIDDLEWARE GLOBAL
	// ======================================================
	r.Use(middleware.CORSMiddleware(cfg.CORSAllowedOrigins))

	// ======================================================
	// 🔧 INFRA (SINGLETONS)
	// ======================================================
	appointmentRepo := infraRepo.NewAppointmentGormRepository(db)
	businessIDs := infraRepo.NewBusinessIDGormRepository(db, d.Locker, d.Catalog)

	// ======================================================
	// 🧠 USE CASES: APPOINTMENTS
	// ======================================================
	appointmentUC := handlers.AppointmentUseCases{
		Create:      ucAppointment.NewCreateAppointment(appointmentRepo, d.Locker, d.Audit),
		Update:      ucAppointment.NewUpdateAppointment(appointmentRepo, d.Locker, d.Audit),
		Confirm:     ucAppointment.NewConfirmAppointment(appointmentRepo, d.Audit),
		Cancel:      ucAppointment.NewCancelAppointment(appointmentRepo, d.Audit),
		Complete:    ucAppointment.NewCompleteAppointment(appointmentRepo, d.Audit),
		Get:         ucAppointment.NewGetAppointment(appointmentRepo),
		List:        ucAppointment.NewListAppointments(appointmentRepo),
		ListByDate:  ucAppointment.NewListAppointmentsByDate(appointmentRepo),
		ListByMonth: ucAppointment.NewListAppointmentsByMonth(appointmentRepo),
		Delete:      ucAppointment.NewDeleteAppointment(appointmentRepo, d.Audit),
	}

	// ======================================================
	// 🧩 HANDLERS
	// ======================================================
	authHandler := handlers.NewAuthHandler(db, cfg)
	meHandler := handlers.NewMeHandler(db)
	barbershopHandler := handlers.NewBarbershopHandler(db)

	employeeHandler := handlers.NewEmployeeHandler(db, businessIDs, d.Store, d.Audit)
	itemHandler := handlers.NewItemHandler(db, businessIDs, d.Store, d.Audit)
	payrollHandler := handlers.NewPayrollHandler(db, businessIDs, d.Store, d.Audit)
	subscriberHandler := handlers.NewSubscriberHandler(db, d.Store, d.Pushes, d.Billing, d.Audit)
	appointmentHandler := handlers.NewAppointmentHandler(appointmentUC, d.Store)
	notificationHandler := handlers.NewNotificationHandler(d.Notifier, d.Audit)

	auditLogsHandler := handlers.NewAuditLogsHandler(db)

	// ======================================================
	// 🌐 API (JSON)
	// ======================================================
	api := r.Group("/api")
	{
		// ------------------------------
		// 🔐 AUTH
		// ------------------------------
		api.POST("/auth/register", authHandler.Register)
		api.POST("/auth/login", authHandler.Login)

		// ------------------------------
		// 🔐 API PRIVADA
		// ------------------------------
		secured := api.Group("/")
		secured.Use(middleware.AuthMiddleware(cfg))
		{
			secured.GET("/me", meHandler.GetMe)

			secured.GET("/me/barbershop", barbershopHandler.GetMeBarbershop)
			secured.PATCH("/me/barbershop", barbershopHandler.UpdateMeBarbershop)

			// ------------------------------
			// EMPLOYEES
			// ------------------------------
			employees := secured.Group("/me/employees")
			{
				employees.GET("", employeeHandler.List)
				employees.GET("/next-id", employeeHandler.NextID)
				employees.GET("/export", employeeHandler.Export)
				employees.POST("", employeeHandler.Create)
				employees.GET("/:employee_id", employeeHandler.Get)
				employees.PUT("/:employee_id", employeeHandler.Replace)
				employees.PATCH("/:employee_id", employeeHandler.Patch)
				employees.DELETE("/:employee_id", employeeHandler.Delete)
				employees.POST("/:employee_id/photo", employeeHandler.UploadPhoto)
			}

			// ------------------------------
			// INVENTORY
			// ------------------------------
			items := secured.Group("/me/items")
			{
				items.GET("", itemHandler.List)
				items.GET("/next-id", itemHandler.NextID)
				items.GET("/export", itemHandler.Export)
				items.POST("", itemHandler.Create)
				items.GET("/:item_id", itemHandler.Get)
				items.PUT("/:item_id", itemHandler.Replace)
				items.PATCH("/:item_id", itemHandler.Patch)
				items.POST("/:item_id/stock", itemHandler.AdjustStock)
				items.DELETE("/:item_id", itemHandler.Delete)
			}

			// ------------------------------
			// APPOINTMENTS
			// ------------------------------
			appointments := secured.Group("/me/appointments")
			{
				appointments.POST("", appointmentHandler.Create)
				appointments.GET("", appointmentHandler.List)
				appointments.GET("/day", appointmentHandler.ListByDate)
				appointments.GET("/month", appointmentHandler.ListByMonth)
				appointments.GET("/export", appointmentHandler.Export)
				appointments.GET("/:id", appointmentHandler.Get)
				appointments.PATCH("/:id", appointmentHandler.Update)
				appointments.PATCH("/:id/confirm", appointmentHandler.Confirm)
				appointments.PATCH("/:id/cancel", appointmentHandler.Cancel)
				appointments.PATCH("/:id/complete", appointmentHandler.Complete)
				appointments.DELETE("/:id", appointmentHandler.Delete)
			}

			// ------------------------------
			// SUBSCRIBERS
			// ------------------------------
			subscribers := secured.Group("/me/subscribers")
			{
				subscribers.GET("", subscriberHandler.List)
				subscribers.GET("/export", subscriberHandler.Export)
				subscribers.POST("", subscriberHandler.Create)
				subscribers.POST("/broadcast", subscriberHandler.Broadcast)
				subscribers.GET("/:id", subscriberHandler.Get)
				subscribers.PATCH("/:id", subscriberHandler.Patch)
				subscribers.DELETE("/:id", subscriberHandler.Delete)
				subscribers.POST("/:id/notify", subscriberHandler.Notify)
				subscribers.GET("/:id/billing", subscriberHandler.SyncBilling)
				subscribers.POST("/:id/billing", subscriberHandler.StartBilling)
				subscribers.DELETE("/:id/billing", subscriberHandler.CancelBilling)
			}

			// ------------------------------
			// PAYROLL (owner / manager)
			// ------------------------------
			payroll := secured.Group("/me/payroll")
			payroll.Use(middleware.RequireRole(models.RoleOwner, models.RoleManager))
			{
				payroll.GET("", payrollHandler.List)
				payroll.GET("/next-id", payrollHandler.NextID)
				payroll.GET("/export", payrollHandler.Export)
				payroll.POST("", payrollHandler.Create)
				payroll.GET("/:payroll_id", payrollHandler.Get)
				payroll.PATCH("/:payroll_id", payrollHandler.Patch)
				payroll.POST("/:payroll_id/pay", payrollHandler.MarkPaid)
				payroll.DELETE("/:payroll_id", payrollHandler.Delete)
			}

			secured.POST("/me/notifications", notificationHandler.Send)

			secured.GET("/me/audit-logs", auditLogsHandler.List)
		}
	}
}
