package app

import (
	"context"
	"database/sql"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"hrms/internal/accrual"
	"hrms/internal/attendance"
	"hrms/internal/audit"
	"hrms/internal/auth"
	"hrms/internal/dashboard"
	"hrms/internal/dossier"
	"hrms/internal/filestore"
	"hrms/internal/leave"
	"hrms/internal/messaging/kafka"
	"hrms/internal/middleware"
	"hrms/internal/project"
	"hrms/internal/rbac"
	"hrms/internal/timesheet"
	"hrms/internal/user"
)

func registerModules(
	router *gin.Engine,
	db *sql.DB,
	gormDB *gorm.DB,
	rdb *redis.Client,
) error {
	// --- Repositories ---
	rbacRepo := rbac.NewRepository(gormDB)
	userRepo := user.NewRepository(gormDB)
	attendanceRepo := attendance.NewRepository(gormDB)
	projectRepo := project.NewRepository(gormDB)
	timesheetRepo := timesheet.NewRepository(gormDB)
	leaveRepo := leave.NewRepository(gormDB)
	dossierRepo := dossier.NewRepository(gormDB)
	outboxRepo := kafka.NewOutboxRepository(db)
	recorder := audit.NewRecorder(gormDB)

	// Permission catalog rows are code-defined; reconcile at boot.
	if err := rbac.Sync(context.Background(), rbacRepo, zap.L()); err != nil {
		return err
	}

	// --- Authorization core ---
	resolver := rbac.NewResolver(rbacRepo, rdb)
	gate := rbac.NewGate(resolver, userRepo, rbac.DefaultGateConfig())

	uploadDir := os.Getenv("UPLOAD_DIR")
	if uploadDir == "" {
		uploadDir = "./uploads"
	}
	files, err := filestore.NewDiskStore(uploadDir, "/uploads")
	if err != nil {
		return err
	}

	// --- Services ---
	rbacService := rbac.NewService(rbacRepo)
	userService := user.NewService(userRepo, rbacRepo)
	authService := auth.NewService(userRepo)
	projectService := project.NewService(projectRepo)
	timesheetService := timesheet.NewService(
		db, timesheetRepo, projectRepo, projectService, attendanceRepo,
		userRepo, resolver, userRepo, gate, outboxRepo,
	)
	// The timesheet service doubles as the attendance module's month-lock
	// oracle and clock-out work logger.
	attendanceService := attendance.NewService(
		db, attendanceRepo, userRepo, resolver, userRepo, gate,
		timesheetService, timesheetService,
	)
	leaveService := leave.NewService(db, leaveRepo, userRepo, gate, outboxRepo)
	accrualService := accrual.NewService(leaveRepo, userRepo, outboxRepo)
	dossierService := dossier.NewService(
		db, dossierRepo, userRepo, resolver, gate, files, recorder, outboxRepo,
	)
	dashboardService := dashboard.NewService(userRepo, attendanceRepo, projectRepo, gate)

	// --- Handlers ---
	rbacHandler := rbac.NewHandler(rbacService)
	userHandler := user.NewHandler(userService)
	authHandler := auth.NewHandler(authService)
	projectHandler := project.NewHandler(projectService)
	timesheetHandler := timesheet.NewHandler(timesheetService)
	attendanceHandler := attendance.NewHandler(attendanceService)
	leaveHandler := leave.NewHandler(leaveService)
	accrualHandler := accrual.NewHandler(accrualService)
	dossierHandler := dossier.NewHandler(dossierService)
	dashboardHandler := dashboard.NewHandler(dashboardService)

	authn := middleware.AuthMiddleware(userRepo)

	router.Use(middleware.RequestID())

	api := router.Group("/api/v1")
	{
		login := api.Group("")
		login.Use(middleware.RateLimitByIP(rate.Limit(5), 10))
		auth.RegisterRoutes(login, authHandler)

		rbac.RegisterRoutes(api, rbacHandler, resolver, authn)
		user.RegisterRoutes(api, userHandler, resolver, authn)
		project.RegisterRoutes(api, projectHandler, resolver, authn)
		attendance.RegisterRoutes(api, attendanceHandler, resolver, authn)
		timesheet.RegisterRoutes(api, timesheetHandler, resolver, authn)
		leave.RegisterRoutes(api, leaveHandler, resolver, authn)
		accrual.RegisterRoutes(api, accrualHandler, resolver, authn)
		dossier.RegisterRoutes(api, dossierHandler, authn)
		dashboard.RegisterRoutes(api, dashboardHandler, authn)
	}

	return nil
}
