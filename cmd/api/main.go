package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/ccmr-api/internal/handler"
	"github.com/noah-isme/ccmr-api/internal/middleware"
	"github.com/noah-isme/ccmr-api/internal/repository"
	"github.com/noah-isme/ccmr-api/internal/service"
	"github.com/noah-isme/ccmr-api/pkg/cache"
	"github.com/noah-isme/ccmr-api/pkg/config"
	"github.com/noah-isme/ccmr-api/pkg/database"
	"github.com/noah-isme/ccmr-api/pkg/logger"
	"github.com/noah-isme/ccmr-api/pkg/mailer"
	corsmiddleware "github.com/noah-isme/ccmr-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/ccmr-api/pkg/middleware/requestid"
	"github.com/noah-isme/ccmr-api/pkg/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		redisClient = nil
	}

	attachmentStore, err := storage.NewAttachmentStore(cfg.Uploads.BaseDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init uploads directory", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	officeMailer := mailer.New(cfg.Email, logr)
	officeMailer.Start(ctx)
	defer officeMailer.Stop()

	// repositories
	caseRepo := repository.NewCaseRecordRepository(db)
	medicalRepo := repository.NewMedicalRecordRepository(db)
	counselingRepo := repository.NewCounselingRecordRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	userRepo := repository.NewUserRepository(db)
	analyticsRepo := repository.NewAnalyticsRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	// services
	metricsSvc := service.NewMetricsService()
	attachmentSvc := service.NewAttachmentService(attachmentStore, cfg.Uploads, logr)
	notificationSvc := service.NewNotificationService(notificationRepo, cacheRepo, cfg.Notifications.UnreadCountTTL, logr)
	caseSvc := service.NewCaseRecordService(caseRepo, attachmentSvc, notificationSvc, officeMailer, logr)
	medicalSvc := service.NewMedicalRecordService(medicalRepo, attachmentSvc, notificationSvc, officeMailer, logr)
	counselingSvc := service.NewCounselingRecordService(counselingRepo, attachmentSvc, logr)
	referralSvc := service.NewReferralService(caseRepo, medicalRepo, counselingRepo, notificationSvc, officeMailer, metricsSvc, logr)
	studentSvc := service.NewStudentService(studentRepo)
	analyticsSvc := service.NewAnalyticsService(analyticsRepo, cacheRepo, cfg.Analytics.CacheTTL, logr)
	authSvc := service.NewAuthService(userRepo, validator.New(), logr, cfg.JWT)
	exportSvc := service.NewExportService(studentRepo, caseSvc, medicalSvc, counselingSvc)

	// handlers
	referralHandler := handler.NewReferralHandler(referralSvc)
	notificationHandler := handler.NewNotificationHandler(notificationSvc)
	caseHandler := handler.NewCaseRecordHandler(caseSvc, attachmentSvc)
	medicalHandler := handler.NewMedicalRecordHandler(medicalSvc, attachmentSvc)
	counselingHandler := handler.NewCounselingRecordHandler(counselingSvc, attachmentSvc)
	studentHandler := handler.NewStudentHandler(studentSvc)
	analyticsHandler := handler.NewAnalyticsHandler(analyticsSvc)
	authHandler := handler.NewAuthHandler(authSvc)
	exportHandler := handler.NewExportHandler(exportSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	api := r.Group(cfg.APIPrefix)
	// The record surface stays open so the existing front end keeps working;
	// claims are attached when a token is present.
	api.Use(middleware.OptionalJWT(authSvc))
	{
		api.POST("/login", authHandler.Login)

		api.GET("/students/search", studentHandler.Search)
		api.GET("/students/:id/records/export", middleware.JWT(authSvc), exportHandler.StudentHistory)

		api.GET("/analytics", analyticsHandler.OPD)
		api.GET("/gco-analytics", analyticsHandler.GCO)
		api.GET("/inf-analytics", analyticsHandler.INF)

		api.GET("/pending-referrals", referralHandler.ListPending)
		api.PUT("/pending-referrals/case-record/:id/confirm", referralHandler.ConfirmCase)
		api.PUT("/pending-referrals/medical-record/:id/confirm", referralHandler.ConfirmMedical)

		api.GET("/notifications", notificationHandler.List)
		api.GET("/notifications/opd-certificates", notificationHandler.ListOPDCertificates)
		api.GET("/notifications/unread-count", notificationHandler.UnreadCount)
		api.PUT("/notifications/mark-all-read", notificationHandler.MarkAllRead)
		api.PUT("/notifications/:id/read", notificationHandler.MarkRead)

		api.GET("/case-records", caseHandler.List)
		api.POST("/case-records", caseHandler.Create)
		api.GET("/case-records/referred", caseHandler.ListReferred)
		api.GET("/case-records/search", caseHandler.Search)
		api.GET("/case-records/referred/search", caseHandler.SearchReferred)
		api.GET("/case-records/student/:studentId", caseHandler.ListByStudent)
		api.GET("/case-records/:id", caseHandler.Get)
		api.PUT("/case-records/:id", caseHandler.Update)
		api.GET("/case-records/:id/files/:filename", caseHandler.DownloadFile)
		api.DELETE("/case-records/:id/files/:filename", caseHandler.DeleteFile)

		api.GET("/medical-records", medicalHandler.List)
		api.POST("/medical-records", medicalHandler.Create)
		api.GET("/medical-records/referred", medicalHandler.ListReferred)
		api.GET("/medical-records/search", medicalHandler.Search)
		api.GET("/medical-records/referred/search", medicalHandler.SearchReferred)
		api.GET("/medical-records/student/:studentId", medicalHandler.ListByStudent)
		api.GET("/medical-records/:id", medicalHandler.Get)
		api.PUT("/medical-records/:id", medicalHandler.Update)
		api.GET("/medical-records/:id/files/:filename", medicalHandler.DownloadFile)
		api.DELETE("/medical-records/:id/files/:filename", medicalHandler.DeleteFile)
		api.GET("/infirmary/medical-records", medicalHandler.List)

		api.GET("/counseling-records", counselingHandler.List)
		api.POST("/counseling-records", counselingHandler.Create)
		api.GET("/counseling-records/search", counselingHandler.Search)
		api.GET("/counseling-records/student/:studentId", counselingHandler.ListByStudent)
		api.GET("/counseling-records/:id", counselingHandler.Get)
		api.PUT("/counseling-records/:id", counselingHandler.Update)
		api.GET("/counseling-records/:id/files/:filename", counselingHandler.DownloadFile)
		api.DELETE("/counseling-records/:id/files/:filename", counselingHandler.DeleteFile)
		api.GET("/infirmary/counseling-records", counselingHandler.ListPsychological)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("forced shutdown", "error", err)
	}
}
