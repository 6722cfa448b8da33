package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/Aisenh037/dept-mgmt-api/api/swagger"
	"github.com/Aisenh037/dept-mgmt-api/internal/handler"
	"github.com/Aisenh037/dept-mgmt-api/internal/middleware"
	"github.com/Aisenh037/dept-mgmt-api/internal/repository"
	"github.com/Aisenh037/dept-mgmt-api/internal/service"
	"github.com/Aisenh037/dept-mgmt-api/pkg/cache"
	"github.com/Aisenh037/dept-mgmt-api/pkg/config"
	"github.com/Aisenh037/dept-mgmt-api/pkg/database"
	"github.com/Aisenh037/dept-mgmt-api/pkg/jobs"
	"github.com/Aisenh037/dept-mgmt-api/pkg/logger"
	"github.com/Aisenh037/dept-mgmt-api/pkg/mailer"
	corsmiddleware "github.com/Aisenh037/dept-mgmt-api/pkg/middleware/cors"
	reqidmiddleware "github.com/Aisenh037/dept-mgmt-api/pkg/middleware/requestid"
	"github.com/Aisenh037/dept-mgmt-api/pkg/storage"
)

// @title Department Management API
// @version 1.0.0
// @description Role-aware administration API for an academic department
// @BasePath /api/v1
// @schemes http https

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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, rate limiting disabled", "error", err)
		redisClient = nil
	}

	fileStore, err := storage.NewLocalStorage(cfg.Uploads.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init upload storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Uploads.SignedURLSecret, cfg.Uploads.SignedURLTTL)

	mail := mailer.FromConfig(cfg.Email, logr)

	accountRepo := repository.NewAccountRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	professorRepo := repository.NewProfessorRepository(db)
	branchRepo := repository.NewBranchRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	facilityRepo := repository.NewFacilityRepository(db)
	noticeRepo := repository.NewNoticeRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)

	metricsSvc := service.NewMetricsService()

	var cacheSvc *service.CacheService
	if redisClient != nil {
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, 10*time.Minute, logr, true)
	}

	authSvc := service.NewAuthService(accountRepo, mail, nil, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
		ResetTokenTTL:      cfg.PasswordReset.TokenTTL,
		FrontendURL:        cfg.Email.FrontendURL,
	})

	studentSvc := service.NewStudentService(studentRepo, accountRepo, branchRepo, metricsSvc, nil, logr)
	professorSvc := service.NewProfessorService(professorRepo, accountRepo, subjectRepo, nil, logr)
	branchSvc := service.NewBranchService(branchRepo, cacheSvc, nil, logr)
	subjectSvc := service.NewSubjectService(subjectRepo, branchRepo, nil, logr)
	courseSvc := service.NewCourseService(courseRepo, studentRepo, branchRepo, nil, logr)
	assignmentSvc := service.NewAssignmentService(assignmentRepo, courseRepo, fileStore, signer, nil, logr)
	facilitySvc := service.NewFacilityService(facilityRepo, nil, logr)
	attendanceSvc := service.NewAttendanceService(attendanceRepo, nil, logr)

	var noticeSvc *service.NoticeService
	noticeQueue := jobs.NewQueue("notice-email", func(ctx context.Context, job jobs.Job) error {
		return noticeSvc.HandleEmailJob(ctx, job)
	}, jobs.QueueConfig{
		Workers:    cfg.Notifications.Workers,
		MaxRetries: cfg.Notifications.MaxRetries,
		Logger:     logr,
	})
	noticeSvc = service.NewNoticeService(noticeRepo, noticeQueue, mail, nil, logr)

	queueCtx, queueCancel := context.WithCancel(context.Background())
	defer queueCancel()
	noticeQueue.Start(queueCtx)
	defer noticeQueue.Stop()

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))
	r.Use(middleware.WithResponseMeta())
	r.MaxMultipartMemory = cfg.Uploads.MaxFileSizeBytes

	handler.RegisterRoutes(r, handler.RouterDeps{
		Auth:        handler.NewAuthHandler(authSvc),
		Students:    handler.NewStudentHandler(studentSvc),
		Professors:  handler.NewProfessorHandler(professorSvc),
		Branches:    handler.NewBranchHandler(branchSvc),
		Subjects:    handler.NewSubjectHandler(subjectSvc),
		Courses:     handler.NewCourseHandler(courseSvc),
		Assignments: handler.NewAssignmentHandler(assignmentSvc),
		Facilities:  handler.NewFacilityHandler(facilitySvc),
		Notices:     handler.NewNoticeHandler(noticeSvc),
		Attendance:  handler.NewAttendanceHandler(attendanceSvc),
		Files:       handler.NewFileHandler(fileStore, signer),
		Metrics:     handler.NewMetricsHandler(metricsSvc),
		AuthService: authSvc,
		Accounts:    accountRepo,
		Redis:       redisClient,
		RateLimit:   cfg.RateLimit,
		Logger:      logr,
	})

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logr.Sugar().Infow("shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logr.Sugar().Errorw("shutdown error", "error", err)
	}
	logr.Sugar().Infow("server stopped")
}
