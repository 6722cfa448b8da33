package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Aisenh037/dept-mgmt-api/internal/middleware"
	"github.com/Aisenh037/dept-mgmt-api/internal/models"
	"github.com/Aisenh037/dept-mgmt-api/internal/repository"
	"github.com/Aisenh037/dept-mgmt-api/internal/service"
	"github.com/Aisenh037/dept-mgmt-api/pkg/config"
)

// RouterDeps bundles everything route registration needs.
type RouterDeps struct {
	Auth        *AuthHandler
	Students    *StudentHandler
	Professors  *ProfessorHandler
	Branches    *BranchHandler
	Subjects    *SubjectHandler
	Courses     *CourseHandler
	Assignments *AssignmentHandler
	Facilities  *FacilityHandler
	Notices     *NoticeHandler
	Attendance  *AttendanceHandler
	Files       *FileHandler
	Metrics     *MetricsHandler

	AuthService *service.AuthService
	Accounts    *repository.AccountRepository
	Redis       *redis.Client
	RateLimit   config.RateLimitConfig
	Logger      *zap.Logger
}

// RegisterRoutes wires all API routes and their middleware chains.
func RegisterRoutes(r *gin.Engine, deps RouterDeps) {
	staff := []models.Role{models.RoleCreator, models.RoleDirector, models.RoleHOD, models.RoleAdmin}
	teaching := append(staff, models.RoleProfessor)

	r.GET("/health", deps.Metrics.Health)
	r.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", deps.Metrics.Prometheus)

	api := r.Group("/api/v1")

	// Anonymous traffic is throttled by IP; authenticated traffic by account,
	// so the limiter runs before JWT on public routes and after it elsewhere.
	throttle := func(c *gin.Context) { c.Next() }
	if deps.RateLimit.Enabled && deps.Redis != nil {
		throttle = middleware.RateLimit(deps.Redis, deps.RateLimit, deps.Logger)
	}

	auth := api.Group("/auth")
	{
		auth.POST("/login", throttle, deps.Auth.Login)
		auth.POST("/refresh", throttle, deps.Auth.Refresh)
		auth.POST("/forgot-password", throttle, deps.Auth.ForgotPassword)
		auth.PUT("/reset-password/:token", throttle, deps.Auth.ResetPassword)

		authed := auth.Group("", middleware.JWT(deps.AuthService), throttle)
		authed.POST("/logout", deps.Auth.Logout)
		authed.PUT("/password", deps.Auth.ChangePassword)
	}

	// Signed token is the credential, no JWT required.
	api.GET("/files", throttle, deps.Files.Download)

	protected := api.Group("", middleware.JWT(deps.AuthService), throttle)

	students := protected.Group("/students")
	{
		students.GET("", deps.Students.List)
		students.GET("/:id", deps.Students.Get)
		students.POST("", middleware.RequireRoles(staff...), middleware.Audit(deps.Accounts, "STUDENT_CREATE", "students"), deps.Students.Create)
		students.PUT("/:id", middleware.RequireRoles(staff...), deps.Students.Update)
		students.DELETE("/:id", middleware.RequireRoles(staff...), middleware.Audit(deps.Accounts, "STUDENT_DELETE", "students"), deps.Students.Delete)
		students.POST("/import", middleware.RequireRoles(staff...), deps.Students.ImportRoster)
		students.GET("/export", middleware.RequireRoles(staff...), deps.Students.ExportRoster)
		readOwn := middleware.RBAC(middleware.SelfRole, string(models.RoleCreator), string(models.RoleDirector), string(models.RoleHOD), string(models.RoleAdmin), string(models.RoleProfessor))
		students.GET("/:id/attendance", readOwn, deps.Attendance.StudentHistory)
		students.GET("/:id/marks", readOwn, deps.Attendance.StudentMarks)
	}

	professors := protected.Group("/professors")
	{
		professors.GET("", deps.Professors.List)
		professors.GET("/:id", deps.Professors.Get)
		professors.POST("", middleware.RequireRoles(models.RoleCreator, models.RoleDirector, models.RoleHOD), middleware.Audit(deps.Accounts, "PROFESSOR_CREATE", "professors"), deps.Professors.Create)
		professors.DELETE("/:id", middleware.RequireRoles(staff...), middleware.Audit(deps.Accounts, "PROFESSOR_DELETE", "professors"), deps.Professors.Delete)
		professors.POST("/:id/subjects", middleware.RequireRoles(staff...), deps.Professors.AssignSubject)
		professors.GET("/:id/subjects", deps.Professors.Subjects)
	}

	branches := protected.Group("/branches")
	{
		branches.GET("", deps.Branches.List)
		branches.GET("/:id", deps.Branches.Get)
		branches.POST("", middleware.RequireRoles(staff...), deps.Branches.Create)
		branches.PUT("/:id", middleware.RequireRoles(staff...), deps.Branches.Update)
		branches.DELETE("/:id", middleware.RequireRoles(staff...), deps.Branches.Delete)
	}

	subjects := protected.Group("/subjects")
	{
		subjects.GET("", deps.Subjects.List)
		subjects.GET("/:id", deps.Subjects.Get)
		subjects.POST("", middleware.RequireRoles(staff...), deps.Subjects.Create)
		subjects.PUT("/:id", middleware.RequireRoles(staff...), deps.Subjects.Update)
		subjects.DELETE("/:id", middleware.RequireRoles(staff...), deps.Subjects.Delete)
	}

	courses := protected.Group("/courses")
	{
		courses.GET("", deps.Courses.List)
		courses.GET("/:id", deps.Courses.Get)
		courses.POST("", middleware.RequireRoles(staff...), deps.Courses.Create)
		courses.GET("/:id/enrollments", deps.Courses.Enrollments)
		courses.POST("/:id/enrollments", middleware.RequireRoles(staff...), deps.Courses.Enroll)
		courses.DELETE("/:id/enrollments/:studentId", middleware.RequireRoles(staff...), deps.Courses.Unenroll)
		courses.GET("/:id/assignments", deps.Assignments.ListByCourse)
	}

	assignments := protected.Group("/assignments")
	{
		assignments.GET("/:id", deps.Assignments.Get)
		assignments.POST("", middleware.RequireRoles(teaching...), deps.Assignments.Create)
		assignments.POST("/:id/submissions", middleware.RequireRoles(models.RoleStudent), deps.Assignments.Submit)
		assignments.GET("/:id/submissions", middleware.RequireRoles(teaching...), deps.Assignments.Submissions)
	}

	submissions := protected.Group("/submissions")
	{
		submissions.POST("/:submissionId/grade", middleware.RequireRoles(teaching...), deps.Assignments.Grade)
		submissions.GET("/:submissionId/file-url", deps.Assignments.FileURL)
	}

	facilities := protected.Group("/facilities")
	{
		facilities.GET("", deps.Facilities.List)
		facilities.POST("", middleware.RequireRoles(staff...), deps.Facilities.Create)
		facilities.GET("/:id/bookings", deps.Facilities.Bookings)
		facilities.POST("/:id/bookings", deps.Facilities.Book)
		facilities.PUT("/:id/bookings/:bookingId", middleware.RequireRoles(staff...), deps.Facilities.Review)
	}

	notices := protected.Group("/notices")
	{
		notices.GET("", deps.Notices.List)
		notices.POST("", middleware.RequireRoles(teaching...), deps.Notices.Create)
	}

	attendance := protected.Group("/attendance")
	{
		attendance.GET("", middleware.RequireRoles(teaching...), deps.Attendance.Sheet)
		attendance.POST("", middleware.RequireRoles(teaching...), deps.Attendance.Mark)
	}
	protected.POST("/marks", middleware.RequireRoles(teaching...), deps.Attendance.RecordMark)

	protected.GET("/metrics/summary", middleware.RequireRoles(staff...), deps.Metrics.Snapshot)
}
