package app

import (
	"lms_backend/docs"
	"lms_backend/internal/access"
	"lms_backend/internal/middleware"
	"lms_backend/internal/util"
	"lms_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers) {
	docs.SwaggerInfo.BasePath = "/"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())
	router.NoRoute(util.NotFound)

	// 1. Public routes
	a.registerPublicRoutes(router, c)

	// 2. Authenticated routes, each guarded by the role policy
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware(a.Config.JWT.Secret, c.auth.AuthService))
	{
		authGroup.POST("/logout", c.auth.Logout)
		authGroup.GET("/profile", c.auth.Profile)

		a.registerUserRoutes(authGroup, c)
		a.registerCourseRoutes(authGroup, c)
		a.registerLessonRoutes(authGroup, c)
		a.registerLearningRoutes(authGroup, c)
		a.registerQuizRoutes(authGroup, c)

		authGroup.GET("/dashboard", a.guard(util.ResourceDashboard), c.dashboard.GetDashboard)
	}
}

func (a *App) guard(resource string) gin.HandlerFunc {
	return middleware.ACGuard(a.Policy, resource)
}

func (a *App) registerPublicRoutes(router *gin.Engine, c *controllers) {
	public := router.Group("/api")
	{
		public.GET("/_health/live", c.health.Live)
		public.GET("/_health/ready", c.health.Ready)
		public.POST("/login", c.auth.Login)
	}
}

func (a *App) registerUserRoutes(r *gin.RouterGroup, c *controllers) {
	users := r.Group("/users", a.guard(util.ResourceUser))
	{
		users.GET("", c.user.List)
		users.POST("", c.user.Create)
		users.GET("/:id", c.user.Get)
		users.PATCH("/:id", c.user.Update)
		users.DELETE("/:id", c.user.Delete)
	}
}

func (a *App) registerCourseRoutes(r *gin.RouterGroup, c *controllers) {
	courses := r.Group("/courses")
	{
		courses.GET("", a.guard(util.ResourceCourse), c.course.List)
		courses.POST("", a.guard(util.ResourceCourse), c.course.Create)
		courses.GET("/:id", a.guard(util.ResourceCourse), c.course.Get)
		courses.PATCH("/:id", a.guard(util.ResourceCourse), c.course.Update)
		courses.DELETE("/:id", a.guard(util.ResourceCourse), c.course.Delete)

		courses.GET("/:id/lessons", a.guard(util.ResourceLesson), c.course.Lessons)
		courses.GET("/:id/enrollments", a.guard(util.ResourceEnrollment), c.course.Enrollments)
		courses.GET("/:id/statistics", a.guard(util.ResourceStatistics), c.course.Statistics)
	}
}

func (a *App) registerLessonRoutes(r *gin.RouterGroup, c *controllers) {
	lessons := r.Group("/lessons", a.guard(util.ResourceLesson))
	{
		lessons.GET("", c.lesson.List)
		lessons.POST("", c.lesson.Create)
		lessons.GET("/:id", c.lesson.Get)
		lessons.PATCH("/:id", c.lesson.Update)
		lessons.DELETE("/:id", c.lesson.Delete)
	}

	videos := r.Group("/videos", a.guard(util.ResourceVideo))
	{
		videos.GET("", c.video.List)
		videos.POST("", c.video.Create)
		videos.GET("/:id", c.video.Get)
		videos.PATCH("/:id", c.video.Update)
		videos.DELETE("/:id", c.video.Delete)
	}
}

func (a *App) registerLearningRoutes(r *gin.RouterGroup, c *controllers) {
	enrollments := r.Group("/enrollments", a.guard(util.ResourceEnrollment))
	{
		enrollments.GET("", c.enrollment.List)
		enrollments.POST("", c.enrollment.Create)
		enrollments.GET("/:id", c.enrollment.Get)
		enrollments.DELETE("/:id", c.enrollment.Delete)
	}

	progresses := r.Group("/progresses", a.guard(util.ResourceProgress))
	{
		progresses.GET("", c.progress.List)
		progresses.POST("", c.progress.Create)
		progresses.GET("/:id", c.progress.Get)
		progresses.PATCH("/:id", c.progress.Update)
		progresses.DELETE("/:id", c.progress.Delete)
	}
}

func (a *App) registerQuizRoutes(r *gin.RouterGroup, c *controllers) {
	quizzes := r.Group("/quizzes")
	{
		quizzes.GET("", a.guard(util.ResourceQuiz), c.quiz.List)
		quizzes.POST("", a.guard(util.ResourceQuiz), c.quiz.Create)
		quizzes.GET("/:id", a.guard(util.ResourceQuiz), c.quiz.Get)
		quizzes.PATCH("/:id", a.guard(util.ResourceQuiz), c.quiz.Update)
		quizzes.DELETE("/:id", a.guard(util.ResourceQuiz), c.quiz.Delete)

		quizzes.POST("/:id/submit",
			middleware.ACGuardAction(a.Policy, util.ResourceQuizAttempt, access.ActionCreate), c.quiz.Submit)
		quizzes.GET("/:id/attempts", a.guard(util.ResourceQuizAttempt), c.quiz.Attempts)
	}

	questions := r.Group("/questions", a.guard(util.ResourceQuestion))
	{
		questions.GET("", c.question.List)
		questions.POST("", c.question.Create)
		questions.GET("/:id", c.question.Get)
		questions.PATCH("/:id", c.question.Update)
		questions.DELETE("/:id", c.question.Delete)
	}
}
