package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/vnkhanh/scl-academy-backend/controllers"
	"github.com/vnkhanh/scl-academy-backend/middleware"
	"github.com/vnkhanh/scl-academy-backend/models"
	"github.com/vnkhanh/scl-academy-backend/ws"
)

func SetupRouter(r *gin.Engine, ctl *controllers.Controller, auth *middleware.Auth, wsHandler *ws.Handler) *gin.Engine {
	r.GET("/ping", ctl.Ping)
	r.GET("/health", ctl.HealthCheck)

	api := r.Group("/api")

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", ctl.Register)
		authGroup.POST("/login", ctl.Login)
		authGroup.POST("/google", ctl.GoogleLogin)
	}

	// Nội dung công khai, lọc theo khu vực của người xem
	public := api.Group("")
	{
		public.Use(auth.OptionalAuthMiddleware())
		public.GET("/areas", ctl.GetAreas)
		public.GET("/courses", ctl.GetCourses)
		public.GET("/courses/:id", ctl.GetCourseDetail)
		public.GET("/podcasts", ctl.GetPodcasts)
	}

	user := api.Group("")
	{
		user.Use(auth.AuthMiddleware())
		user.GET("/user/me", ctl.Me)
		user.PATCH("/user/area", ctl.UpdateMyArea)
		user.POST("/tutor/chat", ctl.TutorChat)
	}

	admin := api.Group("/admin")
	{
		admin.Use(auth.RequireRoles(models.RoleAdmin))

		//Quản lý khu vực
		admin.POST("/areas", ctl.CreateArea)
		admin.PATCH("/areas/:id", ctl.RenameArea)
		admin.DELETE("/areas/:id", ctl.DeleteArea)

		admin.POST("/users", ctl.AdminCreateUser)
		admin.DELETE("/courses/:id", ctl.DeleteCourse)
		admin.POST("/tts", ctl.TextToSpeechHandler)

		//Podcast studio
		admin.POST("/podcasts/generate", ctl.GeneratePodcastDraft)
		admin.POST("/podcasts", ctl.PublishPodcast)

		//Trình soạn khoá học
		ed := admin.Group("/editor")
		ed.GET("/player", ctl.CurrentPlayback)
		ed.DELETE("/player", ctl.StopPlayback)

		sessions := ed.Group("/sessions")
		sessions.POST("", ctl.CreateSession)
		sessions.GET("/:id", ctl.GetSession)
		sessions.DELETE("/:id", ctl.CloseSession)
		sessions.PATCH("/:id/course", ctl.UpdateCourse)
		sessions.PUT("/:id/area", ctl.SetCourseArea)
		sessions.PUT("/:id/selection", ctl.Select)

		sessions.POST("/:id/chapters", ctl.AddChapter)
		sessions.PATCH("/:id/chapters/:chapterId", ctl.UpdateChapter)
		sessions.DELETE("/:id/chapters/:chapterId", ctl.DeleteChapter)
		sessions.POST("/:id/chapters/:chapterId/source", ctl.UploadSource)
		sessions.POST("/:id/chapters/:chapterId/modules", ctl.AddModule)
		sessions.PATCH("/:id/chapters/:chapterId/modules/:moduleId", ctl.UpdateModule)
		sessions.DELETE("/:id/chapters/:chapterId/modules/:moduleId", ctl.DeleteModule)

		sessions.POST("/:id/blocks", ctl.AddBlock)
		sessions.PATCH("/:id/blocks/:blockId", ctl.UpdateBlock)
		sessions.DELETE("/:id/blocks/:blockId", ctl.DeleteBlock)
		sessions.POST("/:id/blocks/:blockId/refine", ctl.RefineBlock)
		sessions.POST("/:id/blocks/:blockId/play", ctl.PlayAudio)
		sessions.POST("/:id/images", ctl.UploadImage)

		sessions.POST("/:id/generate/:kind", ctl.Generate)
		sessions.GET("/:id/renders", ctl.GetRender)
		sessions.DELETE("/:id/renders", ctl.CancelRender)
		sessions.POST("/:id/publish", ctl.PublishCourse)
	}

	r.GET("/ws/editor/:id", wsHandler.HandleEditorWebSocket)

	return r
}
