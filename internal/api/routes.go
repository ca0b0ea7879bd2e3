package api

import (
	"github.com/File-Sharing-BondBridg/Drive-Service/internal/api/handlers"
	"github.com/File-Sharing-BondBridg/Drive-Service/internal/logging"
	"github.com/File-Sharing-BondBridg/Drive-Service/internal/metrics"
	"github.com/gin-gonic/gin"
)

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, PATCH, PUT, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(200)
			return
		}
		c.Next()
	}
}

// RegisterRoutes mounts the drive API on r. auth guards every route except
// health, metrics and public share links.
func RegisterRoutes(r *gin.Engine, h *handlers.Handler, auth gin.HandlerFunc) {
	r.Use(corsMiddleware(), logging.Middleware(), metrics.Middleware())

	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := r.Group("/api")
	{
		api.GET("/health", h.HealthCheck)
		api.GET("/files/shared/:token", h.GetShared)
	}

	protected := api.Group("", auth)
	{
		protected.POST("/uploads/presign", h.PresignUpload)
		protected.POST("/uploads/complete", h.CompleteUpload)

		protected.GET("/files", h.ListFiles)
		protected.GET("/files/trash", h.ListTrash)
		protected.GET("/files/search", h.SearchFiles)
		protected.GET("/files/:fileId", h.GetFile)
		protected.DELETE("/files/:fileId", h.TrashFile)
		protected.DELETE("/files/:fileId/permanent", h.PermanentDelete)
		protected.PATCH("/files/:fileId/rename", h.RenameFile)
		protected.PATCH("/files/:fileId/restore", h.RestoreFile)
		protected.POST("/files/:fileId/share", h.ShareFile)
		protected.DELETE("/files/:fileId/share", h.RevokeShare)

		protected.GET("/me/usage", h.UsedStorage)
		protected.POST("/auth/logout", h.Logout)
	}
}
