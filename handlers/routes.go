package handlers

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts the API under /api
func RegisterRoutes(r gin.IRouter, boards *BoardHandler, files *FileHandler) {
	api := r.Group("/api")
	{
		// Board endpoints
		api.GET("/board/", boards.ListBoards)
		api.GET("/board/:board/:page/", boards.ListThreads)
		api.POST("/board/:board/thread/", boards.CreateThread)
		api.GET("/board/:board/thread/:thread/", boards.GetThread)
		api.POST("/board/:board/thread/:thread/post/", boards.CreatePost)
		api.GET("/board/:board/thread/:thread/post/:post/", boards.GetPost)

		// File endpoints
		api.POST("/board/:board/file/", files.UploadFiles)
		api.GET("/file/:hash/", files.GetFile)
		api.GET("/file/thumbnail/:hash/", files.GetThumbnail)
	}
}
