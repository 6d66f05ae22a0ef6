package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func RootHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"service": "SignLearn API",
		"version": "1.0.0",
		"status":  "running",
		"endpoints": gin.H{
			"auth": []string{
				"POST /api/auth/verify",
				"GET /api/auth/me",
				"POST /api/auth/update-coins",
				"POST /api/auth/add-coins",
				"POST /api/auth/subtract-coins",
				"POST /api/auth/complete-challenge",
				"DELETE /api/auth/account",
			},
			"progress": []string{
				"GET /api/progress",
				"POST /api/progress/coins",
				"POST /api/progress/streak/increment",
				"POST /api/progress/streak/reset",
				"POST /api/progress/learned",
			},
			"posts": []string{
				"GET /api/posts",
				"GET /api/posts/saved",
				"GET /api/posts/:id",
				"POST /api/posts",
				"PUT /api/posts/:id",
				"DELETE /api/posts/:id",
				"POST /api/posts/:id/{like,comment,save,share}",
			},
			"stories": []string{
				"GET /api/stories",
				"POST /api/stories",
				"GET /api/stories/:id",
				"POST /api/stories/:id/view",
				"POST /api/stories/:id/like",
				"DELETE /api/stories/:id",
			},
			"signs": []string{
				"GET /api/signs",
				"GET /api/signs/categories",
				"GET /api/signs/random_quiz",
				"GET /api/signs/sequential_quiz/:category",
				"GET /api/signs/:id",
				"POST /api/signs/:id/check_answer",
			},
			"simulations": []string{
				"GET /api/simulations",
				"GET /api/simulations/:id",
				"POST /api/simulations/:id/check",
			},
			"sharedPosts": []string{
				"GET /api/shared-posts",
				"POST /api/shared-posts",
				"POST /api/shared-posts/:id/{like,unlike,save,unsave}",
				"DELETE /api/shared-posts/:id",
			},
			"upload": []string{
				"POST /api/upload/presigned",
			},
			"websocket": []string{
				"GET /api/ws?token=",
			},
			"system": []string{
				"GET /healthz",
				"GET /metrics",
			},
		},
	})
}
