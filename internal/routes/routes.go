// Package routes mounts every HTTP endpoint on a gin engine.
package routes

import (
	"time"

	"signlearn-service/internal/auth"
	"signlearn-service/internal/cache"
	"signlearn-service/internal/config"
	"signlearn-service/internal/handlers"
	"signlearn-service/internal/middleware"
	"signlearn-service/internal/repository"
	"signlearn-service/internal/services"
	"signlearn-service/internal/storage"
	"signlearn-service/internal/websocket"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Deps are the process-wide collaborators. Redis and Storage may be nil.
type Deps struct {
	Config   *config.Config
	Store    repository.Store
	Verifier auth.Verifier
	Writes   auth.WritePolicy
	Cache    cache.ResponseCache
	Limiter  cache.RateLimiter
	Redis    *cache.Redis
	Storage  *storage.Storage
	Hub      *websocket.Hub
	Logger   *zap.Logger
}

// Services is the service layer built from Deps.
type Services struct {
	Users       *services.UserService
	Progress    *services.ProgressService
	Posts       *services.PostService
	Stories     *services.StoryService
	SharedPosts *services.SharedPostService
	Signs       *services.SignService
	Simulations *services.SimulationService
	Policy      *auth.Policy
}

func NewServices(d Deps) *Services {
	writes := d.Writes
	if writes == nil {
		writes = auth.DefaultWritePolicy()
	}
	var notifier services.Notifier
	if d.Hub != nil {
		notifier = d.Hub
	}

	users := services.NewUserService(d.Store, writes, d.Logger)
	return &Services{
		Users:       users,
		Progress:    services.NewProgressService(d.Store, writes, d.Logger),
		Posts:       services.NewPostService(d.Store, users, writes, notifier, d.Logger),
		Stories:     services.NewStoryService(d.Store, users, writes, notifier, d.Logger),
		SharedPosts: services.NewSharedPostService(d.Store, writes, d.Logger),
		Signs:       services.NewSignService(d.Store, users, d.Logger),
		Simulations: services.NewSimulationService(d.Store, users, d.Logger),
		Policy:      auth.NewPolicy(d.Verifier, users, d.Config.DefaultCoins, d.Logger),
	}
}

// NewRouter builds the engine with the standard middleware chain. extra
// runs right after panic recovery.
func NewRouter(d Deps, extra ...gin.HandlerFunc) (*gin.Engine, *Services) {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(extra...)
	router.Use(middleware.CORS(d.Config.CORSOrigins))
	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.RequestLogger(d.Logger))
	return router, Setup(router, d)
}

func Setup(router *gin.Engine, d Deps) *Services {
	cfg := d.Config
	svc := NewServices(d)
	r := handlers.Responder{Logger: d.Logger, Debug: cfg.DebugErrors}

	authn := func(opts auth.Options) gin.HandlerFunc { return middleware.Authenticate(svc.Policy, opts) }
	limit := func(action string, perMinute int) gin.HandlerFunc {
		return middleware.RateLimit(d.Limiter, action, perMinute, time.Minute, d.Logger)
	}
	cached := middleware.ResponseCache(d.Cache, cfg.CacheTTL, d.Logger)
	admin := middleware.RequireAdmin(cfg.AdminKeyHash)

	router.GET("/", handlers.RootHandler)
	router.GET("/healthz", handlers.NewHealthHandler(d.Store.Health, d.Redis, d.Storage).Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")

	authH := handlers.NewAuthHandler(svc.Users, svc.Policy, r)
	authG := api.Group("/auth")
	{
		authG.POST("/verify", authn(auth.Login), authH.Verify)
		authG.GET("/me", authn(auth.Lookup), authH.Me)
		authG.POST("/update-coins", authn(auth.Tolerant), authH.UpdateCoins)
		authG.POST("/add-coins", authn(auth.Tolerant), authH.AddCoins)
		authG.POST("/subtract-coins", authn(auth.Tolerant), authH.SubtractCoins)
		authG.POST("/complete-challenge", authn(auth.Tolerant), authH.CompleteChallenge)
		authG.DELETE("/account", authn(auth.Profile), authH.DeleteAccount)
	}

	progressH := handlers.NewProgressHandler(svc.Progress, r)
	progress := api.Group("/progress", authn(auth.Tolerant))
	{
		progress.GET("", progressH.Get)
		progress.POST("/coins", progressH.AddCoins)
		progress.POST("/streak/increment", progressH.IncrementStreak)
		progress.POST("/streak/reset", progressH.ResetStreak)
		progress.POST("/learned", progressH.AddLearnedSign)
	}

	postsH := handlers.NewPostsHandler(svc.Posts, r)
	posts := api.Group("/posts")
	{
		posts.GET("", cached, authn(auth.Optional), postsH.List)
		posts.GET("/saved", authn(auth.Protected), postsH.ListSaved)
		posts.GET("/:id", cached, authn(auth.Optional), postsH.Get)
		posts.POST("", authn(auth.Profile), limit("create_post", cfg.PostRateLimit), postsH.Create)
		posts.PUT("/:id", authn(auth.Profile), postsH.Update)
		posts.DELETE("/:id", authn(auth.Profile), postsH.Delete)
		posts.POST("/:id/like", authn(auth.Protected), postsH.Like)
		posts.POST("/:id/comment", authn(auth.Protected), limit("comment", cfg.CommentRateLimit), postsH.Comment)
		posts.POST("/:id/save", authn(auth.Protected), postsH.Save)
		posts.POST("/:id/share", authn(auth.Profile), limit("create_post", cfg.PostRateLimit), postsH.Share)
	}

	storiesH := handlers.NewStoriesHandler(svc.Stories, r)
	stories := api.Group("/stories")
	{
		stories.GET("", cached, authn(auth.Optional), storiesH.List)
		stories.POST("", authn(auth.Profile), limit("create_story", cfg.StoryRateLimit), storiesH.Create)
		stories.GET("/:id", authn(auth.Optional), storiesH.Get)
		stories.POST("/:id/view", authn(auth.Protected), storiesH.View)
		stories.POST("/:id/like", authn(auth.Protected), storiesH.Like)
		stories.DELETE("/:id", authn(auth.Profile), storiesH.Delete)
	}

	signsH := handlers.NewSignsHandler(svc.Signs, r)
	signs := api.Group("/signs")
	{
		signs.GET("", cached, signsH.List)
		signs.GET("/categories", cached, signsH.Categories)
		signs.GET("/random_quiz", signsH.RandomQuiz)
		signs.GET("/sequential_quiz/:category", cached, signsH.SequentialQuiz)
		signs.GET("/:id", cached, signsH.Get)
		signs.POST("/:id/check_answer", authn(auth.OptionalLookup), signsH.CheckAnswer)
		signs.POST("", admin, signsH.Create)
		signs.PUT("/:id", admin, signsH.Update)
		signs.DELETE("/:id", admin, signsH.Delete)
	}

	simulationsH := handlers.NewSimulationsHandler(svc.Simulations, r)
	simulations := api.Group("/simulations")
	{
		simulations.GET("", cached, simulationsH.List)
		simulations.GET("/:id", cached, simulationsH.Get)
		simulations.POST("", admin, simulationsH.Create)
		simulations.POST("/:id/check", authn(auth.OptionalLookup), simulationsH.Check)
	}

	sharedH := handlers.NewSharedPostsHandler(svc.SharedPosts, r)
	shared := api.Group("/shared-posts")
	{
		shared.GET("", cached, authn(auth.Optional), sharedH.List)
		shared.POST("", authn(auth.Profile), limit("create_post", cfg.PostRateLimit), sharedH.Create)
		shared.POST("/:id/like", authn(auth.Protected), sharedH.Like)
		shared.POST("/:id/unlike", authn(auth.Protected), sharedH.Unlike)
		shared.POST("/:id/save", authn(auth.Protected), sharedH.Save)
		shared.POST("/:id/unsave", authn(auth.Protected), sharedH.Unsave)
		shared.DELETE("/:id", authn(auth.Profile), sharedH.Delete)
	}

	uploadH := handlers.NewUploadHandler(d.Storage, r)
	api.POST("/upload/presigned", authn(auth.Protected), uploadH.GetPresignedURL)

	if d.Hub != nil {
		api.GET("/ws", handlers.NewWSHandler(d.Hub, svc.Policy, r).Connect)
	}

	return svc
}
