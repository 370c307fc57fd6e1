package http

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/sujalbistaa/shadowspace/internal/log"
	"github.com/sujalbistaa/shadowspace/internal/ws"
)

const (
	// One post every 3 seconds per IP.
	postRateLimitRPS   = 1.0 / 3.0
	postRateLimitBurst = 1
	sweepInterval      = 10 * time.Minute
)

// Options configures route setup.
type Options struct {
	CORSOrigin string
	AdminToken string // empty disables the moderation route

	// PostRPS/PostBurst override the create-post rate limit. Zero means
	// the default of one post every 3 seconds per IP.
	PostRPS   rate.Limit
	PostBurst int
}

// SetupRoutes configures all application routes and middleware. The
// returned stop function shuts down the rate limiter janitor.
func SetupRoutes(router *gin.Engine, env *Env, hub *ws.Hub, opts Options) func() {
	router.Use(gin.Recovery())
	router.Use(RequestLoggerMiddleware())
	router.Use(SecurityHeadersMiddleware())

	origin := opts.CORSOrigin
	if origin == "" {
		origin = "*"
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{origin},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Admin-Token"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	rps, burst := opts.PostRPS, opts.PostBurst
	if rps == 0 {
		rps = rate.Limit(postRateLimitRPS)
	}
	if burst == 0 {
		burst = postRateLimitBurst
	}
	limiter := NewIPRateLimiter(rps, burst)
	stop := make(chan struct{})
	go func() {
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				limiter.sweep()
			case <-stop:
				return
			}
		}
	}()

	authed := AuthMiddleware(env.Identity)

	router.POST("/signup", env.Signup)
	router.POST("/login", env.Login)
	router.POST("/create-post", authed, RateLimitMiddleware(limiter), env.CreatePost)
	router.POST("/vote", authed, env.Vote)
	router.POST("/impression", authed, env.Impression)
	router.GET("/posts", env.GetPosts)

	if opts.AdminToken != "" {
		router.DELETE("/posts/:id", AdminAuthMiddleware(opts.AdminToken), env.HidePost)
	} else {
		logger := log.WithComponent("http")
		logger.Warn().Msg("X_ADMIN_TOKEN not set, moderation route disabled")
	}

	router.GET("/ws", func(c *gin.Context) {
		ws.ServeWs(hub, c.Writer, c.Request)
	})

	return func() { close(stop) }
}
