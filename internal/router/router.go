// router.go
package router

import (
	"net/http"
	"time"

	ratelimit "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/unrolled/secure"
	"go.uber.org/zap"

	"github.com/nus-cts-lab/free-viewing-sky/internal/config"
	"github.com/nus-cts-lab/free-viewing-sky/internal/handlers"
	"github.com/nus-cts-lab/free-viewing-sky/internal/session"
)

func keyFunc(c *gin.Context) string {
	return c.ClientIP()
}
func errorHandler(c *gin.Context, info ratelimit.Info) {
	c.String(429, "Too many requests. Try again later.")
}

func Setup(log *zap.Logger, manager *session.Manager) *gin.Engine {
	// Set up a new Gin router, add recovery middleware and request logging.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLogger(log))

	store := cookie.NewStore([]byte(config.Conf.Server.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		HttpOnly: true,
		Secure:   false, // Set to true in production
		SameSite: http.SameSiteLaxMode,
		MaxAge:   86400,
	})
	router.Use(sessions.Sessions("fvsession", store))

	router.Use(NonceMiddleware())
	// CSRF stores its token in the cookie session initialized above.
	router.Use(CSRFProtection())

	secureMiddleware := secure.New(secure.Options{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
	})
	router.Use(func(c *gin.Context) {
		err := secureMiddleware.Process(c.Writer, c.Request)
		if err != nil {
			c.Abort()
			return
		}
	})

	// Stimulus images and the static experiment client.
	router.Static("/assets", config.Conf.Stimuli.AssetsDir)
	router.StaticFile("/", "./web/index.html")
	router.Static("/web", "./web")

	// Handlers and routes
	sessionHandler := handlers.NewSessionHandler(log, manager)
	trialHandler := handlers.NewTrialHandler(log, manager)
	exportHandler := handlers.NewExportHandler(log, manager)

	// Session starts and gate attempts are rate limited; a participant has no
	// reason to hit either more than a few times a minute.
	rateLimitStore := ratelimit.InMemoryStore(&ratelimit.InMemoryOptions{
		Rate:  time.Minute,
		Limit: 10,
	})
	limiter := ratelimit.RateLimiter(rateLimitStore, &ratelimit.Options{
		ErrorHandler: errorHandler,
		KeyFunc:      keyFunc,
	})

	router.GET("/api/csrf", func(c *gin.Context) {
		token, _ := c.Get("csrf_token")
		c.JSON(http.StatusOK, gin.H{"csrfToken": token})
	})

	api := router.Group("/api")
	{
		api.POST("/session", limiter, sessionHandler.Start)

		sessionRoutes := api.Group("/session/:id")
		{
			sessionRoutes.GET("/status", sessionHandler.Status)
			sessionRoutes.POST("/proceed", limiter, sessionHandler.Proceed)
			sessionRoutes.POST("/cancel", sessionHandler.Cancel)

			sessionRoutes.GET("/trial", trialHandler.Current)
			sessionRoutes.POST("/bounds", trialHandler.Bounds)
			sessionRoutes.GET("/stream", trialHandler.Stream)
			sessionRoutes.POST("/capture/:trial", trialHandler.Capture)

			exportRoutes := sessionRoutes.Group("/export")
			{
				exportRoutes.GET("/trials.csv", exportHandler.TrialsCSV)
				exportRoutes.GET("/samples.csv", exportHandler.SamplesCSV)
				exportRoutes.GET("/summary.json", exportHandler.SummaryJSON)
				exportRoutes.GET("/heatmaps.zip", exportHandler.HeatmapArchive)
			}
		}
	}

	return router
}
