package api

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/jimdaga/autoposter/internal/auth"
	"github.com/jimdaga/autoposter/internal/health"
	"github.com/jimdaga/autoposter/internal/history"
	"github.com/jimdaga/autoposter/internal/worker"
)

// Options wires the router.
type Options struct {
	Store           *history.Store
	Dispatcher      worker.Dispatcher
	SchedulerSecret string
	OperatorToken   string
	Logger          *slog.Logger
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(o Options) *gin.Engine {
	logger := o.Logger.With("component", "api")

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(logger))

	r.GET("/health", gin.WrapF(health.Handler))

	apiGroup := r.Group("/api")
	apiGroup.POST("/scheduler/tick", auth.RequireSchedulerSecret(o.SchedulerSecret), TickHandler(o.Dispatcher, logger))

	operator := apiGroup.Group("", auth.RequireOperator(o.OperatorToken))
	operator.POST("/schedules/:id/execute", ExecuteHandler(o.Store, o.Dispatcher, logger))
	operator.GET("/schedules/:id/executions", ListExecutionsHandler(o.Store, logger))
	operator.GET("/executions/:run_id/fact-check", FactCheckHandler(o.Store, logger))

	return r
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		logger.Debug("HTTP request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
		)
	}
}
