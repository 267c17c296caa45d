package server

import (
	"embed"
	"html/template"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templateFS embed.FS

type RouterConfig struct {
	Dashboard   *DashboardHandler
	Logger      *zap.Logger
	CORSOrigins []string
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(RequestLogger(cfg.Logger))
	r.Use(CORS(cfg.CORSOrigins))

	r.SetHTMLTemplate(template.Must(template.ParseFS(templateFS, "templates/*.html")))

	h := cfg.Dashboard

	r.GET("/healthcheck", h.HealthCheck)

	// Dashboard
	r.GET("/", h.Page)
	r.POST("/analyze", h.AnalyzeForm)

	api := r.Group("/api")
	{
		api.GET("/status", h.Status)
		api.GET("/students", h.ListStudents)
		api.GET("/students/:id", h.GetStudent)
		api.POST("/analyze", h.Analyze)
		api.POST("/table/reload", h.ReloadTable)
	}

	return r
}
