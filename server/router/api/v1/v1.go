package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/hrygo/chronolog/internal/profile"
	"github.com/hrygo/chronolog/server/service/timelog"
	"github.com/hrygo/chronolog/store"
)

// APIV1Service serves the JSON API under /api/v1.
type APIV1Service struct {
	Profile *profile.Profile
	Store   *store.Store
	TimeLog *timelog.Service
}

func NewAPIV1Service(profile *profile.Profile, store *store.Store, timeLog *timelog.Service) *APIV1Service {
	return &APIV1Service{
		Profile: profile,
		Store:   store,
		TimeLog: timeLog,
	}
}

// Register registers the API routes on g, which is mounted at /api/v1.
func (s *APIV1Service) Register(g *echo.Group) {
	g.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOriginFunc: func(_ string) (bool, error) {
			return true, nil
		},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderAuthorization, echo.HeaderContentType},
	}))

	g.POST("/logs/parse", s.ParseLog)
	g.POST("/logs", s.CreateLog)
	g.GET("/logs", s.ListLogs)
	g.GET("/logs/feed", s.GetLogFeed)
	g.GET("/logs/summary", s.GetLogSummary)
	g.GET("/logs/:uid", s.GetLog)
	g.DELETE("/logs/:uid", s.DeleteLog)
	g.GET("/system/metrics", s.GetMetricsOverview)
}
