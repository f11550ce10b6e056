package v1

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/hrygo/botgpt/server/internal/observability"
)

// MetricsResponse is the in-process counters plus derived rates.
type MetricsResponse struct {
	*observability.MetricsSnapshot
	ModelSuccessRate float64 `json:"model_success_rate"`
	CacheHitRate     float64 `json:"cache_hit_rate"`
}

// GetMetrics returns the counters collected since start.
// GET /api/v1/system/metrics
func (s *APIV1Service) GetMetrics(c echo.Context) error {
	if s.Metrics == nil {
		return c.JSON(http.StatusOK, &MetricsResponse{MetricsSnapshot: &observability.MetricsSnapshot{}})
	}
	snapshot := s.Metrics.Snapshot()
	return c.JSON(http.StatusOK, &MetricsResponse{
		MetricsSnapshot:  snapshot,
		ModelSuccessRate: snapshot.ModelSuccessRate(),
		CacheHitRate:     snapshot.CacheHitRate(),
	})
}
