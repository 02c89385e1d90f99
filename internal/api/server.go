package api

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/david/ywc-dashboard/internal/analytics"
	"github.com/david/ywc-dashboard/internal/db"
	"github.com/david/ywc-dashboard/internal/ingest"
	"github.com/david/ywc-dashboard/internal/models"
	"github.com/david/ywc-dashboard/internal/report"
	"github.com/david/ywc-dashboard/internal/reporting"
)

const defaultMaxUploadBytes = 10 << 20

type Server struct {
	Store    *db.Store
	Pipeline *ingest.Pipeline
	Tracker  *reporting.Tracker
	Catalog  *reporting.Catalog
	Echo     *echo.Echo
	Log      *zap.Logger

	organization string
	now          func() time.Time
}

// Options configures NewServer. Zero values fall back to defaults.
type Options struct {
	AllowedOrigins []string
	Organization   string
	MaxUploadBytes int64
	Logger         *zap.Logger
	Now            func() time.Time
}

func NewServer(store *db.Store, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	maxUpload := opts.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = defaultMaxUploadBytes
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	// CORS: frontend origins from config, localhost dev server by default
	allowedOrigins := opts.AllowedOrigins
	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"http://localhost:5173"}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: allowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
	}))
	e.Use(middleware.BodyLimit(bodyLimit(maxUpload)))

	pipeline := ingest.NewPipeline(store, logger.Named("ingest"))
	pipeline.Now = now

	tracker := reporting.NewTracker()
	tracker.Now = now

	organization := opts.Organization
	if organization == "" {
		organization = report.DefaultOrganization
	}

	s := &Server{
		Store:        store,
		Pipeline:     pipeline,
		Tracker:      tracker,
		Catalog:      reporting.DefaultCatalog(),
		Echo:         e,
		Log:          logger,
		organization: organization,
		now:          now,
	}

	s.routes()
	return s
}

// bodyLimit renders a byte count in the form BodyLimit expects.
func bodyLimit(n int64) string {
	return strconv.FormatInt(n, 10) + "B"
}

func (s *Server) routes() {
	s.Echo.GET("/health", s.handleHealth)
	api := s.Echo.Group("/api/v1")

	api.POST("/upload", s.handleUpload)

	api.GET("/indicators", s.handleListIndicators)
	api.GET("/indicators/:id", s.handleGetIndicator)
	api.GET("/indicators/:id/field", s.handleGetField)
	api.GET("/indicators/:id/suggestion", s.handleGetSuggestion)
	api.GET("/filters/options", s.handleFilterOptions)

	api.GET("/stats", s.handleGetStats)
	api.GET("/metrics/tiers", s.handleTierMetrics)
	api.GET("/metrics/types", s.handleTypeMetrics)
	api.GET("/distributions/:kind", s.handleDistribution)

	api.GET("/quarters", s.handleListQuarters)
	api.GET("/quarters/:key", s.handleGetQuarter)
	api.DELETE("/quarters/:key", s.handleDeleteQuarter)
	api.GET("/trend", s.handleTrend)

	api.GET("/export/csv", s.handleExportCSV)
	api.GET("/export/pdf", s.handleExportPDF)
	api.GET("/export/print", s.handleExportPrint)

	api.GET("/settings", s.handleGetSettings)
	api.PUT("/settings", s.handlePutSettings)

	api.GET("/annotations", s.handleListAnnotations)
	api.PUT("/annotations/:id", s.handlePutAnnotation)
	api.POST("/calculate", s.handleCalculate)

	api.DELETE("/data", s.handleClearAll)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

func (s *Server) indicators(c echo.Context) []models.Indicator {
	inds := s.Store.LoadIndicators(c.Request().Context())
	if inds == nil {
		inds = []models.Indicator{}
	}
	return inds
}

// filterState reads the filter query parameters.
func filterState(c echo.Context) (analytics.FilterState, error) {
	var state analytics.FilterState
	if err := (&echo.DefaultBinder{}).BindQueryParams(c, &state); err != nil {
		return state, err
	}
	return state, nil
}

func (s *Server) handleUpload(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "multipart field \"file\" is required"})
	}
	if !strings.HasSuffix(strings.ToLower(fh.Filename), ".csv") {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Please upload a CSV file"})
	}
	f, err := fh.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "unable to read upload"})
	}
	defer f.Close()

	result, err := s.Pipeline.Import(c.Request().Context(), f, fh.Filename)
	var importErr *ingest.ImportError
	if errors.As(err, &importErr) {
		return c.JSON(http.StatusUnprocessableEntity, map[string]any{
			"error":  "CSV validation failed",
			"errors": importErr.Errors,
		})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, map[string]any{
		"meta":      result.Meta,
		"quarter":   result.Quarter,
		"persisted": result.Persisted,
		"count":     len(result.Indicators),
	})
}

func (s *Server) handleListIndicators(c echo.Context) error {
	state, err := filterState(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	filtered := analytics.Filter(s.indicators(c), state)
	resp := map[string]any{
		"indicators":    filtered,
		"total":         len(filtered),
		"activeFilters": analytics.CountActiveFilters(state),
	}
	// grouped=tier adds the tier sections the table view renders.
	switch grouped := c.QueryParam("grouped"); grouped {
	case "":
	case "tier":
		resp["groups"] = analytics.GroupByTier(filtered)
	default:
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "unknown grouping " + strconv.Quote(grouped)})
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) lookup(c echo.Context) (models.Indicator, []models.Indicator, bool) {
	all := s.indicators(c)
	ind, ok := analytics.FindByID(all, c.Param("id"))
	return ind, all, ok
}

func (s *Server) handleGetIndicator(c echo.Context) error {
	ind, _, ok := s.lookup(c)
	if !ok {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Not found"})
	}
	return c.JSON(http.StatusOK, ind)
}

func (s *Server) handleGetField(c echo.Context) error {
	ind, _, ok := s.lookup(c)
	if !ok {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Not found"})
	}
	return c.JSON(http.StatusOK, reporting.Classify(ind.MeasurementMethods))
}

func (s *Server) handleGetSuggestion(c echo.Context) error {
	ind, all, ok := s.lookup(c)
	if !ok {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Not found"})
	}
	org := c.QueryParam("org")
	if org == "" {
		org = s.Catalog.OrganizationCode(all[0].Organization)
	}
	return c.JSON(http.StatusOK, map[string]string{
		"organizationCode": org,
		"suggestion":       s.Catalog.Suggest(org, ind.Name),
	})
}

func (s *Server) handleFilterOptions(c echo.Context) error {
	return c.JSON(http.StatusOK, analytics.Options(s.indicators(c)))
}

func (s *Server) handleGetStats(c echo.Context) error {
	inds := s.indicators(c)
	return c.JSON(http.StatusOK, map[string]any{
		"summary":    analytics.Summary(inds),
		"completion": s.Tracker.Completion(inds),
	})
}

func (s *Server) handleTierMetrics(c echo.Context) error {
	return c.JSON(http.StatusOK, analytics.TierMetrics(s.indicators(c)))
}

func (s *Server) handleTypeMetrics(c echo.Context) error {
	return c.JSON(http.StatusOK, analytics.TypeMetrics(s.indicators(c)))
}

func (s *Server) handleDistribution(c echo.Context) error {
	inds := s.indicators(c)
	switch c.Param("kind") {
	case "pillars":
		return c.JSON(http.StatusOK, analytics.PillarDistribution(inds))
	case "sources":
		return c.JSON(http.StatusOK, analytics.SourceDistribution(inds))
	case "categories":
		return c.JSON(http.StatusOK, analytics.CategoryDistribution(inds))
	}
	return c.JSON(http.StatusNotFound, map[string]string{"error": "unknown distribution"})
}

// quarterSummary is a snapshot without its data.
type quarterSummary struct {
	Key            string `json:"key"`
	Quarter        int    `json:"quarter"`
	Year           int    `json:"year"`
	Timestamp      string `json:"timestamp"`
	IndicatorCount int    `json:"indicatorCount"`
}

func (s *Server) handleListQuarters(c echo.Context) error {
	history := s.Store.Quarters(c.Request().Context())
	out := make([]quarterSummary, 0, len(history))
	for _, q := range history {
		out = append(out, quarterSummary{
			Key:            q.Key,
			Quarter:        q.Quarter,
			Year:           q.Year,
			Timestamp:      q.Timestamp,
			IndicatorCount: q.IndicatorCount,
		})
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) handleGetQuarter(c echo.Context) error {
	snap, ok := s.Store.Quarter(c.Request().Context(), c.Param("key"))
	if !ok {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Not found"})
	}
	return c.JSON(http.StatusOK, snap)
}

func (s *Server) handleDeleteQuarter(c echo.Context) error {
	if !s.Store.DeleteQuarter(c.Request().Context(), c.Param("key")) {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to delete quarter"})
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleTrend(c echo.Context) error {
	return c.JSON(http.StatusOK, analytics.BuildTrend(s.Store.Quarters(c.Request().Context())))
}

func (s *Server) reportOptions() report.Options {
	return report.Options{Organization: s.organization, Now: s.now()}
}

func attachment(c echo.Context, filename string) {
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
}

func (s *Server) handleExportCSV(c echo.Context) error {
	state, err := filterState(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	var buf bytes.Buffer
	if err := report.WriteCSV(&buf, analytics.Filter(s.indicators(c), state)); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	attachment(c, report.CSVFilename(s.now()))
	return c.Blob(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

func (s *Server) handleExportPDF(c echo.Context) error {
	state, err := filterState(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	filtered := analytics.Filter(s.indicators(c), state)
	if len(filtered) == 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "no indicators to report"})
	}

	opts := s.reportOptions()
	funder := c.QueryParam("funder")
	filename := report.PDFFilename(opts.Now)

	var buf bytes.Buffer
	if funder == "" {
		err = report.ComplianceReport(&buf, filtered, state, opts)
	} else {
		err = report.FunderReport(&buf, filtered, funder, opts)
		filename = report.FunderPDFFilename(funder, opts.Now)
	}
	if err != nil {
		s.Log.Error("failed to generate pdf", zap.String("funder", funder), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Error generating PDF report"})
	}
	attachment(c, filename)
	return c.Blob(http.StatusOK, "application/pdf", buf.Bytes())
}

func (s *Server) handleExportPrint(c echo.Context) error {
	state, err := filterState(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	var buf bytes.Buffer
	if err := report.PrintView(&buf, analytics.Filter(s.indicators(c), state), state, s.reportOptions()); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.HTMLBlob(http.StatusOK, buf.Bytes())
}

func (s *Server) handleGetSettings(c echo.Context) error {
	return c.JSON(http.StatusOK, s.Store.LoadSettings(c.Request().Context()))
}

func (s *Server) handlePutSettings(c echo.Context) error {
	settings := s.Store.LoadSettings(c.Request().Context())
	if err := c.Bind(&settings); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid settings body"})
	}
	if !s.Store.SaveSettings(c.Request().Context(), settings) {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to save settings"})
	}
	return c.JSON(http.StatusOK, settings)
}

func (s *Server) handleListAnnotations(c echo.Context) error {
	return c.JSON(http.StatusOK, s.Tracker.All())
}

type annotationRequest struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

func (s *Server) handlePutAnnotation(c echo.Context) error {
	var req annotationRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid annotation body"})
	}
	field, err := reporting.ParseField(req.Field)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	if _, _, ok := s.lookup(c); !ok {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Not found"})
	}
	a, err := s.Tracker.Update(c.Param("id"), field, req.Value)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, a)
}

type calculateRequest struct {
	Formula string             `json:"formula"`
	Inputs  map[string]float64 `json:"inputs"`
}

func (s *Server) handleCalculate(c echo.Context) error {
	var req calculateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid calculation body"})
	}
	value, ok := reporting.Calculate(req.Formula, req.Inputs)
	if !ok {
		return c.JSON(http.StatusUnprocessableEntity, map[string]string{"error": "formula cannot be evaluated with the given inputs"})
	}
	return c.JSON(http.StatusOK, map[string]any{
		"value":   value,
		"display": reporting.FormatCalculation(req.Formula, value),
	})
}

func (s *Server) handleClearAll(c echo.Context) error {
	if !s.Store.ClearAll(c.Request().Context()) {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to clear data"})
	}
	s.Tracker.Reset()
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) Start(addr string) error {
	return s.Echo.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.Echo.Shutdown(ctx)
}
