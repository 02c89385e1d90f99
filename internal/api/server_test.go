package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/david/ywc-dashboard/internal/analytics"
	"github.com/david/ywc-dashboard/internal/db"
	"github.com/david/ywc-dashboard/internal/models"
	"github.com/david/ywc-dashboard/internal/report"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const uploadCSV = `Organization,Indicator Type,Tier,Indicator ID,Indicator Name,Description,Category,Pillar,Source,Priority,Measurement Methods
Whitehorse Aboriginal Women's Circle,Universal,Tier 1,U-1,Staff retention,Turnover of staff,Capacity,Pillar 1,Internal,High,How many staff left?
Whitehorse Aboriginal Women's Circle,Strategic Compliance,Tier 2,S-1,Safety planning,Plans completed,Safety,Pillar 2,WGED,Medium,Yes/No
Whitehorse Aboriginal Women's Circle,Collective Impact,Tier 3,C-1,Coalition meetings,Attendance,Collaboration,Pillar 3,NAP Bilateral,,Notes
`

var fixedNow = time.Date(2025, 8, 3, 10, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T) (*Server, *db.MemoryKV) {
	t.Helper()
	kv := db.NewMemoryKV()
	store := db.NewStore(kv, nil)
	store.Now = func() time.Time { return fixedNow }
	s := NewServer(store, Options{Now: func() time.Time { return fixedNow }})
	return s, kv
}

func do(t *testing.T, s *Server, method, target string, body []byte, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	s.Echo.ServeHTTP(rec, req)
	return rec
}

func upload(t *testing.T, s *Server, name, content string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return do(t, s, http.MethodPost, "/api/v1/upload", buf.Bytes(), mw.FormDataContentType())
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func seeded(t *testing.T) *Server {
	t.Helper()
	s, _ := newTestServer(t)
	rec := upload(t, s, "indicators.csv", uploadCSV)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return s
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestUpload_Accepted(t *testing.T) {
	s, _ := newTestServer(t)
	rec := upload(t, s, "indicators.csv", uploadCSV)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decode[struct {
		Meta      models.ImportMeta `json:"meta"`
		Quarter   string            `json:"quarter"`
		Persisted bool              `json:"persisted"`
		Count     int               `json:"count"`
	}](t, rec)
	assert.Equal(t, "2025-Q3", body.Quarter)
	assert.True(t, body.Persisted)
	assert.Equal(t, 3, body.Count)
	assert.Equal(t, "indicators.csv", body.Meta.FileName)

	quarters := decode[[]quarterSummary](t, do(t, s, http.MethodGet, "/api/v1/quarters", nil, ""))
	require.Len(t, quarters, 1)
	assert.Equal(t, 3, quarters[0].IndicatorCount)
}

func TestUpload_ValidationFailure(t *testing.T) {
	s, kv := newTestServer(t)
	bad := "Organization,Indicator Type,Tier,Indicator ID,Indicator Name,Description,Category,Pillar,Source,Priority\n" +
		"YWC,Bogus,Tier 1,U-1,Name,d,c,Pillar 1,s,p\n"
	rec := upload(t, s, "indicators.csv", bad)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	body := decode[struct {
		Error  string   `json:"error"`
		Errors []string `json:"errors"`
	}](t, rec)
	assert.Equal(t, "CSV validation failed", body.Error)
	require.Len(t, body.Errors, 1)
	assert.Contains(t, body.Errors[0], `Row 2: Invalid Indicator Type "Bogus"`)
	assert.Empty(t, kv.Keys(), "rejected upload must not touch storage")
}

func TestUpload_BadRequests(t *testing.T) {
	s, _ := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/v1/upload", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = upload(t, s, "indicators.xlsx", uploadCSV)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListIndicators_Filtered(t *testing.T) {
	s := seeded(t)

	tests := []struct {
		query  string
		ids    []string
		active int
	}{
		{"", []string{"U-1", "S-1", "C-1"}, 0},
		{"?type=all&tier=all", []string{"U-1", "S-1", "C-1"}, 0},
		{"?tier=Tier+2", []string{"S-1"}, 1},
		{"?search=COALITION", []string{"C-1"}, 1},
		{"?source=WGED&priority=Medium", []string{"S-1"}, 2},
		{"?pillar=Pillar+9", []string{}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rec := do(t, s, http.MethodGet, "/api/v1/indicators"+tt.query, nil, "")
			require.Equal(t, http.StatusOK, rec.Code)
			body := decode[struct {
				Indicators    []models.Indicator `json:"indicators"`
				Total         int                `json:"total"`
				ActiveFilters int                `json:"activeFilters"`
			}](t, rec)
			ids := []string{}
			for _, ind := range body.Indicators {
				ids = append(ids, ind.ID)
			}
			assert.Equal(t, tt.ids, ids)
			assert.Equal(t, len(tt.ids), body.Total)
			assert.Equal(t, tt.active, body.ActiveFilters)
		})
	}
}

func TestListIndicators_GroupedByTier(t *testing.T) {
	s := seeded(t)

	rec := do(t, s, http.MethodGet, "/api/v1/indicators?grouped=tier&type=Universal", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[struct {
		Total  int                   `json:"total"`
		Groups []analytics.TierGroup `json:"groups"`
	}](t, rec)
	assert.Equal(t, 1, body.Total)
	require.Len(t, body.Groups, 1)
	assert.Equal(t, "Tier 1", body.Groups[0].Tier)
	assert.Equal(t, "U-1", body.Groups[0].Indicators[0].ID)

	rec = do(t, s, http.MethodGet, "/api/v1/indicators?grouped=tier", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	body = decode[struct {
		Total  int                   `json:"total"`
		Groups []analytics.TierGroup `json:"groups"`
	}](t, rec)
	tiers := []string{}
	for _, g := range body.Groups {
		tiers = append(tiers, g.Tier)
	}
	assert.Equal(t, []string{"Tier 1", "Tier 2", "Tier 3"}, tiers)

	rec = do(t, s, http.MethodGet, "/api/v1/indicators", nil, "")
	assert.NotContains(t, rec.Body.String(), `"groups"`)

	rec = do(t, s, http.MethodGet, "/api/v1/indicators?grouped=pillar", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestIndicatorLookups(t *testing.T) {
	s := seeded(t)

	rec := do(t, s, http.MethodGet, "/api/v1/indicators/S-1", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Safety planning", decode[models.Indicator](t, rec).Name)

	rec = do(t, s, http.MethodGet, "/api/v1/indicators/missing", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/v1/indicators/S-1/field", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"kind":"yesNo"}`, rec.Body.String())

	rec = do(t, s, http.MethodGet, "/api/v1/indicators/U-1/suggestion", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	sug := decode[map[string]string](t, rec)
	assert.Equal(t, "WAWC", sug["organizationCode"])
	assert.NotEmpty(t, sug["suggestion"])

	rec = do(t, s, http.MethodGet, "/api/v1/indicators/U-1/suggestion?org=NOPE", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[map[string]string](t, rec)["suggestion"])
}

func TestStatsAndDistributions(t *testing.T) {
	s := seeded(t)

	rec := do(t, s, http.MethodGet, "/api/v1/stats", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decode[struct {
		Summary analytics.SummaryStats `json:"summary"`
	}](t, rec)
	assert.Equal(t, 3, stats.Summary.Total)
	assert.Equal(t, 1, stats.Summary.Universal)

	rec = do(t, s, http.MethodGet, "/api/v1/metrics/tiers", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]analytics.TierMetric](t, rec), 3)

	rec = do(t, s, http.MethodGet, "/api/v1/distributions/pillars", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	pillars := decode[[]analytics.Aggregation](t, rec)
	require.Len(t, pillars, 3)
	assert.Equal(t, "Pillar 1", pillars[0].Value)

	rec = do(t, s, http.MethodGet, "/api/v1/distributions/colours", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEmptyWorkingSet(t *testing.T) {
	s, _ := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/api/v1/indicators", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"indicators":[]`)

	rec = do(t, s, http.MethodGet, "/api/v1/trend", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = do(t, s, http.MethodGet, "/api/v1/export/pdf", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQuartersAndTrend(t *testing.T) {
	s := seeded(t)
	ctx := context.Background()
	require.True(t, s.Store.SaveQuarter(ctx, 2, 2025, nil))

	rec := do(t, s, http.MethodGet, "/api/v1/trend", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	trend := decode[[]analytics.TrendPoint](t, rec)
	require.Len(t, trend, 2)
	assert.Equal(t, "2025-Q2", trend[0].Quarter)
	assert.Equal(t, 3, trend[1].TotalIndicators)

	rec = do(t, s, http.MethodGet, "/api/v1/quarters/2025-Q3", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[models.QuarterSnapshot](t, rec).Data, 3)

	rec = do(t, s, http.MethodGet, "/api/v1/quarters/2001-Q1", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, s, http.MethodDelete, "/api/v1/quarters/2025-Q2", nil, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Len(t, s.Store.Quarters(ctx), 1)
}

func TestExports(t *testing.T) {
	s := seeded(t)

	rec := do(t, s, http.MethodGet, "/api/v1/export/csv?tier=Tier+1", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="ywc_indicators_2025-08-03.csv"`, rec.Header().Get("Content-Disposition"))
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\r\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[1], "U-1")

	rec = do(t, s, http.MethodGet, "/api/v1/export/pdf", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="ywc_report_2025-08-03.pdf"`, rec.Header().Get("Content-Disposition"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))

	rec = do(t, s, http.MethodGet, "/api/v1/export/pdf?funder=WGED", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="wged_report_2025-08-03.pdf"`, rec.Header().Get("Content-Disposition"))
	text, err := report.ExtractPDFText(rec.Body.Bytes())
	require.NoError(t, err)
	assert.Contains(t, squash(text), "WGEDComplianceReport")

	rec = do(t, s, http.MethodGet, "/api/v1/export/print", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	view, err := report.PrintViewText(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, view, "Safety planning")
}

func squash(s string) string {
	return strings.Join(strings.Fields(s), "")
}

func TestSettings(t *testing.T) {
	s, _ := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/api/v1/settings", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.DefaultSettings(), decode[models.Settings](t, rec))

	rec = do(t, s, http.MethodPut, "/api/v1/settings", []byte(`{"theme":"dark"}`), "application/json")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.Settings{Theme: "dark", DefaultView: "dashboard"}, decode[models.Settings](t, rec))

	rec = do(t, s, http.MethodPut, "/api/v1/settings", []byte(`{`), "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAnnotations(t *testing.T) {
	s := seeded(t)

	put := func(id, body string) *httptest.ResponseRecorder {
		return do(t, s, http.MethodPut, "/api/v1/annotations/"+id, []byte(body), "application/json")
	}

	rec := put("U-1", `{"field":"responseData","value":"<b>4</b> staff"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	a := decode[models.Annotation](t, rec)
	assert.Equal(t, "4 staff", a.ResponseData)
	assert.False(t, a.IsCompleted)

	rec = put("U-1", `{"field":"notes","value":"From HR log"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[models.Annotation](t, rec).IsCompleted)

	assert.Equal(t, http.StatusBadRequest, put("U-1", `{"field":"colour","value":"x"}`).Code)
	assert.Equal(t, http.StatusNotFound, put("nope", `{"field":"notes","value":"x"}`).Code)

	rec = do(t, s, http.MethodGet, "/api/v1/annotations", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[map[string]models.Annotation](t, rec), 1)

	rec = do(t, s, http.MethodGet, "/api/v1/stats", nil, "")
	completion := decode[struct {
		Completion struct {
			Completed int `json:"completed"`
			Total     int `json:"total"`
		} `json:"completion"`
	}](t, rec)
	assert.Equal(t, 1, completion.Completion.Completed)
	assert.Equal(t, 3, completion.Completion.Total)
}

func TestCalculate(t *testing.T) {
	s, _ := newTestServer(t)

	rec := do(t, s, http.MethodPost, "/api/v1/calculate",
		[]byte(`{"formula":"turnover percentage","inputs":{"staffLeft":3,"averageStaff":12}}`), "application/json")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"value":25,"display":"Calculated result: 25%"}`, rec.Body.String())

	rec = do(t, s, http.MethodPost, "/api/v1/calculate",
		[]byte(`{"formula":"turnover","inputs":{"staffLeft":3,"averageStaff":0}}`), "application/json")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestClearAll(t *testing.T) {
	s := seeded(t)
	rec := do(t, s, http.MethodPut, "/api/v1/annotations/U-1", []byte(`{"field":"notes","value":"x"}`), "application/json")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, s, http.MethodDelete, "/api/v1/data", nil, "")
	require.Equal(t, http.StatusNoContent, rec.Code)

	ctx := context.Background()
	assert.Nil(t, s.Store.LoadIndicators(ctx))
	assert.Empty(t, s.Store.Quarters(ctx))
	assert.Empty(t, s.Tracker.All())
}
