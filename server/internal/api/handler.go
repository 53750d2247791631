package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/wastestats/wastestats/server/internal/dataset"
	"github.com/wastestats/wastestats/server/internal/metrics"
	"github.com/wastestats/wastestats/server/internal/query"
)

// Routes lists the first path segment of every endpoint, for metric labels.
var Routes = []string{
	"total_waste",
	"total_waste_all_years",
	"find_municipalities_by_waste",
	"raccolta_differenziata",
	"get-date",
	"healthz",
}

// Handler is the HTTP handler for the query API.
// It reads the current table from the dataset store and returns JSON responses.
type Handler struct {
	store *dataset.Store
	mux   *http.ServeMux
}

// New creates a Handler wired to the given dataset store and registers all routes.
func New(st *dataset.Store) http.Handler {
	h := &Handler{store: st, mux: http.NewServeMux()}

	h.mux.HandleFunc("/", h.root)
	h.mux.HandleFunc("/total_waste/", h.totalWaste)
	h.mux.HandleFunc("/total_waste_all_years/", h.totalWasteAllYears)
	h.mux.HandleFunc("/find_municipalities_by_waste/", h.extremes)
	h.mux.HandleFunc("/raccolta_differenziata/", h.ratioChange)
	h.mux.HandleFunc("/get-date", h.date)
	h.mux.HandleFunc("/healthz", h.health)

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// --- route handlers ---------------------------------------------------------

// root returns GET /, a greeting. Every unmatched path lands here too.
func (h *Handler) root(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		jsonErr(w, http.StatusNotFound, "not found")
		return
	}
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	jsonResp(w, http.StatusOK, map[string]string{"Hello": "World"})
}

// totalWaste returns GET /total_waste/{entity}/{period}.
func (h *Handler) totalWaste(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	segs := segments(r.URL.Path, "/total_waste/")
	if len(segs) != 2 {
		jsonErr(w, http.StatusNotFound, "expected /total_waste/{entity}/{period}")
		return
	}
	period, ok := parsePeriod(w, segs[1])
	if !ok {
		return
	}

	res, err := query.TotalWaste(h.store.Current(), segs[0], period)
	observe("total_waste", err)
	if err != nil {
		queryErr(w, err)
		return
	}
	jsonResp(w, http.StatusOK, TotalWasteResponse{
		Entity:     res.Entity,
		Period:     res.Period,
		TotalWaste: res.Waste,
	})
}

// totalWasteAllYears returns GET /total_waste_all_years/{entity}.
func (h *Handler) totalWasteAllYears(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	segs := segments(r.URL.Path, "/total_waste_all_years/")
	if len(segs) != 1 {
		jsonErr(w, http.StatusNotFound, "expected /total_waste_all_years/{entity}")
		return
	}

	res, err := query.TotalWasteAllYears(h.store.Current(), segs[0])
	observe("total_waste_all_years", err)
	if err != nil {
		queryErr(w, err)
		return
	}

	data := make([]PeriodWaste, 0, len(res.Totals))
	for _, t := range res.Totals {
		data = append(data, PeriodWaste{Period: t.Period, TotalWaste: t.Waste})
	}
	jsonResp(w, http.StatusOK, TotalWasteAllYearsResponse{
		Entity:         res.Entity,
		TotalWasteData: data,
	})
}

// extremes returns GET /find_municipalities_by_waste/{period}: the
// municipalities with the highest and lowest waste per inhabitant.
func (h *Handler) extremes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	segs := segments(r.URL.Path, "/find_municipalities_by_waste/")
	if len(segs) != 1 {
		jsonErr(w, http.StatusNotFound, "expected /find_municipalities_by_waste/{period}")
		return
	}
	period, ok := parsePeriod(w, segs[0])
	if !ok {
		return
	}

	res, err := query.FindExtremesByCapita(h.store.Current(), period)
	observe("find_extremes_by_capita", err)
	if err != nil {
		queryErr(w, err)
		return
	}
	jsonResp(w, http.StatusOK, ExtremesResponse{
		Period:  res.Period,
		Highest: MunicipalityValue{Name: res.Highest.Name, Value: res.Highest.Value},
		Lowest:  MunicipalityValue{Name: res.Lowest.Name, Value: res.Lowest.Value},
	})
}

// ratioChange returns GET /raccolta_differenziata/{entity}.
func (h *Handler) ratioChange(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	segs := segments(r.URL.Path, "/raccolta_differenziata/")
	if len(segs) != 1 {
		jsonErr(w, http.StatusNotFound, "expected /raccolta_differenziata/{entity}")
		return
	}

	res, err := query.PercentChange(h.store.Current(), segs[0])
	observe("percent_change", err)
	if err != nil {
		queryErr(w, err)
		return
	}

	ratios := make([]PeriodRatio, 0, len(res.Ratios))
	for _, pr := range res.Ratios {
		ratios = append(ratios, PeriodRatio{Period: pr.Period, Ratio: pr.Ratio})
	}
	jsonResp(w, http.StatusOK, RatioChangeResponse{
		Entity:        res.Entity,
		FirstPeriod:   res.FirstPeriod,
		LastPeriod:    res.LastPeriod,
		FirstRatio:    res.FirstRatio,
		LastRatio:     res.LastRatio,
		PercentChange: res.PercentChange,
		Ratios:        ratios,
	})
}

// date returns GET /get-date.
func (h *Handler) date(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	jsonResp(w, http.StatusOK, DateResponse{Date: time.Now().Format(time.RFC3339)})
}

// health returns GET /healthz with the size and origin of the served table.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	t := h.store.Current()
	status := "ok"
	if t.Len() == 0 {
		status = "empty"
	}
	jsonResp(w, http.StatusOK, HealthResponse{
		Status:      status,
		RecordCount: t.Len(),
		EntityCount: t.EntityCount(),
		SkippedRows: t.Skipped,
		Source:      t.Source,
		LoadedAt:    t.LoadedAt.UTC().Format(time.RFC3339),
	})
}

// --- helpers ----------------------------------------------------------------

func jsonResp(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, errorResponse{Error: msg})
}

// queryErr maps a query error to its HTTP status.
func queryErr(w http.ResponseWriter, err error) {
	kind := query.Kind(err)
	code := http.StatusInternalServerError
	switch kind {
	case "not_found":
		code = http.StatusNotFound
	case "insufficient_data", "division_undefined":
		code = http.StatusUnprocessableEntity
	}
	jsonResp(w, code, errorResponse{Error: err.Error(), Kind: kind})
}

func observe(name string, err error) {
	metrics.QueriesTotal.WithLabelValues(name, query.Kind(err)).Inc()
	if err != nil {
		slog.Debug("api: query unanswered", "query", name, "err", err)
	}
}

// segments splits the path after prefix into its segments.
func segments(path, prefix string) []string {
	rest := strings.TrimSuffix(strings.TrimPrefix(path, prefix), "/")
	if rest == "" {
		return nil
	}
	return strings.Split(rest, "/")
}

// parsePeriod parses a year path segment, writing a 400 on failure.
func parsePeriod(w http.ResponseWriter, s string) (int, bool) {
	p, err := strconv.Atoi(s)
	if err != nil {
		jsonErr(w, http.StatusBadRequest, "period must be an integer year")
		return 0, false
	}
	return p, true
}
