package api_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/wastestats/wastestats/server/internal/api"
	"github.com/wastestats/wastestats/server/internal/config"
	"github.com/wastestats/wastestats/server/internal/dataset"
)

// --- test helpers -----------------------------------------------------------

func newStore(recs ...dataset.Record) *dataset.Store {
	return dataset.NewStore(dataset.NewTable(recs), config.Defaults().Dataset)
}

func rec(entity string, period int, waste, pop, ratio float64) dataset.Record {
	return dataset.Record{Entity: entity, Period: period, Waste: waste, Population: pop, DiffCollectionRatio: ratio}
}

func fixture() *dataset.Store {
	return newStore(
		rec("Trento", 2019, 60000, 120000, 50),
		rec("Trento", 2021, 57000, 119000, 75),
		rec("Trento", 2020, 58000, 118500, 70),
		rec("Sant'Orsola Terme", 2019, 600, 1100, 0),
		rec("Sant'Orsola Terme", 2020, 610, 1120, 40),
		rec("Arco", 2019, 12000, 18000, 60),
	)
}

func get(t *testing.T, h http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(v); err != nil {
		t.Fatalf("decode JSON: %v (body: %s)", err, rr.Body.String())
	}
}

func wantError(t *testing.T, rr *httptest.ResponseRecorder, code int, kind string) {
	t.Helper()
	if rr.Code != code {
		t.Fatalf("status: got %d, want %d (body: %s)", rr.Code, code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q, want application/json", ct)
	}
	var resp map[string]interface{}
	decode(t, rr, &resp)
	if resp["error"] == nil || resp["error"] == "" {
		t.Error("error: missing message")
	}
	if kind != "" && resp["kind"] != kind {
		t.Errorf("kind: got %v, want %s", resp["kind"], kind)
	}
}

// --- / ----------------------------------------------------------------------

func TestRoot(t *testing.T) {
	rr := get(t, api.New(fixture()), "/")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	var resp map[string]string
	decode(t, rr, &resp)
	if resp["Hello"] != "World" {
		t.Errorf("greeting: got %v", resp)
	}
}

func TestUnknownPath(t *testing.T) {
	wantError(t, get(t, api.New(fixture()), "/no/such/route"), http.StatusNotFound, "")
}

// --- /total_waste -----------------------------------------------------------

func TestTotalWaste_Found(t *testing.T) {
	rr := get(t, api.New(fixture()), "/total_waste/trento/2020")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200 (body: %s)", rr.Code, rr.Body.String())
	}
	var resp api.TotalWasteResponse
	decode(t, rr, &resp)
	if resp.Entity != "Trento" || resp.Period != 2020 || resp.TotalWaste != 58000 {
		t.Errorf("response: got %+v", resp)
	}
}

func TestTotalWaste_EscapedEntity(t *testing.T) {
	rr := get(t, api.New(fixture()), "/total_waste/Sant%E2%80%99Orsola%20Terme/2019")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200 (body: %s)", rr.Code, rr.Body.String())
	}
	var resp api.TotalWasteResponse
	decode(t, rr, &resp)
	if resp.TotalWaste != 600 {
		t.Errorf("total_waste: got %v, want 600", resp.TotalWaste)
	}
}

func TestTotalWaste_NotFound(t *testing.T) {
	h := api.New(fixture())
	wantError(t, get(t, h, "/total_waste/Trento/1990"), http.StatusNotFound, "not_found")
	wantError(t, get(t, h, "/total_waste/Bolzano/2019"), http.StatusNotFound, "not_found")
}

func TestTotalWaste_BadPeriod(t *testing.T) {
	wantError(t, get(t, api.New(fixture()), "/total_waste/Trento/last-year"), http.StatusBadRequest, "")
}

func TestTotalWaste_MissingSegment(t *testing.T) {
	wantError(t, get(t, api.New(fixture()), "/total_waste/Trento"), http.StatusNotFound, "")
}

func TestTotalWaste_MethodNotAllowed(t *testing.T) {
	h := api.New(fixture())
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/total_waste/Trento/2019", nil))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("status: got %d, want 405", rr.Code)
	}
}

// --- /total_waste_all_years -------------------------------------------------

func TestTotalWasteAllYears(t *testing.T) {
	rr := get(t, api.New(fixture()), "/total_waste_all_years/Trento")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	var resp api.TotalWasteAllYearsResponse
	decode(t, rr, &resp)
	if len(resp.TotalWasteData) != 3 {
		t.Fatalf("total_waste_data: got %d entries, want 3", len(resp.TotalWasteData))
	}
	for i := 1; i < len(resp.TotalWasteData); i++ {
		if resp.TotalWasteData[i-1].Period >= resp.TotalWasteData[i].Period {
			t.Errorf("total_waste_data not strictly ascending: %+v", resp.TotalWasteData)
		}
	}
	if resp.TotalWasteData[1].TotalWaste != 58000 {
		t.Errorf("2020 total: got %v, want 58000", resp.TotalWasteData[1].TotalWaste)
	}
}

func TestTotalWasteAllYears_UnknownEntity(t *testing.T) {
	wantError(t, get(t, api.New(fixture()), "/total_waste_all_years/Bolzano"), http.StatusNotFound, "not_found")
}

// --- /find_municipalities_by_waste ------------------------------------------

func TestExtremes(t *testing.T) {
	rr := get(t, api.New(fixture()), "/find_municipalities_by_waste/2019")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	var resp api.ExtremesResponse
	decode(t, rr, &resp)
	// per capita: Trento 0.5, Sant'Orsola 0.545, Arco 0.667
	if resp.Highest.Name != "Arco" {
		t.Errorf("highest: got %q, want Arco", resp.Highest.Name)
	}
	if resp.Lowest.Name != "Trento" || resp.Lowest.Value != 0.5 {
		t.Errorf("lowest: got %+v, want Trento 0.5", resp.Lowest)
	}
	if resp.Highest.Value < resp.Lowest.Value {
		t.Errorf("highest %v < lowest %v", resp.Highest.Value, resp.Lowest.Value)
	}
}

func TestExtremes_UnknownPeriod(t *testing.T) {
	wantError(t, get(t, api.New(fixture()), "/find_municipalities_by_waste/1990"), http.StatusNotFound, "not_found")
}

func TestExtremes_ZeroPopulation(t *testing.T) {
	h := api.New(newStore(rec("Ghost", 2019, 10, 0, 1)))
	wantError(t, get(t, h, "/find_municipalities_by_waste/2019"), http.StatusUnprocessableEntity, "division_undefined")
}

func TestExtremes_OverflowingPerCapita(t *testing.T) {
	h := api.New(newStore(rec("Huge", 2019, 1e300, 1e-10, 1)))
	wantError(t, get(t, h, "/find_municipalities_by_waste/2019"), http.StatusUnprocessableEntity, "division_undefined")
}

func TestExtremes_BadPeriod(t *testing.T) {
	wantError(t, get(t, api.New(fixture()), "/find_municipalities_by_waste/abc"), http.StatusBadRequest, "")
}

// --- /raccolta_differenziata ------------------------------------------------

func TestRatioChange(t *testing.T) {
	rr := get(t, api.New(fixture()), "/raccolta_differenziata/TRENTO")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	var resp api.RatioChangeResponse
	decode(t, rr, &resp)
	if resp.PercentChange != 50 {
		t.Errorf("percent_change: got %v, want 50", resp.PercentChange)
	}
	if resp.FirstPeriod != 2019 || resp.LastPeriod != 2021 {
		t.Errorf("periods: got %d→%d, want 2019→2021", resp.FirstPeriod, resp.LastPeriod)
	}
	if len(resp.Ratios) != 3 || resp.Ratios[1].Period != 2020 {
		t.Errorf("ratios: got %+v", resp.Ratios)
	}
}

func TestRatioChange_ZeroFirst(t *testing.T) {
	rr := get(t, api.New(fixture()), "/raccolta_differenziata/Sant'Orsola%20Terme")
	wantError(t, rr, http.StatusUnprocessableEntity, "division_undefined")
}

func TestRatioChange_NonFiniteChange(t *testing.T) {
	h := api.New(newStore(rec("Mori", 2019, 1, 1, 1e-310), rec("Mori", 2020, 1, 1, 90)))
	wantError(t, get(t, h, "/raccolta_differenziata/Mori"), http.StatusUnprocessableEntity, "division_undefined")
}

func TestRatioChange_SinglePeriod(t *testing.T) {
	wantError(t, get(t, api.New(fixture()), "/raccolta_differenziata/Arco"), http.StatusUnprocessableEntity, "insufficient_data")
}

func TestRatioChange_UnknownEntity(t *testing.T) {
	wantError(t, get(t, api.New(fixture()), "/raccolta_differenziata/Bolzano"), http.StatusNotFound, "not_found")
}

// --- /get-date and /healthz -------------------------------------------------

func TestGetDate(t *testing.T) {
	rr := get(t, api.New(fixture()), "/get-date")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	var resp api.DateResponse
	decode(t, rr, &resp)
	ts, err := time.Parse(time.RFC3339, resp.Date)
	if err != nil {
		t.Fatalf("date %q: %v", resp.Date, err)
	}
	if d := time.Since(ts); d < -time.Minute || d > time.Minute {
		t.Errorf("date %v is not close to now", ts)
	}
}

func TestHealth(t *testing.T) {
	rr := get(t, api.New(fixture()), "/healthz")
	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	var resp api.HealthResponse
	decode(t, rr, &resp)
	if resp.Status != "ok" || resp.RecordCount != 6 || resp.EntityCount != 3 {
		t.Errorf("health: got %+v", resp)
	}
	if resp.LoadedAt == "" {
		t.Error("loaded_at: missing")
	}
}

func TestHealth_Empty(t *testing.T) {
	var resp api.HealthResponse
	decode(t, get(t, api.New(newStore()), "/healthz"), &resp)
	if resp.Status != "empty" {
		t.Errorf("status: got %q, want empty", resp.Status)
	}
}

// --- reload -----------------------------------------------------------------

func TestHandler_ServesReplacedTable(t *testing.T) {
	st := fixture()
	h := api.New(st)
	wantError(t, get(t, h, "/total_waste/Bolzano/2019"), http.StatusNotFound, "not_found")

	st.Replace(dataset.NewTable([]dataset.Record{rec("Bolzano", 2019, 50000, 107000, 70)}))

	rr := get(t, h, "/total_waste/Bolzano/2019")
	if rr.Code != http.StatusOK {
		t.Fatalf("after Replace: status %d, want 200", rr.Code)
	}
}
