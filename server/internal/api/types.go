package api

// TotalWasteResponse is the payload for GET /total_waste/{entity}/{period}.
type TotalWasteResponse struct {
	Entity     string  `json:"entity"`
	Period     int     `json:"period"`
	TotalWaste float64 `json:"total_waste"`
}

// PeriodWaste is one entry of TotalWasteAllYearsResponse.TotalWasteData.
type PeriodWaste struct {
	Period     int     `json:"period"`
	TotalWaste float64 `json:"total_waste"`
}

// TotalWasteAllYearsResponse is the payload for GET /total_waste_all_years/{entity}.
type TotalWasteAllYearsResponse struct {
	Entity         string        `json:"entity"`
	TotalWasteData []PeriodWaste `json:"total_waste_data"` // ascending by period
}

// MunicipalityValue names a municipality and its per-capita waste.
type MunicipalityValue struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// ExtremesResponse is the payload for GET /find_municipalities_by_waste/{period}.
type ExtremesResponse struct {
	Period  int               `json:"period"`
	Highest MunicipalityValue `json:"highest"`
	Lowest  MunicipalityValue `json:"lowest"`
}

// PeriodRatio is one entry of RatioChangeResponse.Ratios.
type PeriodRatio struct {
	Period int     `json:"period"`
	Ratio  float64 `json:"ratio"`
}

// RatioChangeResponse is the payload for GET /raccolta_differenziata/{entity}.
type RatioChangeResponse struct {
	Entity        string        `json:"entity"`
	FirstPeriod   int           `json:"first_period"`
	LastPeriod    int           `json:"last_period"`
	FirstRatio    float64       `json:"first_ratio"`
	LastRatio     float64       `json:"last_ratio"`
	PercentChange float64       `json:"percent_change"`
	Ratios        []PeriodRatio `json:"ratios"`
}

// DateResponse is the payload for GET /get-date.
type DateResponse struct {
	Date string `json:"date"` // RFC3339
}

// HealthResponse is the payload for GET /healthz.
type HealthResponse struct {
	Status      string `json:"status"`
	RecordCount int    `json:"record_count"`
	EntityCount int    `json:"entity_count"`
	SkippedRows int    `json:"skipped_rows"`
	Source      string `json:"source,omitempty"`
	LoadedAt    string `json:"loaded_at"` // RFC3339
}

// errorResponse is the JSON error body. Kind is set for query failures.
type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}
