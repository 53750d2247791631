// Package api implements the HTTP query API for wastestats-server.
//
// New(store) returns an http.Handler that serves:
//
//	GET /                                       greeting
//	GET /total_waste/{entity}/{period}          waste of one municipality in one year
//	GET /total_waste_all_years/{entity}         waste per year, ascending
//	GET /find_municipalities_by_waste/{period}  highest and lowest per-capita waste
//	GET /raccolta_differenziata/{entity}        % change of the differentiated collection ratio
//	GET /get-date                               current server time
//	GET /healthz                                dataset size and load time
//
// All endpoints:
//   - Respond with Content-Type: application/json
//   - Return 405 for non-GET methods
//   - Return 400 for a non-integer period
//   - Map query errors to 404 (not_found) or 422 (insufficient_data,
//     division_undefined) with {"error", "kind"}
//
// Each request reads the table once from the dataset store. JSON types are
// defined in types.go. No external HTTP framework is used.
package api
