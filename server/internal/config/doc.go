// Package config loads the wastestats-server configuration from config.yaml.
//
// Config sections:
//   - Server.HTTPPort         port for the query API and /metrics (default 8080)
//   - Server.ShutdownTimeout  graceful shutdown bound (default 10s)
//   - Dataset.Path            CSV or XLSX table (default app/filedati.csv)
//   - Dataset.Format          "csv" | "xlsx"; inferred from the extension if empty
//   - Dataset.Delimiter       CSV separator (default ",")
//   - Dataset.Sheet           XLSX worksheet (default: first)
//   - Dataset.DecimalComma    parse "1.234,5" style numbers (CSV only)
//   - Dataset.Watch           reload the table when the file changes
//   - Dataset.Columns         header names of the five required columns
//   - Log.Level / Log.Format  slog handler settings
//
// Load(path) applies defaults before unmarshalling, then validates.
// Config.Validate re-checks a config after fields are overridden.
package config
