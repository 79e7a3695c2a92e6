// Package config defines configuration for the hls-stac-parquet CLI.
//
// Configuration can be provided via:
//   - Command-line flags
//   - Environment variables (HLS_ prefix)
//   - YAML configuration file
//
// Precedence is flags over environment over file over defaults.
//
// # Structure
//
//	type Config struct {
//	    Destination          string
//	    CatalogURL           string
//	    ClientID             string
//	    PageSize             int
//	    Timeout              time.Duration
//	    Version              string
//	    MaxConcurrentDays    int
//	    MaxConcurrentPerDay  int
//	    FailureRateThreshold float64
//	    Progress             bool
//	    Verbose              bool
//	    Retry                RetryConfig
//	}
//
//	type RetryConfig struct {
//	    Attempts   int
//	    Backoff    time.Duration
//	    MaxBackoff time.Duration
//	}
package config
