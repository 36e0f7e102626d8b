// Package config provides centralized configuration management for the ESG
// analyzer. It handles loading configuration from multiple sources, validation,
// and provides a type-safe API for accessing configuration values.
//
// # Configuration Sources
//
// Configuration is assembled in the following order, later sources winning:
//
//	1. Default values (Default)
//	2. The YAML file given with -config, else esg.yaml or configs/esg.yaml
//	3. Environment variables
//
// # Environment Variables
//
// All environment variables follow the pattern ESG_<SECTION>_<KEY>:
//
//	ESG_LOGGING_LEVEL=debug
//	ESG_ANALYSIS_SCALE=msci
//	ESG_ANALYSIS_TOP_INDUSTRIES=20
//	ESG_EXPORT_FORMATS=csv,json,xlsx
//	ESG_TELEMETRY_METRICS_FILE=reports/esg_metrics.prom
//
// Maps (scales, schema mapping, keyword tables) and custom groupings are
// file-only.
//
// # Example File
//
//	analysis:
//	  scale: msci
//	  top_industries: 15
//	scales:
//	  sustainalytics: [NEGLIGIBLE, LOW, MEDIUM, HIGH, SEVERE]
//	schema:
//	  version: v2
//	  accept_suggestions: false
//	  mapping:
//	    rating: IVA_COMPANY_RATING
//	    previous_rating: IVA_PREVIOUS_RATING
//	  keywords:
//	    country:
//	      keywords: [country, domicile, hq]
//	export:
//	  formats: [csv, xlsx, sqlite]
//
// # Path Management
//
// ResolvePaths turns the configured output and log directories into absolute
// paths under the base directory and EnsureDirectories creates them.
package config
