package config

// Application constants
const (
	// Application Info
	AppName    = "ESG Analyzer"
	AppVersion = "1.0.0"
	EnvPrefix  = "ESG"

	// Config file names searched when no -config flag is given
	DefaultConfigFile = "esg.yaml"

	// File Paths (relative to the base directory)
	DefaultOutputDir = "reports"
	DefaultLogsDir   = "logs"
	DefaultLogFile   = "logs/esganalyzer.log"

	// Analysis defaults, mirroring the leaderboard sizes of the desk reports
	DefaultScale         = "msci"
	DefaultTopIndustries = 15
	DefaultTopCountries  = 10
	DefaultTopCompanies  = 10
	DefaultTopProgress   = 5
	DefaultTopLatest     = 10

	// Schema defaults
	DefaultSchemaVersion = "v1"

	// Export file names
	SummaryCSVFile = "summary.csv"
	ReportJSONFile = "report.json"
	ReportXLSXFile = "esg_report.xlsx"
	ReportDBFile   = "esg_report.db"
	MetricsFile    = "esg_metrics.prom"
)

// Export formats
const (
	FormatCSV    = "csv"
	FormatJSON   = "json"
	FormatXLSX   = "xlsx"
	FormatSQLite = "sqlite"
)

// SupportedFormats lists every export format in write order.
var SupportedFormats = []string{FormatCSV, FormatJSON, FormatXLSX, FormatSQLite}

// Log outputs
const (
	OutputConsole = "console"
	OutputFile    = "file"
	OutputBoth    = "both"
)
