package operations

// Config represents the operation execution configuration
type Config struct {
	// Whether to keep running steps that do not depend on a failed one
	ContinueOnError bool `json:"continue_on_error"`

	// ManifestDir receives run_manifest.json; empty disables the manifest
	ManifestDir string `json:"manifest_dir"`
}

// NewConfig returns the default operation configuration
func NewConfig() *Config {
	return &Config{}
}
