package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "payslip-splitter/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`

	// MaxRetries bounds retries on throttled or unavailable responses (default 5).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// DirectoryConfig holds settings for loading the employee directory.
type DirectoryConfig struct {
	HTTPConfig `yaml:",inline"`

	// Source is an http(s) URL or a local path to employees.yaml.
	Source string `json:"source" yaml:"source"`

	// Token is an optional bearer token for private sources.
	Token string `json:"token,omitempty" yaml:"token,omitempty"`

	// IncludeFormer keeps entries with current_employee: false.
	IncludeFormer bool `json:"include_former" yaml:"include_former"`
}

// Backend selects the storage backend used for download and upload.
type Backend string

const (
	BackendDrive Backend = "drive"
	BackendLocal Backend = "local"
)

// DriveConfig holds settings for the Google Drive backend.
type DriveConfig struct {
	// CredentialsFile is the OAuth client secret JSON (installed app).
	CredentialsFile string `json:"credentials" yaml:"credentials"`

	// TokenFile caches the OAuth token between runs.
	TokenFile string `json:"token" yaml:"token"`

	// SourceFolder is the default folder searched by download and process.
	SourceFolder string `json:"source_folder" yaml:"source_folder"`

	// ReadOnly requests the drive.readonly scope.
	ReadOnly bool `json:"read_only" yaml:"read_only"`

	// RequestsPerSecond throttles API calls (default 5).
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second"`
}

// SplitConfig holds settings for the split stage.
type SplitConfig struct {
	// OutputDir receives the per-employee PDFs (default "output").
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	// Workers bounds parallel page text extraction (default 4).
	Workers int `json:"workers" yaml:"workers"`

	// DefaultPeriod is used when no period can be extracted.
	DefaultPeriod string `json:"default_period,omitempty" yaml:"default_period,omitempty"`

	// Overwrite replaces existing output files instead of skipping them.
	Overwrite bool `json:"overwrite" yaml:"overwrite"`

	// RequireFirstName also requires the first name on a matched page.
	RequireFirstName bool `json:"require_first_name" yaml:"require_first_name"`

	// Manifest, when set, is the path of a CSV listing every output file.
	Manifest string `json:"manifest,omitempty" yaml:"manifest,omitempty"`
}

// PipelineConfig groups all stage configurations.
type PipelineConfig struct {
	Directory DirectoryConfig `json:"employees" yaml:"employees"`
	Drive     DriveConfig     `json:"drive" yaml:"drive"`
	Split     SplitConfig     `json:"split" yaml:"split"`

	// Backend is the storage backend for download and upload.
	Backend Backend `json:"backend" yaml:"backend"`

	// InputDir receives downloaded PDFs before splitting (default "input").
	InputDir string `json:"input_dir" yaml:"input_dir"`

	// LedgerPath is the SQLite upload ledger (empty disables it).
	LedgerPath string `json:"ledger" yaml:"ledger"`
}
