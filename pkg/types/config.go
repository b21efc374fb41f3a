// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by jobs that call remote services.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests.
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`

	// MaxRetries bounds retries on HTTP 429 and 503 (0 uses the default).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`
}

// CacheConfig controls the response cache shared by all remote fetches.
type CacheConfig struct {
	// Dir is the on-disk cache directory. Empty disables the disk layer.
	Dir string `json:"dir" yaml:"dir" mapstructure:"dir"`

	// TTL is how long disk entries stay fresh.
	TTL time.Duration `json:"ttl" yaml:"ttl" mapstructure:"ttl"`

	// MemoryTTL is how long in-process entries stay fresh.
	MemoryTTL time.Duration `json:"memory_ttl" yaml:"memory_ttl" mapstructure:"memory_ttl"`

	// Disabled bypasses the cache entirely.
	Disabled bool `json:"disabled" yaml:"disabled" mapstructure:"disabled"`
}

// DetectorMode selects how the external mesh collision tool is run.
type DetectorMode string

const (
	DetectorCommand   DetectorMode = "command"
	DetectorContainer DetectorMode = "container"
)

// DetectorConfig describes the external mesh-mesh collision tool.
type DetectorConfig struct {
	// Mode is "command" (run Command on the host) or "container" (run Image).
	Mode DetectorMode `json:"mode" yaml:"mode" mapstructure:"mode"`

	// Command is the argv of the tool. The placeholders {model} and
	// {output} are replaced with the GLB path and the collisions CSV path.
	Command []string `json:"command" yaml:"command" mapstructure:"command"`

	// Image is the container image used in container mode. Its entrypoint
	// receives the model and output paths as arguments.
	Image string `json:"image,omitempty" yaml:"image,omitempty" mapstructure:"image"`
}

// MeshCollisionConfig holds settings for the mesh-file collision generator.
type MeshCollisionConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// StructuresCSV is the URL or path of the anatomical structures table
	// (columns glb_file, reference_organ, node_name, ontologyID).
	StructuresCSV string `json:"structures_csv" yaml:"structures_csv" mapstructure:"structures_csv"`

	// Output is the relations CSV written by the job.
	Output string `json:"output" yaml:"output" mapstructure:"output"`

	// WorkDir holds per-model scratch files. Empty uses the system temp dir.
	WorkDir string `json:"work_dir" yaml:"work_dir" mapstructure:"work_dir"`

	Detector DetectorConfig `json:"detector" yaml:"detector" mapstructure:"detector"`
}

// APICollisionConfig holds settings for the API-based collision generator.
type APICollisionConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// SpatialEntitiesURL returns reference organs and their anatomical
	// structures as JSON-LD spatial entities.
	SpatialEntitiesURL string `json:"spatial_entities_url" yaml:"spatial_entities_url" mapstructure:"spatial_entities_url"`

	// CollisionURL is the collision API endpoint (POST a RUI location).
	CollisionURL string `json:"collision_url" yaml:"collision_url" mapstructure:"collision_url"`

	// CollisionToken is an optional bearer token for the collision API.
	CollisionToken string `json:"collision_token,omitempty" yaml:"collision_token,omitempty" mapstructure:"collision_token"`

	// RequestsPerSecond and Burst throttle calls to the collision API.
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second" mapstructure:"requests_per_second"`
	Burst             int     `json:"burst" yaml:"burst" mapstructure:"burst"`

	// Concurrency bounds in-flight collision API calls (1 = sequential).
	Concurrency int `json:"concurrency" yaml:"concurrency" mapstructure:"concurrency"`

	// MinPercentage drops collisions whose overlap is at or below it when
	// building relations.
	MinPercentage float64 `json:"min_percentage" yaml:"min_percentage" mapstructure:"min_percentage"`

	// GraphOutput is the JSON-LD collision summary written by the job.
	GraphOutput string `json:"graph_output" yaml:"graph_output" mapstructure:"graph_output"`

	// RelationsOutput is the relations CSV written by the job.
	RelationsOutput string `json:"relations_output" yaml:"relations_output" mapstructure:"relations_output"`
}

// ValidationConfig holds settings for the relation validator.
type ValidationConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// Endpoint is the SPARQL endpoint queried for confirming triples.
	Endpoint string `json:"endpoint" yaml:"endpoint" mapstructure:"endpoint"`

	// EndpointToken is an optional bearer token for the endpoint.
	EndpointToken string `json:"endpoint_token,omitempty" yaml:"endpoint_token,omitempty" mapstructure:"endpoint_token"`

	// Inputs lists relations CSV paths or glob patterns.
	Inputs []string `json:"inputs" yaml:"inputs" mapstructure:"inputs"`

	// DataDir receives the query, the CSV outputs and the report.
	DataDir string `json:"data_dir" yaml:"data_dir" mapstructure:"data_dir"`

	// Predicates are the candidate predicate IRIs. Empty uses the defaults.
	Predicates []string `json:"predicates" yaml:"predicates" mapstructure:"predicates"`

	// ReportTitle is the level-one heading of the markdown report.
	ReportTitle string `json:"report_title" yaml:"report_title" mapstructure:"report_title"`

	// CheckReversed runs a second query to find edges that only hold with
	// parent and child swapped.
	CheckReversed bool `json:"check_reversed" yaml:"check_reversed" mapstructure:"check_reversed"`
}

// ViewerConfig holds settings for the model viewer.
type ViewerConfig struct {
	// Addr is the listen address (e.g. "127.0.0.1:5173").
	Addr string `json:"addr" yaml:"addr" mapstructure:"addr"`

	// Model is the GLB file rendered by the viewer.
	Model string `json:"model" yaml:"model" mapstructure:"model"`
}

// LedgerConfig controls the run history database.
type LedgerConfig struct {
	// Path is the SQLite database file. Empty disables run recording.
	Path string `json:"path" yaml:"path" mapstructure:"path"`
}

// MetricsConfig controls the metrics textfile written after each run.
type MetricsConfig struct {
	// Textfile is a Prometheus textfile-collector path. Empty disables it.
	Textfile string `json:"textfile" yaml:"textfile" mapstructure:"textfile"`
}

// PipelineConfig groups all job configurations.
type PipelineConfig struct {
	Cache         CacheConfig         `json:"cache" yaml:"cache" mapstructure:"cache"`
	MeshCollision MeshCollisionConfig `json:"mesh_collision" yaml:"mesh_collision" mapstructure:"mesh_collision"`
	APICollision  APICollisionConfig  `json:"api_collision" yaml:"api_collision" mapstructure:"api_collision"`
	Validation    ValidationConfig    `json:"validation" yaml:"validation" mapstructure:"validation"`
	Viewer        ViewerConfig        `json:"viewer" yaml:"viewer" mapstructure:"viewer"`
	Ledger        LedgerConfig        `json:"ledger" yaml:"ledger" mapstructure:"ledger"`
	Metrics       MetricsConfig       `json:"metrics" yaml:"metrics" mapstructure:"metrics"`
}

const (
	DefaultUserAgent = "hra-relations/0.1"
	DefaultTimeout   = 60 * time.Second

	DefaultStructuresCSV      = "https://grlc.io/api-git/hubmapconsortium/ccf-grlc/subdir/mesh-collision/anatomical-structures.csv"
	DefaultSpatialEntitiesURL = "https://ccf-api.hubmapconsortium.org/v1/reference-organs"
	DefaultCollisionURL       = "https://pfn8zf2gtu.us-east-2.awsapprunner.com/get-collisions"
	DefaultSPARQLEndpoint     = "https://ubergraph.apps.renci.org/sparql"
	DefaultReportTitle        = "HRA v2.1 Validation Report"
)

// DefaultConfig returns the configuration used when no file, environment
// variable or flag overrides a value.
func DefaultConfig() PipelineConfig {
	httpCfg := HTTPConfig{Timeout: DefaultTimeout, UserAgent: DefaultUserAgent}
	return PipelineConfig{
		Cache: CacheConfig{
			Dir:       ".cache/hra-relations",
			TTL:       24 * time.Hour,
			MemoryTTL: 10 * time.Minute,
		},
		MeshCollision: MeshCollisionConfig{
			HTTPConfig:    httpCfg,
			StructuresCSV: DefaultStructuresCSV,
			Output:        "data/ref-organ-relations.csv",
			Detector: DetectorConfig{
				Mode: DetectorCommand,
				Command: []string{
					"python", "../hra-glb-mesh-collisions/mesh-mesh-collisions.py", "{model}", "{output}",
				},
			},
		},
		APICollision: APICollisionConfig{
			HTTPConfig:         httpCfg,
			SpatialEntitiesURL: DefaultSpatialEntitiesURL,
			CollisionURL:       DefaultCollisionURL,
			RequestsPerSecond:  2,
			Burst:              2,
			Concurrency:        1,
			GraphOutput:        "data/ref-organ-collisions.jsonld",
			RelationsOutput:    "data/ref-organ-api-relations.csv",
		},
		Validation: ValidationConfig{
			HTTPConfig:    httpCfg,
			Endpoint:      DefaultSPARQLEndpoint,
			Inputs:        []string{"data/ref-organ-relations.csv"},
			DataDir:       "data",
			ReportTitle:   DefaultReportTitle,
			CheckReversed: true,
		},
		Viewer: ViewerConfig{
			Addr:  "127.0.0.1:5173",
			Model: "3d-vh-f-united.glb",
		},
		Ledger: LedgerConfig{Path: "data/runs.db"},
	}
}
