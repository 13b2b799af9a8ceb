package types

import "errors"

// Config holds backend selection and parameters for Backend.Attach.
type Config struct {
	Backend        string      `json:"backend" yaml:"backend" mapstructure:"backend"`
	DataDir        string      `json:"data_dir" yaml:"data_dir" mapstructure:"data_dir"`
	SnapshotKey    string      `json:"snapshot_key" yaml:"snapshot_key" mapstructure:"snapshot_key"`
	FinalizePolicy string      `json:"finalize_policy" yaml:"finalize_policy" mapstructure:"finalize_policy"`
	LogLevel       string      `json:"log_level" yaml:"log_level" mapstructure:"log_level"`
	LogFormat      string      `json:"log_format" yaml:"log_format" mapstructure:"log_format"`
	Store          StoreConfig `json:"store" yaml:"store" mapstructure:"store"`
}

// StoreConfig selects and parameterizes the key-value store that holds the
// serialized database and the session keys.
type StoreConfig struct {
	Driver string      `json:"driver" yaml:"driver" mapstructure:"driver"`
	Redis  RedisConfig `json:"redis" yaml:"redis" mapstructure:"redis"`
	S3     S3Config    `json:"s3" yaml:"s3" mapstructure:"s3"`
}

// RedisConfig configures the redis store driver.
type RedisConfig struct {
	Addr     string `json:"addr" yaml:"addr" mapstructure:"addr"`
	Password string `json:"password" yaml:"password" mapstructure:"password"`
	DB       int    `json:"db" yaml:"db" mapstructure:"db"`
	Prefix   string `json:"prefix" yaml:"prefix" mapstructure:"prefix"`
}

// S3Config configures the s3 store driver. Endpoint is empty for AWS and set
// for S3-compatible servers (MinIO, R2).
type S3Config struct {
	Bucket    string `json:"bucket" yaml:"bucket" mapstructure:"bucket"`
	Region    string `json:"region" yaml:"region" mapstructure:"region"`
	Endpoint  string `json:"endpoint" yaml:"endpoint" mapstructure:"endpoint"`
	AccessKey string `json:"access_key" yaml:"access_key" mapstructure:"access_key"`
	SecretKey string `json:"secret_key" yaml:"secret_key" mapstructure:"secret_key"`
	Prefix    string `json:"prefix" yaml:"prefix" mapstructure:"prefix"`
}

// Supported backend names.
const (
	BackendSQLite = "sqlite"
)

// Store driver names.
const (
	StoreFile   = "file"
	StoreMemory = "memory"
	StoreRedis  = "redis"
	StoreS3     = "s3"
)

// Finalize policies decide which list items a purchase includes.
const (
	// FinalizeCompleted includes only items checked off in shopping mode.
	FinalizeCompleted = "completed"
	// FinalizeAll includes every item on the list.
	FinalizeAll = "all"
)

// DefaultSnapshotKey is the key the serialized database is stored under.
const DefaultSnapshotKey = "grocery_db"

// Config validation errors.
var (
	ErrBackendEmpty          = errors.New("backend must not be empty")
	ErrBackendUnknown        = errors.New("unknown backend")
	ErrStoreDriverUnknown    = errors.New("unknown store driver")
	ErrFinalizePolicyUnknown = errors.New("unknown finalize policy")
	ErrStoreConfigIncomplete = errors.New("store configuration incomplete")
)

var knownBackends = map[string]bool{
	BackendSQLite: true,
}

var knownDrivers = map[string]bool{
	StoreFile:   true,
	StoreMemory: true,
	StoreRedis:  true,
	StoreS3:     true,
}

// Validate checks that the Config is well-formed. Empty optional fields are
// valid; their defaults are applied by the getters below.
func (c Config) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return ErrBackendUnknown
	}
	switch c.FinalizePolicy {
	case "", FinalizeCompleted, FinalizeAll:
	default:
		return ErrFinalizePolicyUnknown
	}
	return c.Store.Validate()
}

// Validate checks the store driver name and the fields the driver requires.
func (s StoreConfig) Validate() error {
	driver := s.GetDriver()
	if !knownDrivers[driver] {
		return ErrStoreDriverUnknown
	}
	switch driver {
	case StoreRedis:
		if s.Redis.Addr == "" {
			return ErrStoreConfigIncomplete
		}
	case StoreS3:
		if s.S3.Bucket == "" {
			return ErrStoreConfigIncomplete
		}
	}
	return nil
}

// GetDriver returns the store driver, defaulting to the file driver.
func (s StoreConfig) GetDriver() string {
	if s.Driver == "" {
		return StoreFile
	}
	return s.Driver
}

// GetSnapshotKey returns the snapshot key, defaulting to DefaultSnapshotKey.
func (c Config) GetSnapshotKey() string {
	if c.SnapshotKey == "" {
		return DefaultSnapshotKey
	}
	return c.SnapshotKey
}

// GetFinalizePolicy returns the finalize policy, defaulting to FinalizeCompleted.
func (c Config) GetFinalizePolicy() string {
	if c.FinalizePolicy == "" {
		return FinalizeCompleted
	}
	return c.FinalizePolicy
}
