// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App           AppConfig          `mapstructure:"app"`
	Database      DatabaseConfig     `mapstructure:"database"`
	GenAI         GenAIConfig        `mapstructure:"genai"`
	VectorStore   VectorStoreConfig  `mapstructure:"vector_store"`
	Matching      MatchingConfig     `mapstructure:"matching"`
	Taxonomy      TaxonomyConfig     `mapstructure:"taxonomy"`
	Notifications NotificationConfig `mapstructure:"notifications"`
	Logging       LoggingConfig      `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type DatabaseConfig struct {
	Postgres      PostgresConfig      `mapstructure:"postgres"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Redis         RedisConfig         `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type ElasticsearchConfig struct {
	Addresses []string `mapstructure:"addresses"`
	Username  string   `mapstructure:"username"`
	Password  string   `mapstructure:"password"`
	URL       string   `mapstructure:"url"`
}

// GetURL returns the first address or the URL field
func (e ElasticsearchConfig) GetURL() string {
	if e.URL != "" {
		return e.URL
	}
	if len(e.Addresses) > 0 {
		return e.Addresses[0]
	}
	return ""
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// GenAIConfig holds settings for the text generation and embedding collaborator.
type GenAIConfig struct {
	APIKey         string  `mapstructure:"api_key"`
	GenerateModel  string  `mapstructure:"generate_model"`
	EmbeddingModel string  `mapstructure:"embedding_model"`
	Temperature    float32 `mapstructure:"temperature"`
	MaxTokens      int     `mapstructure:"max_tokens"`
	Timeout        int     `mapstructure:"timeout"` // milliseconds
	MaxRetries     int     `mapstructure:"max_retries"`
}

// VectorStoreConfig holds settings for the capsule vector index.
type VectorStoreConfig struct {
	Index     string `mapstructure:"index"`
	Dimension int    `mapstructure:"dimension"`
}

// MatchingConfig holds tunables for scoring, thresholds, and batch fan-out.
type MatchingConfig struct {
	BatchSize int `mapstructure:"batch_size"`

	// Acceptance thresholds keyed "<jobClass>:<tier>", e.g. "specialized:expert".
	Thresholds map[string]float64 `mapstructure:"thresholds"`

	// Fuzzy evidence matching. Distance 0 disables it.
	FuzzyDistance  int `mapstructure:"fuzzy_distance"`
	FuzzyMinLength int `mapstructure:"fuzzy_min_length"`

	CacheTTL int `mapstructure:"cache_ttl"` // seconds, classification/embedding cache
}

// TaxonomyConfig holds immutable taxonomy tables loaded once at startup and
// passed by injection, never as mutable package globals.
type TaxonomyConfig struct {
	// Additional credential -> domain-code mappings merged over the built-ins.
	CredentialDomains map[string][]string `mapstructure:"credential_domains"`
	SpecializedCodes  []string            `mapstructure:"specialized_codes"`
}

// NotificationConfig holds settings for the qualification notifier.
type NotificationConfig struct {
	Email EmailConfig `mapstructure:"email"`
	SMS   SMSConfig   `mapstructure:"sms"`
	AWS   AWSConfig   `mapstructure:"aws"`
}

type EmailConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	FromEmail string `mapstructure:"from_email"`
}

type SMSConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	SenderID string `mapstructure:"sender_id"`
}

type AWSConfig struct {
	Region string `mapstructure:"region"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
