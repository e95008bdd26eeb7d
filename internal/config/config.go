package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "REPORT_DESK"

// Config represents the application configuration
type Config struct {
	Server        ServerConfig        `mapstructure:"server" json:"server"`
	Database      DatabaseConfig      `mapstructure:"database" json:"database"`
	Logging       LoggingConfig       `mapstructure:"logging" json:"logging"`
	Report        ReportConfig        `mapstructure:"report" json:"report"`
	Export        ExportConfig        `mapstructure:"export" json:"export"`
	Notifications NotificationsConfig `mapstructure:"notifications" json:"notifications"`
}

// ServerConfig represents server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host" json:"host"`
	Port         int           `mapstructure:"port" json:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout" json:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" json:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout" json:"idle_timeout"`
}

// DatabaseConfig represents database configuration
type DatabaseConfig struct {
	Host           string        `mapstructure:"host" json:"host"`
	Port           int           `mapstructure:"port" json:"port"`
	User           string        `mapstructure:"user" json:"user"`
	Password       string        `mapstructure:"password" json:"password"`
	DBName         string        `mapstructure:"db_name" json:"db_name"`
	SSLMode        string        `mapstructure:"ssl_mode" json:"ssl_mode"`
	MaxConnections int           `mapstructure:"max_connections" json:"max_connections"`
	MaxIdleConns   int           `mapstructure:"max_idle_conns" json:"max_idle_conns"`
	MaxLifetime    time.Duration `mapstructure:"max_lifetime" json:"max_lifetime"`
}

// LoggingConfig
type LoggingConfig struct {
	Level      string `mapstructure:"level" json:"level"`
	Format     string `mapstructure:"format" json:"format"`
	OutputPath string `mapstructure:"output_path" json:"output_path"`
}

// ReportConfig describes the primary and lookup tables the report is built from
type ReportConfig struct {
	PrimaryTable       string   `mapstructure:"primary_table" json:"primary_table"`
	LookupTable        string   `mapstructure:"lookup_table" json:"lookup_table"`
	TitleField         string   `mapstructure:"title_field" json:"title_field"`
	CategoryIDField    string   `mapstructure:"category_id_field" json:"category_id_field"`
	MetricField        string   `mapstructure:"metric_field" json:"metric_field"`
	CategoryLabelField string   `mapstructure:"category_label_field" json:"category_label_field"`
	LookupIDField      string   `mapstructure:"lookup_id_field" json:"lookup_id_field"`
	LookupNameField    string   `mapstructure:"lookup_name_field" json:"lookup_name_field"`
	DisplayColumns     []string `mapstructure:"display_columns" json:"display_columns"`
	AllCategory        string   `mapstructure:"all_category" json:"all_category"`
	UnknownLabel       string   `mapstructure:"unknown_label" json:"unknown_label"`
	SeriesName         string   `mapstructure:"series_name" json:"series_name"`
}

// ExportConfig
type ExportConfig struct {
	OutputDir   string   `mapstructure:"output_dir" json:"output_dir"`
	PageSize    string   `mapstructure:"page_size" json:"page_size"`
	Orientation string   `mapstructure:"orientation" json:"orientation"`
	Schedule    string   `mapstructure:"schedule" json:"schedule"`
	Formats     []string `mapstructure:"formats" json:"formats"`
	S3Bucket    string   `mapstructure:"s3_bucket" json:"s3_bucket"`
	S3Region    string   `mapstructure:"s3_region" json:"s3_region"`
	S3Prefix    string   `mapstructure:"s3_prefix" json:"s3_prefix"`
}

// NotificationsConfig
type NotificationsConfig struct {
	QueueSize       int           `mapstructure:"queue_size" json:"queue_size"`
	DefaultDuration time.Duration `mapstructure:"default_duration" json:"default_duration"`
}

// LoadConfig loads configuration from defaults, an optional file, .env and environment variables.
// A missing config file is not an error.
func LoadConfig(configPath string) (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()
	applyDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("report-desk")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	overrideWithEnv(&config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func applyDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 15*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", os.Getenv("USER"))
	v.SetDefault("database.db_name", "game_sales")
	v.SetDefault("database.ssl_mode", "disable")
	v.SetDefault("database.max_connections", 1)
	v.SetDefault("database.max_idle_conns", 1)
	v.SetDefault("database.max_lifetime", 30*time.Minute)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "development")
	v.SetDefault("logging.output_path", "")

	v.SetDefault("report.primary_table", "games")
	v.SetDefault("report.lookup_table", "genres")
	v.SetDefault("report.title_field", "title")
	v.SetDefault("report.category_id_field", "genre_id")
	v.SetDefault("report.metric_field", "sales")
	v.SetDefault("report.category_label_field", "genre")
	v.SetDefault("report.lookup_id_field", "genre_id")
	v.SetDefault("report.lookup_name_field", "genre_name")
	v.SetDefault("report.display_columns", []string{"title", "genre", "platform", "sales", "release_date", "description"})
	v.SetDefault("report.all_category", "All")
	v.SetDefault("report.unknown_label", "Unknown")
	v.SetDefault("report.series_name", "Sales")

	v.SetDefault("export.output_dir", "exports")
	v.SetDefault("export.page_size", "A4")
	v.SetDefault("export.orientation", "L")
	v.SetDefault("export.formats", []string{"pdf-table", "pdf-chart"})
	v.SetDefault("export.schedule", "")
	v.SetDefault("export.s3_bucket", "")
	v.SetDefault("export.s3_region", "us-east-1")
	v.SetDefault("export.s3_prefix", "reports/")

	v.SetDefault("notifications.queue_size", 16)
	v.SetDefault("notifications.default_duration", 6*time.Second)
}

// overrideWithEnv keeps the unprefixed variables working for existing deployments
func overrideWithEnv(config *Config) {
	if host := os.Getenv("SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if port := os.Getenv("SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if dbHost := os.Getenv("DATABASE_HOST"); dbHost != "" {
		config.Database.Host = dbHost
	}
	if dbPort := os.Getenv("DATABASE_PORT"); dbPort != "" {
		if p, err := strconv.Atoi(dbPort); err == nil {
			config.Database.Port = p
		}
	}
	if dbUser := os.Getenv("DATABASE_USER"); dbUser != "" {
		config.Database.User = dbUser
	}
	if dbPass := os.Getenv("DATABASE_PASSWORD"); dbPass != "" {
		config.Database.Password = dbPass
	}
	if dbName := os.Getenv("DATABASE_DBNAME"); dbName != "" {
		config.Database.DBName = dbName
	}
}

// Validate checks the settings a connection cannot be opened without
func (c *Config) Validate() error {
	var missing []string
	if c.Database.Host == "" {
		missing = append(missing, "database.host")
	}
	if c.Database.Port == 0 {
		missing = append(missing, "database.port")
	}
	if c.Database.User == "" {
		missing = append(missing, "database.user")
	}
	if c.Database.DBName == "" {
		missing = append(missing, "database.db_name")
	}
	if len(missing) > 0 {
		return fmt.Errorf("invalid database configuration, missing: %s", strings.Join(missing, ", "))
	}
	if c.Report.PrimaryTable == "" || c.Report.LookupTable == "" {
		return fmt.Errorf("invalid report configuration: primary and lookup tables are required")
	}
	if c.Notifications.QueueSize < 1 {
		c.Notifications.QueueSize = 1
	}
	return nil
}

// GetDatabaseURL returns the database connection string
func (c *DatabaseConfig) GetDatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode)
}

// GetServerAddr returns the server address
func (c *ServerConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
