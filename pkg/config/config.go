package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

const (
	DefaultConfigPath = "/etc/registrar"
	ConfigFileName    = "registrar.yml"
)

// Administrator self-registration modes
const (
	// RegistrationBootstrap allows POST /auth/register only while no
	// administrator exists.
	RegistrationBootstrap = "bootstrap"
	// RegistrationOpen always allows POST /auth/register.
	RegistrationOpen = "open"
	// RegistrationClosed disables POST /auth/register.
	RegistrationClosed = "closed"
)

// ValidRegistrationModes is the list of valid admin_registration values
var ValidRegistrationModes = []string{RegistrationBootstrap, RegistrationOpen, RegistrationClosed}

// ValidDatabaseDrivers is the list of valid database_driver values
var ValidDatabaseDrivers = []string{"postgres", "sqlite"}

// RegistrarConfig holds all registrar configuration settings
type RegistrarConfig struct {
	// TokenTTLSeconds is the lifetime of issued tokens in seconds
	TokenTTLSeconds int `yaml:"token_ttl" json:"token_ttl"`

	// BcryptCost is the bcrypt work factor for password hashes
	BcryptCost int `yaml:"bcrypt_cost" json:"bcrypt_cost"`

	// AdminRegistration controls POST /auth/register
	AdminRegistration string `yaml:"admin_registration" json:"admin_registration"`

	// CORSAllowedOrigins lists the origins allowed by CORS; "*" allows any
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins" json:"cors_allowed_origins"`

	// ListLimitMax is the maximum number of results for range listing
	ListLimitMax int `yaml:"list_limit_max" json:"list_limit_max"`

	// LogLevel is the application log level
	LogLevel string `yaml:"log_level" json:"log_level"`

	// DatabaseDriver selects the store backend
	DatabaseDriver string `yaml:"database_driver" json:"database_driver"`

	// sources tracks where each value came from
	sources map[string]string

	// configFilePath is the path to the config file
	configFilePath string
}

// Attribute represents a configuration attribute with its value and source
type Attribute struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Source string `json:"source"`
}

// Global singleton config
var (
	globalConfig *RegistrarConfig
	configMu     sync.RWMutex
)

// Get returns the global configuration, loading it if necessary
func Get() *RegistrarConfig {
	configMu.RLock()
	if globalConfig != nil {
		configMu.RUnlock()
		return globalConfig
	}
	configMu.RUnlock()

	// Load config
	configMu.Lock()
	defer configMu.Unlock()

	if globalConfig == nil {
		cfg, err := Load()
		if err != nil {
			// Return defaults on error
			globalConfig = newDefault()
		} else {
			globalConfig = cfg
		}
	}
	return globalConfig
}

// Reload reloads the configuration from file and environment
func Reload() error {
	cfg, err := Load()
	if err != nil {
		return err
	}

	configMu.Lock()
	globalConfig = cfg
	configMu.Unlock()
	return nil
}

// newDefault returns a config with default values
func newDefault() *RegistrarConfig {
	return &RegistrarConfig{
		TokenTTLSeconds:    86400,
		BcryptCost:         8,
		AdminRegistration:  RegistrationBootstrap,
		CORSAllowedOrigins: []string{"*"},
		ListLimitMax:       1000,
		LogLevel:           "info",
		DatabaseDriver:     "postgres",
		sources:            make(map[string]string),
	}
}

// Load loads configuration from file and environment variables
// Environment variables take precedence over file values
func Load() (*RegistrarConfig, error) {
	config := newDefault()

	// Initialize all sources as "default"
	for _, name := range attributeNames() {
		config.sources[name] = "default"
	}

	// Determine config file path
	configPath := os.Getenv("REGISTRAR_CONFIG_PATH")
	if configPath == "" {
		configPath = DefaultConfigPath
	}
	config.configFilePath = filepath.Join(configPath, ConfigFileName)

	// Try to load from config file
	if data, err := os.ReadFile(config.configFilePath); err == nil {
		var fileConfig RegistrarConfig
		if err := yaml.Unmarshal(data, &fileConfig); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", config.configFilePath, err)
		}
		config.applyFileConfig(&fileConfig)
	}

	// Override with environment variables
	config.applyEnvConfig()

	return config, nil
}

func attributeNames() []string {
	return []string{
		"token_ttl", "bcrypt_cost", "admin_registration",
		"cors_allowed_origins", "list_limit_max", "log_level",
		"database_driver",
	}
}

func (c *RegistrarConfig) applyFileConfig(file *RegistrarConfig) {
	if file.TokenTTLSeconds != 0 {
		c.TokenTTLSeconds = file.TokenTTLSeconds
		c.sources["token_ttl"] = "file"
	}
	if file.BcryptCost != 0 {
		c.BcryptCost = file.BcryptCost
		c.sources["bcrypt_cost"] = "file"
	}
	if file.AdminRegistration != "" {
		c.AdminRegistration = file.AdminRegistration
		c.sources["admin_registration"] = "file"
	}
	if len(file.CORSAllowedOrigins) > 0 {
		c.CORSAllowedOrigins = file.CORSAllowedOrigins
		c.sources["cors_allowed_origins"] = "file"
	}
	if file.ListLimitMax != 0 {
		c.ListLimitMax = file.ListLimitMax
		c.sources["list_limit_max"] = "file"
	}
	if file.LogLevel != "" {
		c.LogLevel = file.LogLevel
		c.sources["log_level"] = "file"
	}
	if file.DatabaseDriver != "" {
		c.DatabaseDriver = file.DatabaseDriver
		c.sources["database_driver"] = "file"
	}
}

func (c *RegistrarConfig) applyEnvConfig() {
	if val := os.Getenv("REGISTRAR_TOKEN_TTL"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			c.TokenTTLSeconds = i
			c.sources["token_ttl"] = "environment"
		}
	}
	if val := os.Getenv("REGISTRAR_BCRYPT_COST"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			c.BcryptCost = i
			c.sources["bcrypt_cost"] = "environment"
		}
	}
	if val := os.Getenv("REGISTRAR_ADMIN_REGISTRATION"); val != "" {
		c.AdminRegistration = strings.ToLower(strings.TrimSpace(val))
		c.sources["admin_registration"] = "environment"
	}
	if val := os.Getenv("REGISTRAR_CORS_ALLOWED_ORIGINS"); val != "" {
		c.CORSAllowedOrigins = splitAndTrim(val)
		c.sources["cors_allowed_origins"] = "environment"
	}
	if val := os.Getenv("REGISTRAR_LIST_LIMIT_MAX"); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			c.ListLimitMax = i
			c.sources["list_limit_max"] = "environment"
		}
	}
	if val := os.Getenv("REGISTRAR_LOG_LEVEL"); val != "" {
		c.LogLevel = val
		c.sources["log_level"] = "environment"
	}
	if val := os.Getenv("REGISTRAR_DATABASE_DRIVER"); val != "" {
		c.DatabaseDriver = val
		c.sources["database_driver"] = "environment"
	}
}

// ConfigFilePath returns the path to the config file
func (c *RegistrarConfig) ConfigFilePath() string {
	return c.configFilePath
}

// Source returns the source of a configuration attribute
func (c *RegistrarConfig) Source(name string) string {
	if c.sources == nil {
		return "default"
	}
	if s, ok := c.sources[name]; ok {
		return s
	}
	return "default"
}

// TokenTTL returns the token TTL as a duration
func (c *RegistrarConfig) TokenTTL() time.Duration {
	return time.Duration(c.TokenTTLSeconds) * time.Second
}

// Level returns the parsed application log level, defaulting to info
func (c *RegistrarConfig) Level() zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

// AllowsAnyOrigin reports whether CORS is open to every origin
func (c *RegistrarConfig) AllowsAnyOrigin() bool {
	for _, o := range c.CORSAllowedOrigins {
		if o == "*" {
			return true
		}
	}
	return false
}

// Validate validates the configuration
func (c *RegistrarConfig) Validate() error {
	if c.TokenTTLSeconds <= 0 {
		return fmt.Errorf("invalid token_ttl value: %d", c.TokenTTLSeconds)
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return fmt.Errorf("invalid bcrypt_cost value: %d (must be 4-31)", c.BcryptCost)
	}
	if !contains(ValidRegistrationModes, c.AdminRegistration) {
		return fmt.Errorf("invalid admin_registration value: %s", c.AdminRegistration)
	}
	if c.ListLimitMax < 0 {
		return fmt.Errorf("invalid list_limit_max value: %d", c.ListLimitMax)
	}
	if _, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel)); err != nil {
		return fmt.Errorf("invalid log_level value: %s", c.LogLevel)
	}
	if !contains(ValidDatabaseDrivers, c.DatabaseDriver) {
		return fmt.Errorf("invalid database_driver value: %s", c.DatabaseDriver)
	}
	return nil
}

// Attributes returns all configuration attributes with their values and sources
func (c *RegistrarConfig) Attributes() []Attribute {
	return []Attribute{
		{Name: "token_ttl", Value: strconv.Itoa(c.TokenTTLSeconds), Source: c.Source("token_ttl")},
		{Name: "bcrypt_cost", Value: strconv.Itoa(c.BcryptCost), Source: c.Source("bcrypt_cost")},
		{Name: "admin_registration", Value: c.AdminRegistration, Source: c.Source("admin_registration")},
		{Name: "cors_allowed_origins", Value: strings.Join(c.CORSAllowedOrigins, ","), Source: c.Source("cors_allowed_origins")},
		{Name: "list_limit_max", Value: strconv.Itoa(c.ListLimitMax), Source: c.Source("list_limit_max")},
		{Name: "log_level", Value: c.LogLevel, Source: c.Source("log_level")},
		{Name: "database_driver", Value: c.DatabaseDriver, Source: c.Source("database_driver")},
	}
}

// FormatText returns a text representation of the configuration
func (c *RegistrarConfig) FormatText() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Config file: %s\n\n", c.configFilePath))
	sb.WriteString(fmt.Sprintf("%-40s %-30s %s\n", "NAME", "VALUE", "SOURCE"))
	sb.WriteString(fmt.Sprintf("%-40s %-30s %s\n", "----", "-----", "------"))

	for _, attr := range c.Attributes() {
		value := attr.Value
		if value == "" {
			value = "(not set)"
		}
		sb.WriteString(fmt.Sprintf("%-40s %-30s %s\n", attr.Name, value, attr.Source))
	}
	return sb.String()
}

// FormatJSON returns a JSON representation of the configuration
func (c *RegistrarConfig) FormatJSON() (string, error) {
	result := map[string]interface{}{
		"config_file": c.configFilePath,
		"attributes":  c.Attributes(),
	}
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func splitAndTrim(s string) []string {
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
