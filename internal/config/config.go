// =============================================================================
// Invoice XML Exporter - Configuration Module
// =============================================================================
//
// This module is responsible for loading and validating the application
// configuration. A single YAML file holds every setting:
//
// CONFIGURATION SECTIONS:
//   1. api:      Billing API endpoint and credentials
//   2. supplier: Supplier identity written into every <Antet> block
//   3. export:   Chunking, VAT and lookup settings
//   4. server:   Web form listener
//   5. logging:  log_level / log_file at the top level
//
// ENVIRONMENT OVERRIDES:
//   UCRM_APP_KEY overrides api.app_key so the key can stay out of the file.
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// AppKeyEnv is the environment variable that overrides api.app_key.
const AppKeyEnv = "UCRM_APP_KEY"

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// MainConfig holds the global application configuration.
// This is loaded from the main config.yaml file.
type MainConfig struct {
	// API holds the billing API connection settings.
	API APIConfig `yaml:"api"`

	// Supplier is the identity of the issuing company.
	Supplier Supplier `yaml:"supplier"`

	// Export holds the export settings.
	Export ExportConfig `yaml:"export"`

	// Server holds the web form settings.
	Server ServerConfig `yaml:"server"`

	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	// LogFile is the path to the application log file.
	// Empty means log to stderr.
	LogFile string `yaml:"log_file"`

	// LogLevel controls the verbosity of logging.
	// Valid values: "debug", "info", "warn", "error"
	// Default: "info"
	LogLevel string `yaml:"log_level"`
}

// APIConfig holds the billing API settings.
type APIConfig struct {
	// URL is the API base URL, e.g. "https://billing.example.ro/api/v1.0".
	URL string `yaml:"url"`

	// AppKey is sent as the X-Auth-App-Key header.
	AppKey string `yaml:"app_key"`

	// Timeout bounds every API request.
	// Default: 30s
	Timeout time.Duration `yaml:"timeout"`
}

// =============================================================================
// SUPPLIER IDENTITY
// =============================================================================

// Supplier is the issuing company's identity. Every field is written verbatim
// into the <Antet> block of each invoice; none is derived from invoice data.
type Supplier struct {
	Name               string `yaml:"name"`
	TaxID              string `yaml:"tax_id"`
	RegistrationNumber string `yaml:"registration_number"`
	ShareCapital       string `yaml:"share_capital"`
	Address            string `yaml:"address"`
	Bank               string `yaml:"bank"`
	IBAN               string `yaml:"iban"`
	Info               string `yaml:"info"`
}

// DefaultSupplier returns the supplier identity used when the configuration
// file does not override it.
func DefaultSupplier() Supplier {
	return Supplier{
		Name:               "ZERO SAPTE SERVICES S.R.L",
		TaxID:              "RO45858226",
		RegistrationNumber: "J13/1003/2022",
		ShareCapital:       "200.00",
		Address:            "Navodari str. Bv Mamaia Nord nr. 6 bl. Centrul eAfaceri ap. 01-05 jud. CONSTANTA",
		Bank:               "Banca Comerciala Romana S.A.",
		IBAN:               "RO51 RNCB 0119 1723 6788 0001",
		Info:               "Tel. 0241700000 Email stefan@sel.ro",
	}
}

// FileCode returns the supplier tax id without the "RO" VAT prefix.
// It is the numeric code used in export file names.
func (s Supplier) FileCode() string {
	return strings.TrimPrefix(strings.TrimSpace(s.TaxID), "RO")
}

// =============================================================================
// EXPORT SETTINGS
// =============================================================================

// ExportConfig holds the settings of the XML export itself.
type ExportConfig struct {
	// ChunkSize is the maximum number of invoices per XML document.
	// Default: 100
	ChunkSize int `yaml:"chunk_size"`

	// StateCountryIDs lists the countries whose states are loaded for
	// address formatting. The billing platform only has states for Canada
	// and the USA.
	// Default: [54, 249]
	StateCountryIDs []int `yaml:"state_country_ids"`

	// VATRate is the VAT percentage applied when VAT is enabled.
	// Default: "19"
	VATRate string `yaml:"vat_rate"`

	// CacheClients enables the per-export client cache. When false each
	// invoice fetches its client from the API.
	// Default: false
	CacheClients bool `yaml:"cache_clients"`

	// OutputDir is where the export command writes documents.
	// Default: "./output"
	OutputDir string `yaml:"output_dir"`
}

// VAT returns the configured VAT rate as a decimal.
func (e ExportConfig) VAT() decimal.Decimal {
	return decimal.RequireFromString(e.VATRate)
}

// ServerConfig holds the web form settings.
type ServerConfig struct {
	// Listen is the TCP address of the web form.
	// Default: ":8080"
	Listen string `yaml:"listen"`

	// PublicURL is the billing platform's public URL, linked from the form.
	PublicURL string `yaml:"public_url"`
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// LoadMainConfig loads the main configuration from a YAML file.
//
// PARAMETERS:
//   - configPath: The path to the main configuration file.
//
// RETURNS:
//   - A pointer to the MainConfig struct.
//   - An error if the file cannot be read, parsed or validated.
func LoadMainConfig(configPath string) (*MainConfig, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return ParseMainConfig(data)
}

// ParseMainConfig parses, defaults and validates configuration bytes.
func ParseMainConfig(data []byte) (*MainConfig, error) {
	var config MainConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyEnvOverrides(&config)
	applyMainConfigDefaults(&config)

	if err := validateMainConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// Default returns a configuration with every default applied and no API URL.
func Default() *MainConfig {
	config := &MainConfig{}
	applyMainConfigDefaults(config)
	return config
}

// applyEnvOverrides copies environment settings over file settings.
func applyEnvOverrides(config *MainConfig) {
	if key := os.Getenv(AppKeyEnv); key != "" {
		config.API.AppKey = key
	}
}

// applyMainConfigDefaults sets default values for any unset configuration options.
func applyMainConfigDefaults(config *MainConfig) {
	if config.API.Timeout == 0 {
		config.API.Timeout = 30 * time.Second
	}

	// Supplier fields default one by one so a file can override a single
	// field (e.g. a new IBAN) without restating the rest.
	defaults := DefaultSupplier()
	s := &config.Supplier
	setDefault(&s.Name, defaults.Name)
	setDefault(&s.TaxID, defaults.TaxID)
	setDefault(&s.RegistrationNumber, defaults.RegistrationNumber)
	setDefault(&s.ShareCapital, defaults.ShareCapital)
	setDefault(&s.Address, defaults.Address)
	setDefault(&s.Bank, defaults.Bank)
	setDefault(&s.IBAN, defaults.IBAN)
	setDefault(&s.Info, defaults.Info)

	if config.Export.ChunkSize == 0 {
		config.Export.ChunkSize = 100
	}
	if config.Export.StateCountryIDs == nil {
		config.Export.StateCountryIDs = []int{54, 249}
	}
	setDefault(&config.Export.VATRate, "19")
	setDefault(&config.Export.OutputDir, "./output")

	setDefault(&config.Server.Listen, ":8080")
	setDefault(&config.LogLevel, "info")
}

func setDefault(field *string, value string) {
	if *field == "" {
		*field = value
	}
}

// validateMainConfig validates the main configuration.
func validateMainConfig(config *MainConfig) error {
	if config.API.URL != "" && !strings.HasPrefix(config.API.URL, "http://") && !strings.HasPrefix(config.API.URL, "https://") {
		return fmt.Errorf("%w: api.url must be an http(s) URL, got %q", ErrInvalidConfig, config.API.URL)
	}

	if config.Export.ChunkSize < 0 {
		return fmt.Errorf("%w: export.chunk_size must be positive, got %d", ErrInvalidConfig, config.Export.ChunkSize)
	}

	rate, err := decimal.NewFromString(config.Export.VATRate)
	if err != nil {
		return fmt.Errorf("%w: export.vat_rate: %v", ErrInvalidConfig, err)
	}
	if rate.IsNegative() {
		return fmt.Errorf("%w: export.vat_rate must not be negative", ErrInvalidConfig)
	}

	if config.Supplier.FileCode() == "" {
		return fmt.Errorf("%w: supplier.tax_id is required", ErrInvalidConfig)
	}

	switch strings.ToLower(config.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("%w: unknown log_level %q", ErrInvalidConfig, config.LogLevel)
	}

	return nil
}
