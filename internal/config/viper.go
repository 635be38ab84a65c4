// Package config provides Viper-based hierarchical configuration: built-in
// defaults, then an optional config.yaml, then STMT_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. STMT_LOG_LEVEL.
const EnvPrefix = "STMT"

// Config represents the complete application configuration.
type Config struct {
	Log struct {
		Level  string `mapstructure:"level" yaml:"level"`
		Format string `mapstructure:"format" yaml:"format"`
	} `mapstructure:"log" yaml:"log"`

	Structure struct {
		HeaderScanLines int     `mapstructure:"header_scan_lines" yaml:"header_scan_lines"`
		LowYieldRatio   float64 `mapstructure:"low_yield_ratio" yaml:"low_yield_ratio"`
	} `mapstructure:"structure" yaml:"structure"`

	PDF struct {
		Backend      string        `mapstructure:"backend" yaml:"backend"`
		LoadTimeout  time.Duration `mapstructure:"load_timeout" yaml:"load_timeout"`
		MinAmount    float64       `mapstructure:"min_amount" yaml:"min_amount"`
		MaxAmount    float64       `mapstructure:"max_amount" yaml:"max_amount"`
		Merchants    []string      `mapstructure:"merchants" yaml:"merchants"`
		IssuerTokens []string      `mapstructure:"issuer_tokens" yaml:"issuer_tokens"`
	} `mapstructure:"pdf" yaml:"pdf"`

	Excel struct {
		MaxRows         int      `mapstructure:"max_rows" yaml:"max_rows"`
		PreferredSheets []string `mapstructure:"preferred_sheets" yaml:"preferred_sheets"`
	} `mapstructure:"excel" yaml:"excel"`

	Output struct {
		Format    string `mapstructure:"format" yaml:"format"`
		Delimiter string `mapstructure:"delimiter" yaml:"delimiter"`
		Currency  string `mapstructure:"currency" yaml:"currency"`
	} `mapstructure:"output" yaml:"output"`
}

// PDF text layer backends.
const (
	BackendAuto      = "auto"
	BackendNative    = "native"
	BackendPdftotext = "pdftotext"
)

// DefaultMerchants are recurring merchant names searched for in PDF statements
// when the generic row patterns miss a line.
var DefaultMerchants = []string{
	"UBER", "99APP", "IFOOD", "RAPPI", "NETFLIX", "SPOTIFY", "AMAZON", "MERCADOLIVRE",
	"MERCADO LIVRE", "APPLE.COM", "GOOGLE", "PAYPAL", "SHOPEE", "AIRBNB", "DISNEY",
}

// DefaultIssuerTokens identify a card issuer's monthly statement.
var DefaultIssuerTokens = []string{
	"fatura", "resumo da fatura", "vencimento", "limite disponivel", "pagamento minimo",
	"nubank", "nu pagamentos", "monthly statement", "minimum payment", "payment due",
}

// InitializeConfig loads the configuration from defaults, config file and environment.
func InitializeConfig() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("$HOME/.statement-import")
	v.AddConfigPath(".statement-import")
	v.AddConfigPath(".")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file %s: %w", v.ConfigFileUsed(), err)
		}
	}

	return unmarshal(v)
}

// DefaultConfig returns the built-in defaults without reading files or environment.
func DefaultConfig() *Config {
	v := viper.New()
	setDefaults(v)
	cfg, err := unmarshal(v)
	if err != nil {
		panic(fmt.Sprintf("built-in configuration is invalid: %v", err))
	}
	return cfg
}

func unmarshal(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("structure.header_scan_lines", 15)
	v.SetDefault("structure.low_yield_ratio", 0.5)

	v.SetDefault("pdf.backend", BackendAuto)
	v.SetDefault("pdf.load_timeout", 5*time.Second)
	v.SetDefault("pdf.min_amount", 0.01)
	v.SetDefault("pdf.max_amount", 50000.0)
	v.SetDefault("pdf.merchants", DefaultMerchants)
	v.SetDefault("pdf.issuer_tokens", DefaultIssuerTokens)

	v.SetDefault("excel.max_rows", 10000)
	v.SetDefault("excel.preferred_sheets", []string{"extrato", "movimentacoes", "lancamentos", "transactions", "statement"})

	v.SetDefault("output.format", "json")
	v.SetDefault("output.delimiter", ",")
	v.SetDefault("output.currency", "BRL")
}

func validateConfig(config *Config) error {
	if _, err := logrus.ParseLevel(config.Log.Level); err != nil {
		return fmt.Errorf("invalid log level: %s", config.Log.Level)
	}
	if config.Log.Format != "text" && config.Log.Format != "json" {
		return fmt.Errorf("invalid log format: %s (must be 'text' or 'json')", config.Log.Format)
	}

	if config.Structure.HeaderScanLines < 1 || config.Structure.HeaderScanLines > 50 {
		return fmt.Errorf("structure.header_scan_lines must be between 1 and 50, got: %d", config.Structure.HeaderScanLines)
	}
	if config.Structure.LowYieldRatio < 0 || config.Structure.LowYieldRatio > 1 {
		return fmt.Errorf("structure.low_yield_ratio must be between 0 and 1, got: %f", config.Structure.LowYieldRatio)
	}

	switch config.PDF.Backend {
	case BackendAuto, BackendNative, BackendPdftotext:
	default:
		return fmt.Errorf("invalid pdf backend: %s (must be 'auto', 'native' or 'pdftotext')", config.PDF.Backend)
	}
	if config.PDF.LoadTimeout <= 0 {
		return fmt.Errorf("pdf.load_timeout must be positive, got: %s", config.PDF.LoadTimeout)
	}
	if config.PDF.MinAmount <= 0 || config.PDF.MaxAmount <= config.PDF.MinAmount {
		return fmt.Errorf("pdf amount range is invalid: [%f, %f]", config.PDF.MinAmount, config.PDF.MaxAmount)
	}

	if config.Excel.MaxRows < 1 {
		return fmt.Errorf("excel.max_rows must be positive, got: %d", config.Excel.MaxRows)
	}

	switch config.Output.Format {
	case "json", "yaml", "csv":
	default:
		return fmt.Errorf("invalid output format: %s (must be 'json', 'yaml' or 'csv')", config.Output.Format)
	}
	if len([]rune(config.Output.Delimiter)) != 1 {
		return fmt.Errorf("output delimiter must be a single character, got: %s", config.Output.Delimiter)
	}
	return nil
}

// LoadEnv loads a .env file from the working directory or its parent, if any.
func LoadEnv() {
	for _, candidate := range []string{".env", filepath.Join("..", ".env")} {
		if _, err := os.Stat(candidate); err == nil {
			_ = godotenv.Load(candidate)
			return
		}
	}
}

// ConfigureLoggingFromConfig builds a logrus logger from the log section.
func ConfigureLoggingFromConfig(config *Config) *logrus.Logger {
	logger := logrus.New()

	logLevel, err := logrus.ParseLevel(strings.ToLower(config.Log.Level))
	if err != nil {
		logger.Warnf("Invalid log level '%s', using 'info'", config.Log.Level)
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	if strings.ToLower(config.Log.Format) == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	return logger
}
