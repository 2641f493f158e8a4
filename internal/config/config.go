package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config represents the full application configuration surface.
type Config struct {
	Server  ServerConfig
	Odoo    OdooConfig
	Sheets  SheetsConfig
	Recon   ReconConfig
	MongoDB MongoDBConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port string
}

// OdooConfig contains credentials and options for the Odoo JSON-RPC API.
type OdooConfig struct {
	URL       string
	Database  string
	Username  string
	Password  string
	CompanyID int64
}

// SheetsConfig contains configuration required to read the inventory extract
// from Google Sheets.
type SheetsConfig struct {
	CredentialsPath    string
	SpreadsheetID      string
	CurrentStockSheet  string
	CategoryStockSheet string
}

// ReconConfig holds reconciliation tolerances and scheduler settings.
type ReconConfig struct {
	PriceTolerance float64
	StockTolerance float64
	CronSchedule   string
	Timezone       string
}

// MongoDBConfig holds settings for the optional run-history store.
type MongoDBConfig struct {
	URI    string
	DBName string
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// Ignore the returned error here; missing .env files are acceptable when
		// configuration comes from the environment directly.
		_ = godotenv.Load()
	}

	companyID, err := getenvInt64("ODOO_COMPANY_ID", 1)
	if err != nil {
		return nil, err
	}

	priceTol, err := getenvFloat("PRICE_TOLERANCE", 0.01)
	if err != nil {
		return nil, err
	}

	stockTol, err := getenvFloat("STOCK_TOLERANCE", 1e-6)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getenvWithDefault("APP_PORT", "8080"),
		},
		Odoo: OdooConfig{
			URL:       os.Getenv("ODOO_URL"),
			Database:  os.Getenv("ODOO_DB"),
			Username:  os.Getenv("ODOO_USERNAME"),
			Password:  os.Getenv("ODOO_PASSWORD"),
			CompanyID: companyID,
		},
		Sheets: SheetsConfig{
			CredentialsPath:    os.Getenv("SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:      os.Getenv("SHEETS_SPREADSHEET_ID"),
			CurrentStockSheet:  getenvWithDefault("CURRENT_STOCK_SHEET", "Stock actual"),
			CategoryStockSheet: getenvWithDefault("CATEGORY_STOCK_SHEET", "Stock categoria"),
		},
		Recon: ReconConfig{
			PriceTolerance: priceTol,
			StockTolerance: stockTol,
			CronSchedule:   os.Getenv("RECON_CRON_SCHEDULE"),
			Timezone:       getenvWithDefault("TIMEZONE", "America/Santiago"),
		},
		MongoDB: MongoDBConfig{
			URI:    os.Getenv("MONGODB_URI"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "stocksync"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	switch {
	case c.Odoo.URL == "":
		return errors.New("ODOO_URL must be provided")
	case c.Odoo.Database == "":
		return errors.New("ODOO_DB must be provided")
	case c.Odoo.Username == "":
		return errors.New("ODOO_USERNAME must be provided")
	case c.Odoo.Password == "":
		return errors.New("ODOO_PASSWORD must be provided")
	}

	if c.Odoo.CompanyID <= 0 {
		return errors.New("ODOO_COMPANY_ID must be positive")
	}

	if c.Sheets.CredentialsPath == "" {
		return errors.New("SHEETS_CREDENTIALS_PATH must be provided")
	}

	if c.Sheets.SpreadsheetID == "" {
		return errors.New("SHEETS_SPREADSHEET_ID must be provided")
	}

	if c.Recon.PriceTolerance < 0 {
		return errors.New("PRICE_TOLERANCE must not be negative")
	}

	if c.Recon.StockTolerance < 0 {
		return errors.New("STOCK_TOLERANCE must not be negative")
	}

	// MONGODB_URI and RECON_CRON_SCHEDULE are optional: without them the
	// run-history store and the scheduled pass stay disabled.

	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getenvFloat(key string, fallback float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be numeric: %w", key, err)
	}
	return parsed, nil
}

func getenvInt64(key string, fallback int64) (int64, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return parsed, nil
}
