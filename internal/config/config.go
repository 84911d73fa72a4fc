package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURI    string
	Port           string
	JWTSecret      string
	AllowedOrigins []string
	DefaultUserID  string

	// SupportedYear bounds ingestion: transactions dated outside this
	// calendar year are dropped.
	SupportedYear int

	Teller TellerConfig

	// Instruments maps an instrument name (e.g. "Freedom") to its upstream
	// account id.
	Instruments map[string]string

	// MonthReturns maps calendar month (1-12) to the Return batch that
	// collects parents-monthly spending for that month. Validated for all
	// twelve entries at load time.
	MonthReturns map[int]string
}

type TellerConfig struct {
	BaseURL       string
	AccessToken   string
	CertFile      string
	KeyFile       string
	ApplicationID string
	Environment   string
}

var monthEnvKeys = [12]string{
	"JAN_RETURNID", "FEB_RETURNID", "MAR_RETURNID", "APR_RETURNID",
	"MAY_RETURNID", "JUN_RETURNID", "JUL_RETURNID", "AUG_RETURNID",
	"SEP_RETURNID", "OCT_RETURNID", "NOV_RETURNID", "DEC_RETURNID",
}

// instrumentEnvKeys maps instrument name to the env var holding its upstream
// account id. Instruments without a configured account are skipped.
var instrumentEnvKeys = map[string]string{
	"Amazon Visa":       "AMAZON_VISA_ID",
	"Chase College":     "CHASE_COLLEGE_ID",
	"Freedom Flex":      "FREEDOM_FLEX_ID",
	"Sapphire Reserve":  "SAPPHIRE_RESERVE_ID",
	"Freedom":           "FREEDOM_ID",
	"Freedom Unlimited": "FREEDOM_UNLIMITED_ID",
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		// .env file is optional in production
	}

	year, err := strconv.Atoi(getEnvOrDefault("SUPPORTED_YEAR", "2025"))
	if err != nil {
		return nil, fmt.Errorf("invalid SUPPORTED_YEAR: %w", err)
	}

	monthReturns, err := loadMonthReturns(os.Getenv)
	if err != nil {
		return nil, err
	}

	instruments := make(map[string]string)
	for name, key := range instrumentEnvKeys {
		if id := os.Getenv(key); id != "" {
			instruments[name] = id
		}
	}

	var origins []string
	if raw := os.Getenv("ALLOWED_ORIGINS"); raw != "" {
		for _, o := range strings.Split(raw, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
	}

	return &Config{
		DatabaseURI:    os.Getenv("DATABASE_URI"),
		Port:           getEnvOrDefault("PORT", "5000"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		AllowedOrigins: origins,
		DefaultUserID:  os.Getenv("DEFAULT_USER_ID"),
		SupportedYear:  year,
		Teller: TellerConfig{
			BaseURL:       getEnvOrDefault("TELLER_BASE_URL", "https://api.teller.io"),
			AccessToken:   os.Getenv("TELLER_ACCESS_TOKEN"),
			CertFile:      os.Getenv("TELLER_CERT_FILE"),
			KeyFile:       os.Getenv("TELLER_KEY_FILE"),
			ApplicationID: os.Getenv("TELLER_APPLICATION_ID"),
			Environment:   getEnvOrDefault("TELLER_ENV", "sandbox"),
		},
		Instruments:  instruments,
		MonthReturns: monthReturns,
	}, nil
}

// loadMonthReturns builds the month table and rejects incomplete
// configuration: a missing month would silently drop reimbursable spending.
func loadMonthReturns(getenv func(string) string) (map[int]string, error) {
	table := make(map[int]string, 12)
	var missing []string
	for i, key := range monthEnvKeys {
		id := getenv(key)
		if id == "" {
			missing = append(missing, key)
			continue
		}
		table[i+1] = id
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("month return table incomplete, missing: %s", strings.Join(missing, ", "))
	}
	return table, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
