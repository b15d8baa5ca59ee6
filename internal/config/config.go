package config

import (
	"fmt"
	"log"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Port                       string   `mapstructure:"PORT"`
	Env                        string   `mapstructure:"ENV"`
	AuthMode                   string   `mapstructure:"AUTH_MODE"`
	AuthSigningKey             string   `mapstructure:"AUTH_SIGNING_KEY"`
	AuthIssuer                 string   `mapstructure:"AUTH_ISSUER"`
	CORSOrigins                []string `mapstructure:"CORS_ORIGINS"`
	BodyLimit                  string   `mapstructure:"BODY_LIMIT"`
	DemoData                   bool     `mapstructure:"DEMO_DATA"`
	MetricsEnabled             bool     `mapstructure:"METRICS_ENABLED"`
	HospitalName               string   `mapstructure:"HOSPITAL_NAME"`
	HospitalAddress            string   `mapstructure:"HOSPITAL_ADDRESS"`
	HospitalPhone              string   `mapstructure:"HOSPITAL_PHONE"`
	EmergencyConsultationPrice float64  `mapstructure:"EMERGENCY_CONSULTATION_PRICE"`
	EmergencyAnalysisPrice     float64  `mapstructure:"EMERGENCY_ANALYSIS_PRICE"`
}

var keys = []string{
	"PORT", "ENV", "AUTH_MODE", "AUTH_SIGNING_KEY", "AUTH_ISSUER",
	"CORS_ORIGINS", "BODY_LIMIT", "DEMO_DATA", "METRICS_ENABLED",
	"HOSPITAL_NAME", "HOSPITAL_ADDRESS", "HOSPITAL_PHONE",
	"EMERGENCY_CONSULTATION_PRICE", "EMERGENCY_ANALYSIS_PRICE",
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("AUTH_MODE", "") // "" -> inferred from ENV
	v.SetDefault("AUTH_ISSUER", "hms")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("BODY_LIMIT", "1M")
	v.SetDefault("DEMO_DATA", true)
	v.SetDefault("METRICS_ENABLED", true)
	v.SetDefault("HOSPITAL_NAME", "Hôpital Saint-Luc")
	v.SetDefault("EMERGENCY_CONSULTATION_PRICE", 800)
	v.SetDefault("EMERGENCY_ANALYSIS_PRICE", 500)

	// Bind env vars explicitly so Unmarshal picks them up
	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if len(cfg.CORSOrigins) <= 1 {
		if origins := v.GetString("CORS_ORIGINS"); origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
		}
	}

	if cfg.IsDev() {
		log.Println("WARNING: Server is running in DEVELOPMENT mode (ENV=development).")
		log.Println("WARNING: requests without a token run as admin; X-Staff-Role picks another role.")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// ResolvedAuthMode returns AUTH_MODE when set, otherwise "development" in
// development and "jwt" everywhere else.
func (c *Config) ResolvedAuthMode() string {
	if c.AuthMode != "" {
		return c.AuthMode
	}
	if c.IsDev() {
		return "development"
	}
	return "jwt"
}

// Validate checks that the configuration is safe to run.
func (c *Config) Validate() error {
	mode := c.ResolvedAuthMode()
	if mode != "development" && mode != "jwt" {
		return fmt.Errorf("AUTH_MODE must be \"development\" or \"jwt\", got %q", mode)
	}
	if mode == "jwt" && len(c.AuthSigningKey) < 32 {
		return fmt.Errorf("AUTH_SIGNING_KEY must be at least 32 characters when AUTH_MODE is \"jwt\"")
	}
	if c.EmergencyConsultationPrice <= 0 || c.EmergencyAnalysisPrice <= 0 {
		return fmt.Errorf("emergency prices must be greater than zero")
	}
	if strings.TrimSpace(c.HospitalName) == "" {
		return fmt.Errorf("HOSPITAL_NAME is required")
	}
	return nil
}
