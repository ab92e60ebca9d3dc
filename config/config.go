package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DefaultICSPublicURL is where the invite is hosted when nothing else is configured.
const DefaultICSPublicURL = "https://raw.githubusercontent.com/NMRschool/webinar/main/nmrschool_webinar.ics"

// DefaultSubject is the confirmation email subject when MAIL_SUBJECT is unset.
const DefaultSubject = "Tu acceso — Webinar NMR School (Desacoplamiento en RMN)"

// Config holds application configuration loaded from environment.
type Config struct {
	Server   ServerConfig
	Store    StoreConfig
	Template TemplateConfig
	Email    EmailConfig
	AWS      AWSConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port               string
	ReadTimeout        int
	WriteTimeout       int
	CORSAllowedOrigins string // comma-separated, or "*" for all
	StaticDir          string // served for unmatched routes when it exists
}

// StoreConfig selects where registrations are kept.
type StoreConfig struct {
	Backend     string // "file" or "postgres"
	DataFile    string
	DatabaseURL string
}

// TemplateConfig locates the confirmation email template and the public invite.
type TemplateConfig struct {
	Path         string
	ICSPublicURL string // empty means: publish to S3 if configured, else DefaultICSPublicURL
}

// EmailConfig holds delivery settings for both backends.
type EmailConfig struct {
	FromAddress    string
	FromName       string
	Bcc            []string
	Subject        string
	Backend        string // "auto", "smtp" or "brevo"
	DeliveryPolicy string // "resilient" or "strict"
	Timeout        time.Duration
	SMTPHost       string
	SMTPUser       string
	SMTPPass       string
	BrevoAPIKey    string
	BrevoAPIURL    string
}

// AWSConfig holds credentials and the bucket used to publish the invite.
type AWSConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	CalendarKey     string
}

// HasSMTP reports whether SMTP credentials are present.
func (c EmailConfig) HasSMTP() bool { return c.SMTPUser != "" && c.SMTPPass != "" }

// HasBrevo reports whether the Brevo API key is present.
func (c EmailConfig) HasBrevo() bool { return c.BrevoAPIKey != "" }

// Load reads configuration from environment, with optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()      // .env
	_ = godotenv.Load("env") // env (no leading dot)

	smtpUser := getEnv("SMTP_USER", "")
	cfg := &Config{
		Server: ServerConfig{
			Port:               getEnv("PORT", "4000"),
			ReadTimeout:        getEnvInt("READ_TIMEOUT_SEC", 30),
			WriteTimeout:       getEnvInt("WRITE_TIMEOUT_SEC", 60),
			CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "https://nmrschool.github.io"),
			StaticDir:          getEnv("STATIC_DIR", "public"),
		},
		Store: StoreConfig{
			Backend:     strings.ToLower(getEnv("RECORD_STORE", "file")),
			DataFile:    getEnv("DATA_FILE", "data/registrants.json"),
			DatabaseURL: getEnv("DATABASE_URL", ""),
		},
		Template: TemplateConfig{
			Path:         getEnv("NMR_TPL_PATH", "templates/correo_ticket.html"),
			ICSPublicURL: getEnv("ICS_PUBLIC_URL", ""),
		},
		Email: EmailConfig{
			FromAddress:    getEnv("MAIL_FROM", smtpUser),
			FromName:       getEnv("MAIL_FROM_NAME", "LatAm NMR School"),
			Bcc:            splitTrim(getEnv("MAIL_BCC", ""), ","),
			Subject:        getEnv("MAIL_SUBJECT", DefaultSubject),
			Backend:        strings.ToLower(getEnv("MAIL_BACKEND", "auto")),
			DeliveryPolicy: strings.ToLower(getEnv("MAIL_DELIVERY_POLICY", "resilient")),
			Timeout:        time.Duration(getEnvInt("MAIL_TIMEOUT_SEC", 20)) * time.Second,
			SMTPHost:       getEnv("SMTP_HOST", "smtp.gmail.com"),
			SMTPUser:       smtpUser,
			SMTPPass:       getEnv("SMTP_PASS", ""),
			BrevoAPIKey:    getEnv("BREVO_API_KEY", ""),
			BrevoAPIURL:    getEnv("BREVO_API_URL", ""),
		},
		AWS: AWSConfig{
			Region:          getEnv("AWS_REGION", "us-east-1"),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			Bucket:          getEnv("ICS_S3_BUCKET", ""),
			CalendarKey:     getEnv("ICS_S3_KEY", ""),
		},
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects unknown enum values.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case "file":
	case "postgres":
		if c.Store.DatabaseURL == "" {
			return fmt.Errorf("RECORD_STORE=postgres requires DATABASE_URL")
		}
	default:
		return fmt.Errorf("invalid RECORD_STORE %q (want file or postgres)", c.Store.Backend)
	}
	switch c.Email.Backend {
	case "auto", "smtp", "brevo":
	default:
		return fmt.Errorf("invalid MAIL_BACKEND %q (want auto, smtp or brevo)", c.Email.Backend)
	}
	switch c.Email.DeliveryPolicy {
	case "resilient", "strict":
	default:
		return fmt.Errorf("invalid MAIL_DELIVERY_POLICY %q (want resilient or strict)", c.Email.DeliveryPolicy)
	}
	return nil
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func splitTrim(s, sep string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, v := range strings.Split(s, sep) {
		if t := strings.TrimSpace(v); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
