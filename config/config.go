package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	ListenAddr    string
	FrontendDir   string
	LogPath       string
	DownloadDir   string
	SessionTTL    time.Duration
	DefaultLayout string
	MaxBrowsers   int
	JanitorCron   string
	JanitorMaxAge time.Duration

	Credentials CredentialsConfig
	S3          S3Config
	Site        *SiteConfig
}

type CredentialsConfig struct {
	Email    string
	Password string
}

type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string // optional, for DO Spaces / R2
	AccessKeyID     string
	SecretAccessKey string
}

// SiteConfig describes the one target listing-management application. Kept in
// YAML so selector ladders and markers can be adjusted without a rebuild.
type SiteConfig struct {
	ID                string   `yaml:"id"`
	Name              string   `yaml:"name"`
	BaseURL           string   `yaml:"base_url"`
	LoginURL          string   `yaml:"login_url"`
	IdentityCheckURL  string   `yaml:"identity_check_url"`
	CDNOrigin         string   `yaml:"cdn_origin"`
	ResizedMarker     string   `yaml:"resized_marker"`
	AdminPrefix       string   `yaml:"admin_prefix"`
	LoginRoute        string   `yaml:"login_route"`
	AuthMarkers       []string `yaml:"auth_markers"`
	FailureMarkers    []string `yaml:"failure_markers"`
	EmailSelectors    []string `yaml:"email_selectors"`
	PasswordSelectors []string `yaml:"password_selectors"`
	SubmitSelectors   []string `yaml:"submit_selectors"`
	LoginWaitMS       int      `yaml:"login_wait_ms"`
	PageLoadWaitMS    int      `yaml:"page_load_wait_ms"`
	ScrollPasses      int      `yaml:"scroll_passes"`
	Headless          bool     `yaml:"headless"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		ListenAddr:    getEnv("LISTEN_ADDR", ":8000"),
		FrontendDir:   getEnv("FRONTEND_DIR", "frontend/build"),
		LogPath:       getEnv("LOG_PATH", "propshot.log"),
		DownloadDir:   getEnv("DOWNLOAD_DIR", "downloads"),
		DefaultLayout: getEnv("DEFAULT_LAYOUT", "fullbleed"),
		MaxBrowsers:   getEnvInt("MAX_BROWSERS", 2),
		JanitorCron:   getEnv("JANITOR_CRON", "17 * * * *"),
		JanitorMaxAge: 24 * time.Hour,
		SessionTTL:    2 * time.Hour,
		Credentials: CredentialsConfig{
			Email:    os.Getenv("SITE_EMAIL"),
			Password: os.Getenv("SITE_PASSWORD"),
		},
		S3: S3Config{
			Bucket:          os.Getenv("S3_BUCKET"),
			Region:          getEnv("S3_REGION", "us-east-1"),
			Endpoint:        os.Getenv("S3_ENDPOINT"),
			AccessKeyID:     os.Getenv("S3_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("S3_SECRET_ACCESS_KEY"),
		},
	}

	if ttl := os.Getenv("SESSION_TTL"); ttl != "" {
		d, err := time.ParseDuration(ttl)
		if err == nil {
			cfg.SessionTTL = d
		}
	}
	if age := os.Getenv("JANITOR_MAX_AGE"); age != "" {
		d, err := time.ParseDuration(age)
		if err == nil {
			cfg.JanitorMaxAge = d
		}
	}

	site, err := loadSiteConfig(getEnv("SITE_CONFIG", "config/sites/aryeo.yaml"))
	if err != nil {
		return nil, err
	}
	cfg.Site = site

	if err := os.MkdirAll(cfg.DownloadDir, 0755); err != nil {
		return nil, fmt.Errorf("create download dir: %w", err)
	}

	return cfg, nil
}

func loadSiteConfig(path string) (*SiteConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultSite(), nil
		}
		return nil, fmt.Errorf("read site config %s: %w", path, err)
	}

	site := DefaultSite()
	if err := yaml.Unmarshal(data, site); err != nil {
		return nil, fmt.Errorf("parse site config %s: %w", filepath.Base(path), err)
	}
	return site, nil
}

// DefaultSite returns the built-in Aryeo profile.
func DefaultSite() *SiteConfig {
	return &SiteConfig{
		ID:               "aryeo",
		Name:             "Aryeo",
		BaseURL:          "https://app.aryeo.com",
		LoginURL:         "https://app.aryeo.com/login",
		IdentityCheckURL: "https://api.aryeo.com/v1/auth/email-check",
		CDNOrigin:        "https://cdn.aryeo.com",
		ResizedMarker:    "/resized/",
		AdminPrefix:      "/admin",
		LoginRoute:       "/login",
		AuthMarkers:      []string{"dashboard", "logout", "profile", "settings", "listings"},
		FailureMarkers:   []string{"invalid", "incorrect", "expired"},
		EmailSelectors: []string{
			"input[name='email']",
			"#email",
			"#Emailaddress",
			"input[type='email']",
			"input[placeholder*='email' i]",
		},
		PasswordSelectors: []string{
			"input[name='password']",
			"#password",
			"#Password",
			"input[type='password']",
			"input[placeholder*='password' i]",
			"[name*='pass']",
			"[id*='pass']",
		},
		SubmitSelectors: []string{
			"button[type='submit']",
			"input[type='submit']",
			"button:has-text('Login')",
			"button:has-text('Sign in')",
			"button:has-text('Log in')",
			"form button",
		},
		LoginWaitMS:    15000,
		PageLoadWaitMS: 5000,
		ScrollPasses:   3,
		Headless:       true,
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}
