package app

import (
	"net/http"
	"os"
	"slices"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Config holds the service configuration, loadable from CATALOG_ environment
// variables, flags, or YAML config files.
type Config struct {
	Addr      string `default:"0.0.0.0:8080" usage:"API server listen address"`
	Source    SourceConfig
	Inquiry   InquiryConfig
	Session   SessionConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
	Graceful  GracefulConfig
}

// SourceConfig selects where the catalog is loaded from. Exactly one of
// File, URL and DatabaseURL must be set.
type SourceConfig struct {
	File        string        `usage:"Catalog feed file (.json or .json.gz)" flag:"catalog-file"`
	URL         string        `usage:"Catalog feed HTTP endpoint" flag:"catalog-url"`
	DatabaseURL string        `usage:"PostgreSQL connection URL (CATALOG_SOURCE_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	Watch       bool          `default:"true" usage:"Reload the feed file when it changes"`
	Debounce    time.Duration `default:"250ms" usage:"Quiet period before a file change triggers a reload"`
	Refresh     time.Duration `default:"5m" usage:"Reload interval for URL and database sources; 0 disables"`
	Timeout     time.Duration `default:"10s" usage:"Timeout of one catalog fetch"`
}

// InquiryConfig configures the outbound inquiry link.
type InquiryConfig struct {
	BaseURL  string `default:"https://wa.me/+919790813661" usage:"Messaging endpoint for inquiries" flag:"inquiry-url"`
	Currency string `default:"₹" usage:"Currency symbol shown with prices"`
}

// SessionConfig controls per-visitor UI state. The defaults assume the
// frontend is served from the same site as the API.
type SessionConfig struct {
	TTL          time.Duration `default:"30m" usage:"Idle session lifetime"`
	CookieSecure bool          `default:"false" usage:"Mark the session cookie Secure" flag:"cookie-secure"`
	CrossSite    bool          `default:"false" usage:"Send the session cookie with SameSite=None for a frontend on another site; requires cookie-secure, cors-credentials and explicit CORS origins" flag:"cookie-cross-site"`
}

func (c SessionConfig) sameSite() http.SameSite {
	if c.CrossSite {
		return http.SameSiteNoneMode
	}
	return http.SameSiteLaxMode
}

// RateLimitConfig controls the per-client rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"120" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers. With the
// defaults any origin may read the API, but browsers do not send the session
// cookie cross-origin, so per-visitor state only works same-origin.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins; list them explicitly when cors-credentials is set"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (the session cookie) from the listed origins" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig reads the configuration from the environment and config files.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "CATALOG",
		Files:     []string{"config.yaml", "/etc/catalog/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that exactly one catalog source is configured and that the
// session cookie settings can work together with CORS.
func (c *Config) Validate() error {
	if err := c.validateSource(); err != nil {
		return err
	}
	return c.validateCrossOrigin()
}

func (c *Config) validateCrossOrigin() error {
	explicit := len(c.CORS.Origins) > 0 && !slices.Contains(c.CORS.Origins, "*")
	if c.CORS.AllowCredentials && !explicit {
		return errors.New("cors credentials require explicit origins")
	}
	if !c.Session.CrossSite {
		return nil
	}
	switch {
	case !c.Session.CookieSecure:
		return errors.New("cross-site session cookie requires cookie-secure")
	case !c.CORS.AllowCredentials:
		return errors.New("cross-site session cookie requires cors-credentials")
	}
	return nil
}

func (c *Config) validateSource() error {
	n := 0
	for _, s := range []string{c.Source.File, c.Source.URL, c.Source.DatabaseURL} {
		if s != "" {
			n++
		}
	}
	switch n {
	case 0:
		return errors.New("catalog source is required: set CATALOG_SOURCE_FILE, CATALOG_SOURCE_URL or DATABASE_URL")
	case 1:
		return nil
	default:
		return errors.New("only one catalog source may be configured")
	}
}

// applyPlatformDefaults maps the conventional DATABASE_URL and PORT
// variables onto the configuration.
func (c *Config) applyPlatformDefaults() {
	if c.Source.DatabaseURL == "" && c.Source.File == "" && c.Source.URL == "" {
		c.Source.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}
