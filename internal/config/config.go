package config

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"storefront-be/internal/pricing"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const EnvPrefix = "STOREFRONT"

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
)

type Config struct {
	App      AppConfig
	DB       DBConfig
	Redis    RedisConfig
	Paystack PaystackConfig
	JWT      JWTConfig
	Admin    AdminConfig
	SMTP     SMTPConfig
	Pricing  PricingConfig
}

// Load reads an optional .env file, then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if _, err := cfg.Pricing.EngineConfig(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadDB reads only the database settings, for tools that do not need
// the rest of the application config.
func LoadDB() (*DBConfig, error) {
	_ = godotenv.Load()

	var db DBConfig
	if err := envconfig.Process(EnvPrefix, &db); err != nil {
		return nil, fmt.Errorf("parsing db config: %w", err)
	}
	if err := db.ensureDSN(); err != nil {
		return nil, err
	}
	return &db, nil
}

type AppConfig struct {
	Env        string `envconfig:"STOREFRONT_APP_ENV" default:"development"`
	Port       string `envconfig:"STOREFRONT_APP_PORT" default:"8080"`
	CORSOrigin string `envconfig:"STOREFRONT_CORS_ORIGIN" default:"*"`
	// InternalKey grants the internal rate-limit tier via X-Service-Auth.
	InternalKey     string        `envconfig:"STOREFRONT_INTERNAL_SERVICE_KEY"`
	ShutdownTimeout time.Duration `envconfig:"STOREFRONT_SHUTDOWN_TIMEOUT" default:"15s"`
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, "production")
}

type DBConfig struct {
	Driver string `envconfig:"STOREFRONT_DB_DRIVER" default:"postgres"`
	DSN    string `envconfig:"STOREFRONT_DB_DSN"`

	Host     string `envconfig:"STOREFRONT_DB_HOST"`
	Port     int    `envconfig:"STOREFRONT_DB_PORT" default:"5432"`
	User     string `envconfig:"STOREFRONT_DB_USER"`
	Password string `envconfig:"STOREFRONT_DB_PASSWORD"`
	Name     string `envconfig:"STOREFRONT_DB_NAME"`
	SSLMode  string `envconfig:"STOREFRONT_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"STOREFRONT_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"STOREFRONT_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"STOREFRONT_DB_CONN_MAX_LIFETIME" default:"1h"`
}

func (db *DBConfig) ensureDSN() error {
	switch db.Driver {
	case DriverSQLite:
		if db.DSN == "" {
			db.DSN = "file:storefront.db?_foreign_keys=on&_busy_timeout=5000"
		}
		return nil
	case DriverPostgres:
	default:
		return fmt.Errorf("unsupported db driver %q", db.Driver)
	}

	if db.DSN != "" {
		return nil
	}

	var missing []string
	for env, v := range map[string]string{
		"STOREFRONT_DB_HOST": db.Host,
		"STOREFRONT_DB_USER": db.User,
		"STOREFRONT_DB_NAME": db.Name,
	} {
		if v == "" {
			missing = append(missing, env)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("either STOREFRONT_DB_DSN or %s are required", strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}
	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}

type RedisConfig struct {
	URL     string        `envconfig:"STOREFRONT_REDIS_URL" default:"redis://localhost:6379/0"`
	CartTTL time.Duration `envconfig:"STOREFRONT_CART_TTL" default:"168h"`
}

type PaystackConfig struct {
	SecretKey   string        `envconfig:"STOREFRONT_PAYSTACK_SECRET_KEY"`
	BaseURL     string        `envconfig:"STOREFRONT_PAYSTACK_BASE_URL" default:"https://api.paystack.co"`
	CallbackURL string        `envconfig:"STOREFRONT_PAYSTACK_CALLBACK_URL"`
	Timeout     time.Duration `envconfig:"STOREFRONT_PAYSTACK_TIMEOUT" default:"15s"`
}

type JWTConfig struct {
	Secret string        `envconfig:"STOREFRONT_JWT_SECRET" required:"true"`
	Issuer string        `envconfig:"STOREFRONT_JWT_ISSUER" default:"storefront-be"`
	TTL    time.Duration `envconfig:"STOREFRONT_JWT_TTL" default:"12h"`
}

type AdminConfig struct {
	Email        string `envconfig:"STOREFRONT_ADMIN_EMAIL"`
	PasswordHash string `envconfig:"STOREFRONT_ADMIN_PASSWORD_HASH"`
}

type SMTPConfig struct {
	Host     string `envconfig:"STOREFRONT_SMTP_HOST"`
	Port     int    `envconfig:"STOREFRONT_SMTP_PORT" default:"587"`
	User     string `envconfig:"STOREFRONT_SMTP_USER"`
	Password string `envconfig:"STOREFRONT_SMTP_PASSWORD"`
	From     string `envconfig:"STOREFRONT_SMTP_FROM" default:"orders@storefront.local"`
}

func (s SMTPConfig) Enabled() bool {
	return s.Host != ""
}

type PricingConfig struct {
	BaseCurrency          string           `envconfig:"STOREFRONT_PRICING_BASE_CURRENCY" default:"USD"`
	ChargeCurrency        string           `envconfig:"STOREFRONT_PRICING_CHARGE_CURRENCY" default:"NGN"`
	FreeShippingThreshold int64            `envconfig:"STOREFRONT_PRICING_FREE_SHIPPING_THRESHOLD" default:"15000"`
	StandardShipping      int64            `envconfig:"STOREFRONT_PRICING_STANDARD_SHIPPING" default:"1000"`
	ExpressShipping       int64            `envconfig:"STOREFRONT_PRICING_EXPRESS_SHIPPING" default:"2500"`
	DiscountCodes         DiscountCodeList `envconfig:"STOREFRONT_PRICING_DISCOUNT_CODES" default:"SAVE10:percentage:10,SAVE20:percentage:20,FREESHIP:free_shipping"`
}

// EngineConfig validates the pricing tables and builds the engine config.
func (p PricingConfig) EngineConfig() (pricing.Config, error) {
	base, err := pricing.ParseCurrency(p.BaseCurrency)
	if err != nil {
		return pricing.Config{}, fmt.Errorf("base currency: %w", err)
	}
	if _, err := pricing.ParseCurrency(p.ChargeCurrency); err != nil {
		return pricing.Config{}, fmt.Errorf("charge currency: %w", err)
	}
	if p.FreeShippingThreshold < 0 || p.StandardShipping < 0 || p.ExpressShipping < 0 {
		return pricing.Config{}, fmt.Errorf("shipping amounts must not be negative")
	}

	table, err := pricing.NewDiscountTable(p.DiscountCodes...)
	if err != nil {
		return pricing.Config{}, err
	}

	return pricing.Config{
		BaseCurrency: base,
		Shipping: pricing.ShippingRates{
			FreeShippingThreshold: p.FreeShippingThreshold,
			Standard:              p.StandardShipping,
			Express:               p.ExpressShipping,
		},
		Discounts: table,
	}, nil
}

func (p PricingConfig) Charge() pricing.Currency {
	c, _ := pricing.ParseCurrency(p.ChargeCurrency)
	return c
}

// DiscountCodeList decodes CODE:kind[:value] entries separated by commas.
type DiscountCodeList []pricing.DiscountCode

func (l *DiscountCodeList) Decode(value string) error {
	var out DiscountCodeList
	for _, entry := range strings.Split(value, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.Split(entry, ":")
		if len(parts) < 2 || len(parts) > 3 {
			return fmt.Errorf("discount code %q: want CODE:kind[:value]", entry)
		}
		d := pricing.DiscountCode{
			Code: strings.TrimSpace(parts[0]),
			Kind: pricing.DiscountKind(strings.ToLower(strings.TrimSpace(parts[1]))),
		}
		if len(parts) == 3 {
			v, err := strconv.ParseInt(strings.TrimSpace(parts[2]), 10, 64)
			if err != nil {
				return fmt.Errorf("discount code %q: %w", entry, err)
			}
			d.Value = v
		}
		if err := d.Validate(); err != nil {
			return err
		}
		out = append(out, d)
	}
	*l = out
	return nil
}
