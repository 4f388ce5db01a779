package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	Shopify      ShopifyConfig
	Dear         DearConfig
	Matching     MatchingConfig
	Locations    LocationsConfig
	Orders       OrdersConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Locations.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"TAPCELLAR_APP_ENV" required:"true"`
	Port         string `envconfig:"TAPCELLAR_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"TAPCELLAR_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"TAPCELLAR_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN             string        `envconfig:"TAPCELLAR_DB_DSN" required:"true"`
	MaxOpenConns    int           `envconfig:"TAPCELLAR_DB_MAX_OPEN_CONNS" default:"10"`
	MaxIdleConns    int           `envconfig:"TAPCELLAR_DB_MAX_IDLE_CONNS" default:"5"`
	ConnMaxLifetime time.Duration `envconfig:"TAPCELLAR_DB_CONN_MAX_LIFETIME" default:"30m"`
	ConnMaxIdleTime time.Duration `envconfig:"TAPCELLAR_DB_CONN_MAX_IDLE_TIME" default:"5m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"TAPCELLAR_REDIS_URL"`
	Address      string        `envconfig:"TAPCELLAR_REDIS_ADDRESS"`
	Password     string        `envconfig:"TAPCELLAR_REDIS_PASSWORD"`
	DB           int           `envconfig:"TAPCELLAR_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"TAPCELLAR_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"TAPCELLAR_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"TAPCELLAR_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"TAPCELLAR_REDIS_READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `envconfig:"TAPCELLAR_REDIS_WRITE_TIMEOUT" default:"3s"`
}

// ShopifyConfig holds Admin API credentials for the catalog collaborator.
// An empty shop URL or token disables catalog lookups: vendor queries return
// zero products rather than failing the run.
type ShopifyConfig struct {
	ShopURL     string `envconfig:"TAPCELLAR_SHOPIFY_SHOP_URL"`
	AccessToken string `envconfig:"TAPCELLAR_SHOPIFY_ACCESS_TOKEN"`
	APIVersion  string `envconfig:"TAPCELLAR_SHOPIFY_API_VERSION" default:"2024-04"`
	PageSize    int    `envconfig:"TAPCELLAR_SHOPIFY_PAGE_SIZE" default:"50"`
}

func (s ShopifyConfig) Enabled() bool {
	return strings.TrimSpace(s.ShopURL) != "" && strings.TrimSpace(s.AccessToken) != ""
}

// DearConfig holds DEAR (Cin7 Core) inventory API credentials.
type DearConfig struct {
	BaseURL           string        `envconfig:"TAPCELLAR_DEAR_BASE_URL" default:"https://inventory.dearsystems.com/ExternalApi/v2"`
	AccountID         string        `envconfig:"TAPCELLAR_DEAR_ACCOUNT_ID"`
	ApplicationKey    string        `envconfig:"TAPCELLAR_DEAR_APPLICATION_KEY"`
	SupplierPageSize  int           `envconfig:"TAPCELLAR_DEAR_SUPPLIER_PAGE_SIZE" default:"100"`
	DirectoryCacheTTL time.Duration `envconfig:"TAPCELLAR_DEAR_DIRECTORY_CACHE_TTL" default:"10m"`
}

func (d DearConfig) Enabled() bool {
	return strings.TrimSpace(d.AccountID) != "" && strings.TrimSpace(d.ApplicationKey) != ""
}

// MatchingConfig tunes the reconciliation engine. The cask volume aliases encode
// Imperial cask sizes expressed in Gallons against their approximate Litre
// equivalents (9 Gallon firkin ~ 41L, 4.5 Gallon pin ~ 20/21L). They are a
// site-specific convention, kept as data so they can be corrected without a
// code change.
type MatchingConfig struct {
	NoiseFloor         int               `envconfig:"TAPCELLAR_MATCH_NOISE_FLOOR" default:"40"`
	AcceptScore        int               `envconfig:"TAPCELLAR_MATCH_ACCEPT_SCORE" default:"75"`
	SupplierFuzzyFloor int               `envconfig:"TAPCELLAR_MATCH_SUPPLIER_FUZZY_FLOOR" default:"90"`
	CaskVolumeAliases  map[string]string `envconfig:"TAPCELLAR_MATCH_CASK_VOLUME_ALIASES" default:"9:firkin,40:firkin,41:firkin,4:pin,4.5:pin,20:pin,21:pin"`
}

// LocationsConfig maps warehouse location names to their SKU prefixes. The
// catalog's own SKU convention reserves the first PrefixLength characters of a
// stock code for the location prefix; that convention is an external contract,
// not derivable here.
type LocationsConfig struct {
	PrefixLength int               `envconfig:"TAPCELLAR_LOCATION_PREFIX_LENGTH" default:"2"`
	Prefixes     map[string]string `envconfig:"TAPCELLAR_LOCATION_PREFIXES" default:"London:L-,Gloucester:G-"`
}

func (l LocationsConfig) validate() error {
	if l.PrefixLength <= 0 {
		return fmt.Errorf("location prefix length must be positive")
	}
	if len(l.Prefixes) == 0 {
		return fmt.Errorf("at least one location prefix is required")
	}
	for name, prefix := range l.Prefixes {
		if strings.TrimSpace(prefix) == "" {
			return fmt.Errorf("location %q has an empty SKU prefix", name)
		}
	}
	return nil
}

// OrdersConfig carries fixed purchase-order conventions for the inventory system.
type OrdersConfig struct {
	TaxRule string `envconfig:"TAPCELLAR_ORDER_TAX_RULE" default:"Tax on Purchases"`
	Status  string `envconfig:"TAPCELLAR_ORDER_STATUS" default:"DRAFT"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"TAPCELLAR_AUTO_MIGRATE" default:"false"`
}
