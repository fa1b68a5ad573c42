package config

import (
	"errors"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database     DatabaseConfig
	Redis        RedisConfig
	JWT          JWTConfig
	CORS         CORSConfig
	Log          LogConfig
	Card         CardConfig
	Certificate  CertificateConfig
	Upload       UploadConfig
	Share        ShareConfig
	Mirror       MirrorConfig
	ProfileCache ProfileCacheConfig
}

// DatabaseConfig selects the SQL driver. DSN wins over the discrete fields.
type DatabaseConfig struct {
	Driver       string
	DSN          string
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// CardConfig locates card assets and tunes issuance policy.
type CardConfig struct {
	BackgroundPath   string
	BackPath         string
	BoldFontPath     string
	RegularFontPath  string
	DefaultPhotoPath string
	OutputDir        string
	ValidityMonths   int
	DefaultRole      string
	RoundedPhoto     bool
}

// CertificateConfig points at an optional template file and the logo directory.
type CertificateConfig struct {
	TemplatePath string
	AssetsDir    string
	Compress     bool
}

// UploadConfig governs photo uploads for card generation.
type UploadConfig struct {
	Dir          string
	MaxSizeBytes int64
}

// ShareConfig controls signed card image links.
type ShareConfig struct {
	Secret string
	TTL    time.Duration
}

// MirrorConfig enables copying issued cards to S3-compatible storage.
type MirrorConfig struct {
	Enabled      bool
	Endpoint     string
	Region       string
	Bucket       string
	AccessKey    string
	SecretKey    string
	Prefix       string
	UsePathStyle bool
}

// ProfileCacheConfig toggles Redis caching for the profile endpoint.
type ProfileCacheConfig struct {
	Enabled bool
	TTL     time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Driver:       v.GetString("DB_DRIVER"),
		DSN:          v.GetString("DB_DSN"),
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		Issuer:     v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	assets := v.GetString("ASSETS_DIR")
	validity := v.GetInt("CARD_VALIDITY_MONTHS")
	if validity <= 0 {
		validity = 12
	}
	cfg.Card = CardConfig{
		BackgroundPath:   resolve(assets, v.GetString("CARD_BACKGROUND")),
		BackPath:         resolve(assets, v.GetString("CARD_BACK")),
		BoldFontPath:     resolve(assets, v.GetString("CARD_FONT_BOLD")),
		RegularFontPath:  resolve(assets, v.GetString("CARD_FONT_REGULAR")),
		DefaultPhotoPath: resolve(assets, v.GetString("CARD_DEFAULT_PHOTO")),
		OutputDir:        v.GetString("CARD_OUTPUT_DIR"),
		ValidityMonths:   validity,
		DefaultRole:      v.GetString("CARD_DEFAULT_ROLE"),
		RoundedPhoto:     v.GetBool("CARD_ROUNDED_PHOTO"),
	}

	cfg.Certificate = CertificateConfig{
		TemplatePath: v.GetString("CERTIFICATE_TEMPLATE_PATH"),
		AssetsDir:    assets,
		Compress:     v.GetBool("CERTIFICATE_COMPRESS"),
	}

	maxUpload := v.GetInt64("UPLOAD_MAX_BYTES")
	if maxUpload <= 0 {
		maxUpload = 5 * 1024 * 1024
	}
	cfg.Upload = UploadConfig{
		Dir:          v.GetString("UPLOAD_DIR"),
		MaxSizeBytes: maxUpload,
	}

	cfg.Share = ShareConfig{
		Secret: v.GetString("SHARE_SIGNED_URL_SECRET"),
		TTL:    parseDuration(v.GetString("SHARE_SIGNED_URL_TTL"), 30*time.Minute),
	}

	cfg.Mirror = MirrorConfig{
		Enabled:      v.GetBool("CARD_MIRROR_S3_ENABLED"),
		Endpoint:     v.GetString("S3_ENDPOINT"),
		Region:       v.GetString("S3_REGION"),
		Bucket:       v.GetString("S3_BUCKET"),
		AccessKey:    v.GetString("S3_ACCESS_KEY"),
		SecretKey:    v.GetString("S3_SECRET_KEY"),
		Prefix:       v.GetString("S3_PREFIX"),
		UsePathStyle: v.GetBool("S3_USE_PATH_STYLE"),
	}

	cfg.ProfileCache = ProfileCacheConfig{
		Enabled: v.GetBool("ENABLE_PROFILE_CACHE"),
		TTL:     parseDuration(v.GetString("PROFILE_CACHE_TTL"), 5*time.Minute),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_DRIVER", "sqlite3")
	v.SetDefault("DB_DSN", "")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "unexca.db")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("JWT_ISSUER", "unexca-student-docs")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ASSETS_DIR", "./assets")
	v.SetDefault("CARD_BACKGROUND", "card/carnet.png")
	v.SetDefault("CARD_BACK", "")
	v.SetDefault("CARD_FONT_BOLD", "fonts/Poppins-Bold.ttf")
	v.SetDefault("CARD_FONT_REGULAR", "fonts/Poppins-Regular.ttf")
	v.SetDefault("CARD_DEFAULT_PHOTO", "default_profile.png")
	v.SetDefault("CARD_OUTPUT_DIR", "./assets/carnets")
	v.SetDefault("CARD_VALIDITY_MONTHS", 12)
	v.SetDefault("CARD_DEFAULT_ROLE", "ESTUDIANTE")
	v.SetDefault("CARD_ROUNDED_PHOTO", true)

	v.SetDefault("CERTIFICATE_TEMPLATE_PATH", "")
	v.SetDefault("CERTIFICATE_COMPRESS", true)

	v.SetDefault("UPLOAD_DIR", "./uploads/fotos")
	v.SetDefault("UPLOAD_MAX_BYTES", 5*1024*1024)

	v.SetDefault("SHARE_SIGNED_URL_SECRET", "dev_share_secret")
	v.SetDefault("SHARE_SIGNED_URL_TTL", "30m")

	v.SetDefault("CARD_MIRROR_S3_ENABLED", false)
	v.SetDefault("S3_ENDPOINT", "")
	v.SetDefault("S3_REGION", "us-east-1")
	v.SetDefault("S3_BUCKET", "")
	v.SetDefault("S3_ACCESS_KEY", "")
	v.SetDefault("S3_SECRET_KEY", "")
	v.SetDefault("S3_PREFIX", "carnets/")
	v.SetDefault("S3_USE_PATH_STYLE", true)

	v.SetDefault("ENABLE_PROFILE_CACHE", false)
	v.SetDefault("PROFILE_CACHE_TTL", "5m")
}

func resolve(base, path string) string {
	if path == "" || filepath.IsAbs(path) || base == "" {
		return path
	}
	return filepath.Join(base, path)
}

func isMissingFile(err error) bool {
	return strings.Contains(err.Error(), "no such file")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
