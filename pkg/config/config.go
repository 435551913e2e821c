package config

import (
	"fmt"
	"os"
	"parkease/pkg/client"
	"parkease/pkg/logger"
	"regexp"
	"strconv"
	"time"
)

type Config struct {
	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration

	Port      string
	JWTSecret string

	RequestTimeout  time.Duration
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	LockTTL           time.Duration
	GracePeriod       time.Duration
	ReminderWindow    time.Duration
	DefaultViewWindow time.Duration
	SweepInterval     time.Duration

	BikeRateMultiplier     float64
	StaffRateMultiplier    float64
	StaffDiscountEnabled   bool
	CancellationFeeRate    float64
	OverstayRateMultiplier float64

	Log    *logger.Logger
	Client *client.Client
}

func Load(serviceName string) *Config {
	cfg := &Config{
		MongoURI:          getEnvStr(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),

		Port:      getEnvStr(EnvPort, DefaultPort),
		JWTSecret: getEnvStr(EnvJWTSecret, ""),

		RequestTimeout:  getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		LockTTL:           getEnvDuration(EnvLockTTL, DefaultLockTTL),
		GracePeriod:       getEnvDuration(EnvGracePeriod, DefaultGracePeriod),
		ReminderWindow:    getEnvDuration(EnvReminderWindow, DefaultReminderWindow),
		DefaultViewWindow: getEnvDuration(EnvDefaultViewWindow, DefaultDefaultViewWindow),
		SweepInterval:     getEnvDuration(EnvSweepInterval, DefaultSweepInterval),

		BikeRateMultiplier:     getEnvFloat(EnvBikeRateMultiplier, DefaultBikeRateMultiplier),
		StaffRateMultiplier:    getEnvFloat(EnvStaffRateMultiplier, DefaultStaffRateMultiplier),
		StaffDiscountEnabled:   getEnvBool(EnvStaffDiscountEnabled, DefaultStaffDiscountEnabled),
		CancellationFeeRate:    getEnvFloat(EnvCancellationFeeRate, DefaultCancellationFeeRate),
		OverstayRateMultiplier: getEnvFloat(EnvOverstayRateMultiplier, DefaultOverstayRateMultiplier),

		Log: logger.New(logger.Config{
			Level:     getEnvStr(EnvLogLevel, DefaultLogLevel),
			Format:    logger.JSON,
			AddSource: true,
			Service:   serviceName,
		}),
		Client: client.NewClient(),
	}

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

func (cfg *Config) SetMongo() {
	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
}

func (cfg *Config) Validate() error {
	var errs []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	if cfg.MongoURI == "" {
		errs = append(errs, "MongoURI cannot be empty")
	} else if !regexp.MustCompile(`^mongodb(\+srv)?://`).MatchString(cfg.MongoURI) {
		errs = append(errs, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", cfg.MongoURI))
	}
	if cfg.MongoDatabaseName == "" {
		errs = append(errs, "MongoDatabaseName cannot be empty")
	}

	for name, d := range map[string]time.Duration{
		"MongoConnTimeout":  cfg.MongoConnTimeout,
		"RequestTimeout":    cfg.RequestTimeout,
		"ReadTimeout":       cfg.ReadTimeout,
		"WriteTimeout":      cfg.WriteTimeout,
		"IdleTimeout":       cfg.IdleTimeout,
		"ShutdownTimeout":   cfg.ShutdownTimeout,
		"LockTTL":           cfg.LockTTL,
		"GracePeriod":       cfg.GracePeriod,
		"ReminderWindow":    cfg.ReminderWindow,
		"DefaultViewWindow": cfg.DefaultViewWindow,
		"SweepInterval":     cfg.SweepInterval,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Sprintf("%s must be positive, got: %s", name, d))
		}
	}

	if cfg.BikeRateMultiplier <= 0 || cfg.BikeRateMultiplier > 1 {
		errs = append(errs, fmt.Sprintf("BikeRateMultiplier must be in (0, 1], got: %g", cfg.BikeRateMultiplier))
	}
	if cfg.StaffRateMultiplier <= 0 || cfg.StaffRateMultiplier > 1 {
		errs = append(errs, fmt.Sprintf("StaffRateMultiplier must be in (0, 1], got: %g", cfg.StaffRateMultiplier))
	}
	if cfg.CancellationFeeRate < 0 || cfg.CancellationFeeRate >= 1 {
		errs = append(errs, fmt.Sprintf("CancellationFeeRate must be in [0, 1), got: %g", cfg.CancellationFeeRate))
	}
	if cfg.OverstayRateMultiplier < 1 {
		errs = append(errs, fmt.Sprintf("OverstayRateMultiplier must be at least 1, got: %g", cfg.OverstayRateMultiplier))
	}

	if len(errs) > 0 {
		msg := "Configuration validation failed:\n"
		for i, e := range errs {
			msg += fmt.Sprintf("  %d. %s\n", i+1, e)
		}
		return fmt.Errorf("%s", msg)
	}
	return nil
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"mongo_uri", redactMongoURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"mongo_conn_timeout", cfg.MongoConnTimeout,
		"port", cfg.Port,
		"jwt_secret_set", cfg.JWTSecret != "",
		"request_timeout", cfg.RequestTimeout,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
		"lock_ttl", cfg.LockTTL,
		"grace_period", cfg.GracePeriod,
		"reminder_window", cfg.ReminderWindow,
		"default_view_window", cfg.DefaultViewWindow,
		"sweep_interval", cfg.SweepInterval,
		"bike_rate_multiplier", cfg.BikeRateMultiplier,
		"staff_rate_multiplier", cfg.StaffRateMultiplier,
		"staff_discount_enabled", cfg.StaffDiscountEnabled,
		"cancellation_fee_rate", cfg.CancellationFeeRate,
		"overstay_rate_multiplier", cfg.OverstayRateMultiplier,
	)
}

func redactMongoURI(uri string) string {
	credentialRegex := regexp.MustCompile(`(mongodb(\+srv)?://)[^:]+:[^@]+@`)
	return credentialRegex.ReplaceAllString(uri, "${1}***:***@")
}

func getEnvStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func (cfg *Config) GracefulShutdown() {
	cfg.Client.GracefulShutdown()
}

func NormalizePaginationLimit(limit int) int {
	if limit <= 0 {
		limit = 10
	} else if limit > DefaultPaginationLimit {
		limit = DefaultPaginationLimit
	}
	return limit
}

func NormalizeOffset(offset int64) int64 {
	return max(0, offset)
}
