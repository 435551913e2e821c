package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "parkease"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultRequestTimeout  = 30 * time.Second
	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	// Time policy. The grace period is the window after start during which
	// a Confirmed booking may still check in before the sweeper treats it
	// as a no-show.
	DefaultLockTTL           = 5 * time.Minute
	DefaultGracePeriod       = 15 * time.Minute
	DefaultReminderWindow    = 15 * time.Minute
	DefaultDefaultViewWindow = 1 * time.Hour
	DefaultSweepInterval     = 1 * time.Minute

	// Pricing policy. Bike slots bill at half the area base rate, staff
	// actors may bill at a quarter, cancelling a Confirmed booking keeps a
	// 10% fee, and overstaying bills at double the hourly rate.
	DefaultBikeRateMultiplier     = 0.5
	DefaultStaffRateMultiplier    = 0.25
	DefaultStaffDiscountEnabled   = true
	DefaultCancellationFeeRate    = 0.10
	DefaultOverstayRateMultiplier = 2.0

	DefaultPaginationLimit = 100
)
