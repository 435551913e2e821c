package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvJWTSecret = "JWT_SECRET"

	EnvRequestTimeout  = "REQUEST_TIMEOUT"
	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvLockTTL           = "SLOT_LOCK_TTL"
	EnvGracePeriod       = "BOOKING_GRACE_PERIOD"
	EnvReminderWindow    = "EXPIRY_REMINDER_WINDOW"
	EnvDefaultViewWindow = "DEFAULT_VIEW_WINDOW"
	EnvSweepInterval     = "SWEEP_INTERVAL"

	EnvBikeRateMultiplier     = "BIKE_RATE_MULTIPLIER"
	EnvStaffRateMultiplier    = "STAFF_RATE_MULTIPLIER"
	EnvStaffDiscountEnabled   = "STAFF_DISCOUNT_ENABLED"
	EnvCancellationFeeRate    = "CANCELLATION_FEE_RATE"
	EnvOverstayRateMultiplier = "OVERSTAY_RATE_MULTIPLIER"
)
