package config

import "time"

// Config is the root application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Redis    RedisConfig    `yaml:"redis"`
	Log      LogConfig      `yaml:"log"`
	Voting   VotingConfig   `yaml:"voting"`
	Realtime RealtimeConfig `yaml:"realtime"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            string        `yaml:"port"             env:"PORT"                    env-default:"8080"`
	GinMode         string        `yaml:"gin_mode"         env:"GIN_MODE"                env-default:"release"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

// DatabaseConfig selects the gorm dialector by DSN.
// A DSN starting with "sqlite:" opens an embedded SQLite database, anything
// else is handed to the postgres driver.
type DatabaseConfig struct {
	DSN         string `yaml:"dsn"           env:"DATABASE_URL"       env-default:"host=localhost user=postgres password=postgres dbname=wardwatch port=5432 sslmode=disable TimeZone=UTC"`
	AutoMigrate bool   `yaml:"auto_migrate"  env:"DATABASE_MIGRATE"   env-default:"true"`
	MaxOpenConn int    `yaml:"max_open_conns" env:"DATABASE_MAX_CONNS" env-default:"25"`
}

// AuthConfig holds actor-context settings. Token issuance lives elsewhere;
// this service only verifies.
type AuthConfig struct {
	JWTSecret     string        `yaml:"jwt_secret"     env:"JWT_SECRET"     env-default:"secret"`
	JWTIssuer     string        `yaml:"jwt_issuer"     env:"JWT_ISSUER"     env-default:"wardwatch"`
	TokenTTL      time.Duration `yaml:"token_ttl"      env:"JWT_TOKEN_TTL"  env-default:"24h"`
	SessionSecret string        `yaml:"session_secret" env:"SESSION_SECRET" env-default:"secret_key_change_me"`
	SessionName   string        `yaml:"session_name"   env:"SESSION_NAME"   env-default:"wardwatch_session"`
}

// RedisConfig enables the cross-instance event relay when URL is set.
type RedisConfig struct {
	URL     string `yaml:"url"     env:"REDIS_URL"`
	Channel string `yaml:"channel" env:"REDIS_EVENTS_CHANNEL" env-default:"wardwatch:events"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

// WeightTable maps actor/issue relationships to vote weights.
type WeightTable struct {
	SameWardResident  float64 `yaml:"same_ward_resident"  env:"VOTE_WEIGHT_SAME_WARD_RESIDENT"  env-default:"1.0"`
	OtherWardResident float64 `yaml:"other_ward_resident" env:"VOTE_WEIGHT_OTHER_WARD_RESIDENT" env-default:"0.4"`
	CommunityLeader   float64 `yaml:"community_leader"    env:"VOTE_WEIGHT_COMMUNITY_LEADER"    env-default:"1.5"`
	Staff             float64 `yaml:"staff"               env:"VOTE_WEIGHT_STAFF"               env-default:"0.8"`
	Admin             float64 `yaml:"admin"               env:"VOTE_WEIGHT_ADMIN"               env-default:"1.0"`
	Default           float64 `yaml:"default"             env:"VOTE_WEIGHT_DEFAULT"             env-default:"0.5"`
}

// VotingConfig holds the weighting policy and escalation threshold.
type VotingConfig struct {
	Weights             WeightTable   `yaml:"weights"`
	EscalationThreshold float64       `yaml:"escalation_threshold" env:"VOTE_ESCALATION_THRESHOLD" env-default:"10"`
	AllowDuplicateVotes bool          `yaml:"allow_duplicate_votes" env:"VOTE_ALLOW_DUPLICATES"    env-default:"false"`
	ReconcileInterval   time.Duration `yaml:"reconcile_interval"   env:"VOTE_RECONCILE_INTERVAL"   env-default:"15m"`
	ReconcileWindow     time.Duration `yaml:"reconcile_window"     env:"VOTE_RECONCILE_WINDOW"     env-default:"24h"`
}

// RealtimeConfig sizes the fanout queue and the per-stream buffers.
type RealtimeConfig struct {
	QueueSize        int           `yaml:"queue_size"         env:"REALTIME_QUEUE_SIZE"         env-default:"1000"`
	Workers          int           `yaml:"workers"            env:"REALTIME_WORKERS"            env-default:"4"`
	SubscriberBuffer int           `yaml:"subscriber_buffer"  env:"REALTIME_SUBSCRIBER_BUFFER"  env-default:"32"`
	Heartbeat        time.Duration `yaml:"heartbeat"          env:"REALTIME_HEARTBEAT"          env-default:"25s"`
}

// DefaultVoting returns the weighting policy used when nothing is configured.
func DefaultVoting() VotingConfig {
	return VotingConfig{
		Weights: WeightTable{
			SameWardResident:  1.0,
			OtherWardResident: 0.4,
			CommunityLeader:   1.5,
			Staff:             0.8,
			Admin:             1.0,
			Default:           0.5,
		},
		EscalationThreshold: 10,
		ReconcileInterval:   15 * time.Minute,
		ReconcileWindow:     24 * time.Hour,
	}
}
