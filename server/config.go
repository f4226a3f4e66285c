package server

import "time"

type Config struct {
	Addr            string        `envconfig:"ADDR" split_words:"true" default:":8080"`
	MaxBodyBytes    int64         `envconfig:"MAX_BODY_BYTES" split_words:"true" default:"10000"`
	RatePerMinute   float64       `envconfig:"RATE_PER_MINUTE" split_words:"true" default:"20"`
	RateBurst       int           `envconfig:"RATE_BURST" split_words:"true" default:"5"`
	AllowedOrigins  []string      `envconfig:"ALLOWED_ORIGINS" split_words:"true" default:"http://localhost:3000,http://localhost:3001,http://127.0.0.1:3000,http://127.0.0.1:3001"`
	TrustProxy      bool          `envconfig:"TRUST_PROXY" split_words:"true" default:"false"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" split_words:"true" default:"10s"`
}
