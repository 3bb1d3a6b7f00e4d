package types

import (
	"context"

	"github.com/mcuadros/go-defaults"
)

func NewOptions() *Options {
	opts := &Options{Ctx: context.Background()}
	defaults.SetDefaults(opts)
	return opts
}

type Options struct {
	// Ctx bounds the lifetime of background (async) runs.
	Ctx context.Context
	/**
	 * default: 1000
	 * A run fails with StepLimitError after this many executed steps.
	 * The only guard against back-edges whose condition never turns false.
	 */
	MaxSteps int `default:"1000"`
	/**
	 * default: 64
	 * Size of the worker pool async runs are scheduled on. Runs beyond
	 * this queue up; they never fail for lack of a worker.
	 */
	MaxConcurrentRuns int `default:"64"`
	/**
	 * default: false, set it to true for testing or single-process use.
	 * Keeps terminal run records in process memory only.
	 */
	MemStore bool `default:"false"`

	// If both MemStore and PostgresConfig are set, PostgresConfig wins.
	PostgresConfig *PostgresConfig
}

// PostgresConfig holds the connection settings for the Postgres run store.
type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string // disable, require, verify-ca, verify-full
}

type Option func(*Options)

func WithContext(ctx context.Context) Option {
	return func(opts *Options) {
		opts.Ctx = ctx
	}
}

func WithMaxSteps(maxSteps int) Option {
	return func(opts *Options) {
		opts.MaxSteps = maxSteps
	}
}

func WithMaxConcurrentRuns(concurrency int) Option {
	return func(opts *Options) {
		opts.MaxConcurrentRuns = concurrency
	}
}

func EnableMemStore() Option {
	return func(opts *Options) {
		opts.MemStore = true
	}
}

// WithPostgresConfig makes terminal run records durable in PostgreSQL.
func WithPostgresConfig(config *PostgresConfig) Option {
	return func(opts *Options) {
		opts.PostgresConfig = config
	}
}
