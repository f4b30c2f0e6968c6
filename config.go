// SPDX-License-Identifier: GPL-3.0-or-later

package pipeline

import "time"

// WriteFlags is a bit set controlling how an outbound write behaves.
type WriteFlags uint32

const (
	// WriteFlagNone requests the default write behavior.
	WriteFlagNone WriteFlags = 0

	// WriteFlagWriteShutdown requests a half-close after the write flushes:
	// the write side of the transport shuts down but reads remain open.
	WriteFlagWriteShutdown WriteFlags = 1 << 0
)

// Has reports whether f contains all the bits of other.
func (f WriteFlags) Has(other WriteFlags) bool {
	return f&other == other
}

// ReadBufferSettings controls how the socket handler grows its read buffer.
//
// MinAvailable is the minimum number of contiguous free bytes the handler
// requests before issuing a read; AllocationSize is how much it grows the
// buffer by when MinAvailable isn't already available. The defaults
// (2048, 2048) match the ones documented for the pipeline core.
type ReadBufferSettings struct {
	MinAvailable   int
	AllocationSize int
}

// DefaultReadBufferSettings returns the (2048, 2048) default pair.
func DefaultReadBufferSettings() ReadBufferSettings {
	return ReadBufferSettings{MinAvailable: 2048, AllocationSize: 2048}
}

// Config holds common configuration shared across this module's constructors.
//
// Pass this to constructor functions to pre-wire dependencies. All fields
// have sensible defaults set by [NewConfig]; use the With* [Option] functions
// to override individual fields.
type Config struct {
	// Logger is used for lifecycle and I/O logging throughout the pipeline.
	//
	// Set by [NewConfig] to [DefaultSLogger].
	Logger SLogger

	// ErrClassifier classifies transport and protocol errors for structured logging.
	//
	// Set by [NewConfig] to [DefaultErrClassifier].
	ErrClassifier ErrClassifier

	// ReadBuffer controls the socket handler's read-buffer growth policy.
	//
	// Set by [NewConfig] to [DefaultReadBufferSettings].
	ReadBuffer ReadBufferSettings

	// DefaultWriteFlags are the write flags a fresh pipeline starts with.
	//
	// Set by [NewConfig] to [WriteFlagNone].
	DefaultWriteFlags WriteFlags

	// Dialer is used by the client bootstrap's default connect path.
	//
	// Set by [NewConfig] to [*net.Dialer].
	Dialer Dialer

	// TimeNow returns the current time.
	//
	// Set by [NewConfig] to [time.Now].
	TimeNow func() time.Time
}

// Option mutates a [Config] constructed by [NewConfig].
type Option func(*Config)

// WithLogger overrides the [Config.Logger] field.
func WithLogger(logger SLogger) Option {
	return func(c *Config) { c.Logger = logger }
}

// WithErrClassifier overrides the [Config.ErrClassifier] field.
func WithErrClassifier(classifier ErrClassifier) Option {
	return func(c *Config) { c.ErrClassifier = classifier }
}

// WithReadBuffer overrides the [Config.ReadBuffer] field.
func WithReadBuffer(settings ReadBufferSettings) Option {
	return func(c *Config) { c.ReadBuffer = settings }
}

// WithDefaultWriteFlags overrides the [Config.DefaultWriteFlags] field.
func WithDefaultWriteFlags(flags WriteFlags) Option {
	return func(c *Config) { c.DefaultWriteFlags = flags }
}

// WithDialer overrides the [Config.Dialer] field.
func WithDialer(dialer Dialer) Option {
	return func(c *Config) { c.Dialer = dialer }
}

// NewConfig creates a [*Config] with sensible defaults, then applies opts in order.
func NewConfig(opts ...Option) *Config {
	c := &Config{
		Logger:            DefaultSLogger(),
		ErrClassifier:     DefaultErrClassifier,
		ReadBuffer:        DefaultReadBufferSettings(),
		DefaultWriteFlags: WriteFlagNone,
		Dialer:            defaultDialer(),
		TimeNow:           time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}
