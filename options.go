package remotefs

import "github.com/mwantia/remotefs/log"

type Options struct {
	LogLevel      log.LogLevel
	LogFile       string
	NoTerminalLog bool
}

type Option func(*Options) error

func newDefaultOptions() *Options {
	return &Options{
		LogLevel: log.Info,
	}
}

func WithLogLevel(logLevel log.LogLevel) Option {
	return func(opts *Options) error {
		opts.LogLevel = logLevel
		return nil
	}
}

func WithLogFile(logFile string) Option {
	return func(opts *Options) error {
		opts.LogFile = logFile
		return nil
	}
}

func WithoutTerminalLog() Option {
	return func(opts *Options) error {
		opts.NoTerminalLog = true
		return nil
	}
}

type ChannelOptions struct {
	BufferSize int
	Logger     *log.Logger
}

type ChannelOption func(*ChannelOptions) error

func newDefaultChannelOptions() *ChannelOptions {
	return &ChannelOptions{
		BufferSize: DefaultBufferSize,
	}
}

// WithBufferSize overrides the buffer size hint passed to the client when
// opening the channel's readers.
func WithBufferSize(size int) ChannelOption {
	return func(opts *ChannelOptions) error {
		if size <= 0 {
			return ErrInvalid
		}

		opts.BufferSize = size
		return nil
	}
}

// WithChannelLogger routes the channel's lifecycle logging through the
// given logger instead of a discarding default.
func WithChannelLogger(logger *log.Logger) ChannelOption {
	return func(opts *ChannelOptions) error {
		opts.Logger = logger
		return nil
	}
}
