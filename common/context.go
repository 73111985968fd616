package common

// Context bundles the runtime dependencies that every component takes
// at construction: configuration and logging.  Passing a single
// context keeps constructor signatures stable as concerns are added.
type Context interface {
	Config() Config
	Logger() Logger
}

type ctx struct {
	config Config
	logger Logger
}

func NewContext(config Config) Context {
	return &ctx{config: config, logger: NewStandardLogger(config)}
}

// NewEmptyContext returns a context backed by an empty config, useful
// anywhere the defaults suffice (most tests).
func NewEmptyContext() Context {
	return NewContext(NewEmptyConfig())
}

func (c *ctx) Config() Config {
	return c.config
}

func (c *ctx) Logger() Logger {
	return c.logger
}
