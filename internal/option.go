package internal

// Option configures how the Mimir process is assembled before Run or
// RunStdio starts serving.
type Option func(*application)

type application struct {
	config    *Config
	storePath string
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithStorePath overrides the card store location from the config. The CLI
// uses it for the --data flag so a session can point at an alternate deck.
func WithStorePath(path string) Option {
	return func(a *application) {
		a.storePath = path
	}
}
