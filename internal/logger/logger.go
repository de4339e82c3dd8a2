package logger

// Log levels accepted by the constructors
const (
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

// Environments the portal runs in. Production logs JSON, everything else
// logs text
const (
	EnvProduction  = "prod"
	EnvDevelopment = "dev"
)

// Logger is the logging contract the rest of the code depends on
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)

	With(args ...any) Logger
	WithGroup(name string) Logger
}

// New creates a logger suitable for the given environment
func New(environment string, level string) (Logger, error) {
	if environment == EnvProduction {
		return NewJSONLogger(level)
	}
	return NewTextLogger(level)
}
