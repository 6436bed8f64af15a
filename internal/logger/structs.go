package logger

// Console configures stdout/stderr output.
type Console struct {
	Enabled bool `toml:"enabled"`
	// UseConsoleWriter switches from json lines to zerolog's human readable writer.
	UseConsoleWriter bool
}

// Rotation describes one lumberjack-rotated file.
type Rotation struct {
	Name       string
	MaxSize    int // megabytes
	MaxBackups int
	MaxAge     int // days
}

// LogFile configures file output. Every level class has its own file.
type LogFile struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`

	Access Rotation
	Error  Rotation
	Warn   Rotation
	Info   Rotation
	Trace  Rotation
}

// Log is the [Log] config section.
type Log struct {
	LogLevel string // trace, debug, info, warn, error
	LogEnv   string

	// EnableAccessLogToConsole writes http access lines to stdout; needs Console.Enabled.
	EnableAccessLogToConsole bool
	ReportCaller             bool
	DisableCheckAlive        bool // skip access lines for the check alive uri

	// SlowQueryThreshold marks gorm queries slower than this many ms as warnings, 0 uses 200ms.
	SlowQueryThreshold int

	AppName     string
	ServiceName string

	Console Console
	File    LogFile `toml:"file"`
}
