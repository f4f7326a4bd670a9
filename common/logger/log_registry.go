package logger

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

const (
	defaultLogLevel = logrus.InfoLevel
	// wildcardSubsystem sets the level for every subsystem not named explicitly.
	wildcardSubsystem = "*"
)

var levelMap = map[string]logrus.Level{
	"trace":   logrus.TraceLevel,
	"debug":   logrus.DebugLevel,
	"info":    logrus.InfoLevel,
	"warning": logrus.WarnLevel,
	"error":   logrus.ErrorLevel,
	"fatal":   logrus.FatalLevel,
	"panic":   logrus.PanicLevel,
}

// LogLevelConfig is a comma separated list of subsystem=level pairs, e.g. "Paginator=debug,*=warning".
type LogLevelConfig string

type LogRegistry struct {
	loggerBySubsystem map[string]*logrus.Logger
	levelBySubsystem  map[string]logrus.Level
	loggersMu         sync.Mutex
}

// ListLogLevels returns a comma separated string listing valid log levels.
func ListLogLevels() string {
	names := make([]string, 0, len(levelMap))
	for k := range levelMap {
		names = append(names, fmt.Sprintf("%q", k))
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

func NewLogRegistry(config LogLevelConfig) (*LogRegistry, error) {
	r := &LogRegistry{
		loggerBySubsystem: make(map[string]*logrus.Logger),
		levelBySubsystem:  make(map[string]logrus.Level),
	}
	if strings.TrimSpace(string(config)) == "" {
		return r, nil
	}
	for _, pair := range strings.Split(string(config), ",") {
		parts := strings.Split(strings.TrimSpace(pair), "=")
		if len(parts) != 2 || parts[0] == "" {
			return nil, fmt.Errorf("error invalid log level format: %v", pair)
		}
		level, ok := levelMap[strings.ToLower(parts[1])]
		if !ok {
			return nil, fmt.Errorf("error invalid log level for %q: %v (expected one of %s)", parts[0], parts[1], ListLogLevels())
		}
		r.levelBySubsystem[parts[0]] = level
	}
	return r, nil
}

// GetLogLevel returns the configured log level for the specified subsystem.
func (r *LogRegistry) GetLogLevel(subsystem string) logrus.Level {
	r.loggersMu.Lock()
	defer r.loggersMu.Unlock()
	return r.levelLocked(subsystem)
}

func (r *LogRegistry) levelLocked(subsystem string) logrus.Level {
	if level, ok := r.levelBySubsystem[subsystem]; ok {
		return level
	}
	if level, ok := r.levelBySubsystem[wildcardSubsystem]; ok {
		return level
	}
	return defaultLogLevel
}

// SetLogLevel changes the level of a subsystem, including any logger already registered for it.
// Passing "*" changes every registered logger that has no explicit level of its own.
func (r *LogRegistry) SetLogLevel(subsystem string, level logrus.Level) {
	r.loggersMu.Lock()
	defer r.loggersMu.Unlock()
	r.levelBySubsystem[subsystem] = level
	for name, log := range r.loggerBySubsystem {
		log.SetLevel(r.levelLocked(name))
	}
}

// RegisterLogger registers a logger with the registry so its level can later be changed.
func (r *LogRegistry) RegisterLogger(subsystem string, logger *logrus.Logger) {
	r.loggersMu.Lock()
	defer r.loggersMu.Unlock()
	r.loggerBySubsystem[subsystem] = logger
}
