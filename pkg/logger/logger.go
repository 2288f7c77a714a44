package logger

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

const (
	permission = 0664
)

// LogBuild assembles a zerolog.Logger for the client. The zero value logs
// nothing; call FromWriter or FromPath to give it a destination.
type LogBuild struct {
	writer io.Writer
	path   string
	level  zerolog.Level
	pretty bool
}

func New() *LogBuild {
	return &LogBuild{level: zerolog.InfoLevel}
}

func (build *LogBuild) FromPath(path string) *LogBuild {
	build.path = path
	return build
}

func (build *LogBuild) FromWriter(w io.Writer) *LogBuild {
	build.writer = w
	return build
}

// WithLevel sets the minimum level. Unknown names fall back to info.
func (build *LogBuild) WithLevel(name string) *LogBuild {
	lvl, err := zerolog.ParseLevel(name)
	if err != nil || name == "" {
		lvl = zerolog.InfoLevel
	}
	build.level = lvl
	return build
}

// Pretty switches to the human-readable console writer.
func (build *LogBuild) Pretty() *LogBuild {
	build.pretty = true
	return build
}

// Make returns the logger and, when logging to a file, the file so the caller can close it.
func (build *LogBuild) Make() (zerolog.Logger, *os.File, error) {
	var (
		w    = build.writer
		file *os.File
		err  error
	)
	if build.path != "" {
		file, err = os.OpenFile(build.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, permission)
		if err != nil {
			return zerolog.Nop(), nil, err
		}
		w = zerolog.SyncWriter(file)
	}
	if w == nil {
		return zerolog.Nop(), nil, nil
	}
	if build.pretty {
		w = zerolog.ConsoleWriter{Out: w, NoColor: true}
	}
	return zerolog.New(w).Level(build.level).With().Timestamp().Logger(), file, nil
}
