package logger

import (
	"fmt"
	"io"
	"os"

	"github.com/natefinch/lumberjack"
	"github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
)

var logPath = ""

/* Public */

// Init configures the global logrus instance. verbosity increases the level
// from Info -> Debug -> Trace, logFilePath of "" disables file logging.
func Init(verbosity int, logFilePath string) error {
	logPath = logFilePath

	// set level
	switch {
	case verbosity == 1:
		logrus.SetLevel(logrus.DebugLevel)
	case verbosity > 1:
		logrus.SetLevel(logrus.TraceLevel)
	default:
		logrus.SetLevel(logrus.InfoLevel)
	}

	// set formatter
	logrus.SetFormatter(&prefixed.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
		ForceFormatting: true,
	})

	// set output
	if logFilePath != "" {
		rotator := &lumberjack.Logger{
			Filename:   logFilePath,
			MaxSize:    10,
			MaxBackups: 5,
			MaxAge:     30,
			Compress:   true,
		}

		logrus.SetOutput(io.MultiWriter(os.Stdout, rotator))
	} else {
		logrus.SetOutput(os.Stdout)
	}

	return nil
}

// GetLogger returns a named entry, padding the prefix for aligned output.
func GetLogger(prefix string) *logrus.Entry {
	if len(prefix) > 10 {
		prefix = prefix[:10]
	}

	return logrus.WithField("prefix", fmt.Sprintf("%-10s", prefix))
}

func ShowUsing() {
	GetLogger("log").Infof("Using LOG = %q", logPath)
}
