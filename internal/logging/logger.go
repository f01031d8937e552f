package logging

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is the process-wide logger. It writes to stderr until Init runs.
var Logger = logrus.New()

var once sync.Once

type Options struct {
	Level  string
	Format string
	// File enables rotation through lumberjack. Empty means stderr.
	File string
}

// Init configures Logger once. Later calls are no-ops.
func Init(opts Options) {
	once.Do(func() {
		var out io.Writer = os.Stderr
		if opts.File != "" {
			out = &lumberjack.Logger{
				Filename:   opts.File,
				MaxSize:    10, // megabytes
				MaxBackups: 3,
				MaxAge:     28, // days
				Compress:   true,
			}
		}
		Logger.SetOutput(out)

		if strings.EqualFold(opts.Format, "text") {
			Logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		} else {
			Logger.SetFormatter(&logrus.JSONFormatter{})
		}

		level, err := logrus.ParseLevel(opts.Level)
		if err != nil {
			level = logrus.InfoLevel
		}
		Logger.SetLevel(level)

		Logger.WithField("level", level.String()).Info("[logger][init][ok]")
	})
}
