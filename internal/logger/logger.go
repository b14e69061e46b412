// Package logger configures the application's structured logger.
package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// New builds a logrus logger writing JSON to stdout and to a rotated
// file under logs/.  In dev the level drops to Debug and output stays
// human readable.
func New(env string) *logrus.Logger {
	log := logrus.New()

	rotated := &lumberjack.Logger{
		Filename:   "logs/app.log",
		MaxSize:    50, // megabytes
		MaxBackups: 5,
		MaxAge:     28, // days
		Compress:   true,
	}
	log.SetOutput(io.MultiWriter(os.Stdout, rotated))

	if env == "dev" {
		log.SetLevel(logrus.DebugLevel)
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		log.SetLevel(logrus.InfoLevel)
		log.SetFormatter(&logrus.JSONFormatter{})
	}
	return log
}
