package cron

import "go.uber.org/zap"

// cronLogger adapts zap to robfig/cron's Logger.
type cronLogger struct {
	s *zap.SugaredLogger
}

func newCronLogger(l *zap.Logger) cronLogger {
	return cronLogger{s: l.Named("cron").Sugar()}
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.s.Debugw(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.s.Errorw(msg, append(keysAndValues, "error", err)...)
}
