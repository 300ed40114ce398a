// Package logger provides structured logging for tweetstojson.
//
// It wraps zerolog behind a small Logger interface so that components receive a
// logger by injection and tests can swap in a TestLogger that captures messages.
//
//	log, err := logger.Initialize(&cfg.Logging, os.Stderr)
//	log := logger.GetLogger().WithField("screen_name", "jack")
//	log.DebugWithFields("timeline page fetched", map[string]interface{}{"count": 200})
//
// Console output goes to stderr so stdout stays reserved for the run summary.
package logger
