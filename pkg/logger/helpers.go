package logger

// LogPage logs one timeline page request
func LogPage(l Logger, page int, maxID, sinceID string, count int, err error) {
	fields := map[string]interface{}{
		"page":     page,
		"max_id":   maxID,
		"since_id": sinceID,
		"count":    count,
	}
	if err != nil {
		l.WithError(err).ErrorWithFields("timeline request failed", fields)
		return
	}
	l.DebugWithFields("timeline page fetched", fields)
}

// LogComponentStart logs when a component starts
func LogComponentStart(l Logger, component string, config map[string]interface{}) {
	l.WithField("component", component).InfoWithFields("component started", config)
}
