package service

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// Recorder receives workflow counters. The Prometheus collectors in
// infrastructure/metrics satisfy it.
type Recorder interface {
	RecordTransition(action, outcome string)
	RecordDocumentCreated()
	RecordNotification(delivered bool)
	RecordArtifactRender(outcome string)
}

type noopRecorder struct{}

func (noopRecorder) RecordTransition(string, string) {}
func (noopRecorder) RecordDocumentCreated()          {}
func (noopRecorder) RecordNotification(bool)         {}
func (noopRecorder) RecordArtifactRender(string)     {}
