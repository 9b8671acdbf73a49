package metrics

// Ensure NoopRecorder implements Recorder interface at compile time
var _ Recorder = (*NoopRecorder)(nil)

// NoopRecorder discards all metrics. Used when metrics are disabled so
// callers never need a nil check.
type NoopRecorder struct{}

// NewNoopRecorder creates a no-op metrics recorder
func NewNoopRecorder() *NoopRecorder {
	return &NoopRecorder{}
}

func (n *NoopRecorder) RecordGateDecision(class, action string)                     {}
func (n *NoopRecorder) RecordTokenIssued(kind, lane string)                         {}
func (n *NoopRecorder) RecordTokenVerification(kind, result string)                 {}
func (n *NoopRecorder) RecordMintRequest(result string)                             {}
func (n *NoopRecorder) RecordResolverRequest(name, result string, seconds float64)  {}
func (n *NoopRecorder) RecordHTTPRequest(method, path, status string, sec float64)  {}
func (n *NoopRecorder) IncHTTPInFlight()                                            {}
func (n *NoopRecorder) DecHTTPInFlight()                                            {}
