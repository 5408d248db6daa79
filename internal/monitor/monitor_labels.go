package monitor

type DBQueryLabels struct {
	QueryType string
}

type HttpRequestLabels struct {
	Status string
	Route  string
	Method string
}

func (l HttpRequestLabels) ToMap() map[string]string {
	return map[string]string{
		"status": l.Status,
		"route":  l.Route,
		"method": l.Method,
	}
}

var HttpRequestLabelNames = []string{"status", "route", "method"}

// LeaseTransitionLabels labels a lifecycle operation (create, activate, renew, terminate) with its outcome, which is
// either "success" or the failure kind.
type LeaseTransitionLabels struct {
	Transition string
	Outcome    string
}

func (l LeaseTransitionLabels) ToMap() map[string]string {
	return map[string]string{
		"transition": l.Transition,
		"outcome":    l.Outcome,
	}
}

var LeaseTransitionLabelNames = []string{"transition", "outcome"}

type LeaseJobLabels struct {
	Job     string
	Outcome string
}

func (l LeaseJobLabels) ToMap() map[string]string {
	return map[string]string{
		"job":     l.Job,
		"outcome": l.Outcome,
	}
}

var LeaseJobLabelNames = []string{"job", "outcome"}
