package events

const (
	StreamName   = "LEADROUTER_EVENTS"
	StreamMaxAge = "720h" // 30 days
)

func SubjectLeadCreated(leadID string) string       { return "lead." + leadID + ".created" }
func SubjectLeadDuplicate(leadID string) string     { return "lead." + leadID + ".duplicate" }
func SubjectLeadAssigned(leadID string) string      { return "lead." + leadID + ".assigned" }
func SubjectLeadStatusChanged(leadID string) string { return "lead." + leadID + ".status_changed" }

func SubjectRoutingDecided(vehicleID string) string { return "routing." + vehicleID + ".decided" }
func SubjectRoutingUnrouted(leadID string) string   { return "routing." + leadID + ".unrouted" }
