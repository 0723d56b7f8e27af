package events

type LeadCreatedEvent struct {
	LeadID    string `json:"lead_id"`
	VehicleID string `json:"vehicle_id"`
	Email     string `json:"email"`
	SourceIP  string `json:"source_ip,omitempty"`
}

type LeadDuplicateEvent struct {
	ExistingLeadID string `json:"existing_lead_id"`
	VehicleID      string `json:"vehicle_id"`
}

type LeadAssignedEvent struct {
	LeadID    string `json:"lead_id"`
	AgentID   string `json:"agent_id"`
	Method    string `json:"assignment_method"`
	Composite int    `json:"composite,omitempty"`
}

type LeadStatusChangedEvent struct {
	LeadID string `json:"lead_id"`
	Status string `json:"status"`
	Actor  string `json:"actor,omitempty"`
}

type RoutingDecidedEvent struct {
	VehicleID string `json:"vehicle_id"`
	Outcome   string `json:"outcome"`
	AgentID   string `json:"agent_id,omitempty"`
	Composite int    `json:"composite,omitempty"`
}

type LeadUnroutedEvent struct {
	LeadID  string `json:"lead_id"`
	Outcome string `json:"outcome"`
}
