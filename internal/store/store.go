package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Sentinel errors surfaced to callers. Handlers map these to HTTP statuses.
var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidAssignee = errors.New("agent is not an assignable sales agent")
	ErrInvalidState    = errors.New("lead is in a terminal state")
	ErrAtCapacity      = errors.New("agent is at capacity")
)

type VehicleCategory string

const (
	CategorySUV    VehicleCategory = "suv"
	CategorySedan  VehicleCategory = "sedan"
	CategoryCoupe  VehicleCategory = "coupe"
	CategorySports VehicleCategory = "sports"
)

func (c VehicleCategory) Valid() bool {
	switch c {
	case CategorySUV, CategorySedan, CategoryCoupe, CategorySports:
		return true
	}
	return false
}

type Vehicle struct {
	ID        uuid.UUID       `json:"id"`
	Make      string          `json:"make"`
	Model     string          `json:"model"`
	Year      int             `json:"year"`
	Category  VehicleCategory `json:"category"`
	Price     float64         `json:"price"`
	CreatedAt time.Time       `json:"created_at"`
}

type ExperienceTier string

const (
	TierJunior ExperienceTier = "junior"
	TierMid    ExperienceTier = "mid"
	TierSenior ExperienceTier = "senior"
)

type AgentStatus string

const (
	AgentActive   AgentStatus = "active"
	AgentInactive AgentStatus = "inactive"
	AgentOnLeave  AgentStatus = "on_leave"
)

// AssignmentRules is an agent's optional routing policy. A nil rules struct
// and a rules struct with empty fields behave identically: no restriction
// on that axis.
type AssignmentRules struct {
	AllowedCategories []VehicleCategory `json:"allowed_categories,omitempty"`
	MinPrice          *float64          `json:"min_price,omitempty"`
	MaxPrice          *float64          `json:"max_price,omitempty"`
}

type Agent struct {
	ID          uuid.UUID         `json:"id"`
	Name        string            `json:"name"`
	Email       string            `json:"email"`
	Role        string            `json:"role"`
	Tier        ExperienceTier    `json:"tier"`
	Specialties []VehicleCategory `json:"specialties,omitempty"`
	Rules       *AssignmentRules  `json:"rules,omitempty"`
	MaxLeads    int               `json:"max_leads"`
	Status      AgentStatus       `json:"status"`
	CreatedAt   time.Time         `json:"created_at"`
}

type LeadStatus string

const (
	StatusNew       LeadStatus = "new"
	StatusInService LeadStatus = "in_service"
	StatusConverted LeadStatus = "converted"
	StatusLost      LeadStatus = "lost"
	StatusArchived  LeadStatus = "archived"
)

// Terminal reports whether the status excludes the lead from workload counts
// and from further mutation.
func (s LeadStatus) Terminal() bool {
	return s == StatusConverted || s == StatusLost || s == StatusArchived
}

type AssignmentMethod string

const (
	MethodSystem AssignmentMethod = "system"
	MethodManual AssignmentMethod = "manual"
)

type Lead struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Phone     string     `json:"phone"`
	Consent   bool       `json:"consent"`
	VehicleID uuid.UUID  `json:"vehicle_id"`
	Status    LeadStatus `json:"status"`

	AssignedAgentID *uuid.UUID       `json:"assigned_agent_id,omitempty"`
	Method          AssignmentMethod `json:"assignment_method,omitempty"`

	// Audit-only intake metadata, never consulted by scoring.
	SourceIP  string `json:"source_ip,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	ConvertedAt *time.Time `json:"converted_at,omitempty"`
}

type LeadFilter struct {
	Status  *LeadStatus
	AgentID *uuid.UUID
	Limit   int
	Offset  int
}

type ActivityKind string

const (
	ActivitySystem     ActivityKind = "system"
	ActivityStatus     ActivityKind = "status"
	ActivityAssignment ActivityKind = "assignment"
	ActivityNote       ActivityKind = "note"
)

type Activity struct {
	ID          uuid.UUID    `json:"id"`
	LeadID      uuid.UUID    `json:"lead_id"`
	Kind        ActivityKind `json:"kind"`
	Description string       `json:"description"`
	ActorID     string       `json:"actor_id,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
}

// PerformanceSnapshot covers the current calendar month for one agent.
type PerformanceSnapshot struct {
	Received  int `json:"received"`
	Converted int `json:"converted"`
}

// ConversionRate is converted/received, 0 when nothing was received.
func (p PerformanceSnapshot) ConversionRate() float64 {
	if p.Received == 0 {
		return 0
	}
	return float64(p.Converted) / float64(p.Received)
}

type LeadStats struct {
	TotalNew       int `json:"total_new"`
	TotalInService int `json:"total_in_service"`
	TotalConverted int `json:"total_converted"`
	TotalLost      int `json:"total_lost"`
	TotalArchived  int `json:"total_archived"`
	AutoAssigned   int `json:"auto_assigned"`
}

// AssignRequest is the input to the transactional assignment write.
type AssignRequest struct {
	LeadID  uuid.UUID
	AgentID uuid.UUID
	Method  AssignmentMethod
	ActorID string
	Note    string
}

type StatusUpdate struct {
	LeadID  uuid.UUID
	Status  LeadStatus
	ActorID string
}

type Store interface {
	GetVehicle(ctx context.Context, id uuid.UUID) (*Vehicle, error)
	CreateVehicle(ctx context.Context, v *Vehicle) error
	ListVehicles(ctx context.Context, limit, offset int) ([]*Vehicle, error)

	GetAgent(ctx context.Context, id uuid.UUID) (*Agent, error)
	CreateAgent(ctx context.Context, a *Agent) error
	// ListEligibleAgents returns active sales agents in a stable order
	// (creation time, then id). Ranking ties keep this order.
	ListEligibleAgents(ctx context.Context) ([]*Agent, error)

	CountActiveLeadsForAgent(ctx context.Context, agentID uuid.UUID) (int, error)
	GetMonthlyPerformance(ctx context.Context, agentID uuid.UUID, now time.Time) (*PerformanceSnapshot, error)

	CreateLead(ctx context.Context, lead *Lead) error
	GetLead(ctx context.Context, id uuid.UUID) (*Lead, error)
	ListLeads(ctx context.Context, filter LeadFilter) ([]*Lead, error)
	FindRecentDuplicate(ctx context.Context, email, phone string, vehicleID uuid.UUID, window time.Duration) (*Lead, error)

	// AssignLead sets the assignee, forces the lead into in_service and
	// appends one activity row, all in a single transaction. The agent's
	// eligibility and capacity are re-checked inside that transaction.
	AssignLead(ctx context.Context, req AssignRequest) (*Lead, error)

	// UpdateLeadStatus transitions the lead and appends one activity row
	// in a single transaction. Terminal leads reject further updates.
	UpdateLeadStatus(ctx context.Context, upd StatusUpdate) (*Lead, error)

	AppendActivity(ctx context.Context, a *Activity) error
	ListActivities(ctx context.Context, leadID uuid.UUID) ([]*Activity, error)

	GetStats(ctx context.Context) (*LeadStats, error)

	Close() error
}
