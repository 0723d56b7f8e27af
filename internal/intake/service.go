package intake

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/showroomhq/leadrouter/internal/events"
	"github.com/showroomhq/leadrouter/internal/match"
	"github.com/showroomhq/leadrouter/internal/store"
)

// validate is the shared validator instance for intake payloads.
var validate = validator.New()

// ErrInvalidInput wraps intake validation failures.
var ErrInvalidInput = errors.New("invalid lead submission")

// LeadRequest is one inbound inquiry. Consent must be explicitly accepted;
// the zero value fails validation.
type LeadRequest struct {
	Name      string    `json:"name" validate:"required,min=2"`
	Email     string    `json:"email" validate:"required,email"`
	Phone     string    `json:"phone" validate:"required,min=7"`
	Consent   bool      `json:"consent" validate:"required"`
	VehicleID uuid.UUID `json:"vehicle_id" validate:"required"`

	SourceIP  string `json:"-"`
	UserAgent string `json:"-"`
}

// Result reports what intake did with a submission. Duplicate submissions
// carry the prior lead instead of a new one.
type Result struct {
	Lead      *store.Lead    `json:"lead"`
	Duplicate bool           `json:"duplicate"`
	Decision  match.Decision `json:"decision"`
}

// Service owns the lead lifecycle: intake with duplicate suppression, the
// auto-assignment executor, manual assignment and status transitions. It is
// the only component with write effects.
type Service struct {
	store   store.Store
	matcher *match.Matcher
	events  events.Client
	window  time.Duration
	logger  *slog.Logger
}

func NewService(s store.Store, m *match.Matcher, ev events.Client, window time.Duration, logger *slog.Logger) *Service {
	return &Service{store: s, matcher: m, events: ev, window: window, logger: logger}
}

// Submit validates, dedupes and creates a lead, then routes it. If an
// identical (email, phone, vehicle) triplet arrived inside the duplicate
// window the existing lead is returned and nothing is created.
func (s *Service) Submit(ctx context.Context, req *LeadRequest) (*Result, error) {
	if err := validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, validationReason(err))
	}

	if _, err := s.store.GetVehicle(ctx, req.VehicleID); err != nil {
		return nil, err
	}

	existing, err := s.store.FindRecentDuplicate(ctx, req.Email, req.Phone, req.VehicleID, s.window)
	if err != nil {
		return nil, fmt.Errorf("duplicate lookup: %w", err)
	}
	if existing != nil {
		s.logger.Info("duplicate submission suppressed",
			"lead_id", existing.ID, "email", req.Email)
		s.publish(events.SubjectLeadDuplicate(existing.ID.String()), events.LeadDuplicateEvent{
			ExistingLeadID: existing.ID.String(),
			VehicleID:      req.VehicleID.String(),
		})
		return &Result{Lead: existing, Duplicate: true}, nil
	}

	lead := &store.Lead{
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		Consent:   req.Consent,
		VehicleID: req.VehicleID,
		Status:    store.StatusNew,
		SourceIP:  req.SourceIP,
		UserAgent: req.UserAgent,
	}
	// CreateLead writes the lead and its creation audit row atomically.
	if err := s.store.CreateLead(ctx, lead); err != nil {
		return nil, fmt.Errorf("create lead: %w", err)
	}

	s.publish(events.SubjectLeadCreated(lead.ID.String()), events.LeadCreatedEvent{
		LeadID:    lead.ID.String(),
		VehicleID: lead.VehicleID.String(),
		Email:     lead.Email,
		SourceIP:  lead.SourceIP,
	})

	decision, err := s.route(ctx, lead)
	if err != nil {
		return nil, err
	}
	return &Result{Lead: lead, Decision: decision}, nil
}

// route runs the ranking policy and applies an auto-assignment when the
// decision clears the threshold. A capacity race lost between ranking and
// the transactional write downgrades to manual review instead of failing
// the intake.
func (s *Service) route(ctx context.Context, lead *store.Lead) (match.Decision, error) {
	decision, err := s.matcher.Decide(ctx, lead.VehicleID)
	if err != nil {
		return match.Decision{}, fmt.Errorf("routing decision: %w", err)
	}

	switch decision.Outcome {
	case match.OutcomeAutoAssign:
		updated, err := s.store.AssignLead(ctx, store.AssignRequest{
			LeadID:  lead.ID,
			AgentID: decision.Top.AgentID,
			Method:  store.MethodSystem,
			ActorID: actorSystem,
			Note:    assignmentNote(decision),
		})
		if errors.Is(err, store.ErrAtCapacity) || errors.Is(err, store.ErrInvalidAssignee) {
			s.logger.Warn("auto-assignment lost capacity race, deferring to manual review",
				"lead_id", lead.ID, "agent_id", decision.Top.AgentID, "error", err)
			decision.Outcome = match.OutcomeManualReview
			break
		}
		if err != nil {
			return match.Decision{}, fmt.Errorf("apply auto-assignment: %w", err)
		}
		*lead = *updated
		s.publish(events.SubjectLeadAssigned(lead.ID.String()), events.LeadAssignedEvent{
			LeadID:    lead.ID.String(),
			AgentID:   decision.Top.AgentID.String(),
			Method:    string(store.MethodSystem),
			Composite: decision.Top.Composite,
		})
	case match.OutcomeNoCandidate, match.OutcomeManualReview:
		s.publish(events.SubjectRoutingUnrouted(lead.ID.String()), events.LeadUnroutedEvent{
			LeadID:  lead.ID.String(),
			Outcome: string(decision.Outcome),
		})
	}

	decided := events.RoutingDecidedEvent{
		VehicleID: lead.VehicleID.String(),
		Outcome:   string(decision.Outcome),
	}
	if decision.Top != nil {
		decided.AgentID = decision.Top.AgentID.String()
		decided.Composite = decision.Top.Composite
	}
	s.publish(events.SubjectRoutingDecided(lead.VehicleID.String()), decided)
	return decision, nil
}

// Assign applies a manual assignment by an authorized actor.
func (s *Service) Assign(ctx context.Context, leadID, agentID uuid.UUID, actor string) (*store.Lead, error) {
	lead, err := s.store.AssignLead(ctx, store.AssignRequest{
		LeadID:  leadID,
		AgentID: agentID,
		Method:  store.MethodManual,
		ActorID: actor,
	})
	if err != nil {
		return nil, err
	}
	s.publish(events.SubjectLeadAssigned(lead.ID.String()), events.LeadAssignedEvent{
		LeadID:  lead.ID.String(),
		AgentID: agentID.String(),
		Method:  string(store.MethodManual),
	})
	return lead, nil
}

// UpdateStatus transitions a lead's lifecycle status. An agent change in the
// same call goes through Assign first, then the status write.
func (s *Service) UpdateStatus(ctx context.Context, leadID uuid.UUID, status store.LeadStatus, actor string) (*store.Lead, error) {
	lead, err := s.store.UpdateLeadStatus(ctx, store.StatusUpdate{
		LeadID:  leadID,
		Status:  status,
		ActorID: actor,
	})
	if err != nil {
		return nil, err
	}
	s.publish(events.SubjectLeadStatusChanged(lead.ID.String()), events.LeadStatusChangedEvent{
		LeadID: lead.ID.String(),
		Status: string(status),
		Actor:  actor,
	})
	return lead, nil
}

// AddNote attaches a free-form note to a lead's activity timeline. Notes
// are allowed on terminal leads; only lifecycle mutations are frozen.
func (s *Service) AddNote(ctx context.Context, leadID uuid.UUID, note, actor string) (*store.Activity, error) {
	if note == "" {
		return nil, fmt.Errorf("%w: note must not be empty", ErrInvalidInput)
	}
	if _, err := s.store.GetLead(ctx, leadID); err != nil {
		return nil, err
	}
	a := &store.Activity{
		LeadID:      leadID,
		Kind:        store.ActivityNote,
		Description: note,
		ActorID:     actor,
	}
	if err := s.store.AppendActivity(ctx, a); err != nil {
		return nil, fmt.Errorf("append note: %w", err)
	}
	return a, nil
}

func (s *Service) publish(subject string, data interface{}) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(subject, data); err != nil {
		s.logger.Warn("event publish failed", "subject", subject, "error", err)
	}
}

const actorSystem = "system"

func assignmentNote(d match.Decision) string {
	return fmt.Sprintf("auto-assigned to %s with score %d: %s",
		d.Top.AgentName, d.Top.Composite, firstReason(d))
}

func firstReason(d match.Decision) string {
	if len(d.Top.Reasons) == 0 {
		return "no scoring detail"
	}
	return d.Top.Reasons[0]
}

func validationReason(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		f := verrs[0]
		if f.Field() == "Consent" {
			return "consent must be accepted"
		}
		return fmt.Sprintf("field %s failed %s validation", f.Field(), f.Tag())
	}
	return err.Error()
}
