package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const leadColumns = `id, name, email, phone, consent, vehicle_id, status,
	assigned_agent_id, assignment_method, source_ip, user_agent,
	created_at, updated_at, converted_at`

// CreateLead inserts the lead and its "lead created" audit row in one
// transaction. A lead never exists without its first activity.
func (s *PostgresStore) CreateLead(ctx context.Context, lead *Lead) error {
	if lead.Status == "" {
		lead.Status = StatusNew
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin lead creation: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO leads (name, email, phone, consent, vehicle_id, status, source_ip, user_agent)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at`,
		lead.Name, lead.Email, lead.Phone, lead.Consent, lead.VehicleID,
		lead.Status, lead.SourceIP, lead.UserAgent,
	).Scan(&lead.ID, &lead.CreatedAt, &lead.UpdatedAt)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO lead_activities (lead_id, kind, description, actor_id)
		VALUES ($1, $2, 'lead created', 'system')`,
		lead.ID, ActivitySystem)
	if err != nil {
		return fmt.Errorf("append creation activity: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit lead creation: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetLead(ctx context.Context, id uuid.UUID) (*Lead, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+leadColumns+` FROM leads WHERE id = $1`, id)
	lead, err := scanLead(row)
	if err == pgx.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return lead, nil
}

func (s *PostgresStore) ListLeads(ctx context.Context, filter LeadFilter) ([]*Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE 1=1`
	args := []interface{}{}
	n := 0

	if filter.Status != nil {
		n++
		query += fmt.Sprintf(" AND status = $%d", n)
		args = append(args, string(*filter.Status))
	}
	if filter.AgentID != nil {
		n++
		query += fmt.Sprintf(" AND assigned_agent_id = $%d", n)
		args = append(args, *filter.AgentID)
	}

	query += " ORDER BY created_at DESC"

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	n++
	query += fmt.Sprintf(" LIMIT $%d", n)
	args = append(args, limit)

	if filter.Offset > 0 {
		n++
		query += fmt.Sprintf(" OFFSET $%d", n)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var leads []*Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}
	return leads, rows.Err()
}

func (s *PostgresStore) FindRecentDuplicate(ctx context.Context, email, phone string, vehicleID uuid.UUID, window time.Duration) (*Lead, error) {
	cutoff := time.Now().Add(-window)
	row := s.pool.QueryRow(ctx, `
		SELECT `+leadColumns+` FROM leads
		WHERE email = $1 AND phone = $2 AND vehicle_id = $3 AND created_at > $4
		ORDER BY created_at DESC LIMIT 1`,
		email, phone, vehicleID, cutoff)
	lead, err := scanLead(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return lead, nil
}

// AssignLead is the single write path that hands a lead to an agent. The
// lead row is locked first, then the agent row itself, serializing all
// assignments to one agent; the capacity count then runs under that lock,
// so two concurrent assignments cannot both commit past capacity.
func (s *PostgresStore) AssignLead(ctx context.Context, req AssignRequest) (*Lead, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin assignment: %w", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `
		SELECT `+leadColumns+` FROM leads WHERE id = $1 FOR UPDATE`, req.LeadID)
	lead, err := scanLead(row)
	if err == pgx.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if lead.Status.Terminal() {
		return nil, ErrInvalidState
	}

	var role string
	var status AgentStatus
	var maxLeads int
	err = tx.QueryRow(ctx, `
		SELECT role, status, max_leads FROM sales_agents WHERE id = $1 FOR UPDATE`,
		req.AgentID,
	).Scan(&role, &status, &maxLeads)
	if err == pgx.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if role != "sales" || status != AgentActive {
		return nil, ErrInvalidAssignee
	}

	// Capacity re-check. Reassigning within the same agent does not add load.
	if lead.AssignedAgentID == nil || *lead.AssignedAgentID != req.AgentID {
		var active int
		err = tx.QueryRow(ctx, `
			SELECT COUNT(*) FROM leads
			WHERE assigned_agent_id = $1 AND status NOT IN ('converted', 'lost', 'archived')`,
			req.AgentID,
		).Scan(&active)
		if err != nil {
			return nil, err
		}
		if active >= maxLeads {
			return nil, ErrAtCapacity
		}
	}

	err = tx.QueryRow(ctx, `
		UPDATE leads SET
			assigned_agent_id = $2, assignment_method = $3,
			status = 'in_service', updated_at = now()
		WHERE id = $1
		RETURNING status, updated_at`,
		req.LeadID, req.AgentID, req.Method,
	).Scan(&lead.Status, &lead.UpdatedAt)
	if err != nil {
		return nil, err
	}
	lead.AssignedAgentID = &req.AgentID
	lead.Method = req.Method

	kind := ActivityAssignment
	if req.Method == MethodSystem {
		kind = ActivitySystem
	}
	note := req.Note
	if note == "" {
		note = fmt.Sprintf("assigned to agent %s (%s)", req.AgentID, req.Method)
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO lead_activities (lead_id, kind, description, actor_id)
		VALUES ($1, $2, $3, $4)`,
		req.LeadID, kind, note, req.ActorID)
	if err != nil {
		return nil, fmt.Errorf("append assignment activity: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit assignment: %w", err)
	}
	return lead, nil
}

func (s *PostgresStore) UpdateLeadStatus(ctx context.Context, upd StatusUpdate) (*Lead, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin status update: %w", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `
		SELECT `+leadColumns+` FROM leads WHERE id = $1 FOR UPDATE`, upd.LeadID)
	lead, err := scanLead(row)
	if err == pgx.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if lead.Status.Terminal() {
		return nil, ErrInvalidState
	}

	if upd.Status == StatusConverted {
		err = tx.QueryRow(ctx, `
			UPDATE leads SET status = $2, converted_at = now(), updated_at = now()
			WHERE id = $1
			RETURNING status, converted_at, updated_at`,
			upd.LeadID, upd.Status,
		).Scan(&lead.Status, &lead.ConvertedAt, &lead.UpdatedAt)
	} else {
		err = tx.QueryRow(ctx, `
			UPDATE leads SET status = $2, updated_at = now()
			WHERE id = $1
			RETURNING status, updated_at`,
			upd.LeadID, upd.Status,
		).Scan(&lead.Status, &lead.UpdatedAt)
	}
	if err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO lead_activities (lead_id, kind, description, actor_id)
		VALUES ($1, 'status', $2, $3)`,
		upd.LeadID, "status changed to "+string(upd.Status), upd.ActorID)
	if err != nil {
		return nil, fmt.Errorf("append status activity: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit status update: %w", err)
	}
	return lead, nil
}

func (s *PostgresStore) AppendActivity(ctx context.Context, a *Activity) error {
	return s.pool.QueryRow(ctx, `
		INSERT INTO lead_activities (lead_id, kind, description, actor_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		a.LeadID, a.Kind, a.Description, a.ActorID,
	).Scan(&a.ID, &a.CreatedAt)
}

func (s *PostgresStore) ListActivities(ctx context.Context, leadID uuid.UUID) ([]*Activity, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, lead_id, kind, description, actor_id, created_at
		FROM lead_activities WHERE lead_id = $1
		ORDER BY created_at ASC`, leadID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var activities []*Activity
	for rows.Next() {
		a := &Activity{}
		var actor sql.NullString
		if err := rows.Scan(&a.ID, &a.LeadID, &a.Kind, &a.Description, &actor, &a.CreatedAt); err != nil {
			return nil, err
		}
		if actor.Valid {
			a.ActorID = actor.String
		}
		activities = append(activities, a)
	}
	return activities, rows.Err()
}

func scanLead(row pgx.Row) (*Lead, error) {
	lead := &Lead{}
	var method, sourceIP, userAgent sql.NullString
	if err := row.Scan(
		&lead.ID, &lead.Name, &lead.Email, &lead.Phone, &lead.Consent,
		&lead.VehicleID, &lead.Status,
		&lead.AssignedAgentID, &method, &sourceIP, &userAgent,
		&lead.CreatedAt, &lead.UpdatedAt, &lead.ConvertedAt,
	); err != nil {
		return nil, err
	}
	if method.Valid {
		lead.Method = AssignmentMethod(method.String)
	}
	if sourceIP.Valid {
		lead.SourceIP = sourceIP.String
	}
	if userAgent.Valid {
		lead.UserAgent = userAgent.String
	}
	return lead, nil
}
