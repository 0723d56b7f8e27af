package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// --- Vehicles ---

const vehicleColumns = `id, make, model, year, category, price, created_at`

func (s *PostgresStore) CreateVehicle(ctx context.Context, v *Vehicle) error {
	return s.pool.QueryRow(ctx, `
		INSERT INTO vehicles (make, model, year, category, price)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`,
		v.Make, v.Model, v.Year, v.Category, v.Price,
	).Scan(&v.ID, &v.CreatedAt)
}

func (s *PostgresStore) GetVehicle(ctx context.Context, id uuid.UUID) (*Vehicle, error) {
	v := &Vehicle{}
	err := s.pool.QueryRow(ctx, `
		SELECT `+vehicleColumns+` FROM vehicles WHERE id = $1`, id,
	).Scan(&v.ID, &v.Make, &v.Model, &v.Year, &v.Category, &v.Price, &v.CreatedAt)
	if err == pgx.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (s *PostgresStore) ListVehicles(ctx context.Context, limit, offset int) ([]*Vehicle, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx, `
		SELECT `+vehicleColumns+` FROM vehicles
		ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var vehicles []*Vehicle
	for rows.Next() {
		v := &Vehicle{}
		if err := rows.Scan(&v.ID, &v.Make, &v.Model, &v.Year, &v.Category, &v.Price, &v.CreatedAt); err != nil {
			return nil, err
		}
		vehicles = append(vehicles, v)
	}
	return vehicles, rows.Err()
}

// --- Agents ---

const agentColumns = `id, name, email, role, tier, specialties, rules, max_leads, status, created_at`

func (s *PostgresStore) CreateAgent(ctx context.Context, a *Agent) error {
	var rulesJSON []byte
	if a.Rules != nil {
		rulesJSON, _ = json.Marshal(a.Rules)
	}
	specialties := make([]string, 0, len(a.Specialties))
	for _, c := range a.Specialties {
		specialties = append(specialties, string(c))
	}
	return s.pool.QueryRow(ctx, `
		INSERT INTO sales_agents (name, email, role, tier, specialties, rules, max_leads, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`,
		a.Name, a.Email, a.Role, a.Tier, specialties, rulesJSON, a.MaxLeads, a.Status,
	).Scan(&a.ID, &a.CreatedAt)
}

func (s *PostgresStore) GetAgent(ctx context.Context, id uuid.UUID) (*Agent, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+agentColumns+` FROM sales_agents WHERE id = $1`, id)
	a, err := scanAgent(row)
	if err == pgx.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (s *PostgresStore) ListEligibleAgents(ctx context.Context) ([]*Agent, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+agentColumns+` FROM sales_agents
		WHERE role = 'sales' AND status = 'active'
		ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var agents []*Agent
	for rows.Next() {
		a, err := scanAgent(rows)
		if err != nil {
			return nil, err
		}
		agents = append(agents, a)
	}
	return agents, rows.Err()
}

func scanAgent(row pgx.Row) (*Agent, error) {
	a := &Agent{}
	var specialties []string
	var rulesJSON []byte
	if err := row.Scan(
		&a.ID, &a.Name, &a.Email, &a.Role, &a.Tier,
		&specialties, &rulesJSON, &a.MaxLeads, &a.Status, &a.CreatedAt,
	); err != nil {
		return nil, err
	}
	for _, c := range specialties {
		a.Specialties = append(a.Specialties, VehicleCategory(c))
	}
	if len(rulesJSON) > 0 {
		rules := &AssignmentRules{}
		if err := json.Unmarshal(rulesJSON, rules); err != nil {
			return nil, fmt.Errorf("decode rules for agent %s: %w", a.ID, err)
		}
		a.Rules = rules
	}
	return a, nil
}

// --- Workload and performance ---

func (s *PostgresStore) CountActiveLeadsForAgent(ctx context.Context, agentID uuid.UUID) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM leads
		WHERE assigned_agent_id = $1 AND status NOT IN ('converted', 'lost', 'archived')`,
		agentID,
	).Scan(&count)
	return count, err
}

func (s *PostgresStore) GetMonthlyPerformance(ctx context.Context, agentID uuid.UUID, now time.Time) (*PerformanceSnapshot, error) {
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	p := &PerformanceSnapshot{}
	err := s.pool.QueryRow(ctx, `
		SELECT
			COALESCE(SUM(CASE WHEN created_at >= $2 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'converted' AND converted_at >= $2 THEN 1 ELSE 0 END), 0)
		FROM leads WHERE assigned_agent_id = $1`,
		agentID, monthStart,
	).Scan(&p.Received, &p.Converted)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *PostgresStore) GetStats(ctx context.Context) (*LeadStats, error) {
	stats := &LeadStats{}
	err := s.pool.QueryRow(ctx, `
		SELECT
			COALESCE(SUM(CASE WHEN status = 'new' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'in_service' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'converted' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'lost' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = 'archived' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN assignment_method = 'system' THEN 1 ELSE 0 END), 0)
		FROM leads`,
	).Scan(&stats.TotalNew, &stats.TotalInService, &stats.TotalConverted,
		&stats.TotalLost, &stats.TotalArchived, &stats.AutoAssigned)
	return stats, err
}
