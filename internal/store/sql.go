package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/bduble/aiventa-crm-sub000/internal/model"
)

// Supported store drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// leadColumns is the canonical column list for lead queries.
const leadColumns = `id, name, first_name, last_name, email, phone, source,
	vehicle_interest, trade_vehicle, created_at,
	last_lead_response_at, last_lead_response_channel,
	last_staff_response_at, last_staff_response_channel`

// SQLStore implements Store over SQLite (local default) or Postgres (the
// shared CRM database). Queries are written with ? placeholders and rebound
// per driver.
type SQLStore struct {
	db     *sqlx.DB
	driver string
}

// New opens the lead store for the given driver and DSN and runs any
// pending schema migrations.
func New(driver, dsn string) (*SQLStore, error) {
	if driver == "" {
		driver = DriverSQLite
	}

	var db *sqlx.DB
	var err error
	switch driver {
	case DriverSQLite:
		db, err = sqlx.Open("sqlite", dsn)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite db: %w", err)
		}
		// SQLite has a single writer, and :memory: databases exist
		// per-connection; keep the pool at one connection.
		db.SetMaxOpenConns(1)
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("enabling WAL mode: %w", err)
		}
	case DriverPostgres:
		db, err = sqlx.Open("postgres", dsn)
		if err != nil {
			return nil, fmt.Errorf("opening postgres db: %w", err)
		}
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	default:
		return nil, fmt.Errorf("unsupported store driver %q", driver)
	}

	s := &SQLStore{db: db, driver: driver}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLStore) Close() error {
	return s.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLStore) runMigrations() error {
	tableQuery := "SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'"
	if s.driver == DriverPostgres {
		tableQuery = "SELECT COUNT(*) FROM information_schema.tables WHERE table_name = 'schema_version'"
	}

	var tableCount int
	if err := s.db.Get(&tableCount, tableQuery); err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	currentVersion := 0
	if tableCount > 0 {
		err := s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// InsertLead writes a new lead row. ID and CreatedAt are stamped when
// unset. The pipeline never updates existing rows through this path.
func (s *SQLStore) InsertLead(ctx context.Context, lead *model.Lead) error {
	if lead.ID == "" {
		lead.ID = uuid.New().String()
	}
	if lead.CreatedAt.IsZero() {
		lead.CreatedAt = time.Now().UTC()
	}

	query := s.db.Rebind(`
		INSERT INTO leads (
			id, name, first_name, last_name, email, phone,
			source, vehicle_interest, trade_vehicle, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)

	_, err := s.db.ExecContext(ctx, query,
		lead.ID, lead.Name, lead.FirstName, lead.LastName,
		lead.Email, lead.Phone,
		lead.Source, lead.VehicleInterest, lead.TradeVehicle,
		lead.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("inserting lead %s: %w", lead.ID, err)
	}

	return nil
}

// GetLeads retrieves leads matching the provided filter options.
func (s *SQLStore) GetLeads(ctx context.Context, filter LeadFilter) ([]model.Lead, error) {
	var conditions []string
	var args []interface{}

	if filter.Source != nil {
		conditions = append(conditions, "source = ?")
		args = append(args, *filter.Source)
	}
	if filter.Query != nil && *filter.Query != "" {
		conditions = append(conditions, "(name LIKE ? OR vehicle_interest LIKE ?)")
		q := "%" + *filter.Query + "%"
		args = append(args, q, q)
	}

	query := "SELECT " + leadColumns + " FROM leads"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	sortBy := "created_at"
	if filter.SortBy == "name" {
		sortBy = "name"
	}
	direction := "ASC"
	if filter.SortDesc {
		direction = "DESC"
	}
	query += fmt.Sprintf(" ORDER BY %s %s", sortBy, direction)

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	return s.queryLeads(ctx, s.db.Rebind(query), args...)
}

// GetLeadByID retrieves a single lead by its ID.
func (s *SQLStore) GetLeadByID(ctx context.Context, id string) (*model.Lead, error) {
	query := s.db.Rebind("SELECT " + leadColumns + " FROM leads WHERE id = ?")
	leads, err := s.queryLeads(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("getting lead %s: %w", id, err)
	}
	if len(leads) == 0 {
		return nil, sql.ErrNoRows
	}
	return &leads[0], nil
}

// FindCandidates returns leads matching any of the non-empty identity
// fields. It is a prefilter that bounds the duplicate comparison set, not
// the duplicate decision itself. All-empty input returns no candidates.
func (s *SQLStore) FindCandidates(ctx context.Context, email, lastName, phone string) ([]model.Lead, error) {
	var conditions []string
	var args []interface{}

	if email != "" {
		conditions = append(conditions, "email = ?")
		args = append(args, email)
	}
	if lastName != "" {
		conditions = append(conditions, "last_name = ?")
		args = append(args, lastName)
	}
	if phone != "" {
		conditions = append(conditions, "phone = ?")
		args = append(args, phone)
	}
	if len(conditions) == 0 {
		return nil, nil
	}

	query := s.db.Rebind(
		"SELECT " + leadColumns + " FROM leads WHERE " + strings.Join(conditions, " OR "),
	)

	leads, err := s.queryLeads(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("finding candidate leads: %w", err)
	}
	return leads, nil
}

// TouchLeadResponse records a lead-side response timestamp and channel.
func (s *SQLStore) TouchLeadResponse(ctx context.Context, id, channel string) error {
	query := s.db.Rebind(`
		UPDATE leads
		SET last_lead_response_at = ?, last_lead_response_channel = ?
		WHERE id = ?`)
	if _, err := s.db.ExecContext(ctx, query, time.Now().UTC(), channel, id); err != nil {
		return fmt.Errorf("recording lead response for %s: %w", id, err)
	}
	return nil
}

// TouchStaffResponse records a staff-side response timestamp and channel.
func (s *SQLStore) TouchStaffResponse(ctx context.Context, id, channel string) error {
	query := s.db.Rebind(`
		UPDATE leads
		SET last_staff_response_at = ?, last_staff_response_channel = ?
		WHERE id = ?`)
	if _, err := s.db.ExecContext(ctx, query, time.Now().UTC(), channel, id); err != nil {
		return fmt.Errorf("recording staff response for %s: %w", id, err)
	}
	return nil
}

// queryLeads runs an already-rebound query and scans the result rows.
func (s *SQLStore) queryLeads(ctx context.Context, query string, args ...interface{}) ([]model.Lead, error) {
	rows, err := s.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying leads: %w", err)
	}
	defer rows.Close()

	var leads []model.Lead
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}

	return leads, rows.Err()
}

// scanLead scans a lead row from a sqlx.Rows result set.
func scanLead(rows *sqlx.Rows) (model.Lead, error) {
	var (
		lead        model.Lead
		leadRespAt  sql.NullTime
		staffRespAt sql.NullTime
	)

	err := rows.Scan(
		&lead.ID, &lead.Name, &lead.FirstName, &lead.LastName,
		&lead.Email, &lead.Phone, &lead.Source,
		&lead.VehicleInterest, &lead.TradeVehicle, &lead.CreatedAt,
		&leadRespAt, &lead.LastLeadResponseChannel,
		&staffRespAt, &lead.LastStaffResponseChannel,
	)
	if err != nil {
		return model.Lead{}, fmt.Errorf("scanning lead row: %w", err)
	}

	if leadRespAt.Valid {
		t := leadRespAt.Time
		lead.LastLeadResponseAt = &t
	}
	if staffRespAt.Valid {
		t := staffRespAt.Time
		lead.LastStaffResponseAt = &t
	}

	return lead, nil
}
