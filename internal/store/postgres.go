package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/radar-cli/internal/company"
	"github.com/sells-group/radar-cli/internal/db"
	"github.com/sells-group/radar-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool db.Pool
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresFromPool wraps an existing pool.
func NewPostgresFromPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

var postgresMigration = []string{
	`CREATE TABLE IF NOT EXISTS companies (
		cnpj                TEXT PRIMARY KEY,
		razao_social        TEXT NOT NULL DEFAULT '',
		nome_fantasia       TEXT NOT NULL DEFAULT '',
		grupo_atividade     TEXT NOT NULL DEFAULT '',
		descricao_atividade TEXT NOT NULL DEFAULT '',
		risco               TEXT NOT NULL DEFAULT '',
		porte               TEXT NOT NULL DEFAULT '',
		status_taxa         TEXT NOT NULL DEFAULT '',
		telefone            TEXT NOT NULL DEFAULT '',
		qsa                 TEXT NOT NULL DEFAULT '',
		logradouro          TEXT NOT NULL DEFAULT '',
		numero              TEXT NOT NULL DEFAULT '',
		bairro              TEXT NOT NULL DEFAULT '',
		municipio           TEXT NOT NULL DEFAULT '',
		uf                  TEXT NOT NULL DEFAULT '',
		cep                 TEXT NOT NULL DEFAULT '',
		rota_link           TEXT NOT NULL DEFAULT '',
		data_abertura       TEXT NOT NULL DEFAULT '',
		dados_extra         TEXT NOT NULL DEFAULT '',
		status_crm          TEXT NOT NULL DEFAULT 'Novo',
		created_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at          TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS interactions (
		id            TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
		cnpj          TEXT NOT NULL REFERENCES companies(cnpj),
		tipo          TEXT NOT NULL DEFAULT '',
		descricao     TEXT NOT NULL DEFAULT '',
		proximo_passo TEXT NOT NULL DEFAULT '',
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS runs (
		id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
		source     TEXT NOT NULL,
		status     TEXT NOT NULL DEFAULT 'running',
		records    INTEGER NOT NULL DEFAULT 0,
		tally      JSONB,
		error      TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_companies_bairro ON companies(bairro)`,
	`CREATE INDEX IF NOT EXISTS idx_companies_status_crm ON companies(status_crm)`,
	`CREATE INDEX IF NOT EXISTS idx_interactions_cnpj ON interactions(cnpj)`,
	`CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status)`,
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Migrate creates the ledger and run-log tables in a single transaction.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	err := db.InTx(ctx, s.pool, func(tx pgx.Tx) error {
		for _, stmt := range postgresMigration {
			if _, err := tx.Exec(ctx, stmt); err != nil {
				return err
			}
		}
		return nil
	})
	return eris.Wrap(err, "postgres: migrate")
}

// Close releases the pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

var postgresUpsertCompany = upsertCompanySQL(func(i int) string { return fmt.Sprintf("$%d", i) })

// GetCompany fetches a ledger company by tax id.
func (s *PostgresStore) GetCompany(ctx context.Context, taxID string) (*company.Company, error) {
	c := &company.Company{}
	err := s.pool.QueryRow(ctx, `SELECT `+companySelect+` FROM companies WHERE cnpj = $1`, taxID).
		Scan(companyDests(c)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get company %s", taxID)
	}
	return c, nil
}

// UpsertCompany inserts or refreshes a ledger company.
func (s *PostgresStore) UpsertCompany(ctx context.Context, c *company.Company) error {
	now := time.Now().UTC()
	created := c.CreatedAt
	if created.IsZero() {
		created = now
	}
	args := append([]any{c.TaxID}, companyArgs(c)...)
	args = append(args, crmStatusOrDefault(c.CRMStatus), created, now)

	if _, err := s.pool.Exec(ctx, postgresUpsertCompany, args...); err != nil {
		return eris.Wrapf(err, "postgres: upsert company %s", c.TaxID)
	}
	c.UpdatedAt = now
	return nil
}

// ListCompanies returns ledger companies matching filter.
func (s *PostgresStore) ListCompanies(ctx context.Context, filter company.ListFilter) ([]company.Company, error) {
	var (
		where []string
		args  []any
	)
	if filter.District != "" {
		args = append(args, districtPattern(filter.District))
		where = append(where, fmt.Sprintf("LOWER(bairro) LIKE $%d", len(args)))
	}
	if filter.CRMStatus != "" {
		args = append(args, string(filter.CRMStatus))
		where = append(where, fmt.Sprintf("status_crm = $%d", len(args)))
	}

	query := `SELECT ` + companySelect + ` FROM companies`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	args = append(args, listLimit(filter.Limit))
	query += fmt.Sprintf(` ORDER BY razao_social ASC LIMIT $%d`, len(args))
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(` OFFSET $%d`, len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list companies")
	}
	defer rows.Close()

	var out []company.Company
	for rows.Next() {
		var c company.Company
		if err := rows.Scan(companyDests(&c)...); err != nil {
			return nil, eris.Wrap(err, "postgres: scan company")
		}
		out = append(out, c)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list companies iterate")
}

// SetCRMStatus moves a company to a new pipeline stage.
func (s *PostgresStore) SetCRMStatus(ctx context.Context, taxID string, status company.CRMStatus) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE companies SET status_crm = $1, updated_at = now() WHERE cnpj = $2`,
		string(status), taxID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: set crm status %s", taxID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "company %s", taxID)
	}
	return nil
}

// AddInteraction records a CRM note against an existing company.
func (s *PostgresStore) AddInteraction(ctx context.Context, in *company.Interaction) error {
	if in.ID == "" {
		in.ID = uuid.New().String()
	}
	in.CreatedAt = time.Now().UTC()

	tag, err := s.pool.Exec(ctx,
		`INSERT INTO interactions (id, cnpj, tipo, descricao, proximo_passo, created_at)
		 SELECT $1, $2, $3, $4, $5, $6 WHERE EXISTS (SELECT 1 FROM companies WHERE cnpj = $2)`,
		in.ID, in.TaxID, in.Kind, in.Notes, in.NextStep, in.CreatedAt,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: insert interaction for %s", in.TaxID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "company %s", in.TaxID)
	}
	return nil
}

// ListInteractions returns a company's CRM notes, newest first.
func (s *PostgresStore) ListInteractions(ctx context.Context, taxID string) ([]company.Interaction, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, cnpj, tipo, descricao, proximo_passo, created_at FROM interactions
		 WHERE cnpj = $1 ORDER BY created_at DESC`,
		taxID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list interactions %s", taxID)
	}
	defer rows.Close()

	var out []company.Interaction
	for rows.Next() {
		var in company.Interaction
		if err := rows.Scan(&in.ID, &in.TaxID, &in.Kind, &in.Notes, &in.NextStep, &in.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan interaction")
		}
		out = append(out, in)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list interactions iterate")
}

// CreateRun opens a run-log entry for source.
func (s *PostgresStore) CreateRun(ctx context.Context, source string) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO runs (id, source, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		id, source, string(model.RunStatusRunning), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert run")
	}
	return &model.Run{
		ID:        id,
		Source:    source,
		Status:    model.RunStatusRunning,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// CompleteRun records the outcome tally and final status of a run.
func (s *PostgresStore) CompleteRun(ctx context.Context, runID string, records int, tally model.Tally, runErr error) error {
	tallyJSON, err := json.Marshal(tally)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal tally")
	}
	status, msg := runStatusFor(runErr)

	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET status = $1, records = $2, tally = $3, error = $4, updated_at = $5 WHERE id = $6`,
		string(status), records, tallyJSON, msg, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: complete run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Wrapf(ErrNotFound, "run %s", runID)
	}
	return nil
}

// GetRun fetches one run.
func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, source, status, records, tally, error, created_at, updated_at FROM runs WHERE id = $1`,
		runID,
	)
	r, err := scanPgRun(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, eris.Wrapf(ErrNotFound, "postgres: get run %s", runID)
		}
		return nil, eris.Wrapf(err, "postgres: get run %s", runID)
	}
	return r, nil
}

// ListRuns returns runs newest first.
func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT id, source, status, records, tally, error, created_at, updated_at FROM runs WHERE 1=1`
	var args []any
	argIdx := 1

	if filter.Status != "" {
		query += fmt.Sprintf(` AND status = $%d`, argIdx)
		args = append(args, string(filter.Status))
		argIdx++
	}
	if filter.Source != "" {
		query += fmt.Sprintf(` AND source = $%d`, argIdx)
		args = append(args, filter.Source)
		argIdx++
	}
	if !filter.CreatedAfter.IsZero() {
		query += fmt.Sprintf(` AND created_at >= $%d`, argIdx)
		args = append(args, filter.CreatedAfter)
		argIdx++
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d`, argIdx)
	args = append(args, listLimit(filter.Limit))
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		r, err := scanPgRun(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}

func scanPgRun(row scannable) (*model.Run, error) {
	var r model.Run
	var tallyJSON []byte
	if err := row.Scan(&r.ID, &r.Source, &r.Status, &r.Records, &tallyJSON, &r.Error, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	if len(tallyJSON) > 0 {
		if err := json.Unmarshal(tallyJSON, &r.Tally); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal tally")
		}
	}
	return &r, nil
}
