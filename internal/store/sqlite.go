package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/radar-cli/internal/company"
	"github.com/sells-group/radar-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS companies (
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
	created_at          DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at          DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS interactions (
	id            TEXT PRIMARY KEY,
	cnpj          TEXT NOT NULL REFERENCES companies(cnpj),
	tipo          TEXT NOT NULL DEFAULT '',
	descricao     TEXT NOT NULL DEFAULT '',
	proximo_passo TEXT NOT NULL DEFAULT '',
	created_at    DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	source     TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'running',
	records    INTEGER NOT NULL DEFAULT 0,
	tally      TEXT,
	error      TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_companies_bairro ON companies(bairro);
CREATE INDEX IF NOT EXISTS idx_companies_status_crm ON companies(status_crm);
CREATE INDEX IF NOT EXISTS idx_interactions_cnpj ON interactions(cnpj);
CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

var sqliteUpsertCompany = upsertCompanySQL(func(int) string { return "?" })

func (s *SQLiteStore) GetCompany(ctx context.Context, taxID string) (*company.Company, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+companySelect+` FROM companies WHERE cnpj = ?`, taxID)
	c := &company.Company{}
	err := row.Scan(companyDests(c)...)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get company %s", taxID)
	}
	return c, nil
}

func (s *SQLiteStore) UpsertCompany(ctx context.Context, c *company.Company) error {
	now := time.Now().UTC()
	created := c.CreatedAt
	if created.IsZero() {
		created = now
	}
	args := append([]any{c.TaxID}, companyArgs(c)...)
	args = append(args, crmStatusOrDefault(c.CRMStatus), created, now)

	if _, err := s.db.ExecContext(ctx, sqliteUpsertCompany, args...); err != nil {
		return eris.Wrapf(err, "sqlite: upsert company %s", c.TaxID)
	}
	c.UpdatedAt = now
	return nil
}

func (s *SQLiteStore) ListCompanies(ctx context.Context, filter company.ListFilter) ([]company.Company, error) {
	query := `SELECT ` + companySelect + ` FROM companies WHERE 1=1`
	var args []any

	if filter.District != "" {
		query += ` AND LOWER(bairro) LIKE ?`
		args = append(args, districtPattern(filter.District))
	}
	if filter.CRMStatus != "" {
		query += ` AND status_crm = ?`
		args = append(args, string(filter.CRMStatus))
	}
	query += ` ORDER BY razao_social ASC LIMIT ?`
	args = append(args, listLimit(filter.Limit))

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list companies")
	}
	defer rows.Close()

	var out []company.Company
	for rows.Next() {
		var c company.Company
		if err := rows.Scan(companyDests(&c)...); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan company")
		}
		out = append(out, c)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list companies iterate")
}

func (s *SQLiteStore) SetCRMStatus(ctx context.Context, taxID string, status company.CRMStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE companies SET status_crm = ?, updated_at = ? WHERE cnpj = ?`,
		string(status), time.Now().UTC(), taxID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: set crm status %s", taxID)
	}
	return checkRowsAffected(res, "company", taxID)
}

func (s *SQLiteStore) AddInteraction(ctx context.Context, in *company.Interaction) error {
	if in.ID == "" {
		in.ID = uuid.New().String()
	}
	in.CreatedAt = time.Now().UTC()

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO interactions (id, cnpj, tipo, descricao, proximo_passo, created_at)
		 SELECT ?, ?, ?, ?, ?, ? WHERE EXISTS (SELECT 1 FROM companies WHERE cnpj = ?)`,
		in.ID, in.TaxID, in.Kind, in.Notes, in.NextStep, in.CreatedAt, in.TaxID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: insert interaction for %s", in.TaxID)
	}
	return checkRowsAffected(res, "company", in.TaxID)
}

func (s *SQLiteStore) ListInteractions(ctx context.Context, taxID string) ([]company.Interaction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, cnpj, tipo, descricao, proximo_passo, created_at FROM interactions
		 WHERE cnpj = ? ORDER BY created_at DESC`,
		taxID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list interactions %s", taxID)
	}
	defer rows.Close()

	var out []company.Interaction
	for rows.Next() {
		var in company.Interaction
		if err := rows.Scan(&in.ID, &in.TaxID, &in.Kind, &in.Notes, &in.NextStep, &in.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan interaction")
		}
		out = append(out, in)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list interactions iterate")
}

func (s *SQLiteStore) CreateRun(ctx context.Context, source string) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, source, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		id, source, string(model.RunStatusRunning), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
	}

	return &model.Run{
		ID:        id,
		Source:    source,
		Status:    model.RunStatusRunning,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *SQLiteStore) CompleteRun(ctx context.Context, runID string, records int, tally model.Tally, runErr error) error {
	tallyJSON, err := json.Marshal(tally)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal tally")
	}
	status, msg := runStatusFor(runErr)

	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, records = ?, tally = ?, error = ?, updated_at = ? WHERE id = ?`,
		string(status), records, string(tallyJSON), msg, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: complete run %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, source, status, records, tally, error, created_at, updated_at FROM runs WHERE id = ?`,
		runID,
	)
	return scanRun(row)
}

func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT id, source, status, records, tally, error, created_at, updated_at FROM runs WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	if filter.Source != "" {
		query += ` AND source = ?`
		args = append(args, filter.Source)
	}
	if !filter.CreatedAfter.IsZero() {
		query += ` AND created_at >= ?`
		args = append(args, filter.CreatedAfter.UTC())
	}
	query += ` ORDER BY created_at DESC LIMIT ?`
	args = append(args, listLimit(filter.Limit))

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrNotFound, "%s %s", entity, id)
	}
	return nil
}

func scanRun(row scannable) (*model.Run, error) {
	var r model.Run
	var tallyJSON sql.NullString

	err := row.Scan(&r.ID, &r.Source, &r.Status, &r.Records, &tallyJSON, &r.Error, &r.CreatedAt, &r.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, eris.Wrap(ErrNotFound, "sqlite: get run")
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan run")
	}
	if tallyJSON.Valid && tallyJSON.String != "" {
		if err := json.Unmarshal([]byte(tallyJSON.String), &r.Tally); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal tally")
		}
	}
	return &r, nil
}
