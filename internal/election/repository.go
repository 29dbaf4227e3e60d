package election

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/gestaozabele/eleicoes/internal/db"
	"github.com/gestaozabele/eleicoes/internal/repo"
)

const defaultDBTimeout = 3 * time.Second

// Repository lê eleições, códigos DICO e resultados do Postgres.
type Repository struct {
	db      *pgxpool.Pool
	timeout time.Duration
}

func NewRepository(pool *pgxpool.Pool, timeout time.Duration) *Repository {
	if timeout <= 0 {
		timeout = defaultDBTimeout
	}
	return &Repository{db: pool, timeout: timeout}
}

const (
	electionColumns = `election_id, name, date, type`
	dicoColumns     = `code, level, name, parent_code`
	resultColumns   = `r.election_id, r.dico_code, r.party_code, r.votes, r.percentage, r.created_at, r.updated_at`
)

func (r *Repository) ListElections(ctx context.Context) ([]Election, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	rows, err := r.db.Query(ctx, `SELECT `+electionColumns+` FROM elections ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("listar eleições: %w", err)
	}
	defer rows.Close()

	elections := []Election{}
	for rows.Next() {
		e, err := scanElection(rows)
		if err != nil {
			return nil, err
		}
		elections = append(elections, e)
	}

	return elections, rows.Err()
}

func (r *Repository) GetElection(ctx context.Context, electionID string) (Election, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	row := r.db.QueryRow(ctx, `SELECT `+electionColumns+` FROM elections WHERE election_id = $1`, electionID)
	e, err := scanElection(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Election{}, repo.ErrNotFound
		}
		return Election{}, fmt.Errorf("buscar eleição %s: %w", electionID, err)
	}
	return e, nil
}

func (r *Repository) ListDicoCodes(ctx context.Context, filter DicoFilter) ([]DicoCode, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var (
		conds []string
		args  []any
	)
	if filter.Level != nil {
		args = append(args, *filter.Level)
		conds = append(conds, fmt.Sprintf("level = $%d", len(args)))
	}
	if filter.Parent != nil {
		args = append(args, *filter.Parent)
		conds = append(conds, fmt.Sprintf("parent_code = $%d", len(args)))
	}

	query := `SELECT ` + dicoColumns + ` FROM dico_codes`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY id`

	codes, err := r.queryDico(ctx, r.db, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listar códigos dico: %w", err)
	}
	return codes, nil
}

// GetDicoCode devolve o código e seus filhos diretos no mesmo snapshot.
func (r *Repository) GetDicoCode(ctx context.Context, code string) (DicoCode, []DicoCode, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var (
		dico     DicoCode
		children []DicoCode
	)
	err := db.WithReadTx(ctx, r.db, func(ctx context.Context, tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `SELECT `+dicoColumns+` FROM dico_codes WHERE code = $1`, code)
		var err error
		if dico, err = scanDico(row); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return repo.ErrNotFound
			}
			return err
		}

		children, err = r.queryDico(ctx, tx, `SELECT `+dicoColumns+` FROM dico_codes WHERE parent_code = $1 ORDER BY id`, code)
		return err
	})
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return DicoCode{}, nil, err
		}
		return DicoCode{}, nil, fmt.Errorf("buscar código dico %s: %w", code, err)
	}

	return dico, children, nil
}

func (r *Repository) ListResults(ctx context.Context, electionID string, level *int) ([]Result, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	query := `SELECT ` + resultColumns + ` FROM results r WHERE r.election_id = $1 ORDER BY r.id`
	args := []any{electionID}
	if level != nil {
		query = `SELECT ` + resultColumns + ` FROM results r
			JOIN dico_codes d ON d.code = r.dico_code
			WHERE r.election_id = $1 AND d.level = $2
			ORDER BY r.id`
		args = append(args, *level)
	}

	results, err := r.queryResults(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listar resultados %s: %w", electionID, err)
	}
	return results, nil
}

func (r *Repository) ListResultsByGeography(ctx context.Context, electionID, dicoCode string) ([]Result, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	results, err := r.queryResults(ctx, `SELECT `+resultColumns+` FROM results r
		WHERE r.election_id = $1 AND r.dico_code = $2
		ORDER BY r.id`, electionID, dicoCode)
	if err != nil {
		return nil, fmt.Errorf("listar resultados %s/%s: %w", electionID, dicoCode, err)
	}
	return results, nil
}

// Ping valida a conexão com o banco.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.Ping(ctx)
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func (r *Repository) queryDico(ctx context.Context, q querier, query string, args ...any) ([]DicoCode, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	codes := []DicoCode{}
	for rows.Next() {
		c, err := scanDico(rows)
		if err != nil {
			return nil, err
		}
		codes = append(codes, c)
	}

	return codes, rows.Err()
}

func (r *Repository) queryResults(ctx context.Context, query string, args ...any) ([]Result, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := []Result{}
	for rows.Next() {
		var (
			res Result
			pct pgtype.Numeric
		)
		if err := rows.Scan(&res.ElectionID, &res.DicoCode, &res.PartyCode, &res.Votes, &pct, &res.CreatedAt, &res.UpdatedAt); err != nil {
			return nil, err
		}
		if res.Percentage, err = numericToPercent(pct); err != nil {
			return nil, err
		}
		results = append(results, res)
	}

	return results, rows.Err()
}

func scanElection(row pgx.Row) (Election, error) {
	var (
		e    Election
		date time.Time
	)
	if err := row.Scan(&e.ElectionID, &e.Name, &date, &e.Type); err != nil {
		return Election{}, err
	}
	e.Date = Date{Time: date}
	return e, nil
}

func scanDico(row pgx.Row) (DicoCode, error) {
	var c DicoCode
	err := row.Scan(&c.Code, &c.Level, &c.Name, &c.ParentCode)
	return c, err
}

func numericToPercent(n pgtype.Numeric) (*Percent, error) {
	if !n.Valid {
		return nil, nil
	}
	if n.NaN || n.InfinityModifier != pgtype.Finite {
		return nil, errors.New("percentual não finito")
	}
	if n.Int == nil {
		return &Percent{Decimal: decimal.Zero}, nil
	}
	p := Percent{Decimal: decimal.NewFromBigInt(n.Int, n.Exp)}
	return &p, nil
}
