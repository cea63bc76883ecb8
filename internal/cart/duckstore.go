package cart

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/marcboeker/go-duckdb"
	"github.com/panel-configurator/backend/internal/codec"
	"github.com/panel-configurator/backend/internal/models"
)

// DuckOptions tunes the DuckDB connection.
type DuckOptions struct {
	Threads     int
	MemoryLimit string
	Logger      *log.Logger
}

// DuckStore persists the cart in a DuckDB file. Each design is stored as a
// msgpack payload next to the columns needed for ordering and totals.
type DuckStore struct {
	db     *sql.DB
	dbPath string
	logger *log.Logger

	// serializes writes so positions stay dense
	mu sync.Mutex
}

// NewDuckStore opens (or creates) the cart database at dbPath.
func NewDuckStore(dbPath string, opts DuckOptions) (*DuckStore, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	logger = logger.WithPrefix("cart")
	if opts.Threads <= 0 {
		opts.Threads = 2
	}
	if opts.MemoryLimit == "" {
		opts.MemoryLimit = "256MB"
	}

	connector, err := duckdb.NewConnector(dbPath, func(execer driver.ExecerContext) error {
		pragmas := []string{
			fmt.Sprintf("PRAGMA memory_limit='%s'", opts.MemoryLimit),
			fmt.Sprintf("PRAGMA threads=%d", opts.Threads),
			"PRAGMA enable_progress_bar=false",
		}
		for _, pragma := range pragmas {
			if _, err := execer.ExecContext(context.Background(), pragma, nil); err != nil {
				return fmt.Errorf("%s: %w", pragma, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create DuckDB connector: %w", err)
	}

	db := sql.OpenDB(connector)
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS designs (
			position   INTEGER NOT NULL,
			id         VARCHAR NOT NULL,
			panel_type VARCHAR NOT NULL,
			quantity   INTEGER NOT NULL,
			created_at TIMESTAMP NOT NULL,
			payload    BLOB NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create designs table: %w", err)
	}

	logger.Debug("cart database ready", "path", dbPath)
	return &DuckStore{db: db, dbPath: dbPath, logger: logger}, nil
}

// Path returns the database file path.
func (s *DuckStore) Path() string {
	return s.dbPath
}

func (s *DuckStore) count(ctx context.Context, q interface {
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}) (int, error) {
	var n int
	if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM designs`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting designs: %w", err)
	}
	return n, nil
}

func (s *DuckStore) AddDesign(ctx context.Context, d models.Design) (int, error) {
	payload, err := codec.Marshal(d)
	if err != nil {
		return 0, fmt.Errorf("encoding design: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := s.count(ctx, s.db)
	if err != nil {
		return 0, err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO designs (position, id, panel_type, quantity, created_at, payload) VALUES (?, ?, ?, ?, ?, ?)`,
		n, d.ID, string(d.PanelType), d.Quantity, d.CreatedAt, payload)
	if err != nil {
		return 0, fmt.Errorf("inserting design: %w", err)
	}

	s.logger.Info("design added", "index", n, "id", d.ID, "panel", d.PanelType)
	return n, nil
}

func (s *DuckStore) UpdateDesign(ctx context.Context, index int, d models.Design) error {
	payload, err := codec.Marshal(d)
	if err != nil {
		return fmt.Errorf("encoding design: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		`UPDATE designs SET id = ?, panel_type = ?, quantity = ?, created_at = ?, payload = ? WHERE position = ?`,
		d.ID, string(d.PanelType), d.Quantity, d.CreatedAt, payload, index)
	if err != nil {
		return fmt.Errorf("updating design: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		n, _ := s.count(ctx, s.db)
		return outOfRange(index, n)
	}

	s.logger.Info("design updated", "index", index, "id", d.ID)
	return nil
}

func (s *DuckStore) ListDesigns(ctx context.Context) ([]models.Design, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT payload FROM designs ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("listing designs: %w", err)
	}
	defer rows.Close()

	designs := []models.Design{}
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var d models.Design
		if err := codec.Unmarshal(payload, &d); err != nil {
			return nil, fmt.Errorf("decoding design: %w", err)
		}
		designs = append(designs, d)
	}
	return designs, rows.Err()
}

func (s *DuckStore) GetDesign(ctx context.Context, index int) (models.Design, error) {
	var payload []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM designs WHERE position = ?`, index).Scan(&payload)
	if err == sql.ErrNoRows {
		n, _ := s.count(ctx, s.db)
		return models.Design{}, outOfRange(index, n)
	}
	if err != nil {
		return models.Design{}, fmt.Errorf("reading design: %w", err)
	}

	var d models.Design
	if err := codec.Unmarshal(payload, &d); err != nil {
		return models.Design{}, fmt.Errorf("decoding design: %w", err)
	}
	return d, nil
}

func (s *DuckStore) RemoveDesign(ctx context.Context, index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM designs WHERE position = ?`, index)
	if err != nil {
		return fmt.Errorf("removing design: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		n, _ := s.count(ctx, tx)
		return outOfRange(index, n)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE designs SET position = position - 1 WHERE position > ?`, index); err != nil {
		return fmt.Errorf("reindexing designs: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	s.logger.Info("design removed", "index", index)
	return nil
}

func (s *DuckStore) Totals(ctx context.Context) ([]PanelTotal, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT panel_type, COUNT(*), CAST(SUM(quantity) AS BIGINT)
		FROM designs
		GROUP BY panel_type
		ORDER BY panel_type
	`)
	if err != nil {
		return nil, fmt.Errorf("summing designs: %w", err)
	}
	defer rows.Close()

	totals := []PanelTotal{}
	for rows.Next() {
		var (
			pt       string
			designs  int64
			quantity int64
		)
		if err := rows.Scan(&pt, &designs, &quantity); err != nil {
			return nil, err
		}
		totals = append(totals, PanelTotal{PanelType: models.PanelType(pt), Designs: int(designs), Quantity: int(quantity)})
	}
	return totals, rows.Err()
}

// Close closes the database. The file is kept.
func (s *DuckStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
