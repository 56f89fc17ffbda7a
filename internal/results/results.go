// Package results persists experiment runs and their spectral datasets to
// SQLite so they can be inspected and plotted after the fact.
package results

import (
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/radiance.report/internal/pipeline"
)

type DB struct {
	*sql.DB
}

// Open opens (creating if needed) the results database at path.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}
	return &DB{db}, nil
}

// MigrateUp runs all pending migrations up to the latest version.
func (db *DB) MigrateUp(migrationsDir string) error {
	m, err := db.newMigrate(migrationsDir)
	if err != nil {
		return err
	}
	// Closing m would close the underlying DB connection, so we don't.
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}

// MigrateVersion returns the current migration version and dirty state.
// Returns 0, false, nil when no migrations have been applied yet.
func (db *DB) MigrateVersion(migrationsDir string) (version uint, dirty bool, err error) {
	m, err := db.newMigrate(migrationsDir)
	if err != nil {
		return 0, false, err
	}
	version, dirty, err = m.Version()
	if err != nil && errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

func (db *DB) newMigrate(migrationsDir string) (*migrate.Migrate, error) {
	absPath, err := filepath.Abs(migrationsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path for migrations: %w", err)
	}
	driver, err := sqlite.WithInstance(db.DB, &sqlite.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to create sqlite driver: %w", err)
	}
	m, err := migrate.NewWithDatabaseInstance(fmt.Sprintf("file://%s", absPath), "sqlite", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrate instance: %w", err)
	}
	return m, nil
}

// Run is one persisted experiment run.
type Run struct {
	RunID     string
	Title     string
	Mode      string
	CreatedAt time.Time
}

// Spectrum is one persisted spectral variable.
type Spectrum struct {
	Wavelengths []float64
	Values      []float64
	Units       string
}

// SaveRun persists a run and the spectral variables of its datasets. Only
// variables laid out along the wavelength dimension are stored; film-shaped
// variables stay in memory only.
func (db *DB) SaveRun(runID, title, mode string, datasets map[string]*pipeline.Dataset) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`INSERT INTO runs (run_id, title, mode) VALUES (?, ?, ?)`,
		runID, title, mode,
	); err != nil {
		return fmt.Errorf("inserting run %s: %w", runID, err)
	}

	stmt, err := tx.Prepare(`INSERT INTO spectra (run_id, measure, variable, wavelength_nm, value, units)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for measureID, ds := range datasets {
		for _, name := range ds.VarNames() {
			arr := ds.Vars[name]
			units := arr.Attrs["units"]
			switch {
			case len(arr.Dims) == 1 && arr.Dims[0] == "w":
				wc := arr.Coords["w"]
				if wc == nil {
					continue
				}
				for i, v := range arr.Values {
					if _, err := stmt.Exec(runID, measureID, name, wc.Values[i], v, units); err != nil {
						return fmt.Errorf("inserting %s/%s: %w", measureID, name, err)
					}
				}
			case len(arr.Dims) == 0:
				// Band-integrated scalars have no wavelength.
				if _, err := stmt.Exec(runID, measureID, name, nil, arr.Values[0], units); err != nil {
					return fmt.Errorf("inserting %s/%s: %w", measureID, name, err)
				}
			}
		}
	}
	return tx.Commit()
}

// ListRuns returns all persisted runs, most recent first.
func (db *DB) ListRuns() ([]Run, error) {
	rows, err := db.Query(`SELECT run_id, title, mode, created_at FROM runs ORDER BY created_at DESC, run_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.RunID, &r.Title, &r.Mode, &r.CreatedAt); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Variables returns the spectral variable names stored for a run's
// measure.
func (db *DB) Variables(runID, measureID string) ([]string, error) {
	rows, err := db.Query(
		`SELECT DISTINCT variable FROM spectra WHERE run_id = ? AND measure = ? ORDER BY variable`,
		runID, measureID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// LoadSpectrum returns one stored spectral variable ordered by ascending
// wavelength.
func (db *DB) LoadSpectrum(runID, measureID, variable string) (*Spectrum, error) {
	rows, err := db.Query(
		`SELECT wavelength_nm, value, units FROM spectra
		 WHERE run_id = ? AND measure = ? AND variable = ? AND wavelength_nm IS NOT NULL
		 ORDER BY wavelength_nm`,
		runID, measureID, variable)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	s := &Spectrum{}
	for rows.Next() {
		var w, v float64
		if err := rows.Scan(&w, &v, &s.Units); err != nil {
			return nil, err
		}
		s.Wavelengths = append(s.Wavelengths, w)
		s.Values = append(s.Values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(s.Wavelengths) == 0 {
		return nil, fmt.Errorf("no spectrum for run %s measure %s variable %s", runID, measureID, variable)
	}
	return s, nil
}
