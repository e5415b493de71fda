package store

import (
	"context"
	"database/sql"
	"strings"

	cverrors "codevision/internal/errors"
	"codevision/internal/graph"
)

// SaveGraph stores the model of a run as rows plus a compressed snapshot.
// Saving the same run twice replaces the earlier rows.
func (s *Store) SaveGraph(ctx context.Context, runID string, m *graph.Model) error {
	snapshot, rawSize, err := encodeSnapshot(m)
	if err != nil {
		return cverrors.New(cverrors.StoreFailed, "failed to build snapshot", err)
	}

	err = s.withTx(ctx, func(tx *sql.Tx) error {
		for _, table := range []string{"classes", "class_fields", "dependencies", "endpoints", "sequences", "sequence_usages", "snapshots"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE run_id = ?", runID); err != nil {
				return err
			}
		}
		if err := insertClasses(ctx, tx, runID, m); err != nil {
			return err
		}
		if err := insertEdges(ctx, tx, runID, m); err != nil {
			return err
		}
		if err := insertSequences(ctx, tx, runID, m); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			"INSERT INTO snapshots (run_id, encoding, raw_size, data) VALUES (?, ?, ?, ?)",
			runID, snapshotEncoding, rawSize, snapshot)
		return err
	})
	if err != nil {
		return cverrors.New(cverrors.StoreFailed, "failed to save graph", err)
	}

	s.logger.Debug("Saved graph",
		"runId", runID,
		"classes", len(m.Classes),
		"snapshotBytes", len(snapshot),
	)
	return nil
}

func insertClasses(ctx context.Context, tx *sql.Tx, runID string, m *graph.Model) error {
	classStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO classes (run_id, name, package_name, simple_name, kind, super_class, stereotypes,
			entity, table_name, origin, scc_id, in_cycle, location)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer classStmt.Close()

	fieldStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO class_fields (run_id, class_name, position, name, type, annotations, injected, relationship)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer fieldStmt.Close()

	for _, c := range m.SortedClasses() {
		var table sql.NullString
		if c.TableName != nil {
			table = sql.NullString{String: *c.TableName, Valid: true}
		}
		if _, err := classStmt.ExecContext(ctx,
			runID,
			c.Name,
			c.PackageName,
			c.SimpleName,
			string(c.Kind),
			nullString(c.SuperClass),
			strings.Join(c.Stereotypes, "|"),
			boolInt(c.Entity),
			table,
			string(c.Origin),
			nullInt(c.SccID),
			boolInt(c.InCycle),
			nullString(c.Location),
		); err != nil {
			return err
		}
		for i, f := range c.Fields {
			if _, err := fieldStmt.ExecContext(ctx,
				runID,
				c.Name,
				i,
				f.Name,
				f.Type,
				strings.Join(f.Annotations, "|"),
				boolInt(f.Injected),
				boolInt(f.Relationship),
			); err != nil {
				return err
			}
		}
	}
	return nil
}

func insertEdges(ctx context.Context, tx *sql.Tx, runID string, m *graph.Model) error {
	for i, d := range m.SortedDependencies() {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO dependencies (run_id, position, from_class, to_class, kind, label) VALUES (?, ?, ?, ?, ?, ?)",
			runID, i, d.From, d.To, string(d.Kind), nullString(d.Label),
		); err != nil {
			return err
		}
	}
	for i, e := range m.SortedEndpoints() {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO endpoints (run_id, position, type, http_method, path, controller_class,
				controller_method, produces, consumes, framework)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			runID, i, string(e.Type), nullString(e.HTTPMethod), e.Path, e.ControllerClass,
			e.ControllerMethod, nullString(e.Produces), nullString(e.Consumes), e.Framework,
		); err != nil {
			return err
		}
	}
	return nil
}

func insertSequences(ctx context.Context, tx *sql.Tx, runID string, m *graph.Model) error {
	for _, seq := range m.SortedSequences() {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO sequences (run_id, generator_name, sequence_name, allocation_size, initial_value) VALUES (?, ?, ?, ?, ?)",
			runID, seq.GeneratorName, nullString(seq.SequenceName), nullInt(seq.AllocationSize), nullInt(seq.InitialValue),
		); err != nil {
			return err
		}
	}
	for _, u := range m.SequenceUsages {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO sequence_usages (run_id, class_name, field_name, generator_name) VALUES (?, ?, ?, ?)",
			runID, u.ClassName, u.FieldName, u.GeneratorName,
		); err != nil {
			return err
		}
	}
	return nil
}

// LoadSnapshot restores the model saved for a run.
func (s *Store) LoadSnapshot(ctx context.Context, runID string) (*graph.Model, error) {
	var encoding string
	var rawSize int
	var data []byte
	err := s.conn.QueryRowContext(ctx,
		"SELECT encoding, raw_size, data FROM snapshots WHERE run_id = ?", runID,
	).Scan(&encoding, &rawSize, &data)
	if err == sql.ErrNoRows {
		return nil, cverrors.Newf(cverrors.RunNotFound, "no snapshot for run %s", runID)
	}
	if err != nil {
		return nil, cverrors.New(cverrors.StoreFailed, "failed to read snapshot", err)
	}
	if encoding != snapshotEncoding {
		return nil, cverrors.Newf(cverrors.StoreFailed, "unsupported snapshot encoding %q", encoding)
	}
	m, err := decodeSnapshot(data, rawSize)
	if err != nil {
		return nil, cverrors.New(cverrors.StoreFailed, "failed to restore snapshot", err)
	}
	return m, nil
}

// EntityClasses returns the names of the entity classes stored for a run,
// sorted case-insensitively.
func (s *Store) EntityClasses(ctx context.Context, runID string) ([]string, error) {
	rows, err := s.conn.QueryContext(ctx,
		"SELECT name FROM classes WHERE run_id = ? AND entity = 1 ORDER BY lower(name), name", runID)
	if err != nil {
		return nil, cverrors.New(cverrors.StoreFailed, "failed to query entities", err)
	}
	defer func() { _ = rows.Close() }()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, cverrors.New(cverrors.StoreFailed, "failed to scan entity", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
