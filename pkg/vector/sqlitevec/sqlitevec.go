// Package sqlitevec provides a SQLite-backed vector driver using sqlite-vec.
package sqlitevec

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/papercomputeco/angler/pkg/vector"
)

// Driver implements vector.Driver using SQLite with sqlite-vec.
type Driver struct {
	db         *sql.DB
	dimensions uint
	logger     *zap.Logger
}

// Config holds configuration for the SQLite vec driver.
type Config struct {
	// DBPath is the path to the SQLite database file.
	// Use ":memory:" for an in-memory database.
	DBPath string

	// Dimensions is the width of the stored embedding vectors.
	Dimensions uint
}

// New creates a SQLite vector driver backed by sqlite-vec. Similarity
// search runs on cosine distance, which matches how the embeddings are
// scored during evaluation.
func New(c Config, logger *zap.Logger) (*Driver, error) {
	// enable connections to have the sqlite-vec extension
	sqlite_vec.Auto()

	if c.DBPath == "" {
		return nil, fmt.Errorf("%w: database path is required", vector.ErrConnection)
	}
	if c.Dimensions == 0 {
		return nil, fmt.Errorf("%w: dimensions must be configured", vector.ErrDimensions)
	}

	db, err := sql.Open("sqlite3", c.DBPath)
	if err != nil {
		return nil, fmt.Errorf("%w: opening database: %v", vector.ErrConnection, err)
	}

	var vecVersion string
	if err := db.QueryRow("SELECT vec_version()").Scan(&vecVersion); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: sqlite-vec not available: %v", vector.ErrConnection, err)
	}

	// vec0 virtual tables use integer rowids, so string document IDs and
	// the source text live in a mapping table keyed by the same rowid.
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS sentences (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			doc_id TEXT NOT NULL UNIQUE,
			text TEXT NOT NULL DEFAULT ''
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating sentences table: %w", err)
	}

	createVec := fmt.Sprintf(
		`CREATE VIRTUAL TABLE IF NOT EXISTS sentence_embeddings USING vec0(embedding float[%d] distance_metric=cosine)`,
		c.Dimensions,
	)
	if _, err := db.Exec(createVec); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating vec0 table: %w", err)
	}

	logger.Info("sqlite-vec vector driver initialized",
		zap.String("db_path", c.DBPath),
		zap.Uint("dimensions", c.Dimensions),
		zap.String("vec_version", vecVersion),
	)

	return &Driver{
		db:         db,
		dimensions: c.Dimensions,
		logger:     logger,
	}, nil
}

// serializeFloat32 converts a float32 slice to the little-endian BLOB
// format sqlite-vec expects.
func serializeFloat32(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// deserializeFloat32 converts a little-endian byte slice back to a float32 slice.
func deserializeFloat32(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("invalid embedding blob length %d: must be divisible by 4", len(b))
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v, nil
}

// Add stores documents with their embeddings.
// If a document with the same ID already exists, it is updated.
func (d *Driver) Add(ctx context.Context, docs []vector.Document) error {
	if len(docs) == 0 {
		return nil
	}

	for _, doc := range docs {
		if uint(len(doc.Embedding)) != d.dimensions {
			return fmt.Errorf("%w: doc %s has %d dimensions, store expects %d",
				vector.ErrDimensions, doc.ID, len(doc.Embedding), d.dimensions)
		}
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, doc := range docs {
		embBlob := serializeFloat32(doc.Embedding)

		var existingRowID int64
		err = tx.QueryRowContext(ctx,
			`SELECT rowid FROM sentences WHERE doc_id = ?`, doc.ID,
		).Scan(&existingRowID)

		switch err {
		case nil:
			if _, err := tx.ExecContext(ctx,
				`UPDATE sentences SET text = ? WHERE rowid = ?`,
				doc.Text, existingRowID,
			); err != nil {
				return fmt.Errorf("updating document %s: %w", doc.ID, err)
			}

			// vec0 does not support UPDATE, so replace via DELETE + INSERT
			if _, err := tx.ExecContext(ctx,
				`DELETE FROM sentence_embeddings WHERE rowid = ?`, existingRowID,
			); err != nil {
				return fmt.Errorf("deleting old embedding for doc %s: %w", doc.ID, err)
			}

			if _, err := tx.ExecContext(ctx,
				`INSERT INTO sentence_embeddings(rowid, embedding) VALUES (?, ?)`,
				existingRowID, embBlob,
			); err != nil {
				return fmt.Errorf("re-inserting embedding for doc %s: %w", doc.ID, err)
			}
		case sql.ErrNoRows:
			result, err := tx.ExecContext(ctx,
				`INSERT INTO sentences(doc_id, text) VALUES (?, ?)`,
				doc.ID, doc.Text,
			)
			if err != nil {
				return fmt.Errorf("inserting document %s: %w", doc.ID, err)
			}

			rowID, err := result.LastInsertId()
			if err != nil {
				return fmt.Errorf("getting rowid for doc %s: %w", doc.ID, err)
			}

			if _, err := tx.ExecContext(ctx,
				`INSERT INTO sentence_embeddings(rowid, embedding) VALUES (?, ?)`,
				rowID, embBlob,
			); err != nil {
				return fmt.Errorf("inserting embedding for doc %s: %w", doc.ID, err)
			}
		default:
			return fmt.Errorf("checking for existing document %s: %w", doc.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	d.logger.Debug("added documents to sqlite-vec",
		zap.Int("count", len(docs)),
	)

	return nil
}

// Query finds the topK most similar documents to the given embedding.
func (d *Driver) Query(ctx context.Context, embedding []float32, topK int) ([]vector.QueryResult, error) {
	if topK <= 0 {
		topK = 10
	}
	if uint(len(embedding)) != d.dimensions {
		return nil, fmt.Errorf("%w: query has %d dimensions, store expects %d",
			vector.ErrDimensions, len(embedding), d.dimensions)
	}

	queryBlob := serializeFloat32(embedding)

	// KNN query via vec0 MATCH, joined back for doc_id and text.
	rows, err := d.db.QueryContext(ctx, `
		SELECT
			s.doc_id,
			s.text,
			se.distance
		FROM sentence_embeddings se
		INNER JOIN sentences s ON s.rowid = se.rowid
		WHERE se.embedding MATCH ?
			AND se.k = ?
		ORDER BY se.distance
	`, queryBlob, topK)
	if err != nil {
		return nil, fmt.Errorf("querying vectors: %w", err)
	}
	defer rows.Close()

	var results []vector.QueryResult
	for rows.Next() {
		var docID, text string
		var distance float64
		if err := rows.Scan(&docID, &text, &distance); err != nil {
			return nil, fmt.Errorf("scanning query result: %w", err)
		}

		results = append(results, vector.QueryResult{
			Document: vector.Document{
				ID:   docID,
				Text: text,
			},
			// cosine distance = 1 - cosine similarity
			Score: float32(1.0 - distance),
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating query results: %w", err)
	}

	d.logger.Debug("queried sqlite-vec",
		zap.Int("results", len(results)),
	)

	return results, nil
}

// Get retrieves documents by their IDs.
func (d *Driver) Get(ctx context.Context, ids []string) ([]vector.Document, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}

	query := fmt.Sprintf(`
		SELECT s.doc_id, s.text, s.rowid
		FROM sentences s
		WHERE s.doc_id IN (%s)
	`, strings.Join(placeholders, ","))

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	// Collect results first so the rows cursor is closed before issuing
	// additional queries (SQLite uses a single connection).
	type docRow struct {
		docID string
		text  string
		rowID int64
	}
	var docRows []docRow

	for rows.Next() {
		var dr docRow
		if err := rows.Scan(&dr.docID, &dr.text, &dr.rowID); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		docRows = append(docRows, dr)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}
	rows.Close()

	docs := make([]vector.Document, 0, len(docRows))
	for _, dr := range docRows {
		doc := vector.Document{
			ID:   dr.docID,
			Text: dr.text,
		}

		var embBlob []byte
		err := d.db.QueryRowContext(ctx,
			`SELECT embedding FROM sentence_embeddings WHERE rowid = ?`, dr.rowID,
		).Scan(&embBlob)
		if err == nil && len(embBlob) > 0 {
			doc.Embedding, _ = deserializeFloat32(embBlob)
		}

		docs = append(docs, doc)
	}

	return docs, nil
}

// Delete removes documents by their IDs.
func (d *Driver) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = id
	}
	inClause := strings.Join(placeholders, ",")

	query := fmt.Sprintf(
		`SELECT rowid FROM sentences WHERE doc_id IN (%s)`, inClause,
	)
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("querying rowids for deletion: %w", err)
	}

	var rowIDs []int64
	for rows.Next() {
		var rowID int64
		if err := rows.Scan(&rowID); err != nil {
			rows.Close()
			return fmt.Errorf("scanning rowid: %w", err)
		}
		rowIDs = append(rowIDs, rowID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating rowids: %w", err)
	}

	for _, rowID := range rowIDs {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM sentence_embeddings WHERE rowid = ?`, rowID,
		); err != nil {
			return fmt.Errorf("deleting embedding rowid %d: %w", rowID, err)
		}
	}

	deleteQuery := fmt.Sprintf(
		`DELETE FROM sentences WHERE doc_id IN (%s)`, inClause,
	)
	if _, err := tx.ExecContext(ctx, deleteQuery, args...); err != nil {
		return fmt.Errorf("deleting documents: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	d.logger.Debug("deleted documents from sqlite-vec",
		zap.Int("count", len(ids)),
	)

	return nil
}

// Close releases resources held by the driver.
func (d *Driver) Close() error {
	return d.db.Close()
}

var _ vector.Driver = (*Driver)(nil)
