// Package sqlite implements the persisted vector index on SQLite.
//
// Entries live in a single table keyed by chunk id; embeddings are stored as
// little-endian float32 BLOBs. Nearest-neighbour search is an exact cosine
// scan, which is adequate for corpus sizes this tool targets and keeps the
// index file self-contained and reopenable without recomputation.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/archivist-labs/docquery-cli/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/archivist-labs/docquery-cli/internal/core/domain"
	"github.com/archivist-labs/docquery-cli/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.VectorIndex = (*Store)(nil)

// DBFileName is the index database file inside the index directory.
const DBFileName = "index.db"

// Store is the SQLite-backed vector index.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates or opens the index database in dataDir.
// The directory is created if absent.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".docquery", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	return open(filepath.Join(dataDir, DBFileName))
}

// OpenStore re-attaches to an existing index without rebuilding.
// Returns domain.ErrIndexNotFound when no index has been persisted at dataDir.
func OpenStore(dataDir string) (*Store, error) {
	dbPath := filepath.Join(dataDir, DBFileName)
	if _, err := os.Stat(dbPath); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrIndexNotFound, dataDir)
		}
		return nil, fmt.Errorf("checking index location: %w", err)
	}
	return open(dbPath)
}

func open(dbPath string) (*Store, error) {
	// WAL mode lets concurrent read-only queries proceed.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, path: dbPath}
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at TEXT NOT NULL DEFAULT (datetime('now'))
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var current int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&current); err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}

	names, err := fs.Glob(fsys, "*.up.sql")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}
	sort.Strings(names)

	for _, name := range names {
		version, err := strconv.Atoi(strings.SplitN(name, "_", 2)[0])
		if err != nil {
			return fmt.Errorf("parsing migration version from %q: %w", name, err)
		}
		if version <= current {
			continue
		}

		stmt, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %q: %w", name, err)
		}
		if _, err := s.db.Exec(string(stmt)); err != nil {
			return fmt.Errorf("applying migration %q: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %q: %w", name, err)
		}
	}
	return nil
}

// Upsert inserts or replaces one entry by its id. The single statement makes
// the write atomic per entry: it either lands whole or not at all.
func (s *Store) Upsert(ctx context.Context, entry domain.IndexEntry) error {
	metadataJSON, err := json.Marshal(entry.Metadata)
	if err != nil {
		return fmt.Errorf("marshalling entry metadata: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO entries (id, document, embedding, metadata)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			document = excluded.document,
			embedding = excluded.embedding,
			metadata = excluded.metadata
	`, entry.ID, entry.Document, float32SliceToBytes(entry.Embedding), string(metadataJSON))
	if err != nil {
		return fmt.Errorf("upserting entry %s: %w", entry.ID, err)
	}
	return nil
}

// Search scans all entries and returns the k nearest by cosine similarity,
// best first, ties broken by ascending entry id.
func (s *Store) Search(ctx context.Context, query []float32, k int) ([]domain.Hit, error) {
	if k <= 0 {
		return nil, fmt.Errorf("search k must be positive, got %d", k)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, document, embedding, metadata FROM entries ORDER BY id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("querying entries: %w", err)
	}
	defer rows.Close()

	var hits []domain.Hit //nolint:prealloc // size unknown from query
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		hits = append(hits, domain.Hit{
			Entry: *entry,
			Score: cosineSimilarity(query, entry.Embedding),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating entries: %w", err)
	}

	// Rows arrive id-ascending, so a stable sort by score keeps the
	// id tie-break deterministic.
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})

	if k < len(hits) {
		hits = hits[:k]
	}
	return hits, nil
}

// Count returns the number of persisted entries.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	row := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM entries")
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("counting entries: %w", err)
	}
	return n, nil
}

// Manifest returns the embedding-space identity recorded at creation.
// Returns domain.ErrNotFound when no manifest has been written yet.
func (s *Store) Manifest(ctx context.Context) (*domain.IndexManifest, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT key, value FROM manifest")
	if err != nil {
		return nil, fmt.Errorf("querying manifest: %w", err)
	}
	defer rows.Close()

	values := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("scanning manifest: %w", err)
		}
		values[k] = v
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating manifest: %w", err)
	}

	model, ok := values["embedding_model"]
	if !ok {
		return nil, domain.ErrNotFound
	}
	dims, err := strconv.Atoi(values["dimensions"])
	if err != nil {
		return nil, fmt.Errorf("parsing manifest dimensions: %w", err)
	}

	return &domain.IndexManifest{EmbeddingModel: model, Dimensions: dims}, nil
}

// WriteManifest records the embedding-space identity.
func (s *Store) WriteManifest(ctx context.Context, m domain.IndexManifest) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for k, v := range map[string]string{
		"embedding_model": m.EmbeddingModel,
		"dimensions":      strconv.Itoa(m.Dimensions),
	} {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO manifest (key, value) VALUES (?, ?)
			ON CONFLICT(key) DO UPDATE SET value = excluded.value
		`, k, v); err != nil {
			return fmt.Errorf("writing manifest key %s: %w", k, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing manifest: %w", err)
	}
	return nil
}

// scanEntry scans one entry from *sql.Rows.
func scanEntry(rows *sql.Rows) (*domain.IndexEntry, error) {
	var entry domain.IndexEntry
	var embeddingBlob []byte
	var metadataJSON string

	if err := rows.Scan(&entry.ID, &entry.Document, &embeddingBlob, &metadataJSON); err != nil {
		return nil, fmt.Errorf("scanning entry: %w", err)
	}

	entry.Embedding = bytesToFloat32Slice(embeddingBlob)

	if metadataJSON != "" {
		if err := json.Unmarshal([]byte(metadataJSON), &entry.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshaling entry metadata: %w", err)
		}
	}
	return &entry, nil
}

// Get retrieves one entry by id. Returns domain.ErrNotFound when absent.
func (s *Store) Get(ctx context.Context, id string) (*domain.IndexEntry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, document, embedding, metadata FROM entries WHERE id = ?
	`, id)

	var entry domain.IndexEntry
	var embeddingBlob []byte
	var metadataJSON string
	if err := row.Scan(&entry.ID, &entry.Document, &embeddingBlob, &metadataJSON); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning entry: %w", err)
	}

	entry.Embedding = bytesToFloat32Slice(embeddingBlob)
	if metadataJSON != "" {
		if err := json.Unmarshal([]byte(metadataJSON), &entry.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshaling entry metadata: %w", err)
		}
	}
	return &entry, nil
}

// float32SliceToBytes converts a float32 slice to little-endian bytes.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}

// cosineSimilarity computes cosine similarity between two vectors.
// Mismatched lengths or zero vectors score zero.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
