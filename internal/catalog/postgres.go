package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/parleyhq/parley/internal/domain"
	pgvector "github.com/pgvector/pgvector-go"
)

// ErrNoPrimaryKey is returned when a domain's slot metadata declares no
// primary-key slot.
var ErrNoPrimaryKey = errors.New("catalog domain has no primary key slot")

// SimilaritySearcher is the optional nearest-neighbour extension of a
// knowledge source. The caller supplies a precomputed embedding; computing
// embeddings stays with the NLU-side collaborators.
type SimilaritySearcher interface {
	FindSimilarEntities(ctx context.Context, embedding []float32, limit int) ([]domain.Record, error)
}

// PostgresSource is a KnowledgeSource over the catalog_slots and
// catalog_entities tables. Slot metadata is loaded once at construction;
// entity lookups hit the database per call.
type PostgresSource struct {
	db         *pgxpool.Pool
	name       string
	primaryKey string
	slots      []SlotConfig
}

var (
	_ domain.KnowledgeSource = (*PostgresSource)(nil)
	_ SimilaritySearcher     = (*PostgresSource)(nil)
)

// NewPostgresSource loads the slot metadata for one catalog domain.
func NewPostgresSource(ctx context.Context, db *pgxpool.Pool, name string) (*PostgresSource, error) {
	rows, err := db.Query(ctx,
		`SELECT slot, is_primary, system_requestable, possible_values
		 FROM catalog_slots WHERE domain = $1
		 ORDER BY position`,
		name,
	)
	if err != nil {
		return nil, fmt.Errorf("load catalog slots for %q: %w", name, err)
	}
	defer rows.Close()

	src := &PostgresSource{db: db, name: name}
	for rows.Next() {
		var (
			sc        SlotConfig
			isPrimary bool
		)
		if err := rows.Scan(&sc.Name, &isPrimary, &sc.SystemRequestable, &sc.PossibleValues); err != nil {
			return nil, err
		}
		if isPrimary {
			src.primaryKey = sc.Name
		}
		src.slots = append(src.slots, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if src.primaryKey == "" {
		return nil, ErrNoPrimaryKey
	}
	return src, nil
}

func (s *PostgresSource) Name() string       { return s.name }
func (s *PostgresSource) PrimaryKey() string { return s.primaryKey }

func (s *PostgresSource) SystemRequestableSlots() []string {
	var slots []string
	for _, sc := range s.slots {
		if sc.SystemRequestable {
			slots = append(slots, sc.Name)
		}
	}
	return slots
}

func (s *PostgresSource) PossibleValues(slot string) []string {
	for _, sc := range s.slots {
		if sc.Name == slot {
			return sc.PossibleValues
		}
	}
	return nil
}

func (s *PostgresSource) FindEntities(ctx context.Context, constraints map[string]string) ([]domain.Record, error) {
	filter, err := json.Marshal(constraints)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.Query(ctx,
		`SELECT data FROM catalog_entities
		 WHERE domain = $1 AND data @> $2
		 ORDER BY id`,
		s.name, filter,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecords(rows)
}

func (s *PostgresSource) FindInfoAboutEntity(ctx context.Context, id string, requested []string) ([]domain.Record, error) {
	rows, err := s.db.Query(ctx,
		`SELECT data FROM catalog_entities
		 WHERE domain = $1 AND data->>$2 = $3
		 ORDER BY id`,
		s.name, s.primaryKey, id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records, err := scanRecords(rows)
	if err != nil {
		return nil, err
	}
	for i, rec := range records {
		records[i] = project(rec, s.primaryKey, requested)
	}
	return records, nil
}

// FindSimilarEntities returns the entities nearest to the given embedding,
// skipping entities without one. Cosine distance, smallest first.
func (s *PostgresSource) FindSimilarEntities(ctx context.Context, embedding []float32, limit int) ([]domain.Record, error) {
	if limit <= 0 {
		limit = 5
	}
	rows, err := s.db.Query(ctx,
		`SELECT data FROM catalog_entities
		 WHERE domain = $1 AND embedding IS NOT NULL
		 ORDER BY embedding <=> $2
		 LIMIT $3`,
		s.name, pgvector.NewVector(embedding), limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecords(rows)
}

func scanRecords(rows pgx.Rows) ([]domain.Record, error) {
	var records []domain.Record
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		var rec domain.Record
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// ListDomains returns the catalog domains present in the database, in name
// order.
func ListDomains(ctx context.Context, db *pgxpool.Pool) ([]string, error) {
	rows, err := db.Query(ctx,
		`SELECT DISTINCT domain FROM catalog_slots ORDER BY domain`)
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
