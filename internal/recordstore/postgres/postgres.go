package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	pgxvec "github.com/pgvector/pgvector-go/pgx"

	"safetyintel/internal/domain"
	"safetyintel/internal/recordstore"
)

type Config struct {
	DSN      string
	Table    string
	MaxConns int32
}

// Storage keeps incidents in a pgvector-enabled Postgres table.
type Storage struct {
	pool  *pgxpool.Pool
	table string
}

func NewStorage(ctx context.Context, cfg Config) (*Storage, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	table := cfg.Table
	if table == "" {
		table = "crime_incidents"
	}
	return &Storage{pool: pool, table: pgx.Identifier{table}.Sanitize()}, nil
}

func (s *Storage) Init(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return recordstore.ErrInvalidDimension
	}
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`DROP TABLE IF EXISTS %s`, s.table),
		fmt.Sprintf(`CREATE TABLE %s (
			id TEXT PRIMARY KEY,
			incident_id TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			crime_type TEXT NOT NULL DEFAULT '',
			area TEXT NOT NULL DEFAULT '',
			lat DOUBLE PRECISION NOT NULL DEFAULT 0,
			lon DOUBLE PRECISION NOT NULL DEFAULT 0,
			ts BIGINT NOT NULL,
			severity TEXT NOT NULL DEFAULT '',
			embedding vector(%d) NOT NULL
		)`, s.table, dimension),
		fmt.Sprintf(`CREATE INDEX ON %s (ts)`, s.table),
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init incidents table: %w", err)
		}
	}
	return nil
}

func (s *Storage) Upsert(ctx context.Context, points []domain.Point) error {
	if len(points) == 0 {
		return nil
	}
	sql := fmt.Sprintf(`INSERT INTO %s
		(id, incident_id, description, crime_type, area, lat, lon, ts, severity, embedding)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			incident_id = EXCLUDED.incident_id,
			description = EXCLUDED.description,
			crime_type = EXCLUDED.crime_type,
			area = EXCLUDED.area,
			lat = EXCLUDED.lat,
			lon = EXCLUDED.lon,
			ts = EXCLUDED.ts,
			severity = EXCLUDED.severity,
			embedding = EXCLUDED.embedding`, s.table)

	batch := &pgx.Batch{}
	for _, p := range points {
		inc := p.Incident
		batch.Queue(sql, p.ID, inc.ID, inc.Description, inc.CrimeType, inc.Area,
			inc.Location.Lat, inc.Location.Lon, inc.Timestamp, string(inc.Severity),
			pgvector.NewVector(p.Vector))
	}
	if err := s.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("upsert incidents: %w", err)
	}
	return nil
}

func (s *Storage) Query(ctx context.Context, q domain.RecordQuery) ([]domain.SearchResult, error) {
	sql, args := buildQuery(s.table, q)
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query incidents: %w", err)
	}
	defer rows.Close()

	results := make([]domain.SearchResult, 0)
	for rows.Next() {
		var (
			inc      domain.Incident
			severity string
			score    float64
		)
		if err := rows.Scan(&inc.ID, &inc.Description, &inc.CrimeType, &inc.Area,
			&inc.Location.Lat, &inc.Location.Lon, &inc.Timestamp, &severity, &score); err != nil {
			return nil, fmt.Errorf("scan incident: %w", err)
		}
		inc.Severity = domain.Severity(severity)
		results = append(results, domain.SearchResult{Incident: inc.Normalize(), Score: score})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate incidents: %w", err)
	}
	return results, nil
}

func (s *Storage) Close() error {
	s.pool.Close()
	return nil
}

// buildQuery renders the SELECT for q. Distances are great-circle kilometres;
// scores are cosine similarity when a vector is supplied and 0 otherwise.
func buildQuery(table string, q domain.RecordQuery) (string, []any) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if q.Window != nil {
		where = append(where, "ts >= "+arg(q.Window.From))
		if q.Window.Until != 0 {
			where = append(where, "ts < "+arg(q.Window.Until))
		}
	}
	if q.Geo != nil {
		lat, lon := arg(q.Geo.Lat), arg(q.Geo.Lon)
		dist := fmt.Sprintf(
			"2 * 6371 * asin(sqrt(power(sin(radians(lat - %[1]s) / 2), 2) + cos(radians(%[1]s)) * cos(radians(lat)) * power(sin(radians(lon - %[2]s) / 2), 2)))",
			lat, lon)
		where = append(where, dist+" <= "+arg(q.Geo.RadiusKm))
	}

	score := "0::float8"
	order := "ts, incident_id"
	if q.Vector != nil {
		v := arg(pgvector.NewVector(q.Vector))
		score = fmt.Sprintf("1 - (embedding <=> %s)", v)
		order = fmt.Sprintf("embedding <=> %s", v)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT incident_id, description, crime_type, area, lat, lon, ts, severity, %s AS score FROM %s", score, table)
	if len(where) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(where, " AND "))
	}
	b.WriteString(" ORDER BY ")
	b.WriteString(order)
	if q.Limit > 0 {
		b.WriteString(" LIMIT ")
		b.WriteString(arg(q.Limit))
	}
	return b.String(), args
}
