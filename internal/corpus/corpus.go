// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package corpus maintains a local SQLite index over fetched paper artifacts
// for fast full-text keyword search. The index stores per-paper summaries
// (title, abstract, keywords, decision, rating averages); the full review
// text stays in the JSON artifact.
package corpus

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/paper-triage/pkg/types"
)

const (
	dbFile            = "corpus.db"
	defaultMaxResults = 20
)

// Index is the SQLite-backed search index for one venue/year corpus.
type Index struct {
	db         *sql.DB
	maxResults int
}

// Open opens or creates the index database at dir/corpus.db and ensures the
// schema exists.
func Open(dir string) (*Index, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	dbPath := filepath.Join(dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	ix := &Index{db: db, maxResults: defaultMaxResults}
	if err := ix.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return ix, nil
}

// Close releases the database connection.
func (ix *Index) Close() error {
	return ix.db.Close()
}

func (ix *Index) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS papers (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			title TEXT,
			authors TEXT,
			abstract TEXT,
			keywords TEXT,
			venue TEXT,
			year INTEGER,
			pdf_url TEXT,
			forum_url TEXT,
			decision TEXT,
			rating_avg REAL,
			confidence_avg REAL,
			num_reviews INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_papers_decision ON papers(decision)`,
	}
	for _, stmt := range statements {
		if _, err := ix.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table with triggers for sync.
	var ftsExists int
	if err := ix.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='papers_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE papers_fts USING fts5(title, abstract, keywords, content=papers, content_rowid=rowid)`,
			`CREATE TRIGGER papers_ai AFTER INSERT ON papers BEGIN
				INSERT INTO papers_fts(rowid, title, abstract, keywords)
				VALUES (new.rowid, new.title, new.abstract, new.keywords);
			END`,
			`CREATE TRIGGER papers_ad AFTER DELETE ON papers BEGIN
				INSERT INTO papers_fts(papers_fts, rowid, title, abstract, keywords)
				VALUES('delete', old.rowid, old.title, old.abstract, old.keywords);
			END`,
			`CREATE TRIGGER papers_au AFTER UPDATE ON papers BEGIN
				INSERT INTO papers_fts(papers_fts, rowid, title, abstract, keywords)
				VALUES('delete', old.rowid, old.title, old.abstract, old.keywords);
				INSERT INTO papers_fts(rowid, title, abstract, keywords)
				VALUES (new.rowid, new.title, new.abstract, new.keywords);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := ix.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}

	return nil
}

// IngestSummary holds counts from one indexing run.
type IngestSummary struct {
	Indexed int
	Updated int
}

// Total returns the number of papers processed.
func (s IngestSummary) Total() int {
	return s.Indexed + s.Updated
}

// Ingest upserts the given records into the index in one transaction.
// Existing records are replaced field by field so re-indexing an updated
// artifact is safe.
func (ix *Index) Ingest(ctx context.Context, papers []types.PaperRecord, w io.Writer) (IngestSummary, error) {
	if w == nil {
		w = io.Discard
	}

	tx, err := ix.db.BeginTx(ctx, nil)
	if err != nil {
		return IngestSummary{}, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO papers (id, title, authors, abstract, keywords, venue, year,
			pdf_url, forum_url, decision, rating_avg, confidence_avg, num_reviews)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			title=excluded.title, authors=excluded.authors,
			abstract=excluded.abstract, keywords=excluded.keywords,
			venue=excluded.venue, year=excluded.year,
			pdf_url=excluded.pdf_url, forum_url=excluded.forum_url,
			decision=excluded.decision, rating_avg=excluded.rating_avg,
			confidence_avg=excluded.confidence_avg, num_reviews=excluded.num_reviews`)
	if err != nil {
		return IngestSummary{}, fmt.Errorf("preparing upsert: %w", err)
	}
	defer stmt.Close()

	var summary IngestSummary
	for _, p := range papers {
		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		var exists int
		if err := tx.QueryRowContext(ctx,
			`SELECT count(*) FROM papers WHERE id = ?`, p.ID,
		).Scan(&exists); err != nil {
			return summary, fmt.Errorf("checking paper %s: %w", p.ID, err)
		}

		authorsJSON, _ := json.Marshal(p.Authors)
		keywordsJSON, _ := json.Marshal(p.Keywords)

		_, err := stmt.ExecContext(ctx,
			p.ID, p.Title, string(authorsJSON), p.Abstract, string(keywordsJSON),
			p.Venue, p.Year, p.PDFURL, p.ForumURL,
			p.Decision, p.RatingAvg, p.ConfidenceAvg, len(p.Reviews),
		)
		if err != nil {
			return summary, fmt.Errorf("upserting paper %s: %w", p.ID, err)
		}

		if exists > 0 {
			summary.Updated++
		} else {
			summary.Indexed++
		}
	}

	if err := tx.Commit(); err != nil {
		return summary, fmt.Errorf("committing index update: %w", err)
	}

	fmt.Fprintf(w, "corpus index: %d new, %d updated\n", summary.Indexed, summary.Updated)
	return summary, nil
}

// QueryOptions holds parameters for index queries.
type QueryOptions struct {
	// Query is the FTS5 match expression. Empty lists all papers.
	Query string

	// AcceptedOnly restricts results to accepted submissions.
	AcceptedOnly bool

	// MaxResults limits result count. Zero uses the index default.
	MaxResults int
}

// Search queries the index. Full-text queries are ranked by FTS5 relevance;
// an empty query lists papers ordered by rating (unknown ratings last).
func (ix *Index) Search(ctx context.Context, opts QueryOptions) ([]types.PaperRecord, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = ix.maxResults
	}

	var (
		qb     strings.Builder
		args   []any
		useFTS = opts.Query != ""
	)

	if useFTS {
		qb.WriteString(
			`SELECT p.id, p.title, p.authors, p.abstract, p.keywords, p.venue, p.year,
				p.pdf_url, p.forum_url, p.decision, p.rating_avg, p.confidence_avg
			FROM papers_fts
			JOIN papers p ON p.rowid = papers_fts.rowid
			WHERE papers_fts MATCH ?`)
		args = append(args, opts.Query)
	} else {
		qb.WriteString(
			`SELECT p.id, p.title, p.authors, p.abstract, p.keywords, p.venue, p.year,
				p.pdf_url, p.forum_url, p.decision, p.rating_avg, p.confidence_avg
			FROM papers p
			WHERE 1=1`)
	}

	if opts.AcceptedOnly {
		qb.WriteString(` AND lower(p.decision) LIKE '%accept%'`)
	}

	if useFTS {
		qb.WriteString(` ORDER BY papers_fts.rank`)
	} else {
		qb.WriteString(` ORDER BY p.rating_avg IS NULL, p.rating_avg DESC, p.id`)
	}

	qb.WriteString(` LIMIT ?`)
	args = append(args, maxResults)

	rows, err := ix.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying corpus index: %w", err)
	}
	defer rows.Close()

	var results []types.PaperRecord
	for rows.Next() {
		var (
			p            types.PaperRecord
			authorsJSON  sql.NullString
			keywordsJSON sql.NullString
			rating       sql.NullFloat64
			confidence   sql.NullFloat64
		)

		if err := rows.Scan(
			&p.ID, &p.Title, &authorsJSON, &p.Abstract, &keywordsJSON,
			&p.Venue, &p.Year, &p.PDFURL, &p.ForumURL,
			&p.Decision, &rating, &confidence,
		); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}

		if authorsJSON.Valid {
			json.Unmarshal([]byte(authorsJSON.String), &p.Authors)
		}
		if keywordsJSON.Valid {
			json.Unmarshal([]byte(keywordsJSON.String), &p.Keywords)
		}
		if rating.Valid {
			p.RatingAvg = &rating.Float64
		}
		if confidence.Valid {
			p.ConfidenceAvg = &confidence.Float64
		}

		results = append(results, p)
	}

	return results, rows.Err()
}

// Count returns the number of indexed papers.
func (ix *Index) Count(ctx context.Context) (int, error) {
	var n int
	if err := ix.db.QueryRowContext(ctx, `SELECT count(*) FROM papers`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting papers: %w", err)
	}
	return n, nil
}

// MatchExpression builds an FTS5 OR-expression over the given keywords.
// Each keyword is quoted so multi-word phrases and FTS operators in user
// input are matched literally.
func MatchExpression(keywords []string) string {
	quoted := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		quoted = append(quoted, `"`+strings.ReplaceAll(kw, `"`, `""`)+`"`)
	}
	return strings.Join(quoted, " OR ")
}
