package paradedb

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/searchbench/searchbench/pkg/data"
	"github.com/searchbench/searchbench/pkg/load"
)

const (
	TargetName = "paradedb"

	adminDBName     = "postgres"
	readyAttempts   = 30
	readyRetryDelay = 2 * time.Second

	errDBExistsFmt = "database \"%s\" exists: aborting."
)

const createTableSQL = `
DROP TABLE IF EXISTS documents;
CREATE TABLE documents (
	id SERIAL PRIMARY KEY,
	title TEXT,
	content TEXT
);`

const createIndexSQL = `
CREATE INDEX documents_search_idx ON documents
USING bm25 (id, title, content)
WITH (key_field='id');`

const insertSQL = `INSERT INTO documents (title, content) VALUES (:title, :content)`

// LoadTarget is the ParadeDB side of the loading phase: database lifecycle,
// batched document inserts, BM25 index creation.
type LoadTarget struct {
	driver  string
	connStr string
	dbName  string

	db *sqlx.DB
}

func NewLoadTarget(driver, connStr string) *LoadTarget {
	return &LoadTarget{driver: driver, connStr: connStr}
}

func (t *LoadTarget) Name() string { return TargetName }

// connectString rebuilds the connection string with the given database name,
// dropping any dbname the caller supplied.
func (t *LoadTarget) connectString(dbName string) string {
	re := regexp.MustCompile(`(dbname)=\S*\b`)
	connStr := strings.TrimSpace(re.ReplaceAllString(t.connStr, ""))
	return fmt.Sprintf("dbname=%s %s", dbName, connStr)
}

// Setup waits for the server, recreates the benchmark database and the
// documents table, and opens the loading session. The returned duration is
// the observed startup wait.
func (t *LoadTarget) Setup(cfg load.BenchmarkRunnerConfig) (time.Duration, error) {
	t.dbName = cfg.DBName

	start := time.Now()
	admin, err := t.waitForReady()
	if err != nil {
		return 0, err
	}
	startup := time.Since(start)

	if cfg.DoCreateDB {
		if err := t.recreateDB(admin, cfg.DoAbortOnExist); err != nil {
			admin.Close()
			return startup, err
		}
	}
	admin.Close()

	db, err := sqlx.Connect(t.driver, t.connectString(t.dbName))
	if err != nil {
		return startup, errors.Wrap(err, "could not connect to benchmark database")
	}
	t.db = db

	if _, err := t.db.Exec(createTableSQL); err != nil {
		return startup, errors.Wrap(err, "could not create documents table")
	}
	return startup, nil
}

func (t *LoadTarget) waitForReady() (*sqlx.DB, error) {
	var lastErr error
	for attempt := 0; attempt < readyAttempts; attempt++ {
		db, err := sqlx.Connect(t.driver, t.connectString(adminDBName))
		if err == nil {
			return db, nil
		}
		lastErr = err
		time.Sleep(readyRetryDelay)
	}
	return nil, errors.Wrap(lastErr, "database failed to become ready")
}

func (t *LoadTarget) recreateDB(admin *sqlx.DB, abortOnExist bool) error {
	if abortOnExist {
		r, err := admin.Query("SELECT 1 FROM pg_database WHERE datname = $1", t.dbName)
		if err != nil {
			return err
		}
		exists := r.Next()
		r.Close()
		if exists {
			return fmt.Errorf(errDBExistsFmt, t.dbName)
		}
	}
	if _, err := admin.Exec("DROP DATABASE IF EXISTS " + t.dbName); err != nil {
		return errors.Wrap(err, "could not drop old database")
	}
	if _, err := admin.Exec("CREATE DATABASE " + t.dbName); err != nil {
		return errors.Wrap(err, "could not create database")
	}
	return nil
}

func (t *LoadTarget) Processor() load.Processor { return t }

// ProcessBatch inserts one batch of documents in a single named exec.
func (t *LoadTarget) ProcessBatch(docs []data.Document) error {
	_, err := t.db.NamedExec(insertSQL, docs)
	return err
}

// Finalize builds the BM25 search index and reports how long it took.
func (t *LoadTarget) Finalize() (time.Duration, error) {
	start := time.Now()
	if _, err := t.db.Exec(createIndexSQL); err != nil {
		return 0, errors.Wrap(err, "could not create search index")
	}
	return time.Since(start), nil
}

func (t *LoadTarget) Count() (int64, error) {
	var count int64
	err := t.db.Get(&count, "SELECT COUNT(*) FROM documents")
	return count, err
}

func (t *LoadTarget) Close() error {
	if t.db == nil {
		return nil
	}
	return t.db.Close()
}
