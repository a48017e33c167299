package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS documents (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	collection TEXT NOT NULL,
	body       TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_documents_collection ON documents(collection);
CREATE TABLE IF NOT EXISTS buckets (
	name TEXT PRIMARY KEY
);
CREATE TABLE IF NOT EXISTS objects (
	bucket       TEXT NOT NULL,
	key          TEXT NOT NULL,
	content_type TEXT NOT NULL,
	data         BLOB NOT NULL,
	PRIMARY KEY (bucket, key)
);`

// busyTimeoutMS bounds how long a writer waits for the database lock
// before SQLITE_BUSY.
const busyTimeoutMS = 5000

var fieldPath = regexp.MustCompile(`^[A-Za-z0-9_]+(\.[A-Za-z0-9_]+)*$`)

// SQLiteStore keeps documents as JSON text in a single SQLite table. It
// serves local development and tests without an oxidb-server.
type SQLiteStore struct {
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

// OpenSQLite opens a SQLite database at the given path.
// If path is ":memory:", uses an in-memory database.
//
// The store holds a single connection: an in-memory database would otherwise
// be private to each connection, and a file database has one writer anyway.
// The pragmas travel in the DSN so a reopened connection gets them too.
func OpenSQLite(path string) (*SQLiteStore, error) {
	dsn := path
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
		dsn = fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=journal_mode(WAL)", path, busyTimeoutMS)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

func (s *SQLiteStore) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *SQLiteStore) Insert(ctx context.Context, collection string, doc map[string]any) (string, error) {
	body := make(map[string]any, len(doc))
	for k, v := range doc {
		if k != "_id" {
			body[k] = v
		}
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal document: %w", err)
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (collection, body) VALUES (?, ?)`, collection, string(raw))
	if err != nil {
		return "", sqliteErr(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(id, 10), nil
}

func (s *SQLiteStore) FindOne(ctx context.Context, collection string, query map[string]any) (map[string]any, error) {
	docs, err := s.Find(ctx, collection, query, &FindOptions{Limit: 1})
	if err != nil || len(docs) == 0 {
		return nil, err
	}
	return docs[0], nil
}

func (s *SQLiteStore) Find(ctx context.Context, collection string, query map[string]any, opts *FindOptions) ([]map[string]any, error) {
	where, args, err := whereClause(collection, query)
	if err != nil {
		return nil, err
	}
	if opts == nil {
		opts = &FindOptions{}
	}
	order := "id"
	if opts.Sort != "" {
		field := strings.TrimPrefix(opts.Sort, "-")
		expr, err := fieldExpr(field)
		if err != nil {
			return nil, err
		}
		dir := "ASC"
		if strings.HasPrefix(opts.Sort, "-") {
			dir = "DESC"
		}
		order = fmt.Sprintf("%s %s, id %s", expr, dir, dir)
	}
	limit := -1
	if opts.Limit > 0 {
		limit = opts.Limit
	}

	q := fmt.Sprintf(`SELECT id, body FROM documents WHERE %s ORDER BY %s LIMIT ? OFFSET ?`, where, order)
	rows, err := s.db.QueryContext(ctx, q, append(args, limit, opts.Skip)...)
	if err != nil {
		return nil, fmt.Errorf("find in %s: %w", collection, err)
	}
	defer rows.Close()

	var docs []map[string]any
	for rows.Next() {
		var (
			id   int64
			body string
		)
		if err := rows.Scan(&id, &body); err != nil {
			return nil, err
		}
		var doc map[string]any
		if err := json.Unmarshal([]byte(body), &doc); err != nil {
			return nil, fmt.Errorf("decode document %d: %w", id, err)
		}
		doc["_id"] = id
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (s *SQLiteStore) Count(ctx context.Context, collection string, query map[string]any) (int, error) {
	where, args, err := whereClause(collection, query)
	if err != nil {
		return 0, err
	}
	var n int
	err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents WHERE `+where, args...).Scan(&n)
	return n, err
}

func (s *SQLiteStore) UpdateOne(ctx context.Context, collection string, query, set map[string]any) error {
	if len(set) == 0 {
		return nil
	}
	where, args, err := whereClause(collection, query)
	if err != nil {
		return err
	}

	keys := sortedKeys(set)
	setArgs := make([]any, 0, len(keys))
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		if k == "_id" || !fieldPath.MatchString(k) {
			return fmt.Errorf("invalid field path %q", k)
		}
		raw, err := json.Marshal(set[k])
		if err != nil {
			return fmt.Errorf("marshal %s: %w", k, err)
		}
		parts = append(parts, fmt.Sprintf("'$.%s', json(?)", k))
		setArgs = append(setArgs, string(raw))
	}

	q := fmt.Sprintf(`UPDATE documents SET body = json_set(body, %s)
		WHERE id = (SELECT id FROM documents WHERE %s ORDER BY id LIMIT 1)`,
		strings.Join(parts, ", "), where)
	if _, err := s.db.ExecContext(ctx, q, append(setArgs, args...)...); err != nil {
		return sqliteErr(err)
	}
	return nil
}

func (s *SQLiteStore) CreateIndex(ctx context.Context, collection, field string) error {
	return s.createIndex(ctx, collection, field, false)
}

func (s *SQLiteStore) CreateUniqueIndex(ctx context.Context, collection, field string) error {
	return s.createIndex(ctx, collection, field, true)
}

func (s *SQLiteStore) createIndex(ctx context.Context, collection, field string, unique bool) error {
	if !fieldPath.MatchString(collection) {
		return fmt.Errorf("invalid collection name %q", collection)
	}
	expr, err := fieldExpr(field)
	if err != nil {
		return err
	}
	kind, prefix := "INDEX", "idx"
	if unique {
		kind, prefix = "UNIQUE INDEX", "uniq"
	}
	name := strings.ReplaceAll(fmt.Sprintf("%s_%s_%s", prefix, collection, field), ".", "_")
	q := fmt.Sprintf(`CREATE %s IF NOT EXISTS %s ON documents(%s) WHERE collection = '%s'`, kind, name, expr, collection)
	_, err = s.db.ExecContext(ctx, q)
	return err
}

func (s *SQLiteStore) EnsureBucket(ctx context.Context, bucket string) error {
	_, err := s.db.ExecContext(ctx, `INSERT OR IGNORE INTO buckets (name) VALUES (?)`, bucket)
	return err
}

func (s *SQLiteStore) PutObject(ctx context.Context, bucket, key string, data []byte, contentType string) error {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO objects (bucket, key, content_type, data)
		SELECT ?, ?, ?, ? WHERE EXISTS (SELECT 1 FROM buckets WHERE name = ?)`,
		bucket, key, contentType, data, bucket)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: bucket %s", ErrNotFound, bucket)
	}
	return nil
}

func (s *SQLiteStore) GetObject(ctx context.Context, bucket, key string) ([]byte, string, error) {
	var (
		data []byte
		ct   string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT data, content_type FROM objects WHERE bucket = ? AND key = ?`, bucket, key).Scan(&data, &ct)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, "", fmt.Errorf("%w: object %s/%s", ErrNotFound, bucket, key)
	}
	return data, ct, err
}

func (s *SQLiteStore) DeleteObject(ctx context.Context, bucket, key string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM objects WHERE bucket = ? AND key = ?`, bucket, key)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: object %s/%s", ErrNotFound, bucket, key)
	}
	return nil
}

// whereClause turns an equality query into SQL. "_id" matches the row id and
// other keys match JSON fields, which may be dotted paths.
func whereClause(collection string, query map[string]any) (string, []any, error) {
	conds := []string{"collection = ?"}
	args := []any{collection}
	for _, k := range sortedKeys(query) {
		v := query[k]
		if k == "_id" {
			conds = append(conds, "id = ?")
			args = append(args, rowID(v))
			continue
		}
		expr, err := fieldExpr(k)
		if err != nil {
			return "", nil, err
		}
		switch x := v.(type) {
		case string, float64, int, int64:
			args = append(args, x)
		case bool:
			if x {
				args = append(args, 1)
			} else {
				args = append(args, 0)
			}
		default:
			return "", nil, fmt.Errorf("unsupported query value for %s: %T", k, v)
		}
		conds = append(conds, expr+" = ?")
	}
	return strings.Join(conds, " AND "), args, nil
}

func fieldExpr(field string) (string, error) {
	if field == "_id" {
		return "id", nil
	}
	if !fieldPath.MatchString(field) {
		return "", fmt.Errorf("invalid field path %q", field)
	}
	return fmt.Sprintf("json_extract(body, '$.%s')", field), nil
}

// rowID converts an id as found in queries. Ids that cannot name a row map
// to -1, which matches nothing.
func rowID(v any) int64 {
	switch x := v.(type) {
	case int64:
		return x
	case int:
		return int64(x)
	case float64:
		return int64(x)
	case string:
		if n, err := strconv.ParseInt(x, 10, 64); err == nil {
			return n
		}
	}
	return -1
}

func sqliteErr(err error) error {
	if isUniqueViolation(err.Error()) {
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	return err
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
