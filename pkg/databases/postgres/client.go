package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/haguru/myblog/config"
	"github.com/haguru/myblog/internal/interfaces"

	_ "github.com/lib/pq" // PostgreSQL driver for database/sql
	"github.com/pressly/goose/v3"
)

const (
	// DefaultMaxOpenConns is the default maximum number of open connections to the database.
	DefaultMaxOpenConns = 10
	// DefaultMaxIdleConns is the default maximum number of idle connections to the database.
	DefaultMaxIdleConns = 5
	// DefaultConnMaxLifetime is the default maximum amount of time a connection may be reused.
	DefaultConnMaxLifetime = 30 * time.Second

	driverName = "postgres"
	dbTag      = "db"
)

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// PostgresDatabaseClient implements the DBClient interface for PostgreSQL databases.
// Table and column names are checked against allow-lists before they are
// interpolated into SQL; values always travel as bind parameters.
type PostgresDatabaseClient struct {
	db              *sql.DB
	MaxOpenConns    int           // MaxOpenConns is the maximum number of open connections to the database
	MaxIdleConns    int           // MaxIdleConns is the maximum number of idle connections to the database
	ConnMaxLifetime time.Duration // ConnMaxLifetime is the maximum amount of time a connection may be reused
	validTables     map[string]bool
	validFields     map[string]bool
}

// NewPostgresDatabaseClient creates an unconnected client from cfg; zero pool settings fall back to the defaults.
func NewPostgresDatabaseClient(cfg *config.PostgresConfig) *PostgresDatabaseClient {
	client := &PostgresDatabaseClient{
		MaxOpenConns:    DefaultMaxOpenConns,
		MaxIdleConns:    DefaultMaxIdleConns,
		ConnMaxLifetime: DefaultConnMaxLifetime,
		validTables:     config.ListToMap(cfg.ValidTables),
		validFields:     config.ListToMap(cfg.ValidFields),
	}
	if cfg.Options.MaxOpenConns > 0 {
		client.MaxOpenConns = cfg.Options.MaxOpenConns
	}
	if cfg.Options.MaxIdleConns > 0 {
		client.MaxIdleConns = cfg.Options.MaxIdleConns
	}
	if cfg.Options.ConnMaxLifetime > 0 {
		client.ConnMaxLifetime = cfg.Options.ConnMaxLifetime
	}
	return client
}

// NewPostgresDatabaseClientFromDB wraps an already opened *sql.DB.
func NewPostgresDatabaseClientFromDB(db *sql.DB, cfg *config.PostgresConfig) *PostgresDatabaseClient {
	client := NewPostgresDatabaseClient(cfg)
	client.db = db
	return client
}

// Connect establishes a connection to a PostgreSQL database.
func (p *PostgresDatabaseClient) Connect(ctx context.Context, dsn string) error {
	if dsn == "" {
		return fmt.Errorf("PostgresDatabaseClient: DSN is empty")
	}

	var err error
	p.db, err = sql.Open(driverName, dsn)
	if err != nil {
		return fmt.Errorf("failed to open PostgreSQL database: %w", err)
	}

	p.db.SetMaxOpenConns(p.MaxOpenConns)
	p.db.SetMaxIdleConns(p.MaxIdleConns)
	p.db.SetConnMaxLifetime(p.ConnMaxLifetime)

	return p.Ping(ctx)
}

// Disconnect closes the PostgreSQL database connection.
func (p *PostgresDatabaseClient) Disconnect(ctx context.Context) error {
	if p.db != nil {
		return p.db.Close()
	}
	return nil
}

// InsertOne inserts a single row into a PostgreSQL table.
// 'document' is expected to be a map[string]interface{}; the table must have
// a generated "id" column, which is returned as int64.
func (p *PostgresDatabaseClient) InsertOne(ctx context.Context, tableName string, document interfaces.Document) (interface{}, error) {
	if err := p.checkTable(tableName); err != nil {
		return nil, err
	}
	docMap, ok := document.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("PostgreSQL InsertOne expects document to be map[string]interface{}")
	}
	if len(docMap) == 0 {
		return nil, fmt.Errorf("PostgreSQL InsertOne requires a non-empty document")
	}

	columns := sortedKeys(docMap)
	placeholders := make([]string, 0, len(columns))
	values := make([]interface{}, 0, len(columns))
	for i, col := range columns {
		if err := p.checkField(col); err != nil {
			return nil, err
		}
		placeholders = append(placeholders, fmt.Sprintf("$%d", i+1))
		values = append(values, docMap[col])
	}

	// table and column names come from the allow-lists checked above.
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING id",
		tableName,
		strings.Join(columns, ", "),
		strings.Join(placeholders, ", "),
	) // #nosec G201

	var insertedID int64
	if err := p.db.QueryRowContext(ctx, query, values...).Scan(&insertedID); err != nil {
		return nil, fmt.Errorf("failed to insert into %s: %w", tableName, err)
	}
	return insertedID, nil
}

// FindOne retrieves a single row from a PostgreSQL table.
// 'filter' is expected to be a map[string]interface{} for the WHERE clause.
// 'result' is a pointer to a struct whose `db` tagged fields are selected and scanned.
func (p *PostgresDatabaseClient) FindOne(ctx context.Context, tableName string, filter interfaces.Document, result interfaces.Document) error {
	if err := p.checkTable(tableName); err != nil {
		return err
	}
	whereString, whereValues, err := p.buildWhere(filter)
	if err != nil {
		return err
	}

	resultValue := reflect.ValueOf(result)
	if resultValue.Kind() != reflect.Ptr || resultValue.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("result must be a pointer to a struct")
	}
	elem := resultValue.Elem()

	columns := make([]string, 0, elem.NumField())
	fieldPointers := make([]interface{}, 0, elem.NumField())
	for i := 0; i < elem.NumField(); i++ {
		column := elem.Type().Field(i).Tag.Get(dbTag)
		if column == "" || column == "-" {
			continue
		}
		if err := p.checkField(column); err != nil {
			return err
		}
		columns = append(columns, column)
		fieldPointers = append(fieldPointers, elem.Field(i).Addr().Interface())
	}
	if len(columns) == 0 {
		return fmt.Errorf("result struct has no %q tagged fields", dbTag)
	}

	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s LIMIT 1",
		strings.Join(columns, ", "),
		tableName,
		whereString,
	) // #nosec G201

	err = p.db.QueryRowContext(ctx, query, whereValues...).Scan(fieldPointers...)
	if errors.Is(err, sql.ErrNoRows) {
		elem.Set(reflect.Zero(elem.Type()))
		return fmt.Errorf("%s: %w", tableName, interfaces.ErrNoDocument)
	}
	if err != nil {
		return fmt.Errorf("failed to find one in %s: %w", tableName, err)
	}
	return nil
}

// Exists reports whether any row of tableName matches filter.
func (p *PostgresDatabaseClient) Exists(ctx context.Context, tableName string, filter interfaces.Document) (bool, error) {
	if err := p.checkTable(tableName); err != nil {
		return false, err
	}
	whereString, whereValues, err := p.buildWhere(filter)
	if err != nil {
		return false, err
	}

	query := fmt.Sprintf("SELECT EXISTS(SELECT 1 FROM %s WHERE %s)", tableName, whereString) // #nosec G201

	var exists bool
	if err := p.db.QueryRowContext(ctx, query, whereValues...).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check existence in %s: %w", tableName, err)
	}
	return exists, nil
}

// Ping checks the health of the PostgreSQL connection.
func (p *PostgresDatabaseClient) Ping(ctx context.Context) error {
	if p.db == nil {
		return fmt.Errorf("PostgresDatabaseClient is not connected to a database")
	}
	return p.db.PingContext(ctx)
}

// EnsureSchema runs the goose migrations found at the root of schema, which must be an fs.FS.
func (p *PostgresDatabaseClient) EnsureSchema(ctx context.Context, tableName string, schema interfaces.Document) error {
	if p.db == nil {
		return fmt.Errorf("PostgresDatabaseClient is not connected to a database")
	}
	migrations, ok := schema.(fs.FS)
	if !ok {
		return fmt.Errorf("EnsureSchema expects schema to be an fs.FS of migrations, got %T", schema)
	}

	goose.SetBaseFS(migrations)
	if err := goose.SetDialect(driverName); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	if err := gooseUpContext(ctx, p.db, "."); err != nil {
		return fmt.Errorf("failed to migrate %s: %w", tableName, err)
	}
	return nil
}

// buildWhere turns a non-empty map filter into "col = $n AND ..." with columns in sorted order.
func (p *PostgresDatabaseClient) buildWhere(filter interfaces.Document) (string, []interface{}, error) {
	filterMap, ok := filter.(map[string]interface{})
	if !ok {
		return "", nil, fmt.Errorf("PostgreSQL expects filter to be map[string]interface{}")
	}
	if len(filterMap) == 0 {
		return "", nil, fmt.Errorf("PostgreSQL requires a non-empty filter")
	}

	columns := sortedKeys(filterMap)
	whereClauses := make([]string, 0, len(columns))
	whereValues := make([]interface{}, 0, len(columns))
	for i, col := range columns {
		if err := p.checkField(col); err != nil {
			return "", nil, err
		}
		whereClauses = append(whereClauses, fmt.Sprintf("%s = $%d", col, i+1))
		whereValues = append(whereValues, filterMap[col])
	}
	return strings.Join(whereClauses, " AND "), whereValues, nil
}

func (p *PostgresDatabaseClient) checkTable(tableName string) error {
	if p.db == nil {
		return fmt.Errorf("PostgresDatabaseClient is not connected to a database")
	}
	if !p.validTables[tableName] {
		return fmt.Errorf("PostgresDatabaseClient: invalid table name: %q", tableName)
	}
	return nil
}

func (p *PostgresDatabaseClient) checkField(field string) error {
	if !p.validFields[field] {
		return fmt.Errorf("PostgresDatabaseClient: invalid field name: %q", field)
	}
	return nil
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
