package database

import (
	"database/sql"
	"fmt"
	"net"
	"strconv"
	"time"

	"filevault/config"
	"filevault/logger"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

func init() {
	sqlx.BindDriver(config.DriverSQLite, sqlx.QUESTION)
}

// Open creates the connection pool described by cfg, bootstraps the schema
// and returns it. The caller owns the pool and must Close it on shutdown.
func Open(cfg config.Database) (*sqlx.DB, error) {
	dsn, err := DSN(cfg)
	if err != nil {
		return nil, err
	}

	db, err := connect(cfg, dsn)
	if err != nil && cfg.Driver == config.DriverMySQL {
		// The server may be up without our database; create it and retry.
		logger.Warn("Database %q not reachable (%v), trying to create it", cfg.Name, err)
		if bootErr := createMySQLDatabase(cfg); bootErr != nil {
			return nil, fmt.Errorf("failed to create database: %w", bootErr)
		}
		db, err = connect(cfg, dsn)
	}
	if err != nil {
		return nil, err
	}

	if err := CreateTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	logger.WithFields(map[string]interface{}{
		"driver":         cfg.Driver,
		"max_open_conns": cfg.MaxOpenConns,
	}).Info("Database initialized successfully")

	return db, nil
}

func connect(cfg config.Database, dsn string) (*sqlx.DB, error) {
	db, err := sqlx.Open(cfg.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxOpenConns)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// DSN renders the driver-specific data source name.
func DSN(cfg config.Database) (string, error) {
	switch cfg.Driver {
	case config.DriverMySQL:
		return mysqlConfig(cfg, true).FormatDSN(), nil
	case config.DriverSQLite:
		// Pragmas in the DSN apply to every pooled connection, not just the first.
		return fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", cfg.Path), nil
	default:
		return "", fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}
}

func mysqlConfig(cfg config.Database, withDB bool) *mysql.Config {
	mc := mysql.NewConfig()
	mc.User = cfg.User
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	mc.ParseTime = true
	mc.Loc = time.UTC
	mc.Params = map[string]string{"charset": "utf8mb4"}
	if withDB {
		mc.DBName = cfg.Name
	}
	return mc
}

func createMySQLDatabase(cfg config.Database) error {
	db, err := sql.Open(config.DriverMySQL, mysqlConfig(cfg, false).FormatDSN())
	if err != nil {
		return err
	}
	defer db.Close()

	_, err = db.Exec("CREATE DATABASE IF NOT EXISTS `" + cfg.Name + "` CHARACTER SET utf8mb4")
	return err
}

// CreateTables creates the folders and files tables when missing.
func CreateTables(db *sqlx.DB) error {
	var tables []string
	if db.DriverName() == config.DriverMySQL {
		tables = mysqlSchema
	} else {
		tables = sqliteSchema
	}

	for _, stmt := range tables {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS folders (
		id VARCHAR(255) PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		user_id VARCHAR(255) NOT NULL,
		created_at DATETIME NOT NULL,
		INDEX user_id_idx (user_id)
	) DEFAULT CHARSET=utf8mb4`,

	`CREATE TABLE IF NOT EXISTS files (
		id VARCHAR(255) PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		type VARCHAR(255) NOT NULL,
		size BIGINT NOT NULL,
		path VARCHAR(255) NOT NULL,
		folder_id VARCHAR(255),
		user_id VARCHAR(255) NOT NULL,
		upload_date DATETIME NOT NULL,
		last_modified DATETIME NOT NULL,
		INDEX user_id_idx (user_id),
		INDEX folder_id_idx (folder_id),
		INDEX path_idx (path),
		FOREIGN KEY (folder_id) REFERENCES folders(id) ON DELETE SET NULL
	) DEFAULT CHARSET=utf8mb4`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS folders (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		user_id TEXT NOT NULL,
		created_at DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_folders_user_id ON folders(user_id)`,

	`CREATE TABLE IF NOT EXISTS files (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		type TEXT NOT NULL,
		size INTEGER NOT NULL,
		path TEXT NOT NULL,
		folder_id TEXT REFERENCES folders(id) ON DELETE SET NULL,
		user_id TEXT NOT NULL,
		upload_date DATETIME NOT NULL,
		last_modified DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_files_user_id ON files(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_files_folder_id ON files(folder_id)`,
	`CREATE INDEX IF NOT EXISTS idx_files_path ON files(path)`,
}
