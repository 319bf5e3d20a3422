// Package database はデータベース接続とマイグレーション管理を提供する。
package database

import (
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// migrations には users, sessions, posts の各テーブルのSQLを埋め込む。
//
//go:embed migrations/*.sql
var migrationsFS embed.FS

// MigrationStatus はスキーマの適用状況。
type MigrationStatus struct {
	Version uint
	Dirty   bool
	// Applied は今回の実行で1件以上のマイグレーションを適用したかどうか。
	Applied bool
}

// migrateLogger はgolang-migrateのログをslogに流す。
type migrateLogger struct {
	logger *slog.Logger
}

func (l migrateLogger) Printf(format string, v ...any) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, v...)), slog.String("component", "migrate"))
}

func (l migrateLogger) Verbose() bool {
	return false
}

// NewMigrator は埋め込みSQLを適用するmigrateインスタンスを生成する。
func NewMigrator(databaseURL string) (*migrate.Migrate, error) {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to create migration source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrator: %w", err)
	}
	m.Log = migrateLogger{logger: slog.Default()}

	return m, nil
}

// RunMigrations は未適用のマイグレーションをすべて適用する。
func RunMigrations(databaseURL string) error {
	_, err := Migrate(databaseURL)
	return err
}

// Migrate は未適用のマイグレーションを適用し、適用後のスキーマバージョンを返す。
// dirtyな状態（前回の適用が途中で失敗）の場合は適用せずにエラーを返す。
func Migrate(databaseURL string) (MigrationStatus, error) {
	m, err := NewMigrator(databaseURL)
	if err != nil {
		return MigrationStatus{}, err
	}
	defer m.Close()

	var status MigrationStatus
	if err := m.Up(); err != nil {
		if !errors.Is(err, migrate.ErrNoChange) {
			return MigrationStatus{}, fmt.Errorf("failed to run migrations: %w", err)
		}
	} else {
		status.Applied = true
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return MigrationStatus{}, fmt.Errorf("failed to read schema version: %w", err)
	}
	status.Version = version
	status.Dirty = dirty

	return status, nil
}
