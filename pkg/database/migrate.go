package database

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// 课表服务单独的版本表，与同库的其他应用互不影响
const migrationsTable = "smart_schedule_migrations"

func migrationSource() (source.Driver, error) {
	return iofs.New(migrationsFS, "migrations")
}

// RunMigrations 将 kv_entries 升级到内嵌的最新版本
// 上次迁移中断（dirty）时拒绝启动，需人工修复后再运行
func RunMigrations(db *sql.DB, logger *zap.Logger) error {
	src, err := migrationSource()
	if err != nil {
		return fmt.Errorf("加载内嵌迁移失败: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{MigrationsTable: migrationsTable})
	if err != nil {
		return fmt.Errorf("创建迁移驱动失败: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return fmt.Errorf("初始化迁移失败: %w", err)
	}

	from, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("读取存储表版本失败: %w", err)
	}
	if dirty {
		return fmt.Errorf("存储表版本 %d 处于 dirty 状态，请检查 %s 后重试", from, migrationsTable)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("升级存储表失败: %w", err)
	}

	to, _, _ := m.Version()
	if to == from {
		logger.Info("存储表已是最新版本", zap.Uint("version", to))
	} else {
		logger.Info("存储表升级完成", zap.Uint("from", from), zap.Uint("to", to), zap.String("table", "kv_entries"))
	}
	return nil
}
