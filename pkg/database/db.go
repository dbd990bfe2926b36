package database

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/AryanManu544/Presenze/config"
	applogger "github.com/AryanManu544/Presenze/pkg/logger"
)

// NewDB 初始化 PostgreSQL 数据库连接
func NewDB(cfg *config.DatabaseConfig, logLevel string, logger *zap.Logger) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		Logger: gormlogger.Default.LogMode(applogger.GormLevel(logLevel)),
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), gormCfg)
	if err != nil {
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取底层 sql.DB 失败: %w", err)
	}

	maxOpen := cfg.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 10
	}
	maxIdle := cfg.MaxIdleConns
	if maxIdle <= 0 {
		maxIdle = 5
	}
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(maxIdle)
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)
	}
	if cfg.ConnMaxIdleTime > 0 {
		sqlDB.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTime) * time.Minute)
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("数据库 ping 失败: %w", err)
	}

	logger.Info("数据库连接成功",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.String("dbname", cfg.Name),
	)

	return db, nil
}

// Provider 进程级数据库连接池句柄
// 首次调用 DB() 时建立连接并执行迁移，之后复用同一连接池；并发安全
type Provider struct {
	cfg      *config.DatabaseConfig
	logLevel string
	logger   *zap.Logger

	once sync.Once
	db   *gorm.DB
	err  error
}

// NewProvider 创建连接池句柄（不会立即连接）
func NewProvider(cfg *config.DatabaseConfig, logLevel string, logger *zap.Logger) *Provider {
	return &Provider{cfg: cfg, logLevel: logLevel, logger: logger}
}

// DB 返回共享连接池，首次调用时完成初始化
// 初始化失败的结果同样被缓存，避免每个请求重复拨号
func (p *Provider) DB() (*gorm.DB, error) {
	p.once.Do(func() {
		db, err := NewDB(p.cfg, p.logLevel, p.logger)
		if err != nil {
			p.err = err
			return
		}
		sqlDB, err := db.DB()
		if err != nil {
			p.err = fmt.Errorf("获取底层 sql.DB 失败: %w", err)
			return
		}
		if err := RunMigrations(sqlDB, p.logger); err != nil {
			p.err = err
			return
		}
		p.db = db
	})
	return p.db, p.err
}

// Ping 健康检查：连接池未初始化或不可达时返回错误
func (p *Provider) Ping(ctx context.Context) error {
	db, err := p.DB()
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close 关闭连接池；未初始化时为空操作
func (p *Provider) Close() error {
	if p.db == nil {
		return nil
	}
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
