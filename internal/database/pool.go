package database

import (
	"context"
	"database/sql"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/BaSui01/apiboot/config"
	"github.com/BaSui01/apiboot/types"
)

// =============================================================================
// 🗄️ 数据库连接池管理器
// =============================================================================

// Recorder 连接池指标记录接口，由 metrics.Collector 实现
type Recorder interface {
	RecordDBConnections(database string, open, idle int)
	RecordDBProbe(database, status string, duration time.Duration)
}

// PoolManager 数据库连接池管理器。
// 引擎在第一次使用时构建，Close 之后下一次使用会重新构建。
type PoolManager struct {
	config      config.DatabaseConfig
	logger      *zap.Logger
	dialectorFn DialectorFunc
	recorder    Recorder

	mu      sync.RWMutex
	db      *gorm.DB
	sqlDB   *sql.DB
	factory *SessionFactory

	generation atomic.Uint64
}

// Option 连接池管理器选项
type Option func(*PoolManager)

// WithDialectorFunc 替换方言构建函数
func WithDialectorFunc(fn DialectorFunc) Option {
	return func(pm *PoolManager) {
		if fn != nil {
			pm.dialectorFn = fn
		}
	}
}

// WithRecorder 挂载指标记录器
func WithRecorder(r Recorder) Option {
	return func(pm *PoolManager) {
		pm.recorder = r
	}
}

// NewPoolManager 创建连接池管理器，不会建立任何连接
func NewPoolManager(cfg config.DatabaseConfig, logger *zap.Logger, opts ...Option) *PoolManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	pm := &PoolManager{
		config:      cfg,
		logger:      logger.With(zap.String("component", "db_pool")),
		dialectorFn: NewDialector,
	}
	for _, opt := range opts {
		opt(pm)
	}
	return pm
}

// =============================================================================
// 🎯 核心方法
// =============================================================================

// Engine 返回 GORM 引擎，首次调用时构建
func (pm *PoolManager) Engine() (*gorm.DB, error) {
	db, _, err := pm.engine()
	return db, err
}

func (pm *PoolManager) engine() (*gorm.DB, *sql.DB, error) {
	pm.mu.RLock()
	if pm.db != nil {
		db, sqlDB := pm.db, pm.sqlDB
		pm.mu.RUnlock()
		return db, sqlDB, nil
	}
	pm.mu.RUnlock()

	pm.mu.Lock()
	defer pm.mu.Unlock()

	if pm.db != nil {
		return pm.db, pm.sqlDB, nil
	}

	db, sqlDB, err := pm.build()
	if err != nil {
		pm.logger.Error("failed to create database engine", zap.Error(err))
		return nil, nil, err
	}

	pm.db, pm.sqlDB = db, sqlDB
	gen := pm.generation.Add(1)

	pm.logger.Info("database engine created",
		zap.String("driver", pm.driverName()),
		zap.Int("pool_size", pm.config.PoolSize),
		zap.Int("max_open_conns", pm.config.MaxOpenConns()),
		zap.Duration("pool_recycle", pm.config.PoolRecycle),
		zap.Uint64("generation", gen),
	)
	return db, sqlDB, nil
}

// build 校验配置、打开 GORM 并设置连接池参数。调用方持有写锁。
func (pm *PoolManager) build() (*gorm.DB, *sql.DB, error) {
	if err := pm.config.Validate(); err != nil {
		return nil, nil, err
	}

	dialector, err := pm.dialectorFn(pm.config)
	if err != nil {
		if _, ok := types.AsError(err); ok {
			return nil, nil, err
		}
		return nil, nil, types.NewError(types.ErrEngineCreation, "failed to build dialector").WithCause(err)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		DisableAutomaticPing: true,
		Logger:               newGormLogger(pm.logger, pm.config.CommandTimeout),
	})
	if err != nil {
		return nil, nil, types.NewError(types.ErrEngineCreation, "failed to open database engine").WithCause(err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, types.NewError(types.ErrEngineCreation, "failed to get sql.DB").WithCause(err)
	}

	sqlDB.SetMaxIdleConns(pm.config.PoolSize)
	sqlDB.SetMaxOpenConns(pm.config.MaxOpenConns())
	sqlDB.SetConnMaxLifetime(pm.config.PoolRecycle)

	return db, sqlDB, nil
}

// SessionFactory 返回绑定到当前引擎的会话工厂，每个引擎生命周期内只创建一次
func (pm *PoolManager) SessionFactory() (*SessionFactory, error) {
	pm.mu.RLock()
	if pm.factory != nil {
		f := pm.factory
		pm.mu.RUnlock()
		return f, nil
	}
	pm.mu.RUnlock()

	db, sqlDB, err := pm.engine()
	if err != nil {
		return nil, err
	}

	pm.mu.Lock()
	defer pm.mu.Unlock()

	// 引擎可能在两次加锁之间被关闭并重建，只为当前引擎创建工厂
	if pm.factory != nil && pm.db == db {
		return pm.factory, nil
	}
	if pm.db != db {
		return nil, types.NewError(types.ErrPoolClosed, "database pool closed during initialization").
			WithRetryable(true)
	}

	pm.factory = &SessionFactory{
		db:             db,
		sqlDB:          sqlDB,
		poolTimeout:    pm.config.PoolTimeout,
		commandTimeout: pm.config.CommandTimeout,
		logger:         pm.logger,
	}
	pm.logger.Debug("session factory created")
	return pm.factory, nil
}

// WithSession 借出一个会话执行 fn，无论成功与否都归还连接
func (pm *PoolManager) WithSession(ctx context.Context, fn func(*Session) error) error {
	factory, err := pm.SessionFactory()
	if err != nil {
		return err
	}
	sess, err := factory.Open(ctx)
	if err != nil {
		return err
	}
	defer sess.Close()

	return fn(sess)
}

// Ping 检查数据库连接，必要时先构建引擎
func (pm *PoolManager) Ping(ctx context.Context) error {
	_, sqlDB, err := pm.engine()
	if err != nil {
		return err
	}

	if pm.config.CommandTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, pm.config.CommandTimeout)
		defer cancel()
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		return types.NewError(types.ErrConnection, "database ping failed").
			WithCause(err).
			WithRetryable(true)
	}
	return nil
}

// Close 关闭连接池并清空引擎与会话工厂。未初始化时为空操作。
func (pm *PoolManager) Close() error {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	if pm.db == nil {
		return nil
	}

	sqlDB := pm.sqlDB
	pm.db, pm.sqlDB, pm.factory = nil, nil, nil

	pm.logger.Info("closing database pool")
	if err := sqlDB.Close(); err != nil {
		pm.logger.Warn("error while closing database pool", zap.Error(err))
		return err
	}
	return nil
}

// =============================================================================
// 🔍 状态查询
// =============================================================================

// Initialized 引擎是否已构建
func (pm *PoolManager) Initialized() bool {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	return pm.db != nil
}

// Generation 已构建的引擎数量，每次构建加一
func (pm *PoolManager) Generation() uint64 {
	return pm.generation.Load()
}

// Config 返回连接池持有的配置副本
func (pm *PoolManager) Config() config.DatabaseConfig {
	return pm.config
}

// PoolConfigured 常驻连接数大于 0 时返回 "yes"
func (pm *PoolManager) PoolConfigured() string {
	return pm.config.PoolConfigured()
}

func (pm *PoolManager) driverName() string {
	driver, err := ResolveDriver(pm.config)
	if err != nil {
		return "unknown"
	}
	return driver
}

// Stats 返回连接池统计信息，未初始化时返回零值
func (pm *PoolManager) Stats() sql.DBStats {
	pm.mu.RLock()
	defer pm.mu.RUnlock()
	if pm.sqlDB == nil {
		return sql.DBStats{}
	}
	return pm.sqlDB.Stats()
}

// =============================================================================
// 📊 统计信息
// =============================================================================

// PoolStats 连接池统计信息（更友好的格式）
type PoolStats struct {
	Initialized        bool          `json:"initialized"`
	Generation         uint64        `json:"generation"`
	MaxOpenConnections int           `json:"max_open_connections"`
	OpenConnections    int           `json:"open_connections"`
	InUse              int           `json:"in_use"`
	Idle               int           `json:"idle"`
	WaitCount          int64         `json:"wait_count"`
	WaitDuration       time.Duration `json:"wait_duration"`
	MaxIdleClosed      int64         `json:"max_idle_closed"`
	MaxLifetimeClosed  int64         `json:"max_lifetime_closed"`
}

// GetStats 获取友好格式的统计信息
func (pm *PoolManager) GetStats() PoolStats {
	stats := pm.Stats()
	return PoolStats{
		Initialized:        pm.Initialized(),
		Generation:         pm.Generation(),
		MaxOpenConnections: stats.MaxOpenConnections,
		OpenConnections:    stats.OpenConnections,
		InUse:              stats.InUse,
		Idle:               stats.Idle,
		WaitCount:          stats.WaitCount,
		WaitDuration:       stats.WaitDuration,
		MaxIdleClosed:      stats.MaxIdleClosed,
		MaxLifetimeClosed:  stats.MaxLifetimeClosed,
	}
}

// recordPoolGauges 把当前连接数写入指标记录器
func (pm *PoolManager) recordPoolGauges() {
	if pm.recorder == nil {
		return
	}
	stats := pm.Stats()
	pm.recorder.RecordDBConnections(pm.driverName(), stats.OpenConnections, stats.Idle)
}
