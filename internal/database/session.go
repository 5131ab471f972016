package database

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/BaSui01/apiboot/types"
)

// =============================================================================
// 🔌 会话
// =============================================================================

// SessionFactory 会话工厂，每次 Open 从连接池借出一个物理连接
type SessionFactory struct {
	db             *gorm.DB
	sqlDB          *sql.DB
	poolTimeout    time.Duration
	commandTimeout time.Duration
	logger         *zap.Logger
}

// Open 借出一个连接并返回固定在该连接上的会话。
// 等待时间受 PoolTimeout 限制。
func (f *SessionFactory) Open(ctx context.Context) (*Session, error) {
	borrowCtx := ctx
	if f.poolTimeout > 0 {
		var cancel context.CancelFunc
		borrowCtx, cancel = context.WithTimeout(ctx, f.poolTimeout)
		defer cancel()
	}

	start := time.Now()
	conn, err := f.sqlDB.Conn(borrowCtx)
	if err != nil {
		return nil, types.NewError(types.ErrConnection, "failed to check out connection").
			WithCause(err).
			WithRetryable(true)
	}

	tx := f.db.WithContext(ctx)
	tx.Statement.ConnPool = conn

	f.logger.Debug("connection checked out from pool", zap.Duration("wait", time.Since(start)))

	return &Session{
		conn:           conn,
		db:             tx,
		commandTimeout: f.commandTimeout,
		logger:         f.logger,
	}, nil
}

// Session 请求级会话，持有一个借出的连接，Close 后归还
type Session struct {
	conn           *sql.Conn
	db             *gorm.DB
	commandTimeout time.Duration
	logger         *zap.Logger
	once           sync.Once
}

// DB 返回固定在借出连接上的 GORM 句柄
func (s *Session) DB() *gorm.DB {
	return s.db
}

// QueryInt 执行返回单个整数的查询，受 CommandTimeout 限制
func (s *Session) QueryInt(ctx context.Context, query string, args ...interface{}) (int64, error) {
	if s.commandTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.commandTimeout)
		defer cancel()
	}

	var v int64
	res := s.db.WithContext(ctx).Raw(query, args...).Scan(&v)
	if res.Error != nil {
		return 0, types.NewError(types.ErrQueryExecution, "query failed").WithCause(res.Error)
	}
	if res.RowsAffected == 0 {
		return 0, types.NewError(types.ErrQueryExecution, "query returned no rows")
	}
	return v, nil
}

// Close 归还连接，可重复调用
func (s *Session) Close() error {
	var err error
	s.once.Do(func() {
		err = s.conn.Close()
		s.logger.Debug("connection checked back into pool")
	})
	return err
}
