package database

import (
	"fmt"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlserver"
	"gorm.io/gorm"

	"github.com/BaSui01/apiboot/config"
	"github.com/BaSui01/apiboot/types"
)

// DialectorFunc 根据数据库配置构建 GORM 方言，测试中可替换为 sqlmock 连接
type DialectorFunc func(cfg config.DatabaseConfig) (gorm.Dialector, error)

// NewDialector 默认的方言构建函数
func NewDialector(cfg config.DatabaseConfig) (gorm.Dialector, error) {
	driver, err := ResolveDriver(cfg)
	if err != nil {
		return nil, err
	}
	dsn, err := BuildDSN(cfg)
	if err != nil {
		return nil, err
	}

	switch driver {
	case config.DriverSQLServer:
		return sqlserver.Open(dsn), nil
	case config.DriverPostgres:
		return postgres.Open(dsn), nil
	case config.DriverMySQL:
		// 跳过初始化时的版本查询，保持引擎构建不触发网络连接
		return mysql.New(mysql.Config{
			DSN:                       dsn,
			SkipInitializeWithVersion: true,
		}), nil
	case config.DriverSQLite:
		return sqlite.Open(dsn), nil
	}
	return nil, types.NewError(types.ErrConfiguration, fmt.Sprintf("unsupported driver %q", driver))
}
