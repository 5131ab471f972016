package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/BaSui01/apiboot/types"
)

// 支持的数据库驱动
const (
	DriverSQLServer = "sqlserver"
	DriverPostgres  = "postgres"
	DriverMySQL     = "mysql"
	DriverSQLite    = "sqlite"
)

// DatabaseConfig 数据库连接与连接池配置。
// 加载完成后视为只读，连接池管理器持有自己的副本。
type DatabaseConfig struct {
	// 驱动: sqlserver, postgres, mysql, sqlite
	Driver string `yaml:"driver" env:"DRIVER"`
	// 主机名
	Server string `yaml:"server" env:"SERVER"`
	// 端口，0 表示驱动默认端口
	Port int `yaml:"port" env:"PORT"`
	// 数据库名（sqlite 为文件路径或 :memory:）
	Name string `yaml:"name" env:"NAME"`
	// 用户名
	Username string `yaml:"username" env:"USERNAME"`
	// 密码
	Password string `yaml:"password" env:"PASSWORD"`
	// 使用集成认证，忽略用户名密码
	TrustedConnection bool `yaml:"trusted_connection" env:"TRUSTED_CONNECTION"`
	// 是否加密传输
	Encrypt bool `yaml:"encrypt" env:"ENCRYPT"`
	// 是否信任服务端证书（跳过校验）
	TrustServerCertificate bool `yaml:"trust_server_certificate" env:"TRUST_SERVER_CERTIFICATE"`
	// CA 证书路径
	CertificatePath string `yaml:"certificate_path" env:"CERTIFICATE_PATH"`
	// 建立连接超时
	ConnectionTimeout time.Duration `yaml:"connection_timeout" env:"CONNECTION_TIMEOUT"`
	// 单条语句超时
	CommandTimeout time.Duration `yaml:"command_timeout" env:"COMMAND_TIMEOUT"`
	// 常驻连接数
	PoolSize int `yaml:"pool_size" env:"POOL_SIZE"`
	// 超出常驻连接数后允许的额外连接
	MaxOverflow int `yaml:"max_overflow" env:"MAX_OVERFLOW"`
	// 从连接池借出连接的等待上限
	PoolTimeout time.Duration `yaml:"pool_timeout" env:"POOL_TIMEOUT"`
	// 连接最长存活时间
	PoolRecycle time.Duration `yaml:"pool_recycle" env:"POOL_RECYCLE"`
	// 完整连接串，设置后覆盖上面的结构化字段
	URL string `yaml:"url" env:"URL"`
}

// NormalizeDriver 驱动名统一为小写并去掉首尾空白
func NormalizeDriver(driver string) string {
	return strings.ToLower(strings.TrimSpace(driver))
}

// IsConfigured 驱动和连接串都为空时视为未配置数据库
func (c DatabaseConfig) IsConfigured() bool {
	return strings.TrimSpace(c.Driver) != "" || strings.TrimSpace(c.URL) != ""
}

// PoolConfigured 常驻连接数大于 0 时返回 "yes"，否则 "no"
func (c DatabaseConfig) PoolConfigured() string {
	if c.PoolSize > 0 {
		return "yes"
	}
	return "no"
}

// MaxOpenConns 物理连接上限 = PoolSize + MaxOverflow，0 表示不限制
func (c DatabaseConfig) MaxOpenConns() int {
	if c.PoolSize <= 0 && c.MaxOverflow <= 0 {
		return 0
	}
	return c.PoolSize + c.MaxOverflow
}

// Validate 校验数据库配置，返回 CONFIGURATION 错误
func (c DatabaseConfig) Validate() error {
	if !c.IsConfigured() {
		return types.NewError(types.ErrConfiguration, "database is not configured")
	}

	var errs []string

	if c.URL == "" {
		switch NormalizeDriver(c.Driver) {
		case DriverSQLServer, DriverPostgres, DriverMySQL:
			if c.Server == "" {
				errs = append(errs, "server is required")
			}
			if c.Name == "" {
				errs = append(errs, "name is required")
			}
			if !c.TrustedConnection && c.Username == "" {
				errs = append(errs, "username is required unless trusted_connection is set")
			}
		case DriverSQLite:
			if c.Name == "" {
				errs = append(errs, "name is required")
			}
		default:
			errs = append(errs, fmt.Sprintf("unsupported driver %q", c.Driver))
		}
	}

	if c.Port < 0 || c.Port > 65535 {
		errs = append(errs, "invalid port")
	}
	if c.PoolSize < 0 {
		errs = append(errs, "pool_size must not be negative")
	}
	if c.MaxOverflow < 0 {
		errs = append(errs, "max_overflow must not be negative")
	}
	if c.ConnectionTimeout < 0 || c.CommandTimeout < 0 || c.PoolTimeout < 0 || c.PoolRecycle < 0 {
		errs = append(errs, "timeouts must not be negative")
	}

	if len(errs) > 0 {
		return types.NewError(types.ErrConfiguration, "invalid database config: "+strings.Join(errs, "; "))
	}
	return nil
}
