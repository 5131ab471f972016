package database

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/BaSui01/apiboot/config"
	"github.com/BaSui01/apiboot/internal/tlsutil"
	"github.com/BaSui01/apiboot/types"
)

// =============================================================================
// 🔗 连接串构建
// =============================================================================

// mysqlTLSConfigName 自定义 CA 注册到 MySQL 驱动时使用的名称
const mysqlTLSConfigName = "apiboot"

var defaultPorts = map[string]int{
	config.DriverSQLServer: 1433,
	config.DriverPostgres:  5432,
	config.DriverMySQL:     3306,
}

// ResolveDriver 返回实际使用的驱动名。
// 未显式设置 Driver 时从 URL 的 scheme 推断。
func ResolveDriver(cfg config.DatabaseConfig) (string, error) {
	if d := config.NormalizeDriver(cfg.Driver); d != "" {
		return d, nil
	}
	if cfg.URL == "" {
		return "", types.NewError(types.ErrConfiguration, "database is not configured")
	}

	scheme, _, ok := strings.Cut(cfg.URL, ":")
	if !ok {
		return "", types.NewError(types.ErrConfiguration, "cannot infer driver from database url")
	}
	switch strings.ToLower(scheme) {
	case "postgres", "postgresql":
		return config.DriverPostgres, nil
	case "sqlserver", "mssql":
		return config.DriverSQLServer, nil
	case "mysql":
		return config.DriverMySQL, nil
	case "sqlite", "file":
		return config.DriverSQLite, nil
	}
	return "", types.NewError(types.ErrConfiguration, fmt.Sprintf("unsupported database url scheme %q", scheme))
}

// BuildDSN 根据结构化字段构建驱动连接串；设置了 URL 时直接使用 URL。
func BuildDSN(cfg config.DatabaseConfig) (string, error) {
	driver, err := ResolveDriver(cfg)
	if err != nil {
		return "", err
	}

	if cfg.URL != "" {
		return normalizeURL(driver, cfg.URL), nil
	}

	switch driver {
	case config.DriverSQLServer:
		return sqlServerDSN(cfg), nil
	case config.DriverPostgres:
		return postgresDSN(cfg), nil
	case config.DriverMySQL:
		return mysqlDSN(cfg)
	case config.DriverSQLite:
		return cfg.Name, nil
	}
	return "", types.NewError(types.ErrConfiguration, fmt.Sprintf("unsupported driver %q", driver))
}

// normalizeURL 去掉驱动不认识的 scheme 前缀
func normalizeURL(driver, raw string) string {
	switch driver {
	case config.DriverMySQL:
		return strings.TrimPrefix(raw, "mysql://")
	case config.DriverSQLite:
		return strings.TrimPrefix(raw, "sqlite://")
	}
	return raw
}

func hostPort(cfg config.DatabaseConfig, driver string) string {
	port := cfg.Port
	if port == 0 {
		port = defaultPorts[driver]
	}
	return net.JoinHostPort(cfg.Server, strconv.Itoa(port))
}

// sqlServerDSN 生成 go-mssqldb 的 URL 形式连接串
func sqlServerDSN(cfg config.DatabaseConfig) string {
	u := &url.URL{
		Scheme: "sqlserver",
		Host:   hostPort(cfg, config.DriverSQLServer),
	}
	if !cfg.TrustedConnection {
		u.User = url.UserPassword(cfg.Username, cfg.Password)
	}

	q := url.Values{}
	q.Set("database", cfg.Name)
	q.Set("encrypt", strconv.FormatBool(cfg.Encrypt))
	q.Set("TrustServerCertificate", strconv.FormatBool(cfg.TrustServerCertificate))
	if cfg.ConnectionTimeout > 0 {
		q.Set("connection timeout", strconv.Itoa(seconds(cfg.ConnectionTimeout.Seconds())))
		q.Set("dial timeout", strconv.Itoa(seconds(cfg.ConnectionTimeout.Seconds())))
	}
	if cfg.CertificatePath != "" {
		q.Set("certificate", cfg.CertificatePath)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// postgresDSN 生成 keyword/value 形式连接串
func postgresDSN(cfg config.DatabaseConfig) string {
	port := cfg.Port
	if port == 0 {
		port = defaultPorts[config.DriverPostgres]
	}

	parts := []string{
		"host=" + pgQuote(cfg.Server),
		"port=" + strconv.Itoa(port),
		"dbname=" + pgQuote(cfg.Name),
	}
	if !cfg.TrustedConnection {
		parts = append(parts, "user="+pgQuote(cfg.Username))
		if cfg.Password != "" {
			parts = append(parts, "password="+pgQuote(cfg.Password))
		}
	}

	switch {
	case !cfg.Encrypt:
		parts = append(parts, "sslmode=disable")
	case cfg.TrustServerCertificate:
		parts = append(parts, "sslmode=require")
	default:
		parts = append(parts, "sslmode=verify-full")
	}
	if cfg.CertificatePath != "" {
		parts = append(parts, "sslrootcert="+pgQuote(cfg.CertificatePath))
	}
	if cfg.ConnectionTimeout > 0 {
		parts = append(parts, "connect_timeout="+strconv.Itoa(seconds(cfg.ConnectionTimeout.Seconds())))
	}
	if cfg.CommandTimeout > 0 {
		parts = append(parts, "statement_timeout="+strconv.FormatInt(cfg.CommandTimeout.Milliseconds(), 10))
	}
	return strings.Join(parts, " ")
}

// pgQuote 按 libpq 规则给值加引号
func pgQuote(v string) string {
	if v != "" && !strings.ContainsAny(v, " '\\\t\n\v\f\r") {
		return v
	}
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	return "'" + r.Replace(v) + "'"
}

// mysqlDSN 通过驱动自带的 Config 生成连接串
func mysqlDSN(cfg config.DatabaseConfig) (string, error) {
	mc := mysql.NewConfig()
	mc.Net = "tcp"
	mc.Addr = hostPort(cfg, config.DriverMySQL)
	mc.DBName = cfg.Name
	if !cfg.TrustedConnection {
		mc.User = cfg.Username
		mc.Passwd = cfg.Password
	}
	mc.ParseTime = true
	mc.Timeout = cfg.ConnectionTimeout
	mc.ReadTimeout = cfg.CommandTimeout
	mc.WriteTimeout = cfg.CommandTimeout

	switch {
	case !cfg.Encrypt:
		mc.TLSConfig = "false"
	case cfg.CertificatePath != "":
		tlsCfg, err := tlsutil.ClientTLSConfig(cfg.CertificatePath, cfg.TrustServerCertificate)
		if err != nil {
			return "", types.NewError(types.ErrConfiguration, "invalid certificate_path").WithCause(err)
		}
		tlsCfg.ServerName = cfg.Server
		if err := mysql.RegisterTLSConfig(mysqlTLSConfigName, tlsCfg); err != nil {
			return "", types.NewError(types.ErrConfiguration, "register mysql tls config").WithCause(err)
		}
		mc.TLSConfig = mysqlTLSConfigName
	case cfg.TrustServerCertificate:
		mc.TLSConfig = "skip-verify"
	default:
		mc.TLSConfig = "true"
	}

	return mc.FormatDSN(), nil
}

// seconds 向上取整到整秒，最少 1 秒
func seconds(s float64) int {
	n := int(s)
	if float64(n) < s {
		n++
	}
	if n < 1 {
		n = 1
	}
	return n
}
