// Package tlsutil 提供集中式 TLS 配置，
// 为数据库驱动（MySQL 自定义 CA）、Redis 客户端和 CLI 健康检查客户端
// 提供安全加固的 TLS 设置（TLS 1.2+，仅 AEAD 密码套件）。
package tlsutil
