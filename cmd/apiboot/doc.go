// Copyright (c) AgentFlow Authors.
// Licensed under the MIT License.

/*
Package main 提供 apiboot 服务端程序入口。

# 核心类型

  - Server：主服务器，装配连接池、健康检查与 HTTP/Metrics 双端口
  - Middleware：HTTP 中间件函数签名 func(http.Handler) http.Handler

# 主要能力

  - 子命令：serve（启动服务）、version、health（查询运行中服务的健康状态）
  - 配置：默认值 → YAML → .env → APIBOOT_ 环境变量
  - 中间件链：Recovery、RequestID、OTelTracing、SecurityHeaders、
    RequestLogger、MetricsMiddleware、CORS、RateLimiter（基于 IP）
  - Metrics 服务器：独立端口暴露 /metrics（Prometheus）
  - 优雅关闭：信号 → 关闭 HTTP → 关闭 Metrics → 释放连接池 → 关闭 Redis → 刷新遥测
  - 构建注入：Version、BuildTime、GitCommit 通过 ldflags 设置
*/
package main
