// 版权所有 2024 AgentFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 metrics 提供基于 Prometheus 的指标采集能力，覆盖 HTTP、
数据库连接池与健康检查三个维度。

# 概述

本包通过 Collector 统一注册和记录 Prometheus 指标，使用 promauto
自动注册机制。所有指标按 namespace 隔离，由独立的 metrics 端口
通过 promhttp 暴露。

# 核心类型

  - Collector：指标收集器，实现 database.Recorder，
    同时被 HTTP 中间件与健康检查处理器使用。

# 主要能力

  - HTTP 指标：请求总数、请求耗时、请求/响应体大小，
    按 method/path/status 分组，状态码归类为 2xx/3xx/4xx/5xx。
  - 数据库指标：打开/空闲连接数 Gauge，探测次数与耗时，按 database/result 分组。
  - 健康检查指标：健康结论计数与最近一次结论 Gauge，就绪依赖检查计数。
*/
package metrics
