// Copyright (c) AgentFlow Authors.
// Licensed under the MIT License.

/*
Package handlers 提供 apiboot HTTP 端点的请求处理器。

# 核心类型

  - HealthHandler：/health/、/health/detailed、/healthz、/readyz、/version
  - Response：统一 JSON 响应结构（success + data + error + timestamp）
  - ErrorInfo：结构化错误信息，含 code、message、retryable 标记
  - ResponseWriter：包装 http.ResponseWriter 以捕获状态码

# 状态码约定

  - /health/ 始终返回 200，结论在响应体的 status 字段
  - /health/detailed 数据库连接失败返回 503，查询失败返回 200
  - /readyz 任一依赖失败返回 503
  - types.ErrorCode 到 HTTP 状态码的映射见 WriteError
*/
package handlers
