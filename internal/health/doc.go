/*
包 health 组合服务状态与数据库连通性，生成健康检查结论。

# 核心类型

  - Evaluate：纯函数，服务状态为 ok 且数据库状态为 connected 时健康。
  - Aggregator：收集服务状态与数据库探测结果，调用 Evaluate 并记录日志，
    对应 GET /health/，从不返回错误。
  - Service：严格检查，连接失败返回 ErrDatabaseConnection，
    查询失败只体现在报告的 checks.query_error 中，对应 GET /health/detailed。
  - Readiness：使用 errgroup 并发执行已注册的依赖检查，对应 GET /readyz。
*/
package health
