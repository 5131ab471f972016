// 版权所有 2024 AgentFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 cache 管理可选的 Redis 连接，作为 /readyz 的就绪依赖。

# 核心类型

  - Manager：持有 go-redis 客户端，构造时不拨号，
    提供 Ping（可直接注册为就绪检查）、Stats、Watch 与 Close。
  - Stats：客户端连接池统计。

启用 TLS 时使用 tlsutil 的加固配置。
*/
package cache
