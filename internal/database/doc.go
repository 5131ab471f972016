// 版权所有 2024 AgentFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 database 提供基于 GORM 的惰性数据库连接池管理与连通性探测。

# 概述

PoolManager 持有一份 config.DatabaseConfig 副本，在第一次调用 Engine()
时才构建 GORM 引擎并设置 database/sql 连接池参数；构建过程不会发起网络
连接。Close() 释放引擎后，下一次使用会构建一个新的引擎实例。

# 核心类型

  - PoolManager：连接池管理器，提供 Engine()、SessionFactory()、Close()、
    Ping()、Stats()、GetStats() 与 ConnectionInfo()。
  - SessionFactory / Session：请求级会话，Open 借出一个物理连接，
    Session.DB() 返回固定在该连接上的 GORM 句柄，Close 归还连接。
  - ConnectionInfo：SELECT 1 探测结果（connected / failed / unconfigured / error）。
  - DialectorFunc：方言构建函数，默认支持 sqlserver、postgres、mysql、sqlite。

# 连接池参数

  - MaxIdleConns = PoolSize
  - MaxOpenConns = PoolSize + MaxOverflow
  - ConnMaxLifetime = PoolRecycle
  - 借出连接的等待上限 = PoolTimeout，单条语句超时 = CommandTimeout

# 错误处理

配置缺失或格式错误返回 types.ErrConfiguration，驱动拒绝连接参数返回
types.ErrEngineCreation，借出连接失败返回 types.ErrConnection，查询失败返回
types.ErrQueryExecution。ConnectionInfo 把所有错误转换为状态值，从不返回错误。
*/
package database
