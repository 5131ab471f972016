// Copyright (c) AgentFlow Authors.
// Licensed under the MIT License.

/*
Package types 提供 apiboot 服务的全局共享类型定义。

# 概述

types 是最底层的公共包，不依赖任何内部包，为 config、database、health、
api 等上层模块提供统一的错误码与上下文键。

# 核心类型

  - Error / ErrorCode：结构化错误体系，含 HTTP 状态码与 Retryable 标记
  - 数据库错误码：CONFIGURATION、ENGINE_CREATION、CONNECTION、
    QUERY_EXECUTION、DATABASE_CONNECTION、POOL_CLOSED

# 主要能力

  - 错误工具链：AsError / IsErrorCode / IsRetryable / GetErrorCode，
    errors.Is 按错误码匹配
  - Context 传播：WithRequestID / WithTraceID
*/
package types
