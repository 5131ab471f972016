// 版权所有 2024 AgentFlow Authors. 版权所有。
// 此源代码的使用由 MIT 许可规范,该许可可以是
// 在LICENSE文件中找到。

/*
包 server 管理 HTTP 服务器的生命周期。

Manager 封装 net/http.Server：Start 非阻塞启动，Shutdown 在配置的超时内
排空请求，Wait 阻塞到上下文取消或服务异常退出。apiboot 为 API 与
Prometheus 指标各运行一个 Manager，关闭顺序由调用方控制。
*/
package server
