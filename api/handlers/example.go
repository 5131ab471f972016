package handlers

import (
	"net/http"

	"github.com/BaSui01/apiboot/api"
)

// HandleHelloWorld 处理 {prefix}/example/hello-world 请求
// @Summary 示例端点
// @Tags 示例
// @Produce json
// @Success 200 {object} api.HelloResponse
// @Router /api/v1/example/hello-world [get]
func HandleHelloWorld(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, api.HelloResponse{Message: "Hello, world!"})
}
