package controller

import (
	"context"
	"net/http"

	"codetrainer/internal/execute/model"
	"codetrainer/pkg/utils/response"

	"github.com/gin-gonic/gin"
)

// Executor is the service surface the controller needs.
type Executor interface {
	Execute(ctx context.Context, req model.ExecutionRequest) (model.ExecutionResult, error)
	Languages() []model.LanguageInfo
}

// ExecuteController handles code execution endpoints.
type ExecuteController struct {
	executor     Executor
	maxBodyBytes int64
}

// NewExecuteController creates a new ExecuteController. maxBodyBytes <= 0 disables the body cap.
func NewExecuteController(executor Executor, maxBodyBytes int64) *ExecuteController {
	return &ExecuteController{executor: executor, maxBodyBytes: maxBodyBytes}
}

// Execute runs the submitted code and returns its output.
func (h *ExecuteController) Execute(c *gin.Context) {
	if h.maxBodyBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBodyBytes)
	}
	var req model.ExecutionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	result, err := h.executor.Execute(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, result)
}

// Languages lists the supported languages and their starter templates.
func (h *ExecuteController) Languages(c *gin.Context) {
	response.Success(c, h.executor.Languages())
}
