package openaiapi

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/memementor/embedding-service/internal/dispatch"
	"github.com/memementor/embedding-service/internal/embedding"
	"github.com/memementor/embedding-service/internal/models"
)

// MountRoutes mounts the OpenAI-compatible embedding routes under /openai/v1.
// auth enforces the static bearer token when enabled.
func MountRoutes(r *gin.Engine, dispatcher *dispatch.Dispatcher, auth gin.HandlerFunc) {
	g := r.Group("/openai/v1", auth)
	g.POST("/embeddings", func(c *gin.Context) {
		createEmbeddings(c, dispatcher)
	})
}

type request struct {
	Model          string          `json:"model"`
	Input          embedding.Input `json:"input"`
	EncodingFormat string          `json:"encoding_format"`
	User           string          `json:"user"`
}

func createEmbeddings(c *gin.Context, dispatcher *dispatch.Dispatcher) {
	var req request
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, validationMessage(err))
		return
	}
	if req.Model == "" {
		validationError(c, "model is required")
		return
	}
	if req.EncodingFormat != "" && req.EncodingFormat != "float" {
		validationError(c, "Only 'float' encoding_format is currently supported")
		return
	}

	texts, err := req.Input.Normalize()
	if err != nil {
		validationError(c, err.Error())
		return
	}

	resolved := models.ResolveAlias(req.Model)
	log.Debug("OpenAI-compatible embedding request",
		"model", req.Model, "resolved", resolved, "batchSize", len(texts))

	vectors, err := dispatcher.Dispatch(c.Request.Context(), resolved, texts)
	if err != nil {
		handleDispatchError(c, req.Model, resolved, err)
		return
	}

	// Echo the original requested name, never the resolved one.
	c.JSON(http.StatusOK, embedding.BuildResponse(req.Model, vectors, embedding.ApproximateUsage(texts)))
}

func handleDispatchError(c *gin.Context, requested, resolved string, err error) {
	var notFound *dispatch.ModelNotFoundError
	switch {
	case errors.As(err, &notFound):
		log.Warn("Model not found", "model", resolved, "available", notFound.Available)
		c.JSON(http.StatusNotFound, gin.H{"error": gin.H{
			"message": fmt.Sprintf("The model '%s' does not exist", requested),
			"type":    "invalid_request_error",
			"param":   "model",
			"code":    "model_not_found",
		}})
	case errors.Is(err, dispatch.ErrPoolSaturated):
		log.Warn("Rejecting request, worker pool saturated", "model", resolved)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": gin.H{
			"message": "The server is currently overloaded, please retry later",
			"type":    "server_error",
		}})
	default:
		log.Error("Error generating embeddings", "model", resolved, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{
			"message": "An error occurred while generating embeddings",
			"type":    "server_error",
		}})
	}
}

func validationError(c *gin.Context, message string) {
	log.Warn("Validation error", "err", message)
	c.JSON(http.StatusBadRequest, gin.H{"error": gin.H{
		"message": message,
		"type":    "invalid_request_error",
		"param":   "input",
	}})
}

func validationMessage(err error) string {
	var verr *embedding.ValidationError
	if errors.As(err, &verr) {
		return verr.Message
	}
	return "invalid request body"
}
