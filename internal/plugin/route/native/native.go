package native

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"
	"github.com/memementor/embedding-service/internal/dispatch"
	"github.com/memementor/embedding-service/internal/embedding"
)

// MountRoutes mounts the native embedding routes.
func MountRoutes(r *gin.Engine, dispatcher *dispatch.Dispatcher) {
	r.POST("/v1/embeddings", func(c *gin.Context) {
		createEmbeddings(c, dispatcher)
	})
}

type request struct {
	Input embedding.Input `json:"input"`
	Model string          `json:"model"`
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

	// Validation happens before any registry lookup or encode call.
	texts, err := req.Input.Normalize()
	if err != nil {
		validationError(c, err.Error())
		return
	}

	log.Debug("Embedding request", "model", req.Model, "batchSize", len(texts))

	vectors, err := dispatcher.Dispatch(c.Request.Context(), req.Model, texts)
	if err != nil {
		handleDispatchError(c, req.Model, err)
		return
	}

	c.JSON(http.StatusOK, embedding.BuildResponse(req.Model, vectors, embedding.Usage{}))
}

func handleDispatchError(c *gin.Context, model string, err error) {
	var notFound *dispatch.ModelNotFoundError
	switch {
	case errors.As(err, &notFound):
		available := notFound.Available
		if available == nil {
			available = []string{}
		}
		log.Warn("Model not found", "model", model, "available", available)
		c.JSON(http.StatusBadRequest, gin.H{"detail": gin.H{
			"error":            "model_not_found",
			"message":          fmt.Sprintf("Model '%s' not available", model),
			"available_models": available,
		}})
	case errors.Is(err, dispatch.ErrPoolSaturated):
		log.Warn("Rejecting request, worker pool saturated", "model", model)
		c.JSON(http.StatusServiceUnavailable, gin.H{"detail": gin.H{
			"error":   "server_busy",
			"message": "Service is at capacity, retry later",
		}})
	default:
		// Raw embedder errors are logged, never forwarded.
		log.Error("Error generating embeddings", "model", model, "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"detail": gin.H{
			"error":   "embedding_generation_failed",
			"message": "Failed to generate embeddings",
		}})
	}
}

func validationError(c *gin.Context, message string) {
	log.Warn("Validation error", "err", message)
	c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": gin.H{
		"error":   "validation_error",
		"message": message,
	}})
}

func validationMessage(err error) string {
	var verr *embedding.ValidationError
	if errors.As(err, &verr) {
		return verr.Message
	}
	return "invalid request body"
}
