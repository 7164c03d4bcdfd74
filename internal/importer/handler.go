package importer

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	synchub "edicola/internal/sync"
)

type Handler struct {
	DB  *sql.DB
	Hub *synchub.Hub
}

func NewHandler(db *sql.DB, hub *synchub.Hub) *Handler {
	return &Handler{DB: db, Hub: hub}
}

func (h *Handler) RegisterRoutes(protected *gin.RouterGroup) {
	protected.POST("", h.apply) // POST /import, CSV snapshot in the body
}

func (h *Handler) apply(c *gin.Context) {
	rows, err := ReadCSV(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	summary, err := Apply(c.Request.Context(), h.DB, rows)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "import failed"})
		return
	}

	if h.Hub != nil {
		h.Hub.BroadcastJSON(synchub.ImportEvent{
			Type:          synchub.ImportApplied,
			NewMagazines:  summary.NewMagazines,
			NewIssues:     summary.NewIssues,
			UpdatedIssues: summary.UpdatedIssues,
			DeletedIssues: summary.DeletedIssues,
			At:            time.Now().UTC(),
		})
	}

	c.JSON(http.StatusOK, summary)
}
