package issue

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"edicola/internal/notify"
	synchub "edicola/internal/sync"
	"edicola/pkg/models"
)

type Handler struct {
	Repo     *Repo
	Hub      *synchub.Hub
	Notifier *notify.Server
}

func NewHandler(repo *Repo, hub *synchub.Hub, notifier *notify.Server) *Handler {
	return &Handler{Repo: repo, Hub: hub, Notifier: notifier}
}

// RegisterRoutes wires reads on the public group and mutations on the
// protected one.
func (h *Handler) RegisterRoutes(public, protected *gin.RouterGroup) {
	public.GET("", h.list)         // GET /issues
	public.GET("/:id", h.getByID)  // GET /issues/:id
	protected.POST("", h.create)   // POST /issues
	protected.PUT("/:id", h.update)
	protected.DELETE("/:id", h.delete)
	protected.DELETE("", h.deleteNew) // DELETE /issues?new=1
}

func (h *Handler) list(c *gin.Context) {
	q := ListQuery{
		MagazineID: parseInt64(c.Query("magazine_id"), 0),
		Number:     c.Query("number"),
		OnlyNew:    c.Query("new") == "1",
		OnlyDupes:  c.Query("duplicates") == "1",
		Limit:      parseInt(c.Query("limit"), 50),
		Offset:     parseInt(c.Query("offset"), 0),
	}
	if s := strings.TrimSpace(c.Query("year")); s != "" {
		if y, err := strconv.Atoi(s); err == nil {
			q.Year = &y
		}
	}

	total, err := h.Repo.Count(c.Request.Context(), q)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "count failed"})
		return
	}

	items, err := h.Repo.List(c.Request.Context(), q)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total":  total,
		"limit":  q.Limit,
		"offset": q.Offset,
		"items":  items,
	})
}

func (h *Handler) getByID(c *gin.Context) {
	id := parseInt64(c.Param("id"), 0)
	is, err := h.Repo.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "get failed"})
		return
	}
	if is == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, is)
}

type issueReq struct {
	MagazineID int64  `json:"magazine_id"`
	Year       *int   `json:"year"`
	Number     string `json:"number"`
	Copies     int    `json:"copies"`
	IsNew      bool   `json:"is_new"`
}

func (h *Handler) create(c *gin.Context) {
	var req issueReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.MagazineID <= 0 || strings.TrimSpace(req.Number) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "magazine_id and number required"})
		return
	}

	is := models.Issue{
		MagazineID: req.MagazineID,
		Year:       req.Year,
		Number:     strings.TrimSpace(req.Number),
		Copies:     req.Copies,
		IsNew:      req.IsNew,
	}
	if err := h.Repo.Insert(c.Request.Context(), &is); err != nil {
		// the unique (magazine, year, number) constraint lands here
		c.JSON(http.StatusConflict, gin.H{"error": "insert failed (duplicate issue?)"})
		return
	}

	h.broadcast(synchub.IssueCreated, is)
	if is.IsNew && h.Notifier != nil {
		h.Notifier.BroadcastArrival(is.MagazineID, is.Number, is.Year)
	}

	c.JSON(http.StatusCreated, is)
}

func (h *Handler) update(c *gin.Context) {
	id := parseInt64(c.Param("id"), 0)
	existing, err := h.Repo.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "get failed"})
		return
	}
	if existing == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	var req issueReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.Number) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "number required"})
		return
	}

	existing.Year = req.Year
	existing.Number = strings.TrimSpace(req.Number)
	existing.Copies = req.Copies
	existing.IsNew = req.IsNew

	ok, err := h.Repo.Update(c.Request.Context(), existing)
	if err != nil || !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}

	h.broadcast(synchub.IssueUpdated, *existing)
	c.JSON(http.StatusOK, existing)
}

func (h *Handler) delete(c *gin.Context) {
	id := parseInt64(c.Param("id"), 0)
	existing, err := h.Repo.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "get failed"})
		return
	}
	if existing == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	if _, err := h.Repo.Delete(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}

	h.broadcast(synchub.IssueDeleted, *existing)
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func (h *Handler) deleteNew(c *gin.Context) {
	if c.Query("new") != "1" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bulk delete requires new=1"})
		return
	}
	n, err := h.Repo.DeleteNew(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted", "count": n})
}

func (h *Handler) broadcast(eventType string, is models.Issue) {
	if h.Hub == nil {
		return
	}
	h.Hub.BroadcastJSON(synchub.NewIssueEvent(eventType, is))
}

func parseInt(s string, def int) int {
	if strings.TrimSpace(s) == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func parseInt64(s string, def int64) int64 {
	if strings.TrimSpace(s) == "" {
		return def
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return def
	}
	return n
}
