package magazine

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"edicola/internal/issue"
	"edicola/internal/numbering"
)

type Handler struct {
	Repo       *Repo
	Issues     *issue.Repo
	Numberings *numbering.Repo
}

func NewHandler(repo *Repo, issues *issue.Repo, numberings *numbering.Repo) *Handler {
	return &Handler{Repo: repo, Issues: issues, Numberings: numberings}
}

func (h *Handler) RegisterRoutes(public, protected *gin.RouterGroup) {
	public.GET("", h.list)                // GET /magazines?q=
	public.GET("/:id", h.getByID)         // GET /magazines/:id
	public.GET("/:id/missing", h.missing) // GET /magazines/:id/missing
	protected.POST("", h.create)
	protected.DELETE("/:id", h.delete)
}

func (h *Handler) list(c *gin.Context) {
	if c.Query("with_numberings") == "1" {
		out, err := h.Repo.ListWithNumberings(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": out})
		return
	}

	out, err := h.Repo.List(c.Request.Context(), c.Query("q"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": out})
}

func (h *Handler) getByID(c *gin.Context) {
	id, _ := strconv.ParseInt(c.Param("id"), 10, 64)
	m, err := h.Repo.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "get failed"})
		return
	}
	if m == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, m)
}

// missing recomputes the magazine's gap report from the live issue and
// rule collections on every call. Nothing is cached; a rule that cannot
// be evaluated is reported alongside the partial results.
func (h *Handler) missing(c *gin.Context) {
	id, _ := strconv.ParseInt(c.Param("id"), 10, 64)
	m, err := h.Repo.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "get failed"})
		return
	}
	if m == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	issues, err := h.Issues.ListForMagazine(c.Request.Context(), m.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "load issues failed"})
		return
	}
	rules, err := h.Numberings.ListForMagazine(c.Request.Context(), m.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "load numberings failed"})
		return
	}

	report := numbering.Missing(rules, issues)
	c.JSON(http.StatusOK, gin.H{
		"magazine":    m,
		"missing":     report.Missing,
		"rule_errors": report.RuleErrors,
	})
}

type createReq struct {
	Name string `json:"name"`
}

func (h *Handler) create(c *gin.Context) {
	var req createReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name required"})
		return
	}

	if existing, _ := h.Repo.GetByName(c.Request.Context(), name); existing != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "magazine already exists"})
		return
	}

	m, err := h.Repo.Create(c.Request.Context(), name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}
	c.JSON(http.StatusCreated, m)
}

func (h *Handler) delete(c *gin.Context) {
	id, _ := strconv.ParseInt(c.Param("id"), 10, 64)
	ok, err := h.Repo.Delete(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
