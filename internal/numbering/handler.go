package numbering

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"edicola/pkg/models"
)

type Handler struct {
	Repo *Repo
}

func NewHandler(repo *Repo) *Handler {
	return &Handler{Repo: repo}
}

func (h *Handler) RegisterRoutes(public, protected *gin.RouterGroup) {
	public.GET("", h.list) // GET /numberings?magazine_id=
	protected.POST("", h.create)
	protected.DELETE("/:id", h.delete)
}

func (h *Handler) list(c *gin.Context) {
	magazineID := int64(0)
	if s := strings.TrimSpace(c.Query("magazine_id")); s != "" {
		magazineID, _ = strconv.ParseInt(s, 10, 64)
	}

	items, err := h.Repo.List(c.Request.Context(), magazineID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

type createReq struct {
	MagazineID int64 `json:"magazine_id"`
	FromYear   *int  `json:"from_year"`
	ToYear     *int  `json:"to_year"`
	IsYearly   bool  `json:"is_yearly"`
	FromNumber *int  `json:"from_number"`
	ToNumber   *int  `json:"to_number"`
}

func (h *Handler) create(c *gin.Context) {
	var req createReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if req.MagazineID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "magazine_id required"})
		return
	}
	if req.FromYear != nil && req.ToYear != nil && *req.FromYear > *req.ToYear {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from_year after to_year"})
		return
	}
	if req.FromNumber != nil && req.ToNumber != nil && *req.FromNumber > *req.ToNumber {
		c.JSON(http.StatusBadRequest, gin.H{"error": "from_number after to_number"})
		return
	}

	rule := models.Numbering{
		MagazineID: req.MagazineID,
		FromYear:   req.FromYear,
		ToYear:     req.ToYear,
		IsYearly:   req.IsYearly,
		FromNumber: req.FromNumber,
		ToNumber:   req.ToNumber,
	}
	if err := h.Repo.Insert(c.Request.Context(), &rule); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}
	c.JSON(http.StatusCreated, rule)
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
