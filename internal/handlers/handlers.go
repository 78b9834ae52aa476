package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"portfolio-tracker/internal/database"
	"portfolio-tracker/internal/models"
	"portfolio-tracker/internal/service"
)

type Handler struct {
	svc *service.Service
	log *logrus.Logger
}

func NewHandler(svc *service.Service, log *logrus.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

type PositionRequest struct {
	Name     string `json:"name" binding:"required"`
	Ticker   string `json:"ticker" binding:"required"`
	Quantity int    `json:"quantity" binding:"required,gt=0"`
	BuyPrice string `json:"buy_price" binding:"required"`
}

func (req *PositionRequest) toPosition() (models.Position, error) {
	buy, err := decimal.NewFromString(req.BuyPrice)
	if err != nil || buy.LessThanOrEqual(decimal.Zero) {
		return models.Position{}, fmt.Errorf("invalid buy price %q", req.BuyPrice)
	}
	return models.Position{
		Name:     req.Name,
		Ticker:   req.Ticker,
		Quantity: req.Quantity,
		BuyPrice: buy,
	}, nil
}

func (h *Handler) AddStock(c *gin.Context) {
	var req PositionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warnf("invalid post body: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p, err := req.toPosition()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	created, err := h.svc.Create(c.Request.Context(), p)
	if errors.Is(err, database.ErrDuplicateTicker) {
		c.JSON(http.StatusConflict, gin.H{"error": "ticker already exists"})
		return
	}
	if err != nil {
		h.log.Errorf("create position failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *Handler) GetAllStocks(c *gin.Context) {
	positions, err := h.svc.List(c.Request.Context())
	if err != nil {
		h.log.Errorf("list positions failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, positions)
}

func (h *Handler) GetStockByID(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	p, err := h.svc.Get(c.Request.Context(), id)
	if errors.Is(err, database.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("Stock not found with ID: %d", id)})
		return
	}
	if err != nil {
		h.log.Errorf("get position failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) UpdateStock(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	var req PositionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warnf("invalid put body: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p, err := req.toPosition()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := h.svc.Update(c.Request.Context(), id, p)
	if errors.Is(err, database.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("Stock not found with ID: %d", id)})
		return
	}
	if errors.Is(err, database.ErrDuplicateTicker) {
		c.JSON(http.StatusConflict, gin.H{"error": "ticker already exists"})
		return
	}
	if err != nil {
		h.log.Errorf("update position failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}

	// Re-derive the aggregates so the next reads hit a warm cache.
	h.recompute(c)
	c.JSON(http.StatusOK, updated)
}

func (h *Handler) recompute(c *gin.Context) {
	ctx := c.Request.Context()
	if _, err := h.svc.TotalValue(ctx); err != nil {
		h.log.Warnf("recompute total value failed: %v", err)
	}
	if _, err := h.svc.TopPerformer(ctx); err != nil {
		h.log.Warnf("recompute top performer failed: %v", err)
	}
	if _, err := h.svc.Distribution(ctx); err != nil {
		h.log.Warnf("recompute distribution failed: %v", err)
	}
}

func (h *Handler) DeleteStock(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	err = h.svc.Delete(c.Request.Context(), id)
	if errors.Is(err, database.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("Stock not found with ID: %d", id)})
		return
	}
	if err != nil {
		h.log.Errorf("delete position failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) GetTopPerforming(c *gin.Context) {
	top, err := h.svc.TopPerformer(c.Request.Context())
	if err != nil {
		h.log.Errorf("top performer failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	if top == nil {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, top)
}

func (h *Handler) GetDistribution(c *gin.Context) {
	dist, err := h.svc.Distribution(c.Request.Context())
	if err != nil {
		h.log.Errorf("distribution failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	res := map[string]string{}
	for name, pct := range dist {
		res[name] = pct.StringFixed(2)
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) GetPortfolioValue(c *gin.Context) {
	total, err := h.svc.TotalValue(c.Request.Context())
	if err != nil {
		h.log.Errorf("total value failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"value": total.StringFixed(2)})
}

func (h *Handler) GetPortfolioMetrics(c *gin.Context) {
	ctx := c.Request.Context()
	total, err := h.svc.TotalValue(ctx)
	if err != nil {
		h.log.Errorf("total value failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	positions, err := h.svc.List(ctx)
	if err != nil {
		h.log.Errorf("list positions failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.String(http.StatusOK, "Total Portfolio Value: %s | Total Stocks: %d", total.StringFixed(2), len(positions))
}
