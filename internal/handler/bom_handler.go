package handler

import (
	"errors"

	"github.com/bitfantasy/nimo-bom/internal/bom"
	"github.com/bitfantasy/nimo-bom/internal/repository"
	"github.com/bitfantasy/nimo-bom/internal/service"
	"github.com/gin-gonic/gin"
)

// BOMHandler BOM处理器
type BOMHandler struct {
	svc *service.BOMService
}

// NewBOMHandler 创建BOM处理器
func NewBOMHandler(svc *service.BOMService) *BOMHandler {
	return &BOMHandler{svc: svc}
}

// respondBOMError 统一错误映射。环路冲突和存储不可用区别于普通404/500，
// 客户端据此决定是提示修数据还是重试。
func respondBOMError(c *gin.Context, err error) {
	var cycleErr *bom.CycleError
	switch {
	case errors.Is(err, bom.ErrItemNotFound), errors.Is(err, repository.ErrNotFound):
		NotFound(c, err.Error())
	case errors.As(err, &cycleErr):
		Conflict(c, cycleErr.Error())
	case errors.Is(err, bom.ErrStorageUnavailable):
		ServiceUnavailable(c, err.Error())
	case errors.Is(err, bom.ErrInvalidMaxDepth):
		BadRequest(c, err.Error())
	default:
		InternalError(c, err.Error())
	}
}

// Explode 展开多级BOM树
func (h *BOMHandler) Explode(c *gin.Context) {
	itemID := c.Param("id")
	if itemID == "" {
		BadRequest(c, "Item ID is required")
		return
	}

	result, err := h.svc.Explode(c.Request.Context(), itemID, getScopeFilter(c), getMaxDepth(c))
	if err != nil {
		respondBOMError(c, err)
		return
	}

	Success(c, result)
}

// Flatten 展开并扁平化为用料需求行
func (h *BOMHandler) Flatten(c *gin.Context) {
	itemID := c.Param("id")
	if itemID == "" {
		BadRequest(c, "Item ID is required")
		return
	}

	aggregate := c.Query("aggregate") == "true"
	result, err := h.svc.Flatten(c.Request.Context(), itemID, getScopeFilter(c), getMaxDepth(c), aggregate)
	if err != nil {
		respondBOMError(c, err)
		return
	}

	Success(c, result)
}

// WhereUsed 反查品目用途
func (h *BOMHandler) WhereUsed(c *gin.Context) {
	itemID := c.Param("id")
	if itemID == "" {
		BadRequest(c, "Item ID is required")
		return
	}

	result, err := h.svc.WhereUsed(c.Request.Context(), itemID, getScopeFilter(c), getMaxDepth(c))
	if err != nil {
		respondBOMError(c, err)
		return
	}

	Success(c, result)
}

// Validate 校验范围内全图有无环路
func (h *BOMHandler) Validate(c *gin.Context) {
	cycle, err := h.svc.Validate(c.Request.Context(), getScopeFilter(c))
	if err != nil {
		respondBOMError(c, err)
		return
	}

	if cycle != nil {
		Success(c, gin.H{"valid": false, "cycle": cycle.Path})
		return
	}
	Success(c, gin.H{"valid": true})
}

// ListEdges 父件的直接边列表
func (h *BOMHandler) ListEdges(c *gin.Context) {
	itemID := c.Param("id")
	if itemID == "" {
		BadRequest(c, "Item ID is required")
		return
	}

	edges, err := h.svc.ListEdges(c.Request.Context(), itemID, getScopeFilter(c))
	if err != nil {
		respondBOMError(c, err)
		return
	}

	Success(c, gin.H{"edges": edges})
}

// AddEdge 添加BOM边
func (h *BOMHandler) AddEdge(c *gin.Context) {
	var req service.AddEdgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	edge, err := h.svc.AddEdge(c.Request.Context(), GetUserID(c), &req)
	if err != nil {
		respondBOMError(c, err)
		return
	}

	Created(c, edge)
}

// UpdateEdge 更新BOM边
func (h *BOMHandler) UpdateEdge(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		BadRequest(c, "Edge ID is required")
		return
	}

	var req service.UpdateEdgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	edge, err := h.svc.UpdateEdge(c.Request.Context(), id, &req)
	if err != nil {
		respondBOMError(c, err)
		return
	}

	Success(c, edge)
}

// DeleteEdge 删除BOM边
func (h *BOMHandler) DeleteEdge(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		BadRequest(c, "Edge ID is required")
		return
	}

	if err := h.svc.DeleteEdge(c.Request.Context(), id); err != nil {
		respondBOMError(c, err)
		return
	}

	Success(c, nil)
}
