package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"tourism-dashboard-api/pkg/models"
	"tourism-dashboard-api/pkg/services"

	"github.com/gin-gonic/gin"
)

const (
	defaultPageSize = 100
	maxPageSize     = 5000
)

// SessionHandler はセッションの作成・取得・削除とレコード一覧のハンドラです。
type SessionHandler struct {
	DataSources *services.DataSourceService
	Sessions    *services.SessionService
}

// NewSessionHandler は新しいSessionHandlerを生成します。
func NewSessionHandler(dataSources *services.DataSourceService, sessions *services.SessionService) *SessionHandler {
	return &SessionHandler{
		DataSources: dataSources,
		Sessions:    sessions,
	}
}

// CreateSession はテーブルを読み込み、新しいセッションを作成します。
// ボディが空の場合は設定の既定値で合成データを生成します。
func (h *SessionHandler) CreateSession(c *gin.Context) {
	var req models.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request: " + err.Error()})
		return
	}

	result, err := h.DataSources.Load(c.Request.Context(), services.LoadRequest{
		Source:    req.Source,
		Seed:      req.Seed,
		StartYear: req.StartYear,
		EndYear:   req.EndYear,
		Warehouse: req.Warehouse,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	session := h.Sessions.Create(result)
	c.JSON(http.StatusCreated, gin.H{
		"success":         true,
		"data":            session.Info(),
		"fallback_reason": result.FallbackReason,
	})
}

// ListSessions は全セッションのメタデータを返します。
func (h *SessionHandler) ListSessions(c *gin.Context) {
	respondOK(c, h.Sessions.List())
}

// GetSession は1件のセッションのメタデータを返します。
func (h *SessionHandler) GetSession(c *gin.Context) {
	session, err := h.Sessions.Get(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, session.Info())
}

// DeleteSession はセッションを破棄します。
func (h *SessionHandler) DeleteSession(c *gin.Context) {
	if err := h.Sessions.Delete(c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Session deleted"})
}

// GetRecords はフィルター済みのレコードを limit/offset でページングして返します。
func (h *SessionHandler) GetRecords(c *gin.Context) {
	session, err := h.Sessions.Get(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	filter, err := parseFilter(c)
	if err != nil {
		respondError(c, err)
		return
	}
	limit, err := queryInt(c, "limit", defaultPageSize)
	if err != nil {
		respondError(c, err)
		return
	}
	offset, err := queryInt(c, "offset", 0)
	if err != nil {
		respondError(c, err)
		return
	}
	if limit < 1 || limit > maxPageSize || offset < 0 {
		respondError(c, fmt.Errorf("limit must be 1-%d and offset non-negative: %w", maxPageSize, services.ErrInvalidRange))
		return
	}

	records := services.FilterRecords(session.Records, filter)
	total := len(records)
	start := min(offset, total)
	end := min(start+limit, total)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    records[start:end],
		"total":   total,
		"limit":   limit,
		"offset":  offset,
	})
}
