package web

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nao1215/barmanager/internal/audit"
	"github.com/nao1215/barmanager/internal/sessioncache"
	"github.com/nao1215/barmanager/pkg/event"
	"github.com/nao1215/barmanager/pkg/middleware"
)

// revalidateRequest はタグ無効化リクエスト。
type revalidateRequest struct {
	// Tag は無効化するキャッシュタグ。省略時はsession。
	Tag string `json:"tag"`
}

// handleRevalidate は他サービスからのキャッシュタグ無効化を処理するハンドラを返す。
func (s *Server) handleRevalidate() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req revalidateRequest
		if c.Request.ContentLength != 0 {
			if err := c.ShouldBindJSON(&req); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "リクエストボディが不正です"})
				return
			}
		}
		if req.Tag == "" {
			req.Tag = sessioncache.TagSession
		}

		if err := s.cacheStore.Invalidate(c.Request.Context(), req.Tag); err != nil {
			s.logger.Error("キャッシュタグの無効化に失敗",
				zap.String("tag", req.Tag),
				zap.String("service", middleware.GetService(c)),
				zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "キャッシュの無効化に失敗しました"})
			return
		}

		s.logger.Info("キャッシュタグを無効化",
			zap.String("tag", req.Tag),
			zap.String("service", middleware.GetService(c)))
		c.JSON(http.StatusOK, gin.H{"revalidated": true, "tag": req.Tag})
	}
}

// handleListAudit は認証監査ログを新しい順に返すハンドラを返す。
func (s *Server) handleListAudit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.recorder == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "監査ログが無効です"})
			return
		}

		filter := audit.Filter{Type: event.Type(c.Query("type"))}
		if raw := c.Query("limit"); raw != "" {
			limit, err := strconv.Atoi(raw)
			if err != nil || limit < 0 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "limitが不正です"})
				return
			}
			filter.Limit = limit
		}

		events, err := s.recorder.List(c.Request.Context(), filter)
		if err != nil {
			s.logger.Error("監査ログの取得に失敗", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "監査ログの取得に失敗しました"})
			return
		}
		if events == nil {
			events = []*event.Event{}
		}
		c.JSON(http.StatusOK, gin.H{"events": events})
	}
}
