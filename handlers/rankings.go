package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/fitrank/fitrank-api/internal/rankings"
)

type RankingRequest struct {
	Type      string `json:"type"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

type RankingHandler struct {
	svc *rankings.Service
}

func NewRankingHandler(s *rankings.Service) *RankingHandler {
	return &RankingHandler{svc: s}
}

func (h *RankingHandler) Register(rg gin.IRouter, guard ...gin.HandlerFunc) {
	rg.POST("/rankings", guarded(guard, h.GetRankings)...)
}

// GetRankings answers POST /rankings?user_id=N with the leaderboard for the
// metric named in the body.
func (h *RankingHandler) GetRankings(c *gin.Context) {
	uid, err := strconv.ParseUint(c.Query("user_id"), 10, 0)
	if err != nil || uid == 0 {
		badRequest(c, "user_id query parameter must be a positive integer")
		return
	}
	var req RankingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "malformed request body")
		return
	}
	w, err := rankings.ParseWindow(req.StartDate, req.EndDate)
	if err != nil {
		respondError(c, err)
		return
	}
	list, err := h.svc.GetRankings(c.Request.Context(), uint(uid), req.Type, w)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}
