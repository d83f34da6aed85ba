package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"policy_workbench/generator"
	"policy_workbench/policy"
)

type statusReq struct {
	Status string `json:"status" binding:"required"`
}

func validDates(dates ...string) bool {
	for _, d := range dates {
		if _, err := time.Parse(generator.DateLayout, d); err != nil {
			return false
		}
	}
	return true
}

// handlePoliciesList: q/category 走搜索，date 或 from/to 按创建日期过滤，否则列出最新。
func (s *Server) handlePoliciesList(c *gin.Context) {
	ctx := c.Request.Context()
	limit, _ := strconv.Atoi(c.Query("limit"))

	var (
		rows []policy.Policy
		err  error
	)
	q, category := c.Query("q"), c.Query("category")
	date, from, to := c.Query("date"), c.Query("from"), c.Query("to")
	switch {
	case q != "" || category != "":
		rows, err = s.opts.Policies.Search(ctx, q, category, limit)
	case date != "":
		if !validDates(date) {
			respondError(c, badRequest("date must be YYYY-MM-DD"))
			return
		}
		rows, err = s.opts.Policies.ByDate(ctx, date)
	case from != "" || to != "":
		if !validDates(from, to) {
			respondError(c, badRequest("from and to must be YYYY-MM-DD"))
			return
		}
		rows, err = s.opts.Policies.ByDateRange(ctx, from, to)
	default:
		rows, err = s.opts.Policies.List(ctx, limit)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"policies": rows})
}

func (s *Server) handlePolicyGet(c *gin.Context) {
	id, ok := recordID(c)
	if !ok {
		return
	}
	p, err := s.opts.Policies.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) handlePolicyContents(c *gin.Context) {
	id, ok := recordID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if _, err := s.opts.Policies.Get(ctx, id); err != nil {
		respondError(c, err)
		return
	}
	rows, err := s.opts.Policies.Contents(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"contents": rows})
}

func (s *Server) handlePolicyStatus(c *gin.Context) {
	id, ok := recordID(c)
	if !ok {
		return
	}
	var req statusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, badRequest("invalid request body: "+err.Error()))
		return
	}
	ctx := c.Request.Context()
	if err := s.opts.Policies.UpdateStatus(ctx, id, req.Status); err != nil {
		respondError(c, err)
		return
	}
	p, err := s.opts.Policies.Get(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) handlePolicyMetrics(c *gin.Context) {
	id, ok := recordID(c)
	if !ok {
		return
	}
	var metrics map[string]any
	if err := c.ShouldBindJSON(&metrics); err != nil {
		respondError(c, badRequest("invalid request body: "+err.Error()))
		return
	}
	perf, err := s.opts.Policies.UpdatePerformanceMetrics(c.Request.Context(), id, metrics)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, perf)
}
