package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"policy_workbench/generator"
)

type sessionResp struct {
	generator.State
	Views *generator.Views `json:"views,omitempty"`
}

// preferencesReq 只更新出现的字段。
type preferencesReq struct {
	ViewMode     *string `json:"view_mode"`
	DecisiveMode *bool   `json:"decisive_mode"`
}

func (s *Server) session(c *gin.Context) (*generator.Session, bool) {
	sess, ok := s.sessions.get(c.Param("id"))
	if !ok {
		respondError(c, errSessionNotFound)
		return nil, false
	}
	return sess, true
}

func (s *Server) writeState(c *gin.Context, status int, sess *generator.Session) {
	st := sess.Snapshot()
	resp := sessionResp{State: st}
	if st.Result != nil {
		v := generator.RenderViews(st.Result, st.ViewMode)
		resp.Views = &v
	}
	c.JSON(status, resp)
}

func (s *Server) handleSessionCreate(c *gin.Context) {
	sess := generator.NewSession(newSessionID(), s.opts.Agent, s.opts.Store, generator.SessionConfig{
		Model:           s.opts.Model,
		MaxOutputTokens: s.opts.MaxOutputTokens,
		Logger:          s.logger,
		Now:             s.now,
	})
	s.sessions.set(sess)
	s.writeState(c, http.StatusCreated, sess)
}

func (s *Server) handleSessionGet(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	s.writeState(c, http.StatusOK, sess)
}

func (s *Server) handleSessionDelete(c *gin.Context) {
	if !s.sessions.delete(c.Param("id")) {
		respondError(c, errSessionNotFound)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleSessionGenerate(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	body, err := c.GetRawData()
	if err != nil {
		respondError(c, badRequest(err.Error()))
		return
	}
	var req generator.GenerationRequest
	if err := json.Unmarshal(body, &req); err != nil {
		respondError(c, badRequest("invalid request body: "+err.Error()))
		return
	}
	// decisive_mode falls back to the session preference when the body omits it.
	var prefs preferencesReq
	_ = json.Unmarshal(body, &prefs)
	if prefs.DecisiveMode == nil {
		req.DecisiveMode = sess.DecisiveMode()
	}

	if _, err := sess.Generate(c.Request.Context(), req); err != nil {
		respondError(c, err)
		return
	}
	s.writeState(c, http.StatusCreated, sess)
}

func (s *Server) handleSessionLoad(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	id, err := strconv.ParseInt(c.Param("record"), 10, 64)
	if err != nil {
		respondError(c, badRequest("record id must be an integer"))
		return
	}
	if err := sess.Load(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	s.writeState(c, http.StatusOK, sess)
}

func (s *Server) handleSessionReset(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	sess.Reset()
	s.writeState(c, http.StatusOK, sess)
}

func (s *Server) handleSessionLock(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	if _, err := sess.ToggleLock(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	s.writeState(c, http.StatusOK, sess)
}

func (s *Server) handleSessionPreferences(c *gin.Context) {
	sess, ok := s.session(c)
	if !ok {
		return
	}
	var req preferencesReq
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, badRequest("invalid request body: "+err.Error()))
		return
	}
	if req.ViewMode != nil {
		if err := sess.SetViewMode(*req.ViewMode); err != nil {
			respondError(c, badRequest(err.Error()))
			return
		}
	}
	if req.DecisiveMode != nil {
		sess.SetDecisiveMode(*req.DecisiveMode)
	}
	s.writeState(c, http.StatusOK, sess)
}
