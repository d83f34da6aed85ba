package server

import (
	"bytes"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"policy_workbench/export"
	"policy_workbench/generator"
	"policy_workbench/store"
)

func recordID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(c, badRequest("id must be a positive integer"))
		return 0, false
	}
	return id, true
}

func (s *Server) loadRecord(c *gin.Context) (*store.Record, bool) {
	id, ok := recordID(c)
	if !ok {
		return nil, false
	}
	rec, err := s.opts.Store.Load(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	return rec, true
}

func writeRecords(c *gin.Context, rows []store.Summary) {
	if rows == nil {
		rows = []store.Summary{}
	}
	c.JSON(http.StatusOK, gin.H{"records": rows})
}

// handleRecordsList 支持 ?date=YYYY-MM-DD（默认今天）或 ?year=&month=。
func (s *Server) handleRecordsList(c *gin.Context) {
	ctx := c.Request.Context()
	if y, m := c.Query("year"), c.Query("month"); y != "" || m != "" {
		year, err1 := strconv.Atoi(y)
		month, err2 := strconv.Atoi(m)
		if err1 != nil || err2 != nil || month < 1 || month > 12 {
			respondError(c, badRequest("year and month must be integers, month 1-12"))
			return
		}
		rows, err := s.opts.Store.ListByMonth(ctx, year, month)
		if err != nil {
			respondError(c, err)
			return
		}
		writeRecords(c, rows)
		return
	}

	date := c.DefaultQuery("date", s.now().Format(generator.DateLayout))
	rows, err := s.opts.Store.ListByDate(ctx, date)
	if err != nil {
		respondError(c, err)
		return
	}
	writeRecords(c, rows)
}

func (s *Server) handleRecordsRange(c *gin.Context) {
	from, to := c.Query("from"), c.Query("to")
	if from == "" || to == "" {
		respondError(c, badRequest("from and to are required"))
		return
	}
	rows, err := s.opts.Store.ListByDateRange(c.Request.Context(), from, to)
	if err != nil {
		respondError(c, err)
		return
	}
	writeRecords(c, rows)
}

func (s *Server) handleRecordsSearch(c *gin.Context) {
	limit := 0
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			respondError(c, badRequest("limit must be an integer"))
			return
		}
		limit = n
	}
	rows, err := s.opts.Store.Search(c.Request.Context(), c.Query("q"), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	writeRecords(c, rows)
}

func (s *Server) handleRecordGet(c *gin.Context) {
	rec, ok := s.loadRecord(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (s *Server) handleRecordViews(c *gin.Context) {
	rec, ok := s.loadRecord(c)
	if !ok {
		return
	}
	mode := c.DefaultQuery("view_mode", generator.ViewExternal)
	if mode != generator.ViewExternal && mode != generator.ViewInternal {
		respondError(c, badRequest("view_mode must be external or internal"))
		return
	}
	c.JSON(http.StatusOK, generator.RenderViews(generator.Result(rec.Result), mode))
}

func (s *Server) bundle(c *gin.Context) (export.Bundle, bool) {
	rec, ok := s.loadRecord(c)
	if !ok {
		return export.Bundle{}, false
	}
	return export.FromRecord(rec, s.now()), true
}

func attachment(c *gin.Context, name, contentType string, data []byte) {
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, contentType, data)
}

func (s *Server) handleExportPDF(c *gin.Context) {
	b, ok := s.bundle(c)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := export.PDF(&buf, b, export.PDFOptions{FontPath: s.opts.FontPath}); err != nil {
		respondError(c, err)
		return
	}
	attachment(c, b.FileName("pdf"), "application/pdf", buf.Bytes())
}

func (s *Server) handleExportZIP(c *gin.Context) {
	b, ok := s.bundle(c)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := export.ZIP(&buf, b); err != nil {
		respondError(c, err)
		return
	}
	attachment(c, b.FileName("zip"), "application/zip", buf.Bytes())
}

func (s *Server) handleExportHTML(c *gin.Context) {
	b, ok := s.bundle(c)
	if !ok {
		return
	}
	page, err := export.HTML(b)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(page))
}

func (s *Server) handleRecordPromote(c *gin.Context) {
	rec, ok := s.loadRecord(c)
	if !ok {
		return
	}
	p, err := s.opts.Policies.PromoteRecord(c.Request.Context(), rec)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}
