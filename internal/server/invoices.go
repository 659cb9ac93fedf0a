package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/playerMars/final-ocr/internal/common"
	"github.com/playerMars/final-ocr/internal/repository"
)

type parseRequest struct {
	Text string `json:"text"`
	Name string `json:"name"`
}

// handleParse runs field extraction over text posted as JSON.
func (s *Server) handleParse(c *gin.Context) {
	var req parseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, common.InvalidInputErrorf("invalid JSON body: %v", err))
		return
	}
	v := common.NewValidator().
		Field("text", req.Text, common.Required, common.MaxLen(maxTextLen)).
		Field("name", req.Name, common.MaxLen(255))
	if err := common.ValidateAndReturnError(v); err != nil {
		s.respondError(c, err)
		return
	}
	if req.Name == "" {
		req.Name = "inline.txt"
	}

	res, err := s.deps.Pipeline.ProcessText(c.Request.Context(), req.Name, req.Text)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// listFilter reads needs_review, limit and offset from the query string.
func listFilter(c *gin.Context) (repository.ListInvoicesFilter, error) {
	var f repository.ListInvoicesFilter
	if raw := c.Query("needs_review"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return f, common.InvalidInputErrorf("needs_review must be a boolean")
		}
		f.NeedsReview = &b
	}
	for name, dst := range map[string]*int{"limit": &f.Limit, "offset": &f.Offset} {
		raw := c.Query(name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return f, common.InvalidInputErrorf("%s must be a non-negative integer", name)
		}
		*dst = n
	}
	return f, nil
}

func (s *Server) handleListInvoices(c *gin.Context) {
	if s.deps.Invoices == nil {
		storeDisabled(c)
		return
	}
	filter, err := listFilter(c)
	if err != nil {
		s.respondError(c, err)
		return
	}
	invs, err := s.deps.Invoices.List(c.Request.Context(), filter)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"invoices": invs, "count": len(invs)})
}

func pathID(c *gin.Context) (uuid.UUID, error) {
	raw := c.Param("id")
	v := common.NewValidator().Field("id", raw, common.UUID)
	if err := common.ValidateAndReturnError(v); err != nil {
		return uuid.Nil, err
	}
	return uuid.MustParse(raw), nil
}

func (s *Server) handleGetInvoice(c *gin.Context) {
	if s.deps.Invoices == nil {
		storeDisabled(c)
		return
	}
	id, err := pathID(c)
	if err != nil {
		s.respondError(c, err)
		return
	}
	inv, err := s.deps.Invoices.Get(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, inv)
}

func (s *Server) handleGetJob(c *gin.Context) {
	if s.deps.Jobs == nil {
		storeDisabled(c)
		return
	}
	id, err := pathID(c)
	if err != nil {
		s.respondError(c, err)
		return
	}
	job, err := s.deps.Jobs.Get(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}
