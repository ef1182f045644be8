package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"luckydraw/application/dto"
	"luckydraw/domain/entities"
	"luckydraw/domain/utils"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
)

const (
	defaultPendingLimit = 50
	maxPendingLimit     = 200
)

type handlers struct {
	admin AdminAPI
}

type noteBody struct {
	Note string `json:"note"`
}

type settingBody struct {
	Value string `json:"value" binding:"required"`
}

type requestView struct {
	Ref           string     `json:"ref"`
	Kind          string     `json:"kind"`
	UserID        int64      `json:"user_id"`
	Amount        int64      `json:"amount"`
	Method        string     `json:"method"`
	Detail        string     `json:"detail"`
	Status        string     `json:"status"`
	AdminID       *int64     `json:"admin_id,omitempty"`
	AdminNote     string     `json:"admin_note,omitempty"`
	TransactionID string     `json:"transaction_id,omitempty"`
	CreatedAt     *time.Time `json:"created_at,omitempty"`
}

type decisionView struct {
	Ref           string `json:"ref"`
	Status        string `json:"status"`
	UserID        int64  `json:"user_id"`
	Amount        int64  `json:"amount"`
	Method        string `json:"method"`
	AdminNote     string `json:"admin_note,omitempty"`
	TransactionID string `json:"transaction_id"`
	NewBalance    int64  `json:"new_balance"`
}

type discrepancyView struct {
	UserID     int64 `json:"user_id"`
	Balance    int64 `json:"balance"`
	LedgerSum  int64 `json:"ledger_sum"`
	Difference int64 `json:"difference"`
}

func viewOfRequest(s *entities.RequestSummary) requestView {
	v := requestView{
		Ref:           s.Ref.String(),
		Kind:          string(s.Ref.Kind),
		UserID:        s.UserID,
		Amount:        s.Amount,
		Method:        string(s.Method),
		Detail:        s.Detail,
		Status:        string(s.Status),
		AdminID:       s.AdminID,
		AdminNote:     s.AdminNote,
		TransactionID: s.TransactionID,
	}
	if !s.CreatedAt.IsZero() {
		created := s.CreatedAt
		v.CreatedAt = &created
	}
	return v
}

func viewOfDecision(r *dto.DecisionResult) decisionView {
	return decisionView{
		Ref:           r.Ref.String(),
		Status:        string(r.Status),
		UserID:        r.UserID,
		Amount:        r.Amount,
		Method:        string(r.Method),
		AdminNote:     r.AdminNote,
		TransactionID: r.TransactionID,
		NewBalance:    r.NewBalance,
	}
}

func (h *handlers) listPending(c *gin.Context) {
	limit := defaultPendingLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > maxPendingLimit {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 200"})
			return
		}
		limit = parsed
	}

	pending, err := h.admin.ListPending(c.Request.Context(), adminIDFrom(c), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	views := make([]requestView, 0, len(pending))
	for _, s := range pending {
		views = append(views, viewOfRequest(s))
	}
	c.JSON(http.StatusOK, gin.H{"requests": views})
}

func (h *handlers) getRequest(c *gin.Context) {
	ref, ok := parseRef(c)
	if !ok {
		return
	}
	summary, err := h.admin.GetRequest(c.Request.Context(), ref, adminIDFrom(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, viewOfRequest(summary))
}

func (h *handlers) approve(c *gin.Context) {
	ref, ok := parseRef(c)
	if !ok {
		return
	}
	result, err := h.admin.ApproveRequest(c.Request.Context(), ref, adminIDFrom(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, viewOfDecision(result))
}

func (h *handlers) reject(c *gin.Context) {
	ref, note, ok := parseRefAndNote(c)
	if !ok {
		return
	}
	result, err := h.admin.RejectRequest(c.Request.Context(), ref, adminIDFrom(c), note)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, viewOfDecision(result))
}

func (h *handlers) hold(c *gin.Context) {
	ref, note, ok := parseRefAndNote(c)
	if !ok {
		return
	}
	result, err := h.admin.HoldRequest(c.Request.Context(), ref, adminIDFrom(c), note)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, viewOfDecision(result))
}

func (h *handlers) settings(c *gin.Context) {
	all, err := h.admin.Settings(c.Request.Context(), adminIDFrom(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"settings": all})
}

func (h *handlers) setSetting(c *gin.Context) {
	var body settingBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "body must be {\"value\": \"...\"}"})
		return
	}
	key := c.Param("key")
	if err := h.admin.SetSetting(c.Request.Context(), adminIDFrom(c), key, body.Value); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"key": key, "value": body.Value})
}

func (h *handlers) stats(c *gin.Context) {
	stats, err := h.admin.Stats(c.Request.Context(), adminIDFrom(c))
	if err != nil {
		writeError(c, err)
		return
	}

	u := stats.Users
	body := gin.H{
		"users": gin.H{
			"total":      u.TotalUsers,
			"registered": u.RegisteredUsers,
		},
		"total_balance":       u.TotalBalance,
		"pending_deposits":    u.PendingDeposits,
		"pending_withdrawals": u.PendingWithdraws,
		"pending_ads":         u.PendingAds,
		"deposits_approved":   u.TotalDepositsDone,
		"prizes_paid":         u.TotalPrizesPaid,
	}
	if p := stats.Preview; p != nil {
		body["today"] = gin.H{
			"draw_date":        utils.FormatDate(p.DrawDate),
			"draw_time":        p.DrawTime,
			"tickets":          p.TicketCount,
			"buyers":           p.BuyerCount,
			"sales":            p.Split.TotalSales,
			"commission":       p.Split.Commission,
			"donation":         p.Split.Donation,
			"prize_pool":       p.Split.PrizePool,
			"winners":          p.Split.WinnerCount,
			"prize_per_winner": p.Split.PrizePerWinner,
			"already_run":      p.AlreadyRun,
		}
	}
	if d := stats.LastRun; d != nil {
		body["last_draw"] = gin.H{
			"draw_date":        utils.FormatDate(d.DrawDate),
			"status":           d.Status,
			"total_sales":      d.TotalSales,
			"winners":          d.WinnerCount,
			"prize_per_winner": d.PrizePerWinner,
		}
	}
	c.JSON(http.StatusOK, body)
}

func (h *handlers) reconcile(c *gin.Context) {
	discrepancies, err := h.admin.Reconcile(c.Request.Context(), adminIDFrom(c))
	if err != nil {
		writeError(c, err)
		return
	}
	views := make([]discrepancyView, 0, len(discrepancies))
	for _, d := range discrepancies {
		views = append(views, discrepancyView{
			UserID:     d.UserID,
			Balance:    d.Balance,
			LedgerSum:  d.LedgerSum,
			Difference: d.Difference(),
		})
	}
	c.JSON(http.StatusOK, gin.H{"balanced": len(views) == 0, "discrepancies": views})
}

func parseRef(c *gin.Context) (entities.RequestRef, bool) {
	ref, err := entities.ParseRequestRef(c.Param("ref"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return entities.RequestRef{}, false
	}
	return ref, true
}

// parseRefAndNote reads the ref and an optional {"note": "..."} body
func parseRefAndNote(c *gin.Context) (entities.RequestRef, string, bool) {
	ref, ok := parseRef(c)
	if !ok {
		return entities.RequestRef{}, "", false
	}
	var body noteBody
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "body must be {\"note\": \"...\"}"})
			return entities.RequestRef{}, "", false
		}
	}
	return ref, body.Note, true
}

// writeError maps domain errors to status codes
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, entities.ErrRequestNotFound), errors.Is(err, entities.ErrUserNotFound):
		status = http.StatusNotFound
	case errors.Is(err, entities.ErrRequestNotPending), errors.Is(err, entities.ErrAlreadyDrawn):
		status = http.StatusConflict
	case errors.Is(err, entities.ErrNotAuthorized):
		status = http.StatusForbidden
	case errors.Is(err, entities.ErrInvalidSetting),
		errors.Is(err, entities.ErrInvalidAmount),
		errors.Is(err, entities.ErrAmountBelowMinimum),
		errors.Is(err, entities.ErrInvalidMethod),
		errors.Is(err, entities.ErrInvalidPhone),
		errors.Is(err, entities.ErrInsufficientBalance):
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		log.WithError(err).WithField("path", c.FullPath()).Error("Admin API request failed")
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
