package handlers

import (
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"unisphere/internal/middleware"
	"unisphere/internal/models"
	"unisphere/internal/services"
	"unisphere/internal/store"
	"unisphere/internal/utils"
)

const (
	maxMoodLength     = 30
	defaultReportDays = 7
	reportDateLayout  = "2006-01-02"
)

// WellbeingHandler serves a student's private mood log and sentiment reports.
type WellbeingHandler struct {
	moods   *store.MoodStore
	reports *store.SentimentReportStore
	log     logrus.FieldLogger
	now     func() time.Time
}

func NewWellbeingHandler(moods *store.MoodStore, reports *store.SentimentReportStore, log logrus.FieldLogger) *WellbeingHandler {
	return &WellbeingHandler{moods: moods, reports: reports, log: log, now: time.Now}
}

func (h *WellbeingHandler) ListMoods(c *gin.Context) {
	entries, err := h.moods.ListByUser(c.Request.Context(), middleware.CurrentUser(c).ID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": nonNil(entries), "summary": services.SummarizeMoods(entries)})
}

type moodRequest struct {
	Mood       *string    `json:"mood"`
	Note       *string    `json:"note"`
	Intensity  *int       `json:"intensity"`
	RecordedAt *time.Time `json:"recorded_at"`
}

// fields validates the request and returns the columns it sets.
func (r moodRequest) fields() (map[string]interface{}, string) {
	out := map[string]interface{}{}
	if r.Mood != nil {
		mood := strings.TrimSpace(*r.Mood)
		if mood == "" || utf8.RuneCountInString(mood) > maxMoodLength {
			return nil, "mood must be 1 to 30 characters"
		}
		out["mood"] = mood
	}
	if r.Intensity != nil {
		if *r.Intensity < models.MinMoodIntensity || *r.Intensity > models.MaxMoodIntensity {
			return nil, "intensity must be between 1 and 10"
		}
		out["intensity"] = *r.Intensity
	}
	if r.Note != nil {
		out["note"] = strings.TrimSpace(*r.Note)
	}
	if r.RecordedAt != nil && !r.RecordedAt.IsZero() {
		out["recorded_at"] = *r.RecordedAt
	}
	return out, ""
}

func (h *WellbeingHandler) CreateMood(c *gin.Context) {
	var req moodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	if req.Mood == nil {
		badRequest(c, "mood is required")
		return
	}
	fields, msg := req.fields()
	if msg != "" {
		badRequest(c, msg)
		return
	}

	entry := &models.MoodEntry{
		UserID:    middleware.CurrentUser(c).ID,
		Mood:      fields["mood"].(string),
		Intensity: models.DefaultMoodIntensity,
	}
	if v, ok := fields["intensity"]; ok {
		entry.Intensity = v.(int)
	}
	if v, ok := fields["note"]; ok {
		entry.Note = v.(string)
	}
	if v, ok := fields["recorded_at"]; ok {
		entry.RecordedAt = v.(time.Time)
	} else {
		entry.RecordedAt = h.now()
	}
	if err := h.moods.Create(c.Request.Context(), entry); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

func (h *WellbeingHandler) UpdateMood(c *gin.Context) {
	var req moodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	fields, msg := req.fields()
	if msg != "" {
		badRequest(c, msg)
		return
	}
	if len(fields) == 0 {
		badRequest(c, "nothing to update")
		return
	}
	entry, err := h.moods.Update(c.Request.Context(), c.Param("id"), middleware.CurrentUser(c).ID, fields)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

func (h *WellbeingHandler) DeleteMood(c *gin.Context) {
	if err := h.moods.Delete(c.Request.Context(), c.Param("id"), middleware.CurrentUser(c).ID); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ListReports returns every report plus counts and a per-day trend over the
// last ?days days (default 7).
func (h *WellbeingHandler) ListReports(c *gin.Context) {
	days := utils.ClampInt(c.Query("days"), defaultReportDays, 365)
	reports, err := h.reports.ListByUser(c.Request.Context(), middleware.CurrentUser(c).ID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"reports": nonNil(reports),
		"stats":   services.SummarizeReports(reports),
		"trend":   services.DailyTrend(reports, days, h.now()),
	})
}

type reportRequest struct {
	Date                *string  `json:"date"`
	Sentiment           *string  `json:"sentiment"`
	Score               *float64 `json:"score"`
	ConversationSummary *string  `json:"conversation_summary"`
	Recommendations     *string  `json:"recommendations"`
}

func (r reportRequest) fields() (map[string]interface{}, string) {
	out := map[string]interface{}{}
	if r.Date != nil {
		d, err := time.Parse(reportDateLayout, strings.TrimSpace(*r.Date))
		if err != nil {
			return nil, "date must be YYYY-MM-DD"
		}
		out["date"] = d
	}
	if r.Sentiment != nil {
		if !services.ValidSentiment(*r.Sentiment) {
			return nil, "sentiment must be positive, negative or neutral"
		}
		out["sentiment"] = *r.Sentiment
	}
	if r.Score != nil {
		out["score"] = *r.Score
	}
	if r.ConversationSummary != nil {
		out["conversation_summary"] = strings.TrimSpace(*r.ConversationSummary)
	}
	if r.Recommendations != nil {
		out["recommendations"] = strings.TrimSpace(*r.Recommendations)
	}
	return out, ""
}

func (h *WellbeingHandler) CreateReport(c *gin.Context) {
	var req reportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	if req.Sentiment == nil || req.Score == nil {
		badRequest(c, "sentiment and score are required")
		return
	}
	fields, msg := req.fields()
	if msg != "" {
		badRequest(c, msg)
		return
	}

	now := h.now()
	report := &models.SentimentReport{
		UserID:    middleware.CurrentUser(c).ID,
		Date:      time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC),
		Sentiment: fields["sentiment"].(string),
		Score:     fields["score"].(float64),
	}
	if v, ok := fields["date"]; ok {
		report.Date = v.(time.Time)
	}
	if v, ok := fields["conversation_summary"]; ok {
		report.ConversationSummary = v.(string)
	}
	if v, ok := fields["recommendations"]; ok {
		report.Recommendations = v.(string)
	}
	if err := h.reports.Create(c.Request.Context(), report); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, report)
}

func (h *WellbeingHandler) UpdateReport(c *gin.Context) {
	var req reportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	fields, msg := req.fields()
	if msg != "" {
		badRequest(c, msg)
		return
	}
	if len(fields) == 0 {
		badRequest(c, "nothing to update")
		return
	}
	report, err := h.reports.Update(c.Request.Context(), c.Param("id"), middleware.CurrentUser(c).ID, fields)
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *WellbeingHandler) DeleteReport(c *gin.Context) {
	if err := h.reports.Delete(c.Request.Context(), c.Param("id"), middleware.CurrentUser(c).ID); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
