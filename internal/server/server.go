package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"

	"elior-fitness/internal/backend"
	"elior-fitness/internal/clipper"
	"elior-fitness/internal/nutrition"
	"elior-fitness/internal/planner"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Importer creates meal-bank items from nutrition web pages.
type Importer interface {
	ClipURL(ctx context.Context, url string, macro nutrition.MacroType, public bool) (*backend.MealBankItem, error)
}

// Notifier is told about every plan the backend accepted.
type Notifier interface {
	NotifyPlanSubmitted(plan nutrition.MealPlan, submitted *backend.SubmittedPlan, summary *planner.Summary) error
}

// Server is the HTTP front for the plan editor.
type Server struct {
	bank     backend.Client
	importer Importer
	notifier Notifier

	webhookPath    string
	webhookHandler http.HandlerFunc
}

// New creates a Server. importer and notifier may be nil.
func New(bank backend.Client, importer Importer, notifier Notifier) *Server {
	return &Server{bank: bank, importer: importer, notifier: notifier}
}

// MountWebhook serves h on path, typically the Telegram webhook.
func (s *Server) MountWebhook(path string, h http.HandlerFunc) {
	s.webhookPath = path
	s.webhookHandler = h
}

// Router builds the gin engine with all routes.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery(), requestID())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		api.POST("/plans/totals", s.planTotals)
		api.POST("/plans/submit", s.submitPlan)
		api.GET("/meal-bank", s.listMealBank)
		api.POST("/meal-bank", s.createMealBankItem)
		api.POST("/meal-bank/import", s.importMealBankItem)
	}

	if s.webhookHandler != nil {
		r.POST(s.webhookPath, gin.WrapF(s.webhookHandler))
	}
	return r
}

func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Header("X-Request-ID", id)
		c.Request = c.Request.WithContext(backend.WithRequestID(c.Request.Context(), id))
		c.Next()
	}
}

// clientFor forwards the caller's bearer token to the backend when present.
func (s *Server) clientFor(c *gin.Context) backend.Client {
	auth := c.GetHeader("Authorization")
	if token, ok := strings.CutPrefix(auth, "Bearer "); ok && token != "" {
		return s.bank.WithToken(token)
	}
	return s.bank
}

func (s *Server) planTotals(c *gin.Context) {
	var plan nutrition.MealPlan
	if err := c.ShouldBindJSON(&plan); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, planner.Load(plan).Summary())
}

func (s *Server) submitPlan(c *gin.Context) {
	var plan nutrition.MealPlan
	if err := c.ShouldBindJSON(&plan); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	form := planner.Load(plan)
	if err := form.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	submitted, err := s.clientFor(c).SubmitPlan(c.Request.Context(), form.Plan())
	if err != nil {
		log.Printf("Error submitting plan %q: %v", plan.Name, err)
		writeBackendError(c, err)
		return
	}

	summary := form.Summary()
	if s.notifier != nil {
		if err := s.notifier.NotifyPlanSubmitted(form.Plan(), submitted, summary); err != nil {
			log.Printf("Warning: failed to send plan notification: %v", err)
		}
	}

	c.JSON(http.StatusCreated, gin.H{"id": submitted.ID, "plan": submitted.Raw, "summary": summary})
}

func (s *Server) listMealBank(c *gin.Context) {
	macro, ok := nutrition.NormalizeMacroType(c.Query("macro_type"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "macro_type must be protein, carb or fat"})
		return
	}

	items, err := s.clientFor(c).ListMealBank(c.Request.Context(), macro)
	if err != nil {
		writeBackendError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (s *Server) createMealBankItem(c *gin.Context) {
	var item backend.NewMealBankItem
	if err := c.ShouldBindJSON(&item); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if strings.TrimSpace(item.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}
	if !item.MacroType.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "macro_type must be protein, carb or fat"})
		return
	}

	created, err := s.clientFor(c).CreateMealBankItem(c.Request.Context(), item)
	if err != nil {
		writeBackendError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

type importRequest struct {
	URL       string              `json:"url" binding:"required"`
	MacroType nutrition.MacroType `json:"macro_type" binding:"required"`
	IsPublic  bool                `json:"is_public"`
}

func (s *Server) importMealBankItem(c *gin.Context) {
	if s.importer == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "food import is not configured"})
		return
	}

	var req importRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	item, err := s.importer.ClipURL(c.Request.Context(), req.URL, req.MacroType, req.IsPublic)
	if err != nil {
		log.Printf("Error importing %s: %v", req.URL, err)
		if errors.Is(err, clipper.ErrNoNutritionTable) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		writeBackendError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

// writeBackendError surfaces backend failures with the backend's status.
func writeBackendError(c *gin.Context, err error) {
	var apiErr *backend.APIError
	switch {
	case errors.As(err, &apiErr):
		msg := apiErr.Detail
		if msg == "" {
			msg = http.StatusText(apiErr.StatusCode)
		}
		c.JSON(apiErr.StatusCode, gin.H{"error": msg})
	case errors.Is(err, backend.ErrTokenExpired):
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
	}
}
