// Package api exposes stored scores, health and metrics over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"wallet-risk-lab/internal/address"
	"wallet-risk-lab/internal/domain"
	"wallet-risk-lab/internal/observability"
	"wallet-risk-lab/internal/reporting"
	"wallet-risk-lab/internal/scheduler"
	"wallet-risk-lab/internal/storage"
)

// ReadyCheck reports whether a dependency is usable.
type ReadyCheck func(ctx context.Context) error

// Trigger starts a scoring run synchronously.
type Trigger interface {
	RunNow(ctx context.Context) error
}

// Options configures the router. ScoreStore is required.
type Options struct {
	ScoreStore   storage.ScoreStore
	HistoryStore storage.ScoreHistoryStore // optional
	Trigger      Trigger                   // optional; enables POST /v1/runs
	ReadyChecks  map[string]ReadyCheck
	Logger       *zap.Logger
	Clock        func() time.Time
}

type handler struct {
	scores    storage.ScoreStore
	history   storage.ScoreHistoryStore
	trigger   Trigger
	checks    map[string]ReadyCheck
	generator *reporting.Generator
	logger    *zap.Logger
}

// NewRouter builds the gin engine.
func NewRouter(opts Options) *gin.Engine {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	gen := reporting.NewGenerator(opts.ScoreStore)
	if opts.Clock != nil {
		gen = gen.WithClock(opts.Clock)
	}

	h := &handler{
		scores:    opts.ScoreStore,
		history:   opts.HistoryStore,
		trigger:   opts.Trigger,
		checks:    opts.ReadyChecks,
		generator: gen,
		logger:    logger,
	}

	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", h.health)
	r.GET("/readyz", h.ready)
	r.GET("/metrics", gin.WrapH(observability.Handler()))

	v1 := r.Group("/v1")
	v1.GET("/wallets/:id/score", h.walletScore)
	v1.GET("/wallets/:id/history", h.walletHistory)
	v1.GET("/runs/latest", h.latestRun)
	v1.GET("/runs/:id", h.run)
	v1.POST("/runs", h.triggerRun)

	return r
}

func (h *handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *handler) ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	failed := gin.H{}
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			failed[name] = err.Error()
		}
	}
	if len(failed) > 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "checks": failed})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

type walletScoreView struct {
	WalletID        string   `json:"wallet_id"`
	Score           int      `json:"score"`
	Strategy        string   `json:"strategy"`
	RunID           string   `json:"run_id"`
	RiskProbability *float64 `json:"risk_probability,omitempty"`
}

func newWalletScoreView(s *domain.WalletScore) walletScoreView {
	return walletScoreView{
		WalletID:        s.WalletID,
		Score:           s.Score,
		Strategy:        s.Strategy.String(),
		RunID:           s.RunID,
		RiskProbability: s.RiskProbability,
	}
}

func (h *handler) walletScore(c *gin.Context) {
	id := c.Param("id")
	score, err := h.lookupWallet(c.Request.Context(), id)
	if err != nil {
		h.storeError(c, err, "wallet_not_found")
		return
	}
	ok(c, newWalletScoreView(score), nil)
}

// lookupWallet tries the id as given, then its canonical form.
func (h *handler) lookupWallet(ctx context.Context, id string) (*domain.WalletScore, error) {
	score, err := h.scores.GetLatestByWallet(ctx, id)
	if !errors.Is(err, storage.ErrNotFound) {
		return score, err
	}
	canonical, _, cerr := address.Canonicalize(id)
	if cerr != nil || canonical == id {
		return nil, err
	}
	return h.scores.GetLatestByWallet(ctx, canonical)
}

type snapshotView struct {
	RunID    string `json:"run_id"`
	Score    int    `json:"score"`
	Strategy string `json:"strategy"`
	ScoredAt int64  `json:"scored_at"`
}

func (h *handler) walletHistory(c *gin.Context) {
	if h.history == nil {
		fail(c, http.StatusNotFound, "history_disabled", nil)
		return
	}
	snaps, err := h.history.GetByWallet(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.storeError(c, err, "history_unavailable")
		return
	}
	views := make([]snapshotView, 0, len(snaps))
	for _, s := range snaps {
		views = append(views, snapshotView{
			RunID:    s.RunID,
			Score:    s.Score,
			Strategy: s.Strategy.String(),
			ScoredAt: s.ScoredAt,
		})
	}
	ok(c, views, map[string]any{"count": len(views)})
}

type runView struct {
	RunID          string            `json:"run_id"`
	Strategy       string            `json:"strategy"`
	Reason         string            `json:"reason"`
	WalletCount    int               `json:"wallet_count"`
	SkippedRecords int               `json:"skipped_records"`
	StartedAt      int64             `json:"started_at"`
	FinishedAt     int64             `json:"finished_at"`
	Summary        reporting.Summary `json:"summary"`
	Scores         []walletScoreView `json:"scores"`
}

func newRunView(r *reporting.Report) runView {
	scores := make([]walletScoreView, len(r.Scores))
	for i := range r.Scores {
		scores[i] = newWalletScoreView(&r.Scores[i])
	}
	return runView{
		RunID:          r.Run.RunID,
		Strategy:       r.Run.Strategy.String(),
		Reason:         r.Run.SelectReason,
		WalletCount:    r.Run.WalletCount,
		SkippedRecords: r.Run.SkippedRecords,
		StartedAt:      r.Run.StartedAt,
		FinishedAt:     r.Run.FinishedAt,
		Summary:        r.Summary,
		Scores:         scores,
	}
}

func (h *handler) latestRun(c *gin.Context) {
	h.renderRun(c, "")
}

func (h *handler) run(c *gin.Context) {
	h.renderRun(c, c.Param("id"))
}

func (h *handler) renderRun(c *gin.Context, runID string) {
	report, err := h.generator.Generate(c.Request.Context(), runID)
	if err != nil {
		h.storeError(c, err, "run_not_found")
		return
	}
	ok(c, newRunView(report), nil)
}

func (h *handler) triggerRun(c *gin.Context) {
	if h.trigger == nil {
		fail(c, http.StatusNotFound, "trigger_disabled", nil)
		return
	}
	if err := h.trigger.RunNow(c.Request.Context()); err != nil {
		if errors.Is(err, scheduler.ErrRunInProgress) {
			fail(c, http.StatusConflict, "run_in_progress", nil)
			return
		}
		h.logger.Warn("triggered run failed", zap.Error(err))
		fail(c, http.StatusInternalServerError, "run_failed", map[string]any{"error": err.Error()})
		return
	}
	h.renderRun(c, "")
}

func (h *handler) storeError(c *gin.Context, err error, notFound string) {
	if errors.Is(err, storage.ErrNotFound) {
		fail(c, http.StatusNotFound, notFound, nil)
		return
	}
	h.logger.Warn("store query failed", zap.String("path", c.FullPath()), zap.Error(err))
	fail(c, http.StatusInternalServerError, "internal_error", nil)
}
