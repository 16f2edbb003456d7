package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/adwave/tv-planner/internal/config"
	"github.com/adwave/tv-planner/internal/database"
	"github.com/adwave/tv-planner/internal/metrics"
	"github.com/adwave/tv-planner/internal/models"
	"github.com/adwave/tv-planner/internal/planner"
	"github.com/adwave/tv-planner/internal/recommender"
	"github.com/adwave/tv-planner/internal/report"
	"github.com/adwave/tv-planner/internal/storage"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Dependencies holds all external dependencies for the server.
type Dependencies struct {
	DB         *database.PostgresDB
	Redis      *database.RedisDB
	ClickHouse *database.ClickHouseDB
	Config     *config.Config
	Logger     *zap.Logger
	Metrics    *metrics.Metrics
}

// Server wraps HTTP handlers and planner services.
type Server struct {
	estimateService  *planner.EstimateService
	channelService   *planner.ChannelService
	bonusService     *planner.BonusService
	surchargeService *planner.SurchargeService
	segmentService   *planner.SegmentService
	historyService   *planner.HistoryService
	recommender      *recommender.Client
	renderer         *report.Renderer
	events           storage.UsageEventStore
	db               *database.PostgresDB
	redis            *database.RedisDB
	clickhouse       *database.ClickHouseDB
	logger           *zap.Logger
	config           *config.Config
	metrics          *metrics.Metrics
}

// NewServer constructs a new http.Handler with all routes registered.
func NewServer(deps *Dependencies) http.Handler {
	// Initialize repositories
	var chRepo storage.ChannelRepo
	var bRepo storage.BonusRepo
	var sRepo storage.SurchargeRepo
	var segRepo storage.SegmentRepo
	var histStore storage.HistoryStore

	if deps.DB != nil {
		chRepo = storage.NewPostgresChannelRepo(deps.DB.Pool)
		bRepo = storage.NewPostgresBonusRepo(deps.DB.Pool)
		sRepo = storage.NewPostgresSurchargeRepo(deps.DB.Pool)
		segRepo = storage.NewPostgresSegmentRepo(deps.DB.Pool)
		histStore = storage.NewPostgresHistoryStore(deps.DB.Pool)
	} else {
		chRepo = storage.NewInMemoryChannelRepo()
		bRepo = storage.NewInMemoryBonusRepo()
		sRepo = storage.NewInMemorySurchargeRepo()
		segRepo = storage.NewInMemorySegmentRepo()
		histStore = storage.NewInMemoryHistoryStore()
	}

	// Usage events need ClickHouse; without it recording is disabled.
	var events storage.UsageEventStore
	if deps.ClickHouse != nil {
		events = storage.NewClickHouseUsageEventStore(deps.ClickHouse.Conn)
	}

	var cache *redis.Client
	if deps.Redis != nil {
		cache = deps.Redis.Client
	}

	recClient := recommender.NewClient(deps.Config.Recommender, cache, deps.Metrics, deps.Logger)

	renderer, err := report.NewRenderer()
	if err != nil {
		// The template is a compile-time constant; a parse failure is a
		// programming error.
		panic(err)
	}

	s := &Server{
		estimateService:  planner.NewEstimateService(chRepo, bRepo, sRepo, events, deps.Metrics, deps.Logger),
		channelService:   planner.NewChannelService(chRepo),
		bonusService:     planner.NewBonusService(bRepo, deps.Logger),
		surchargeService: planner.NewSurchargeService(sRepo, deps.Logger),
		segmentService:   planner.NewSegmentService(segRepo),
		historyService:   planner.NewHistoryService(histStore),
		recommender:      recClient,
		renderer:         renderer,
		events:           events,
		db:               deps.DB,
		redis:            deps.Redis,
		clickhouse:       deps.ClickHouse,
		logger:           deps.Logger,
		config:           deps.Config,
		metrics:          deps.Metrics,
	}

	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("/health", s.handleHealth)

	// Prometheus metrics
	if deps.Config.Metrics.Enabled {
		mux.Handle(deps.Config.Metrics.Path, metrics.Handler())
	}

	// Estimation
	mux.HandleFunc("/api/estimate", s.handleEstimate)
	mux.HandleFunc("/api/analyze", s.handleAnalyze)
	mux.HandleFunc("/api/report", s.handleReport)

	// Bootstrap data for the client
	mux.HandleFunc("/api/init", s.handleInit)

	// Policy tables
	mux.HandleFunc("/api/channels", s.handleChannels)
	mux.HandleFunc("/api/channels/", s.handleChannelByName)
	mux.HandleFunc("/api/bonuses", s.handleBonuses)
	mux.HandleFunc("/api/bonuses/", s.handleBonusByID)
	mux.HandleFunc("/api/surcharges", s.handleSurcharges)
	mux.HandleFunc("/api/surcharges/", s.handleSurchargeByID)

	// Segment catalog
	mux.HandleFunc("/api/segments", s.handleSegments)
	mux.HandleFunc("/api/segments/", s.handleSegmentByID)

	// History and usage
	mux.HandleFunc("/api/history", s.handleHistory)
	mux.HandleFunc("/api/usage/stats", s.handleUsageStats)

	return mux
}

// ---- Health Check ----

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{"status": "ok"}

	if s.db != nil {
		if err := s.db.Health(r.Context()); err != nil {
			status["postgres"] = "down"
		} else {
			status["postgres"] = "up"
		}
	}
	if s.redis != nil {
		if err := s.redis.Health(r.Context()); err != nil {
			status["redis"] = "down"
		} else {
			status["redis"] = "up"
		}
	}
	if s.clickhouse != nil {
		if err := s.clickhouse.Health(r.Context()); err != nil {
			status["clickhouse"] = "down"
		} else {
			status["clickhouse"] = "up"
		}
	}

	s.jsonResponse(w, status)
}

// ---- Estimate ----

// estimateRequest is the estimate endpoint payload. The product name is
// only used for history logging and is optional.
type estimateRequest struct {
	ProductName string `json:"product_name"`
	models.EstimateRequest
}

func (s *Server) handleEstimate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.errorResponse(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req estimateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, "invalid json", http.StatusBadRequest)
		return
	}

	result, err := s.estimateService.Estimate(r.Context(), &req.EstimateRequest)
	if err != nil {
		switch {
		case errors.Is(err, planner.ErrNoChannels):
			s.errorResponse(w, "no channel data configured", http.StatusServiceUnavailable)
		case errors.Is(err, models.ErrInvalidRequest):
			s.errorResponse(w, "invalid request: "+err.Error(), http.StatusBadRequest)
		default:
			s.logger.Error("estimate error", zap.Error(err))
			s.errorResponse(w, "internal error", http.StatusInternalServerError)
		}
		return
	}

	if req.ProductName != "" {
		s.logEstimateHistory(r, &req, result)
	}

	s.jsonResponse(w, result)
}

func (s *Server) logEstimateHistory(r *http.Request, req *estimateRequest, result *models.EstimateResult) {
	raw, _ := json.Marshal(req)
	h := &models.EstimateHistory{
		ProductName:     req.ProductName,
		TotalBudget:     result.Summary.TotalBudget,
		DurationMonths:  req.DurationMonths,
		AdDuration:      result.Summary.AdDuration,
		IsNewAdvertiser: req.IsNewAdvertiser,
		RawRequest:      raw,
	}
	if err := s.historyService.LogHistory(r.Context(), h); err != nil {
		s.logger.Warn("failed to log estimate history", zap.Error(err))
	}
}

// ---- Analyze ----

type analyzeRequest struct {
	ProductName string `json:"product_name"`
	URL         string `json:"url"`
	NumSegments int    `json:"num_recommendations"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.errorResponse(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if !s.recommender.Enabled() {
		s.errorResponse(w, "recommendation service not configured", http.StatusServiceUnavailable)
		return
	}

	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, "invalid json", http.StatusBadRequest)
		return
	}
	if req.ProductName == "" {
		s.errorResponse(w, "product_name is required", http.StatusBadRequest)
		return
	}
	if req.NumSegments <= 0 {
		req.NumSegments = 5
	}

	rec, err := s.recommender.Recommend(r.Context(), req.ProductName, req.URL, req.NumSegments)
	if err != nil {
		if errors.Is(err, recommender.ErrUnavailable) {
			s.errorResponse(w, "recommendation service unavailable", http.StatusBadGateway)
			return
		}
		s.logger.Error("analyze error", zap.Error(err))
		s.errorResponse(w, "internal error", http.StatusInternalServerError)
		return
	}

	s.recordUsage(r, models.UsageEventAnalyze, req.ProductName, 0, 0)
	s.jsonResponse(w, rec)
}

// ---- Report ----

type reportRequest struct {
	AdvertiserName string                      `json:"advertiser_name"`
	ProductName    string                      `json:"product_name"`
	Estimate       models.EstimateRequest      `json:"estimate"`
	Segments       []models.RecommendedSegment `json:"segments,omitempty"`
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.errorResponse(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req reportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, "invalid json", http.StatusBadRequest)
		return
	}

	result, err := s.estimateService.Estimate(r.Context(), &req.Estimate)
	if err != nil {
		switch {
		case errors.Is(err, planner.ErrNoChannels):
			s.errorResponse(w, "no channel data configured", http.StatusServiceUnavailable)
		case errors.Is(err, models.ErrInvalidRequest):
			s.errorResponse(w, "invalid request: "+err.Error(), http.StatusBadRequest)
		default:
			s.logger.Error("report estimate error", zap.Error(err))
			s.errorResponse(w, "internal error", http.StatusInternalServerError)
		}
		return
	}

	data := report.Data{
		AdvertiserName: req.AdvertiserName,
		ProductName:    req.ProductName,
		Summary:        result.Summary,
		Details:        result.Details,
		Segments:       req.Segments,
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.renderer.Render(w, data); err != nil {
		s.logger.Error("report render error", zap.Error(err))
		return
	}

	if s.metrics != nil {
		s.metrics.RecordReport()
	}
	s.recordUsage(r, models.UsageEventReport, req.ProductName, len(result.Details), result.Summary.TotalBudget)
}

// ---- Init ----

func (s *Server) handleInit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.errorResponse(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	channels, err := s.channelService.ListChannels(r.Context())
	if err != nil {
		s.logger.Error("failed to list channels", zap.Error(err))
		s.errorResponse(w, "failed to list channels", http.StatusInternalServerError)
		return
	}
	segments, err := s.segmentService.ListSegments(r.Context())
	if err != nil {
		s.logger.Error("failed to list segments", zap.Error(err))
		s.errorResponse(w, "failed to list segments", http.StatusInternalServerError)
		return
	}

	s.jsonResponse(w, map[string]interface{}{
		"channels": channels,
		"segments": segments,
	})
}

// ---- Channels CRUD ----

func (s *Server) handleChannels(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		list, err := s.channelService.ListChannels(r.Context())
		if err != nil {
			s.logger.Error("failed to list channels", zap.Error(err))
			s.errorResponse(w, "failed to list", http.StatusInternalServerError)
			return
		}
		s.jsonResponse(w, list)

	case http.MethodPost:
		var c models.Channel
		if err := json.NewDecoder(r.Body).Decode(&c); err != nil {
			s.errorResponse(w, "invalid json", http.StatusBadRequest)
			return
		}
		if err := s.channelService.UpsertChannel(r.Context(), &c); err != nil {
			s.errorResponse(w, "failed to save: "+err.Error(), http.StatusBadRequest)
			return
		}
		s.jsonResponse(w, c)

	default:
		s.errorResponse(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleChannelByName(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, "/api/channels/")
	if name == "" {
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		c, err := s.channelService.GetChannel(r.Context(), name)
		if err != nil {
			s.logger.Error("failed to get channel", zap.Error(err))
			s.errorResponse(w, "error: "+err.Error(), http.StatusInternalServerError)
			return
		}
		if c == nil {
			http.NotFound(w, r)
			return
		}
		s.jsonResponse(w, c)

	case http.MethodDelete:
		if err := s.channelService.DeleteChannel(r.Context(), name); err != nil {
			s.errorResponse(w, "failed to delete: "+err.Error(), http.StatusInternalServerError)
			return
		}
		s.jsonResponse(w, map[string]string{"status": "deleted"})

	default:
		s.errorResponse(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// ---- Bonuses CRUD ----

func (s *Server) handleBonuses(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		list, err := s.bonusService.ListBonuses(r.Context())
		if err != nil {
			s.errorResponse(w, "failed to list", http.StatusInternalServerError)
			return
		}
		s.jsonResponse(w, list)

	case http.MethodPost:
		var b models.BonusRule
		if err := json.NewDecoder(r.Body).Decode(&b); err != nil {
			s.errorResponse(w, "invalid json", http.StatusBadRequest)
			return
		}
		if err := s.bonusService.UpsertBonus(r.Context(), &b); err != nil {
			s.errorResponse(w, "failed to save: "+err.Error(), http.StatusBadRequest)
			return
		}
		s.jsonResponse(w, b)

	default:
		s.errorResponse(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleBonusByID(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "/api/bonuses/")
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		b, err := s.bonusService.GetBonus(r.Context(), id)
		if err != nil {
			s.errorResponse(w, "error: "+err.Error(), http.StatusInternalServerError)
			return
		}
		if b == nil {
			http.NotFound(w, r)
			return
		}
		s.jsonResponse(w, b)

	case http.MethodDelete:
		if err := s.bonusService.DeleteBonus(r.Context(), id); err != nil {
			s.errorResponse(w, "failed to delete: "+err.Error(), http.StatusInternalServerError)
			return
		}
		s.jsonResponse(w, map[string]string{"status": "deleted"})

	default:
		s.errorResponse(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// ---- Surcharges CRUD ----

func (s *Server) handleSurcharges(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		list, err := s.surchargeService.ListSurcharges(r.Context())
		if err != nil {
			s.errorResponse(w, "failed to list", http.StatusInternalServerError)
			return
		}
		s.jsonResponse(w, list)

	case http.MethodPost:
		var rule models.SurchargeRule
		if err := json.NewDecoder(r.Body).Decode(&rule); err != nil {
			s.errorResponse(w, "invalid json", http.StatusBadRequest)
			return
		}
		if err := s.surchargeService.UpsertSurcharge(r.Context(), &rule); err != nil {
			s.errorResponse(w, "failed to save: "+err.Error(), http.StatusBadRequest)
			return
		}
		s.jsonResponse(w, rule)

	default:
		s.errorResponse(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleSurchargeByID(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "/api/surcharges/")
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		rule, err := s.surchargeService.GetSurcharge(r.Context(), id)
		if err != nil {
			s.errorResponse(w, "error: "+err.Error(), http.StatusInternalServerError)
			return
		}
		if rule == nil {
			http.NotFound(w, r)
			return
		}
		s.jsonResponse(w, rule)

	case http.MethodDelete:
		if err := s.surchargeService.DeleteSurcharge(r.Context(), id); err != nil {
			s.errorResponse(w, "failed to delete: "+err.Error(), http.StatusInternalServerError)
			return
		}
		s.jsonResponse(w, map[string]string{"status": "deleted"})

	default:
		s.errorResponse(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// ---- Segments CRUD ----

func (s *Server) handleSegments(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		list, err := s.segmentService.ListSegments(r.Context())
		if err != nil {
			s.errorResponse(w, "failed to list", http.StatusInternalServerError)
			return
		}
		s.jsonResponse(w, list)

	case http.MethodPost:
		var seg models.Segment
		if err := json.NewDecoder(r.Body).Decode(&seg); err != nil {
			s.errorResponse(w, "invalid json", http.StatusBadRequest)
			return
		}
		if err := s.segmentService.UpsertSegment(r.Context(), &seg); err != nil {
			s.errorResponse(w, "failed to save: "+err.Error(), http.StatusBadRequest)
			return
		}
		s.jsonResponse(w, seg)

	default:
		s.errorResponse(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleSegmentByID(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r, "/api/segments/")
	if !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		seg, err := s.segmentService.GetSegment(r.Context(), id)
		if err != nil {
			s.errorResponse(w, "error: "+err.Error(), http.StatusInternalServerError)
			return
		}
		if seg == nil {
			http.NotFound(w, r)
			return
		}
		s.jsonResponse(w, seg)

	case http.MethodDelete:
		if err := s.segmentService.DeleteSegment(r.Context(), id); err != nil {
			s.errorResponse(w, "failed to delete: "+err.Error(), http.StatusInternalServerError)
			return
		}
		s.jsonResponse(w, map[string]string{"status": "deleted"})

	default:
		s.errorResponse(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// ---- History ----

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		limit := 0
		if v := r.URL.Query().Get("limit"); v != "" {
			limit, _ = strconv.Atoi(v)
		}
		list, err := s.historyService.ListHistory(r.Context(), limit)
		if err != nil {
			s.logger.Error("failed to list history", zap.Error(err))
			s.errorResponse(w, "failed to list", http.StatusInternalServerError)
			return
		}
		s.jsonResponse(w, list)

	case http.MethodPost:
		var h models.EstimateHistory
		if err := json.NewDecoder(r.Body).Decode(&h); err != nil {
			s.errorResponse(w, "invalid json", http.StatusBadRequest)
			return
		}
		if err := s.historyService.LogHistory(r.Context(), &h); err != nil {
			s.errorResponse(w, "failed to save: "+err.Error(), http.StatusBadRequest)
			return
		}
		s.jsonResponse(w, h)

	default:
		s.errorResponse(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// ---- Usage Stats ----

func (s *Server) handleUsageStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.errorResponse(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if s.events == nil {
		s.errorResponse(w, "usage tracking not configured", http.StatusServiceUnavailable)
		return
	}

	window := 30 * 24 * time.Hour
	if v := r.URL.Query().Get("since"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			s.errorResponse(w, "invalid since duration", http.StatusBadRequest)
			return
		}
		window = d
	}

	stats, err := s.events.GetStats(r.Context(), time.Now().Add(-window))
	if err != nil {
		s.logger.Error("failed to query usage stats", zap.Error(err))
		s.errorResponse(w, "failed to query stats", http.StatusInternalServerError)
		return
	}

	s.jsonResponse(w, stats)
}

// ---- Helpers ----

func (s *Server) recordUsage(r *http.Request, eventType, product string, channels int, budget float64) {
	if s.events == nil {
		return
	}
	e := &models.UsageEvent{
		ID:        uuid.NewString(),
		EventType: eventType,
		Product:   product,
		Channels:  channels,
		Budget:    budget,
		Timestamp: time.Now().UTC(),
	}
	if err := s.events.SaveEvent(r.Context(), e); err != nil {
		s.logger.Warn("failed to record usage event",
			zap.String("event_type", eventType),
			zap.Error(err),
		)
	}
}

func (s *Server) pathID(w http.ResponseWriter, r *http.Request, prefix string) (int64, bool) {
	raw := strings.TrimPrefix(r.URL.Path, prefix)
	if raw == "" {
		http.NotFound(w, r)
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		s.errorResponse(w, "invalid id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func (s *Server) jsonResponse(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) errorResponse(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}
