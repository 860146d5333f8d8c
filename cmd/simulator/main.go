package main

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// geocodeResult mirrors the wire shape of a Nominatim search hit.
type geocodeResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// HealthResponse represents health check response
type HealthResponse struct {
	Status      string    `json:"status"`
	SimulatorID string    `json:"simulator_id"`
	Timestamp   time.Time `json:"timestamp"`
	MatchRate   float64   `json:"match_rate"`
}

// MockGeocoder simulates a Nominatim-compatible geocoding service for
// local development, so analyzer runs do not hit the public instance.
type MockGeocoder struct {
	matchRate   float64
	minDelay    time.Duration
	maxDelay    time.Duration
	simulatorID string
	rng         *rand.Rand
}

func NewMockGeocoder(matchRate float64, minDelay, maxDelay time.Duration) *MockGeocoder {
	return &MockGeocoder{
		matchRate:   matchRate,
		minDelay:    minDelay,
		maxDelay:    maxDelay,
		simulatorID: "MOCK_GEOCODER_" + uuid.New().String()[:8],
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (m *MockGeocoder) randomDelay() time.Duration {
	delta := m.maxDelay - m.minDelay
	if delta <= 0 {
		return m.minDelay
	}
	return m.minDelay + time.Duration(m.rng.Int63n(int64(delta)))
}

func (m *MockGeocoder) shouldMatch() bool {
	return m.rng.Float64() < m.matchRate
}

// lookup fabricates a deterministic-looking coordinate for the query.
func (m *MockGeocoder) lookup(query string) []geocodeResult {
	time.Sleep(m.randomDelay())

	if !m.shouldMatch() {
		log.Warn().Str("query", query).Msg("No geocoding match")
		return []geocodeResult{}
	}

	// somewhere in central Europe
	lat := 45.0 + m.rng.Float64()*10.0
	lon := 5.0 + m.rng.Float64()*10.0

	log.Info().Str("query", query).Float64("lat", lat).Float64("lon", lon).Msg("Geocoded address")

	return []geocodeResult{{
		Lat:         fmt.Sprintf("%.7f", lat),
		Lon:         fmt.Sprintf("%.7f", lon),
		DisplayName: query,
	}}
}

type Handler struct {
	geocoder *MockGeocoder
}

func NewHandler(geocoder *MockGeocoder) *Handler {
	return &Handler{geocoder: geocoder}
}

// Search handles Nominatim-style /search requests.
func (h *Handler) Search(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "q is required",
		})
		return
	}

	results := h.geocoder.lookup(query)

	limit := 1
	if v := c.Query("limit"); v != "" {
		fmt.Sscanf(v, "%d", &limit)
	}
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}

	c.JSON(http.StatusOK, results)
}

// HealthCheck handles health check requests
func (h *Handler) HealthCheck(c *gin.Context) {
	// Simulate 5% downtime
	if h.geocoder.rng.Float64() < 0.05 {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unavailable",
			"error":  "Geocoder temporarily unavailable",
		})
		return
	}

	c.JSON(http.StatusOK, HealthResponse{
		Status:      "healthy",
		SimulatorID: h.geocoder.simulatorID,
		Timestamp:   time.Now(),
		MatchRate:   h.geocoder.matchRate,
	})
}

// UpdateConfig allows changing simulator configuration at runtime
func (h *Handler) UpdateConfig(c *gin.Context) {
	var config struct {
		MatchRate *float64 `json:"match_rate"`
	}

	if err := c.ShouldBindJSON(&config); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	if config.MatchRate != nil {
		if *config.MatchRate >= 0 && *config.MatchRate <= 1.0 {
			h.geocoder.matchRate = *config.MatchRate
			log.Info().Float64("rate", *config.MatchRate).Msg("Updated match rate")
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"message":    "Configuration updated",
		"match_rate": h.geocoder.matchRate,
	})
}

// SetupRouter configures all routes
func SetupRouter(handler *Handler) *gin.Engine {
	router := gin.Default()

	router.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		duration := time.Since(start)

		log.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", duration).
			Msg("Request processed")
	})

	// the gateway's geocoder client speaks the Nominatim path layout
	router.GET("/search", handler.Search)
	router.GET("/health", handler.HealthCheck)
	router.PUT("/config", handler.UpdateConfig)

	return router
}

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	port := getEnv("PORT", "8082")
	matchRate := getEnvFloat("MATCH_RATE", 1)
	minDelay := getEnvDuration("MIN_DELAY", 50*time.Millisecond)
	maxDelay := getEnvDuration("MAX_DELAY", 500*time.Millisecond)

	log.Info().
		Str("port", port).
		Float64("match_rate", matchRate).
		Dur("min_delay", minDelay).
		Dur("max_delay", maxDelay).
		Msg("Starting Mock Geocoder")

	geocoder := NewMockGeocoder(matchRate, minDelay, maxDelay)
	handler := NewHandler(geocoder)
	router := SetupRouter(handler)

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("Server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		var f float64
		if _, err := fmt.Sscanf(value, "%f", &f); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
