package http

import (
	"context"
	"net/http"
	"time"

	"github.com/dkeye/Rooms/internal/adapters/signal"
	"github.com/dkeye/Rooms/internal/app/orch"
	"github.com/dkeye/Rooms/internal/config"
	"github.com/dkeye/Rooms/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

func SetupRouter(ctx context.Context, cfg *config.Config, o *orch.Orchestrator) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())
	r.Use(CORS(cfg.AllowedOrigins))

	ctl := signal.NewSignalWSController(o, signal.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		ReadLimit:      cfg.ReadLimit,
		PingPeriod:     cfg.PingPeriod,
		SendBuffer:     cfg.SendBuffer,
		RateLimit:      cfg.Rate.Limit,
		RateInterval:   cfg.Rate.Interval,
	})

	r.GET("/ws", func(c *gin.Context) {
		ctl.HandleSignal(ctx, c)
	})

	r.GET("/healthz", func(c *gin.Context) {
		pingCtx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := o.Rooms.Store.Ping(pingCtx); err != nil {
			log.Error().Err(err).Str("module", "adapters.http").Msg("store ping failed")
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "connections": o.Registry.Count()})
	})

	api := r.Group("/api")

	// GET /api/rooms/:id returns the current state as this process sees it
	api.GET("/rooms/:id", func(c *gin.Context) {
		room, err := domain.ParseRoomID(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		ctx := c.Request.Context()
		c.JSON(http.StatusOK, RoomState{
			ID:      room,
			Users:   o.Rooms.MembersOf(room),
			Votes:   o.Rooms.VotesOf(ctx, room),
			Visible: o.Rooms.VisibilityOf(ctx, room),
		})
	})

	log.Info().Str("module", "adapters.http").Msg("router setup")
	return r
}

type RoomState struct {
	ID      domain.RoomID   `json:"id"`
	Users   []domain.ConnID `json:"users"`
	Votes   domain.Votes    `json:"votes"`
	Visible bool            `json:"visible"`
}
