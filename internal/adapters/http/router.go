package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/dkeye/Ludo/internal/adapters/signal"
	"github.com/dkeye/Ludo/internal/app/orch"
	"github.com/dkeye/Ludo/internal/config"
	"github.com/dkeye/Ludo/internal/domain"
	"github.com/dkeye/Ludo/internal/protocol"
	"github.com/dkeye/Ludo/internal/store"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// SetupRouter wires the admin REST API and the WebSocket endpoint.
func SetupRouter(ctx context.Context, cfg *config.Config, o *orch.Orchestrator, ws *signal.SignalWSController) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")

	api.GET("/rooms", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"rooms": o.Registry.List()})
	})

	api.GET("/rooms/:id", func(c *gin.Context) {
		id := domain.NormalizeRoomID(c.Param("id"))
		details, ok := o.Registry.Details(id)
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": domain.ErrRoomNotFound.Error()})
			return
		}
		state := protocol.Serialize(id, details.MaxPlayers, nil)
		if m, err := o.Registry.Game(id); err == nil {
			snap := m.Session.Snapshot()
			state = protocol.Serialize(id, details.MaxPlayers, &snap)
		}
		c.JSON(http.StatusOK, gin.H{"room": details, "game_state": state})
	})

	// DELETE /api/rooms/:id/members/:slot closes a player's connection.
	api.DELETE("/rooms/:id/members/:slot", func(c *gin.Context) {
		slot, err := strconv.Atoi(c.Param("slot"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid slot"})
			return
		}
		if !o.KickBySlot(c.Request.Context(), domain.NormalizeRoomID(c.Param("id")), slot) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no such member"})
			return
		}
		c.Status(http.StatusNoContent)
	})

	api.GET("/matches/:id", func(c *gin.Context) {
		if o.Store == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": store.ErrMatchNotFound.Error()})
			return
		}
		rec, err := o.Store.Load(c.Request.Context(), c.Param("id"))
		switch {
		case errors.Is(err, store.ErrMatchNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": store.ErrMatchNotFound.Error()})
		case err != nil:
			log.Error().Err(err).Str("module", "adapters.http").Str("match", c.Param("id")).Msg("load match")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "store unavailable"})
		default:
			c.JSON(http.StatusOK, rec)
		}
	})

	if ws != nil {
		api.GET("/ws", func(c *gin.Context) {
			ws.HandleSignal(ctx, c)
		})
	}

	log.Info().Str("module", "adapters.http").Str("mode", cfg.Mode).Msg("router setup")
	return r
}
