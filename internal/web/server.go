// Package web serves a small status API: liveness plus a read-only view
// of every active playback session.
package web

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"wavebot/internal/logging"
	"wavebot/internal/player"
)

// Server exposes the status endpoints over gin.
type Server struct {
	controller *player.Controller
	log        zerolog.Logger
}

func NewServer(ctrl *player.Controller) *Server {
	return &Server{controller: ctrl, log: logging.For("web")}
}

// Run serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/sessions", s.listSessions)
	r.GET("/sessions/:id", s.showSession)

	srv := &http.Server{Addr: addr, Handler: r}
	go func() {
		<-ctx.Done()
		srv.Shutdown(context.Background()) //nolint:errcheck
	}()

	s.log.Info().Str("addr", addr).Msg("status server listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

type trackJSON struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Artist   string `json:"artist"`
	Duration int    `json:"duration_seconds"`
}

type sessionJSON struct {
	ID         string      `json:"id"`
	State      string      `json:"state"`
	Continuous bool        `json:"continuous"`
	NowPlaying *trackJSON  `json:"now_playing,omitempty"`
	Queue      []trackJSON `json:"queue"`
}

func toSessionJSON(id string, view player.QueueView) sessionJSON {
	out := sessionJSON{
		ID:         id,
		State:      view.State.String(),
		Continuous: view.Continuous,
		Queue:      make([]trackJSON, 0, len(view.Queue)),
	}
	if view.NowPlaying != nil {
		out.NowPlaying = &trackJSON{
			ID:       view.NowPlaying.ID,
			Title:    view.NowPlaying.Title,
			Artist:   view.NowPlaying.Artist,
			Duration: view.NowPlaying.Duration,
		}
	}
	for _, t := range view.Queue {
		out.Queue = append(out.Queue, trackJSON{ID: t.ID, Title: t.Title, Artist: t.Artist, Duration: t.Duration})
	}
	return out
}

func (s *Server) listSessions(c *gin.Context) {
	ids := s.controller.Registry().IDs()
	sessions := make([]sessionJSON, 0, len(ids))
	for _, id := range ids {
		sessions = append(sessions, toSessionJSON(id, s.controller.QueueView(id)))
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

func (s *Server) showSession(c *gin.Context) {
	id := c.Param("id")
	if _, ok := s.controller.Registry().Get(id); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no such session"})
		return
	}
	c.JSON(http.StatusOK, toSessionJSON(id, s.controller.QueueView(id)))
}
