package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"github.com/moyoez/batchupload/api/controllers"
	"github.com/moyoez/batchupload/api/middlewares"
	"github.com/moyoez/batchupload/api/notifyhub"
	"github.com/moyoez/batchupload/session"
	"github.com/moyoez/batchupload/tool"
	"github.com/moyoez/batchupload/types"
)

// Server wraps a gin engine in an http.Server bound to one port.
type Server struct {
	name   string
	port   int
	engine *gin.Engine
	server *http.Server
	mu     sync.RWMutex
}

// IntakeOptions configures the intake endpoint.
type IntakeOptions struct {
	FieldName      string
	MaxUploadBytes int64
	ReceiptTTL     time.Duration
}

func newEngine() *gin.Engine {
	if tool.DefaultLogger.GetLevel() == log.DebugLevel {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middlewares.RequestLogger())
	engine.Use(middlewares.AllowAllCORS())
	return engine
}

// NewIntakeEngine builds the routes of the intake endpoint.
func NewIntakeEngine(opts IntakeOptions) *gin.Engine {
	engine := newEngine()
	if opts.MaxUploadBytes > 0 {
		engine.MaxMultipartMemory = opts.MaxUploadBytes
	}
	intakeCtrl := controllers.NewIntakeController(opts.FieldName, opts.ReceiptTTL)

	engine.GET("/", intakeCtrl.HandleIndex)
	engine.POST("/file", intakeCtrl.HandleFile)
	engine.GET("/file/receipts/:id", intakeCtrl.HandleReceipt)
	return engine
}

// NewControlEngine builds the local-only control API over sess. hub may be nil.
func NewControlEngine(sess *session.Session, hub *notifyhub.Hub) *gin.Engine {
	engine := newEngine()
	sessionCtrl := controllers.NewSessionController(sess)

	self := engine.Group("/api/self/v1", middlewares.OnlyAllowLocal)
	{
		self.GET("/session", sessionCtrl.HandleGet)                        // Current snapshot
		self.POST("/session/files", sessionCtrl.HandleAddFiles)            // Add files (file:// urls), idle only
		self.DELETE("/session/files/:index", sessionCtrl.HandleRemoveFile) // Remove a file, idle only
		self.POST("/session/start", sessionCtrl.HandleStart)               // Upload from the first file
		self.POST("/session/cancel", sessionCtrl.HandleCancel)             // Signal the live attempt
		self.POST("/session/retry", sessionCtrl.HandleRetry)               // Resume a failed batch
		self.POST("/session/close", sessionCtrl.HandleClose)               // Cancel and reset
		if hub != nil {
			self.GET("/notify-ws", notifyhub.HandleNotifyWS(hub, func() *types.Notification {
				return SnapshotNotification(sess.Snapshot())
			}))
		}
	}
	return engine
}

// SnapshotNotification wraps a snapshot for the notify hub.
func SnapshotNotification(snap session.Snapshot) *types.Notification {
	resp := snap.Response()
	return &types.Notification{
		Type:    types.NotifyTypeSessionUpdate,
		Title:   "Session",
		Message: fmt.Sprintf("%s %d/%d", resp.State, resp.Completed, resp.Total),
		Data:    map[string]any{"snapshot": resp},
	}
}

func NewServer(name string, port int, engine *gin.Engine) *Server {
	return &Server{
		name:   name,
		port:   port,
		engine: engine,
	}
}

func (s *Server) Address() string {
	return fmt.Sprintf(":%d", s.port)
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	s.mu.Lock()
	s.server = &http.Server{
		Addr:              s.Address(),
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	srv := s.server
	s.mu.Unlock()

	tool.DefaultLogger.Infof("[Server] Starting %s server on http://0.0.0.0:%d", s.name, s.port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("%s server: %w", s.name, err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.RLock()
	srv := s.server
	s.mu.RUnlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}
