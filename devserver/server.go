package devserver

import (
	"context"
	"net/http"
	"path/filepath"
	"time"

	"gerador/config"
	"gerador/connect"
	"gerador/internal/proto"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const shutdownTimeout = 5 * time.Second

// Server is a stand-in backend speaking the same wire contract as the real
// generator: a broadcast socket, POST /gerar and the outputs tree.
type Server struct {
	cfg    config.DevServerConfig
	hub    *Hub
	engine *gin.Engine
	log    *logrus.Entry
}

func New(cfg config.DevServerConfig, opts connect.Options) *Server {
	gin.SetMode(gin.ReleaseMode)
	s := &Server{
		cfg: cfg,
		hub: NewHub(opts),
		log: logrus.WithField("component", "devserver"),
	}
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(s.log))
	r.GET("/ws", s.ServeWs)
	r.POST("/gerar", s.Gerar)
	r.GET("/download/:folder/:filename", s.Download)
	r.Static("/outputs", cfg.OutputsDir)
	s.engine = r
	return s
}

func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) Hub() *Hub { return s.hub }

// Run serves on cfg.Bind until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{Addr: s.cfg.Bind, Handler: s.engine}
	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("devserver listening on %s, outputs=%s", s.cfg.Bind, s.cfg.OutputsDir)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return errors.Wrap(err, "listen")
	case <-ctx.Done():
	}
	s.hub.Close()
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return errors.Wrap(err, "shutdown")
	}
	return nil
}

func (s *Server) ServeWs(c *gin.Context) {
	s.hub.Serve(c.Writer, c.Request)
}

// Gerar runs one job and replies once it is over, like the real backend.
func (s *Server) Gerar(c *gin.Context) {
	var cfg proto.JobConfig
	if err := c.ShouldBindBodyWith(&cfg, binding.JSON); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
		return
	}
	if !cfg.HasRequired() {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": "radical and insumos are required"})
		return
	}
	cfg.MaxIteracoes = proto.ClampIteracoes(cfg.MaxIteracoes)

	log := s.log.WithField("request_id", c.GetHeader("X-Request-Id"))
	log.Infof("gerar radical=%q llm=%s image=%s", cfg.Radical, cfg.LLMProvider, cfg.ImageProvider)

	r, err := s.process(c.Request.Context(), cfg)
	if err != nil {
		log.Errorf("gerar err:%s", err.Error())
		if berr := s.hub.Broadcast(proto.LogEvent(proto.EventError, "❌ Erro: "+err.Error())); berr != nil {
			log.Warnf("broadcast err:%s", berr.Error())
		}
		c.JSON(http.StatusOK, proto.GenerateResponse{Status: "error"})
		return
	}
	log.Infof("gerar done id=%s", r.IdConteudos)
	c.JSON(http.StatusOK, proto.GenerateResponse{Status: "success"})
}

// Download serves a generated file as an attachment.
func (s *Server) Download(c *gin.Context) {
	folder := filepath.Base(c.Param("folder"))
	name := filepath.Base(c.Param("filename"))
	p := filepath.Join(s.cfg.OutputsDir, folder, name)
	if folder == ".." || !fileExists(p) {
		c.JSON(http.StatusNotFound, gin.H{"detail": "Arquivo não encontrado"})
		return
	}
	c.FileAttachment(p, name)
}

func requestLogger(log *logrus.Entry) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"elapsed": time.Since(start).Round(time.Millisecond),
		}).Debug("request")
	}
}
