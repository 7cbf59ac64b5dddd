package web

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"studycal/internal/config"
	"studycal/internal/ics"
	appLog "studycal/internal/log"
	"studycal/internal/model"
	"studycal/internal/planner"
	"studycal/internal/schedule"
	"studycal/internal/transfer"
)

// maxImportBytes bounds uploaded or pasted import documents.
const maxImportBytes = 5 << 20

// Server exposes the planner over a JSON API.
type Server struct {
	cfg     *config.Config
	planner *planner.Planner
	loc     *time.Location
	now     func() time.Time
	debug   bool
	engine  *gin.Engine
}

// Option configures a Server.
type Option func(*Server)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// WithDebug enables per-request logging at INFO and gin's debug mode.
func WithDebug(debug bool) Option {
	return func(s *Server) { s.debug = debug }
}

// NewServer constructs a new Server. Wall-clock decisions ("today", "this
// week") use cfg.Location().
func NewServer(cfg *config.Config, p *planner.Planner, opts ...Option) *Server {
	s := &Server{
		cfg:     cfg,
		planner: p,
		loc:     cfg.Location(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if !s.debug {
		gin.SetMode(gin.ReleaseMode)
	}
	s.engine = gin.New()
	s.engine.Use(gin.Recovery(), s.requestLogger())
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for this server.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// StartServer serves on cfg.Listen until ctx is canceled, then shuts down
// gracefully.
func StartServer(ctx context.Context, cfg *config.Config, p *planner.Planner, debug bool) error {
	s := NewServer(cfg, p, WithDebug(debug))
	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLog.Info("starting HTTP server", "listen", "http://"+cfg.Listen, "debug", debug)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) registerRoutes() {
	s.engine.GET("/health", s.handleHealth)

	api := s.engine.Group("/api")
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+s.cfg.Listen)
		api.Use(gin.BasicAuthForRealm(gin.Accounts{
			s.cfg.BasicAuth.Username: s.cfg.BasicAuth.Password,
		}, "StudyCal"))
	}

	api.GET("/meta", s.handleMeta)

	api.GET("/classes", s.handleListClasses)
	api.POST("/classes", s.handleAddClass)
	api.DELETE("/classes/:id", s.handleDeleteClass)

	api.GET("/sessions", s.handleListSessions)
	api.POST("/sessions", s.handleAddSession)

	api.GET("/dashboard", s.handleDashboard)
	api.GET("/calendar", s.handleCalendar)
	api.GET("/occurrences", s.handleOccurrences)

	api.GET("/export", s.handleExportFile)
	api.GET("/export/text", s.handleExportText)
	api.GET("/export.ics", s.handleExportICS)
	api.GET("/export.xlsx", s.handleExportXLSX)
	api.POST("/import", s.handleImport)
	api.POST("/import.ics", s.handleImportICS)
}

// basicAuthEnabled reports whether HTTP Basic Auth is configured.
func (s *Server) basicAuthEnabled() bool {
	if s.cfg == nil || s.cfg.BasicAuth == nil {
		return false
	}
	return s.cfg.BasicAuth.Username != "" && s.cfg.BasicAuth.Password != ""
}

// requestLogger logs each request through the app logger.
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		kv := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start).String(),
		}
		if s.debug {
			appLog.Info("http request", kv...)
		} else {
			appLog.Debug("http request", kv...)
		}
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}

// metaResponse lists the fixed choices offered by the entry forms.
type metaResponse struct {
	Emojis []string   `json:"emojis"`
	Colors []string   `json:"colors"`
	Days   []string   `json:"days"`
	Tags   []tagLabel `json:"tags"`
}

type tagLabel struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

func (s *Server) handleMeta(c *gin.Context) {
	tags := make([]tagLabel, 0, len(model.Tags))
	for _, t := range model.Tags {
		tags = append(tags, tagLabel{Value: string(t), Label: t.Label()})
	}
	c.JSON(http.StatusOK, metaResponse{
		Emojis: model.EmojiOptions,
		Colors: model.ColorOptions,
		Days:   model.FormDays,
		Tags:   tags,
	})
}

func (s *Server) handleDashboard(c *gin.Context) {
	classes, sessions := s.planner.Snapshot()
	c.JSON(http.StatusOK, schedule.BuildDashboard(classes, sessions, s.today()))
}

// handleCalendar returns the weekly grid.
//
// GET /api/calendar?date=2024-06-12&offset=-1
//   - date:   any day of the wanted week (default today)
//   - offset: whole weeks to move from date (default 0)
func (s *Server) handleCalendar(c *gin.Context) {
	now := s.today()
	ref, ok := s.queryDate(c, "date", now)
	if !ok {
		return
	}
	ref = schedule.ShiftWeek(ref, parseIntDefault(c.Query("offset"), 0))

	classes, sessions := s.planner.Snapshot()
	c.JSON(http.StatusOK, schedule.BuildCalendar(classes, sessions, ref, now))
}

// handleOccurrences expands classes into concrete meetings.
//
// GET /api/occurrences?from=2024-06-09&to=2024-06-15
//
// Both bounds are inclusive calendar days and default to the current week.
func (s *Server) handleOccurrences(c *gin.Context) {
	week := schedule.WeekOf(s.today())
	from, ok := s.queryDate(c, "from", week.Start)
	if !ok {
		return
	}
	to, ok := s.queryDate(c, "to", week.End)
	if !ok {
		return
	}

	res, err := ics.ExpandClasses(s.planner.Classes(), ics.ExpandConfig{
		DisplayLocation: s.loc,
		RangeStart:      from,
		RangeEnd:        to.AddDate(0, 0, 1).Add(-time.Nanosecond),
	})
	if err != nil {
		writeError(c, http.StatusBadRequest, err.Error())
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) handleExportFile(c *gin.Context) {
	now := s.today()
	data, err := transfer.Marshal(s.planner.ExportSnapshot(now))
	if err != nil {
		appLog.Error("export failed", err)
		writeError(c, http.StatusInternalServerError, "failed to export data")
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+transfer.FileName(now)+`"`)
	c.Data(http.StatusOK, "application/json; charset=utf-8", data)
}

func (s *Server) handleExportText(c *gin.Context) {
	data, err := transfer.Marshal(s.planner.ExportSnapshot(s.today()))
	if err != nil {
		appLog.Error("export failed", err)
		writeError(c, http.StatusInternalServerError, "failed to export data")
		return
	}
	c.Data(http.StatusOK, "text/plain; charset=utf-8", data)
}

func (s *Server) handleExportICS(c *gin.Context) {
	now := s.today()
	body, err := ics.ExportClasses(s.planner.Classes(), now, s.loc)
	if err != nil {
		writeError(c, http.StatusUnprocessableEntity, err.Error())
		return
	}
	name := strings.TrimSuffix(transfer.FileName(now), ".json") + ".ics"
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, ics.ContentType, body)
}

func (s *Server) handleExportXLSX(c *gin.Context) {
	now := s.today()
	var buf bytes.Buffer
	if err := transfer.WriteWorkbook(&buf, s.planner.ExportSnapshot(now)); err != nil {
		appLog.Error("workbook export failed", err)
		writeError(c, http.StatusInternalServerError, "failed to export workbook")
		return
	}
	name := transfer.WorkbookFileName(transfer.FileName(now))
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, transfer.WorkbookContentType, buf.Bytes())
}

// today is the current instant in the configured zone.
func (s *Server) today() time.Time {
	return s.now().In(s.loc)
}

// queryDate parses a YYYY-MM-DD query parameter in the configured zone,
// writing a 400 and returning false when it is malformed.
func (s *Server) queryDate(c *gin.Context, name string, def time.Time) (time.Time, bool) {
	v := c.Query(name)
	if v == "" {
		return def, true
	}
	t, err := time.ParseInLocation(model.DateLayout, v, s.loc)
	if err != nil {
		writeError(c, http.StatusBadRequest, name+" must be YYYY-MM-DD")
		return time.Time{}, false
	}
	return t, true
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func writeError(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"error": msg})
}
