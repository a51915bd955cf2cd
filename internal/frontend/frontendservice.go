package frontend

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/jo-hoe/photolog/internal/capture"
	"github.com/jo-hoe/photolog/internal/core"
	"github.com/jo-hoe/photolog/internal/entry"
	"github.com/jo-hoe/photolog/internal/export"
	"github.com/jo-hoe/photolog/internal/session"
	"github.com/labstack/echo/v4"
)

const (
	MainPageName         = "index.html"
	mimePNG              = "image/png"
	sessionContextKey    = "photolog.session"
	defaultMaxFrameBytes = 32 << 20
)

type FrontendService struct {
	coreService   *core.CoreService
	config        *core.ServiceConfig
	template      *Template
	maxFrameBytes int64
}

func NewFrontendService(config *core.ServiceConfig, coreService *core.CoreService) *FrontendService {
	return &FrontendService{
		coreService:   coreService,
		config:        config,
		template:      newTemplate(),
		maxFrameBytes: defaultMaxFrameBytes,
	}
}

type livePanelData struct {
	ClientCamera bool
	CaptureError string
}

type category2Data struct {
	Enabled  bool
	Values   []string
	Selected string
}

type annotatePanelData struct {
	Image         template.URL
	Form          session.Form
	Categories    []string
	Subcategories category2Data
}

type pageData struct {
	State        string
	Live         livePanelData
	Annotate     annotatePanelData
	EntriesHTML  template.HTML
	Notification string
	ArchiveName  string
}

type captureUnavailableRequest struct {
	Message string `form:"message" validate:"required"`
}

// rootRedirectHandler redirects root path to index.html
func (service *FrontendService) rootRedirectHandler(ctx echo.Context) error {
	return ctx.Redirect(http.StatusMovedPermanently, "/"+MainPageName)
}

func (service *FrontendService) SetRoutes(e *echo.Echo) {
	e.Renderer = service.template

	e.GET("/", service.rootRedirectHandler) // Redirect root to index.html
	e.GET("/probe", service.probeHandler)
	e.GET("/icon.svg", service.iconHandler)
	e.POST("/session/end", service.endSessionHandler)

	withSession := service.sessionMiddleware
	e.GET("/"+MainPageName, service.indexHandler, withSession)
	e.GET("/live.png", service.liveFrameHandler, withSession)
	e.GET("/htmx/live", service.htmxLiveHandler, withSession)
	e.POST("/htmx/capture", service.htmxCaptureHandler, withSession)
	e.POST("/htmx/capture/unavailable", service.htmxCaptureUnavailableHandler, withSession)
	e.POST("/htmx/retake", service.htmxRetakeHandler, withSession)
	e.GET("/htmx/subcategories", service.htmxSubcategoriesHandler, withSession)
	e.GET("/htmx/entries", service.htmxListEntriesHandler, withSession)
	e.POST("/htmx/entries", service.htmxSubmitEntryHandler, withSession)
	e.GET("/export", service.exportHandler, withSession)
}

// sessionMiddleware resolves the page session from its cookie, starting a new one when needed
func (service *FrontendService) sessionMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		sessions := service.coreService.Sessions()
		if cookie, err := ctx.Cookie(service.config.Session.CookieName); err == nil {
			if s, ok := sessions.Get(ctx.Request().Context(), cookie.Value); ok {
				ctx.Set(sessionContextKey, s)
				return next(ctx)
			}
		}

		s, err := sessions.Create(ctx.Request().Context())
		if err != nil {
			slog.Error("sessionMiddleware: failed to create session",
				"status", http.StatusInternalServerError, "error", err)
			return ctx.String(http.StatusInternalServerError, "Failed to start session")
		}
		ctx.SetCookie(&http.Cookie{
			Name:     service.config.Session.CookieName,
			Value:    s.ID,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteStrictMode,
		})
		ctx.Set(sessionContextKey, s)
		return next(ctx)
	}
}

func sessionFrom(ctx echo.Context) *session.Session {
	s, _ := ctx.Get(sessionContextKey).(*session.Session)
	return s
}

func (service *FrontendService) probeHandler(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "photolog is running")
}

func (service *FrontendService) indexHandler(ctx echo.Context) error {
	s := sessionFrom(ctx)

	entriesHTML, err := service.buildEntryListHTML(ctx, s)
	if err != nil {
		slog.Error("indexHandler: failed to list entries",
			"status", http.StatusInternalServerError, "session_id", s.ID, "error", err)
		return ctx.String(http.StatusInternalServerError, "Failed to list entries")
	}

	data := pageData{
		State:       s.State().String(),
		Live:        service.livePanel(s),
		Annotate:    service.annotatePanel(s, session.Form{}),
		EntriesHTML: template.HTML(entriesHTML),
		ArchiveName: service.config.Export.ArchiveName,
	}

	service.setNoCache(ctx)
	return ctx.Render(http.StatusOK, MainPageName, data)
}

func (service *FrontendService) liveFrameHandler(ctx echo.Context) error {
	s := sessionFrom(ctx)
	feed := s.Feed()
	if feed == nil || s.CaptureError() != nil {
		return ctx.String(http.StatusNotFound, "Camera unavailable")
	}
	if _, clientSide := feed.(capture.FramePusher); clientSide {
		return ctx.String(http.StatusNotFound, "Live view is rendered by the browser")
	}

	frame, err := service.coreService.Grabber().Preview(ctx.Request().Context(), feed)
	if err != nil {
		slog.Warn("liveFrameHandler: frame not available",
			"status", http.StatusNotFound, "session_id", s.ID, "error", err)
		return ctx.String(http.StatusNotFound, "Frame not available")
	}

	// Prevent caching so the feed keeps moving
	service.setNoCache(ctx)

	return ctx.Blob(http.StatusOK, mimePNG, frame)
}

func (service *FrontendService) htmxLiveHandler(ctx echo.Context) error {
	html, err := service.template.fragment("live-frame", service.timestampNanoStr())
	if err != nil {
		slog.Error("htmxLiveHandler: failed to render live frame", "error", err)
		return ctx.String(http.StatusInternalServerError, "Failed to render live frame")
	}
	service.setNoCache(ctx)
	return ctx.HTML(http.StatusOK, html)
}

// htmxCaptureHandler grabs a snapshot. Client-side cameras upload the frame and receive
// a non-2xx plain-text reply on failure so the page keeps its stream running.
func (service *FrontendService) htmxCaptureHandler(ctx echo.Context) error {
	s := sessionFrom(ctx)

	_, clientSide := s.Feed().(capture.FramePusher)
	if clientSide && s.CaptureError() == nil {
		frame, err := service.readFrameUpload(ctx)
		if err != nil {
			status := http.StatusBadRequest
			message := "Failed to read the captured frame."
			if errors.Is(err, errFrameTooLarge) {
				status = http.StatusRequestEntityTooLarge
				message = fmt.Sprintf("The captured frame is larger than %d bytes.", service.maxFrameBytes)
			}
			slog.Error("htmxCaptureHandler: failed to read uploaded frame",
				"status", status, "session_id", s.ID, "error", err)
			return ctx.String(status, message)
		}
		if err := s.PushFrame(frame); err != nil {
			slog.Error("htmxCaptureHandler: failed to accept uploaded frame",
				"status", http.StatusUnprocessableEntity, "session_id", s.ID, "error", err)
			return ctx.String(http.StatusUnprocessableEntity, "The captured frame is not a valid image.")
		}
	}

	snapshot, err := s.Capture(ctx.Request().Context(), service.coreService.Grabber())
	if err != nil {
		message := "Failed to capture photo: " + err.Error()
		if capture.IsCapabilityError(err) {
			message = err.Error()
		}
		slog.Warn("htmxCaptureHandler: capture failed", "session_id", s.ID, "error", err)
		if clientSide {
			return ctx.String(http.StatusUnprocessableEntity, message)
		}
		return service.respondPanel(ctx, s, session.Form{}, message)
	}

	slog.Info("photo captured",
		"session_id", s.ID, "width", snapshot.Width, "height", snapshot.Height)
	return service.respondPanel(ctx, s, session.Form{}, "")
}

var errFrameTooLarge = errors.New("frame upload too large")

func (service *FrontendService) readFrameUpload(ctx echo.Context) ([]byte, error) {
	file, err := ctx.FormFile("frame")
	if err != nil {
		return nil, err
	}
	if file.Size > service.maxFrameBytes {
		return nil, errFrameTooLarge
	}
	src, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := src.Close(); cerr != nil {
			slog.Error("readFrameUpload: failed to close uploaded file reader", "error", cerr, "filename", file.Filename)
		}
	}()
	data, err := io.ReadAll(io.LimitReader(src, service.maxFrameBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > service.maxFrameBytes {
		return nil, errFrameTooLarge
	}
	return data, nil
}

func (service *FrontendService) htmxCaptureUnavailableHandler(ctx echo.Context) error {
	s := sessionFrom(ctx)

	var req captureUnavailableRequest
	if err := ctx.Bind(&req); err != nil {
		return err
	}
	if err := ctx.Validate(&req); err != nil {
		return err
	}

	s.DisableCapture(errors.New(req.Message))
	return service.respondPanel(ctx, s, session.Form{}, req.Message)
}

func (service *FrontendService) htmxRetakeHandler(ctx echo.Context) error {
	s := sessionFrom(ctx)
	s.Retake()
	return service.respondPanel(ctx, s, session.Form{}, "")
}

func (service *FrontendService) htmxSubcategoriesHandler(ctx echo.Context) error {
	category1 := ctx.QueryParam("category1")
	html, err := service.template.fragment("category2", service.category2(category1, ""))
	if err != nil {
		slog.Error("htmxSubcategoriesHandler: failed to render subcategories",
			"status", http.StatusInternalServerError, "error", err)
		return ctx.String(http.StatusInternalServerError, "Failed to render subcategories")
	}
	return ctx.HTML(http.StatusOK, html)
}

func (service *FrontendService) htmxListEntriesHandler(ctx echo.Context) error {
	s := sessionFrom(ctx)
	listHTML, err := service.buildEntryListHTML(ctx, s)
	if err != nil {
		slog.Error("htmxListEntriesHandler: failed to list entries",
			"status", http.StatusInternalServerError, "session_id", s.ID, "error", err)
		return ctx.String(http.StatusInternalServerError, "Failed to list entries")
	}

	// Prevent caching so the latest entries are always shown
	service.setNoCache(ctx)

	return ctx.HTML(http.StatusOK, listHTML)
}

func (service *FrontendService) htmxSubmitEntryHandler(ctx echo.Context) error {
	s := sessionFrom(ctx)

	var form session.Form
	if err := ctx.Bind(&form); err != nil {
		return err
	}

	saved, err := s.Submit(ctx.Request().Context(), form)
	var vErr *entry.ValidationError
	switch {
	case errors.As(err, &vErr):
		slog.Info("htmxSubmitEntryHandler: entry rejected", "session_id", s.ID, "fields", vErr.Fields)
		return service.respondPanel(ctx, s, form, validationMessage(vErr))
	case err != nil:
		slog.Error("htmxSubmitEntryHandler: failed to save entry",
			"status", http.StatusInternalServerError, "session_id", s.ID, "error", err)
		return service.respondPanel(ctx, s, form, "Failed to save entry.")
	}
	slog.Info("entry saved", "session_id", s.ID, "category1", saved.Category1, "category2", saved.Category2)

	panelHTML, err := service.panelHTML(s, session.Form{}, "")
	if err != nil {
		return service.renderError(ctx, err)
	}

	// Build out-of-band update for the entry list
	listHTML, listErr := service.buildEntryListHTML(ctx, s)
	if listErr != nil {
		slog.Error("htmxSubmitEntryHandler: failed to list entries for OOB update",
			"status", http.StatusInternalServerError, "error", listErr)
		return ctx.HTML(http.StatusOK, panelHTML)
	}
	entryListOOB := fmt.Sprintf(`<div id="entry-list" hx-swap-oob="true">%s</div>`, listHTML)

	service.setNoCache(ctx)
	return ctx.HTML(http.StatusOK, panelHTML+entryListOOB)
}

func validationMessage(err *entry.ValidationError) string {
	if err.Has("photo") {
		return "Please take a picture first."
	}
	if err.Reason != "" {
		return err.Error()
	}
	return "Please fill in all fields."
}

func (service *FrontendService) exportHandler(ctx echo.Context) error {
	s := sessionFrom(ctx)

	var archive bytes.Buffer
	err := s.Export(ctx.Request().Context(), service.coreService.Exporter(), &archive)
	var serErr *export.SerializationError
	switch {
	case errors.Is(err, export.ErrEmptyExport):
		return ctx.String(http.StatusBadRequest, "No entries to export.")
	case errors.Is(err, session.ErrExportInProgress):
		return ctx.String(http.StatusConflict, "Export already in progress.")
	case errors.As(err, &serErr):
		slog.Error("exportHandler: failed to generate archive",
			"status", http.StatusInternalServerError, "session_id", s.ID, "error", err)
		return ctx.String(http.StatusInternalServerError, "Error generating ZIP file: "+serErr.Err.Error())
	case err != nil:
		slog.Error("exportHandler: failed to export entries",
			"status", http.StatusInternalServerError, "session_id", s.ID, "error", err)
		return ctx.String(http.StatusInternalServerError, "Failed to export entries.")
	}

	ctx.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf("attachment; filename=%q", service.config.Export.ArchiveName))
	service.setNoCache(ctx)
	return ctx.Blob(http.StatusOK, export.ContentType, archive.Bytes())
}

func (service *FrontendService) endSessionHandler(ctx echo.Context) error {
	cookie, err := ctx.Cookie(service.config.Session.CookieName)
	if err != nil {
		return ctx.NoContent(http.StatusNoContent)
	}
	if err := service.coreService.Sessions().End(ctx.Request().Context(), cookie.Value); err != nil {
		slog.Error("endSessionHandler: failed to end session", "session_id", cookie.Value, "error", err)
	}
	ctx.SetCookie(&http.Cookie{
		Name:     service.config.Session.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	return ctx.NoContent(http.StatusNoContent)
}

// respondPanel re-renders the panel for the session's current state together with a notification
func (service *FrontendService) respondPanel(ctx echo.Context, s *session.Session, form session.Form, notification string) error {
	html, err := service.panelHTML(s, form, notification)
	if err != nil {
		return service.renderError(ctx, err)
	}
	service.setNoCache(ctx)
	return ctx.HTML(http.StatusOK, html)
}

func (service *FrontendService) panelHTML(s *session.Session, form session.Form, notification string) (string, error) {
	var panel string
	var err error
	if s.State() == session.Annotating {
		panel, err = service.template.fragment("annotate-panel", service.annotatePanel(s, form))
	} else {
		panel, err = service.template.fragment("live-panel", service.livePanel(s))
	}
	if err != nil {
		return "", err
	}
	oob, err := service.template.fragment("notification", notification)
	if err != nil {
		return "", err
	}
	return panel + oob, nil
}

func (service *FrontendService) renderError(ctx echo.Context, err error) error {
	slog.Error("failed to render view", "status", http.StatusInternalServerError, "error", err)
	return ctx.String(http.StatusInternalServerError, "Failed to render view")
}

func (service *FrontendService) livePanel(s *session.Session) livePanelData {
	data := livePanelData{}
	if err := s.CaptureError(); err != nil {
		data.CaptureError = err.Error()
	}
	_, data.ClientCamera = s.Feed().(capture.FramePusher)
	return data
}

func (service *FrontendService) annotatePanel(s *session.Session, form session.Form) annotatePanelData {
	data := annotatePanelData{
		Form:          form,
		Categories:    service.coreService.Resolver().Categories(),
		Subcategories: service.category2(form.Category1, form.Category2),
	}
	if snapshot, ok := s.Pending(); ok && strings.HasPrefix(snapshot.Image, "data:image/") {
		data.Image = template.URL(snapshot.Image)
	}
	return data
}

// category2 builds the subcategory control; a selection survives only if it belongs to category1
func (service *FrontendService) category2(category1, selected string) category2Data {
	resolver := service.coreService.Resolver()
	opts := resolver.Options(category1)
	if !resolver.Allows(category1, selected) {
		selected = ""
	}
	return category2Data{
		Enabled:  opts.Enabled,
		Values:   opts.Values,
		Selected: selected,
	}
}

func (service *FrontendService) buildEntryListHTML(ctx echo.Context, s *session.Session) (string, error) {
	entries, err := s.Entries(ctx.Request().Context())
	if err != nil {
		return "", err
	}
	return service.coreService.Renderer().RenderString(entries)
}

func (service *FrontendService) setNoCache(ctx echo.Context) {
	ctx.Response().Header().Set("Cache-Control", "no-store, no-cache, must-revalidate, max-age=0")
	ctx.Response().Header().Set("Pragma", "no-cache")
	ctx.Response().Header().Set("Expires", "0")
}

func (service *FrontendService) timestampNanoStr() string {
	return fmt.Sprintf("%d", time.Now().UnixNano())
}

func (service *FrontendService) iconHandler(ctx echo.Context) error {
	data, err := assetsFS.ReadFile("views/icon.svg")
	if err != nil {
		slog.Error("iconHandler: failed to read icon.svg", "status", http.StatusInternalServerError, "error", err)
		return ctx.String(http.StatusInternalServerError, "Failed to load icon")
	}
	// Cache for 7 days
	ctx.Response().Header().Set("Cache-Control", "public, max-age=604800, immutable")
	return ctx.Blob(http.StatusOK, "image/svg+xml", data)
}
