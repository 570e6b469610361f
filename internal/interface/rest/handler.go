package rest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/zeebo/xxh3"

	"github.com/foodielens/dishbook"
	"github.com/foodielens/dishbook/internal/domain"
	"github.com/foodielens/dishbook/internal/infra/tabular"
	"github.com/foodielens/dishbook/internal/interface/rest/presenter"
	"github.com/foodielens/dishbook/internal/usecase"
	"github.com/foodielens/dishbook/schemas"
)

// Subscriber delivers record events for the realtime feed.
type Subscriber interface {
	Subscribe(ctx context.Context, channel string) (<-chan dishbook.Event, error)
}

type Handler struct {
	submissions   *usecase.SubmissionUsecase
	records       *usecase.RecordUsecase
	assets        *usecase.AssetUsecase
	signal        Subscriber
	maxImageBytes int64
}

// NewHandler builds the API handler. signal may be nil, in which case the
// realtime endpoint answers 503.
func NewHandler(
	submissions *usecase.SubmissionUsecase,
	records *usecase.RecordUsecase,
	assets *usecase.AssetUsecase,
	signal Subscriber,
	maxImageBytes int64,
) *Handler {
	return &Handler{
		submissions:   submissions,
		records:       records,
		assets:        assets,
		signal:        signal,
		maxImageBytes: maxImageBytes,
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.handleHealth)

	api := e.Group("/api/v1")
	api.POST("/submissions", h.handleSubmit)
	api.POST("/records", h.handleResume)
	api.GET("/records", h.handleListRecords)
	api.GET("/records.csv", h.handleExport)
	api.GET("/records/:id", h.handleGetRecord)
	api.GET("/assets/:hash", h.handleAsset)
	api.GET("/schemas/record.json", h.handleRecordSchema)
	api.GET("/schemas/submission.json", h.handleSubmissionSchema)
	api.GET("/realtime", h.handleRealtime)
}

func (h *Handler) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}

func (h *Handler) handleSubmit(c echo.Context) error {
	ctx := c.Request().Context()

	input := usecase.SubmitInput{
		Fields: domain.Fields{
			Name:        c.FormValue(domain.FieldName),
			Description: c.FormValue(domain.FieldDescription),
			Country:     c.FormValue(domain.FieldCountry),
			State:       c.FormValue(domain.FieldState),
			Tribe:       c.FormValue(domain.FieldTribe),
		},
	}

	file, err := c.FormFile(domain.FieldImage)
	switch err {
	case nil:
		input.Image, err = h.readImage(file)
		if err != nil {
			return presenter.BadRequestMessage(c, "unreadable image", domain.FieldImage)
		}
	case http.ErrMissingFile, http.ErrNotMultipart:
		// reported by the usecase together with any missing fields
	default:
		return presenter.BadRequestMessage(c, err.Error())
	}

	record, err := h.submissions.Submit(ctx, input)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.Created(c, dishbook.SubmissionResult{Record: record})
}

// readImage stops one byte past the limit so oversized photos are still
// rejected by the usecase without buffering all of them.
func (h *Handler) readImage(file *multipart.FileHeader) ([]byte, error) {
	src, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	var r io.Reader = src
	if h.maxImageBytes > 0 {
		r = io.LimitReader(src, h.maxImageBytes+1)
	}
	return io.ReadAll(r)
}

func (h *Handler) handleResume(c echo.Context) error {
	ctx := c.Request().Context()

	var req dishbook.ResumeRequest
	if err := c.Bind(&req); err != nil {
		return presenter.BadRequestMessage(c, err.Error())
	}

	ref, err := dishbook.ParseAssetRef(req.Asset)
	if err != nil {
		return presenter.BadRequestMessage(c, err.Error(), domain.FieldAsset)
	}

	record, err := h.submissions.Resume(ctx, req.Fields, ref)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.Created(c, dishbook.SubmissionResult{Record: record})
}

func (h *Handler) handleListRecords(c echo.Context) error {
	ctx := c.Request().Context()

	limit := 0
	if limitStr := c.QueryParam("limit"); limitStr != "" {
		var err error
		limit, err = strconv.Atoi(limitStr)
		if err != nil {
			return presenter.BadRequestMessage(c, "invalid limit parameter", "limit")
		}
	}

	page, err := h.records.ListPage(ctx, c.QueryParam("cursor"), limit)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, page)
}

func (h *Handler) handleGetRecord(c echo.Context) error {
	ctx := c.Request().Context()

	record, err := h.records.Get(ctx, c.Param("id"))
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, record)
}

func (h *Handler) handleExport(c echo.Context) error {
	ctx := c.Request().Context()

	res := c.Response()
	res.Header().Set(echo.HeaderContentType, domain.ContentTypeCSV+"; charset=utf-8")
	res.Header().Set(echo.HeaderContentDisposition, `attachment; filename="food_data.csv"`)
	res.WriteHeader(http.StatusOK)

	w := tabular.NewWriter(res)
	for record, err := range h.records.List(ctx, domain.MaxPageSize) {
		if err != nil {
			// the status line is gone already; a truncated body is all we can signal
			slog.ErrorContext(
				ctx, "export aborted",
				slog.String("error", err.Error()),
				slog.String("module", "rest"),
			)
			return nil
		}
		if err := w.Write(record); err != nil {
			return nil
		}
	}
	w.Flush()
	return nil
}

func etag(data []byte) string {
	return fmt.Sprintf(`"%016x"`, xxh3.Hash(data))
}

func (h *Handler) handleAsset(c echo.Context) error {
	ctx := c.Request().Context()

	hash, err := url.PathUnescape(c.Param("hash"))
	if err != nil || !dishbook.IsContentHash(hash) {
		return presenter.BadRequestMessage(c, "invalid content hash")
	}

	asset, data, err := h.assets.Open(ctx, hash)
	if err != nil {
		return presenter.Error(c, err)
	}

	tag := etag(data)
	header := c.Response().Header()
	header.Set("ETag", tag)
	header.Set("Cache-Control", "public, max-age=31536000, immutable")
	if c.Request().Header.Get("If-None-Match") == tag {
		return c.NoContent(http.StatusNotModified)
	}
	return c.Blob(http.StatusOK, asset.ContentType, data)
}

func (h *Handler) handleRecordSchema(c echo.Context) error {
	return presenter.OK(c, schemas.Record())
}

func (h *Handler) handleSubmissionSchema(c echo.Context) error {
	return presenter.OK(c, schemas.Submission())
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

const writeWait = 10 * time.Second

func (h *Handler) handleRealtime(c echo.Context) error {
	if h.signal == nil {
		return presenter.Unavailable(c, "realtime feed is not configured")
	}

	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()

	events, err := h.signal.Subscribe(ctx, domain.RecordsChannel)
	if err != nil {
		return presenter.InternalError(c, err)
	}

	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		slog.Error(
			"Failed to upgrade WebSocket",
			slog.String("error", err.Error()),
			slog.String("module", "socket"),
		)
		return nil
	}
	defer ws.Close()

	// clients only send heartbeats; a read error means they are gone
	go func() {
		defer cancel()
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				wsErr, ok := err.(*websocket.CloseError)
				if ok {
					if !(wsErr.Code == websocket.CloseNormalClosure || wsErr.Code == websocket.CloseGoingAway) {
						slog.DebugContext(
							ctx, "WebSocket closed",
							slog.String("error", wsErr.Error()),
							slog.String("module", "socket"),
						)
					}
				} else if ctx.Err() == nil {
					slog.ErrorContext(
						ctx, "Error reading message",
						slog.String("error", err.Error()),
						slog.String("module", "socket"),
					)
				}
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-events:
			if !ok {
				return nil
			}
			ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteJSON(event); err != nil {
				slog.ErrorContext(
					ctx, "Error writing message",
					slog.String("error", err.Error()),
					slog.String("module", "socket"),
				)
				return nil
			}
		}
	}
}
