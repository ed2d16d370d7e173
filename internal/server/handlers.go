package server

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/joseph-ayodele/po-intake/internal/batch"
	"github.com/joseph-ayodele/po-intake/internal/entity"
	"github.com/joseph-ayodele/po-intake/internal/ingest"
	"github.com/joseph-ayodele/po-intake/internal/workbench"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// WorkbenchHandler serves the upload workbench of the calling identity.
type WorkbenchHandler struct {
	sessions *workbench.Sessions
	logger   *slog.Logger
}

func NewWorkbenchHandler(sessions *workbench.Sessions, logger *slog.Logger) *WorkbenchHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WorkbenchHandler{sessions: sessions, logger: logger}
}

type selectCustomerRequest struct {
	Customer string `json:"customer"`
}

type setFieldRequest struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

type documentsResponse struct {
	Kept    int             `json:"kept"`
	Message string          `json:"message,omitempty"`
	State   workbench.State `json:"state"`
}

type submitResponse struct {
	Report *batch.Report   `json:"report"`
	State  workbench.State `json:"state"`
}

// workbench returns the caller's session. A new one loads its scope first; an
// existing one retries a scope load that failed.
func (h *WorkbenchHandler) workbench(c echo.Context) *workbench.Workbench {
	ctx := c.Request().Context()
	wb, created := h.sessions.Get(identityFrom(c))
	var err error
	if created {
		_, err = wb.LoadScope(ctx)
	} else {
		err = wb.RetryScope(ctx)
	}
	if err != nil {
		h.logger.Warn("server.scope.load_failed", "user", wb.Identity().Username, "error", err)
	}
	return wb
}

func (h *WorkbenchHandler) HandleState(c echo.Context) error {
	return c.JSON(http.StatusOK, h.workbench(c).State())
}

func (h *WorkbenchHandler) HandleSelectCustomer(c echo.Context) error {
	var req selectCustomerRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	wb := h.workbench(c)
	if err := wb.SelectCustomer(c.Request().Context(), strings.TrimSpace(req.Customer)); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, wb.State())
}

// HandleSelectDocuments takes a multipart form with one or more "files" parts.
func (h *WorkbenchHandler) HandleSelectDocuments(c echo.Context) error {
	form, err := c.MultipartForm()
	if err != nil {
		return NewBadRequestError("expected multipart form", err)
	}
	headers := form.File["files"]
	docs := make([]entity.Document, 0, len(headers))
	for _, fh := range headers {
		data, err := readPart(fh)
		if err != nil {
			return NewBadRequestError(fmt.Sprintf("cannot read %s", fh.Filename), err)
		}
		docs = append(docs, ingest.NewDocument(fh.Filename, fh.Header.Get("Content-Type"), data))
	}

	wb := h.workbench(c)
	kept, msg, err := wb.SelectDocuments(docs)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, documentsResponse{Kept: kept, Message: msg, State: wb.State()})
}

// HandleSubmit runs the batch to completion even if the client goes away.
func (h *WorkbenchHandler) HandleSubmit(c echo.Context) error {
	wb := h.workbench(c)
	rep, err := wb.Submit(context.WithoutCancel(c.Request().Context()), nil)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, submitResponse{Report: rep, State: wb.State()})
}

func (h *WorkbenchHandler) HandleToggleEdit(c echo.Context) error {
	editing, err := h.workbench(c).ToggleEdit(c.Param("key"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]bool{"editing": editing})
}

func (h *WorkbenchHandler) HandleSetField(c echo.Context) error {
	var req setFieldRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	if strings.TrimSpace(req.Field) == "" {
		return NewBadRequestError("field is required", nil)
	}
	wb := h.workbench(c)
	key := c.Param("key")
	if err := wb.SetField(key, req.Field, req.Value); err != nil {
		return err
	}
	for _, r := range wb.State().Rows {
		if r.Key == key {
			return c.JSON(http.StatusOK, r)
		}
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *WorkbenchHandler) HandleSubmitAll(c echo.Context) error {
	snap, err := h.workbench(c).SubmitAll(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, snap)
}

func (h *WorkbenchHandler) HandleExport(c echo.Context) error {
	wb := h.workbench(c)
	xlsx, err := wb.Export(c.Request().Context())
	if err != nil {
		return err
	}
	name := "purchase-orders.xlsx"
	if cust := wb.State().Customer; cust != "" {
		name = fmt.Sprintf("purchase-orders-%s.xlsx", cust)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	return c.Blob(http.StatusOK, xlsxContentType, xlsx)
}

func (h *WorkbenchHandler) HandleReset(c echo.Context) error {
	wb := h.workbench(c)
	if err := wb.Reset(); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, wb.State())
}

// HandleEndSession forgets the caller's workbench and its uploaded documents.
func (h *WorkbenchHandler) HandleEndSession(c echo.Context) error {
	if err := h.sessions.Drop(identityFrom(c).Username); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// HandleDocument streams a selected document back for preview.
func (h *WorkbenchHandler) HandleDocument(c echo.Context) error {
	doc, err := h.workbench(c).Document(c.Param("handle"))
	if err != nil {
		return err
	}
	ct := doc.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("inline; filename=%q", doc.Name))
	return c.Blob(http.StatusOK, ct, doc.Data)
}

func HandleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
