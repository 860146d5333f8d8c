package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/fasthttp/router"
	"github.com/receiptgw/receipt-gateway/internal/model"
	"github.com/receiptgw/receipt-gateway/internal/services"
	"github.com/receiptgw/receipt-gateway/pkg/xhttp"
)

type ReceiptService interface {
	Upload(ctx context.Context, p model.ReceiptUploadRequest) (*model.Receipt, error)
	Get(ctx context.Context, id int64) (*model.Receipt, error)
	List(ctx context.Context, f model.ReceiptFilter) ([]*model.Receipt, int64, error)
	Delete(ctx context.Context, id int64) error
	Analyze(ctx context.Context, receiptID int64, userID *int64) *model.AnalysisResult
	ListCategories(ctx context.Context, userID int64) ([]*model.Category, error)
}

type ReceiptHandler struct {
	svc ReceiptService
}

func RegisterReceiptRoutes(e *router.Group, h *ReceiptHandler) {
	e.POST("/receipts", h.UploadReceipt)
	e.GET("/receipts", h.ListReceipts)
	e.GET("/receipts/{id}", h.GetReceipt)
	e.GET("/receipts/{id}/image", h.GetReceiptImage)
	e.DELETE("/receipts/{id}", h.DeleteReceipt)
	e.POST("/receipts/{id}/analyze", h.AnalyzeReceipt)
	e.GET("/categories", h.ListCategories)
}

func NewReceiptHandler(receiptService ReceiptService) *ReceiptHandler {
	return &ReceiptHandler{
		svc: receiptService,
	}
}

type listReceiptsResponse struct {
	Items []*model.Receipt `json:"items"`
	Total int64            `json:"total"`
}

type analyzeRequest struct {
	UserID *int64 `json:"user_id"`
}

/* --------------------------------- Routes ----------------------------------- */

// UploadReceipt accepts a multipart form with an "image" file and a
// "user_id" field. The raw body is used as the image when the request is
// not multipart.
func (h *ReceiptHandler) UploadReceipt(ctx *xhttp.RequestCtx) {
	image, err := readImage(ctx)
	if err != nil {
		writeError(ctx, xhttp.StatusBadRequest, err.Error())
		return
	}

	userID, err := formInt64(ctx, "user_id")
	if err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "user_id is required")
		return
	}

	receipt, err := h.svc.Upload(ctx, model.ReceiptUploadRequest{
		UserID:   userID,
		Image:    image,
		MimeType: string(ctx.Request.Header.ContentType()),
	})
	if err != nil {
		writeUploadError(ctx, err)
		return
	}

	writeJSON(ctx, xhttp.StatusCreated, receipt)
}

func (h *ReceiptHandler) GetReceipt(ctx *xhttp.RequestCtx) {
	id, err := pathInt64(ctx, "id")
	if err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid receipt id")
		return
	}

	receipt, err := h.svc.Get(ctx, id)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			writeError(ctx, xhttp.StatusNotFound, "receipt not found")
			return
		}
		writeError(ctx, xhttp.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(ctx, xhttp.StatusOK, receipt)
}

func (h *ReceiptHandler) GetReceiptImage(ctx *xhttp.RequestCtx) {
	id, err := pathInt64(ctx, "id")
	if err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid receipt id")
		return
	}

	receipt, err := h.svc.Get(ctx, id)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			writeError(ctx, xhttp.StatusNotFound, "receipt not found")
			return
		}
		writeError(ctx, xhttp.StatusInternalServerError, err.Error())
		return
	}

	if len(receipt.Image) == 0 {
		writeError(ctx, xhttp.StatusNotFound, "receipt has no image")
		return
	}

	ctx.Response.Header.Set("Content-Type", receipt.MimeType)
	ctx.Response.SetStatusCode(xhttp.StatusOK)
	ctx.Response.SetBodyRaw(receipt.Image)
}

func (h *ReceiptHandler) ListReceipts(ctx *xhttp.RequestCtx) {
	var f model.ReceiptFilter

	if v := query(ctx, "user_id"); v != "" {
		if id, e := strconv.ParseInt(v, 10, 64); e == nil {
			f.UserID = &id
		}
	}
	if v := query(ctx, "status"); v != "" {
		parts := strings.Split(v, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
			if parts[i] != "" {
				f.Statuses = append(f.Statuses, model.ReceiptStatus(parts[i]))
			}
		}
	}
	if v := query(ctx, "from"); v != "" {
		if t, e := parseTime(v); e == nil {
			f.From = &t
		}
	}
	if v := query(ctx, "to"); v != "" {
		if t, e := parseTime(v); e == nil {
			f.To = &t
		}
	}
	if v := query(ctx, "limit"); v != "" {
		if n, e := strconv.Atoi(v); e == nil {
			f.Limit = n
		}
	}
	if v := query(ctx, "offset"); v != "" {
		if n, e := strconv.Atoi(v); e == nil {
			f.Offset = n
		}
	}
	if strings.EqualFold(query(ctx, "order"), "desc") {
		f.Desc = true
	}

	items, total, err := h.svc.List(ctx, f)
	if err != nil {
		writeError(ctx, xhttp.StatusBadRequest, err.Error())
		return
	}

	writeJSON(ctx, xhttp.StatusOK, listReceiptsResponse{Items: items, Total: total})
}

func (h *ReceiptHandler) DeleteReceipt(ctx *xhttp.RequestCtx) {
	id, err := pathInt64(ctx, "id")
	if err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid receipt id")
		return
	}

	if err := h.svc.Delete(ctx, id); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			writeError(ctx, xhttp.StatusNotFound, "receipt not found")
			return
		}
		writeError(ctx, xhttp.StatusInternalServerError, err.Error())
		return
	}

	ctx.Response.SetStatusCode(xhttp.StatusNoContent)
}

// AnalyzeReceipt runs the analysis synchronously and returns the result
// descriptor. The outcome status inside the body distinguishes the
// terminal analysis states, the HTTP status only reflects transport-level
// problems.
func (h *ReceiptHandler) AnalyzeReceipt(ctx *xhttp.RequestCtx) {
	id, err := pathInt64(ctx, "id")
	if err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid receipt id")
		return
	}

	var req analyzeRequest
	if body := ctx.PostBody(); len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			writeError(ctx, xhttp.StatusBadRequest, "invalid JSON: "+err.Error())
			return
		}
	}

	result := h.svc.Analyze(ctx, id, req.UserID)
	if result.NotFound {
		writeError(ctx, xhttp.StatusNotFound, "receipt not found")
		return
	}

	writeJSON(ctx, xhttp.StatusOK, result)
}

func (h *ReceiptHandler) ListCategories(ctx *xhttp.RequestCtx) {
	userID, err := paramInt64(ctx, "user_id")
	if err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "user_id is required")
		return
	}

	categories, err := h.svc.ListCategories(ctx, userID)
	if err != nil {
		writeError(ctx, xhttp.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(ctx, xhttp.StatusOK, categories)
}

/* --------------------------------- Helpers ----------------------------------- */

func writeUploadError(ctx *xhttp.RequestCtx, err error) {
	switch {
	case errors.Is(err, services.ErrUserNotFound):
		writeError(ctx, xhttp.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrImageTooLarge):
		writeError(ctx, xhttp.StatusRequestEntityTooLarge, err.Error())
	case errors.Is(err, services.ErrUnsupportedImage):
		writeError(ctx, xhttp.StatusUnsupportedMediaType, err.Error())
	default:
		writeError(ctx, xhttp.StatusBadRequest, err.Error())
	}
}

// readImage pulls the upload out of the multipart "image" field, falling
// back to the raw request body.
func readImage(ctx *xhttp.RequestCtx) ([]byte, error) {
	if fh, err := ctx.FormFile("image"); err == nil {
		f, err := fh.Open()
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return io.ReadAll(f)
	}

	body := ctx.PostBody()
	if len(body) == 0 {
		return nil, errors.New("image is required")
	}
	return body, nil
}

// formInt64 reads an integer from the multipart form, falling back to the
// query string.
func formInt64(ctx *xhttp.RequestCtx, name string) (int64, error) {
	if v := string(ctx.FormValue(name)); v != "" {
		return strconv.ParseInt(v, 10, 64)
	}
	return paramInt64(ctx, name)
}

func writeJSON(ctx *xhttp.RequestCtx, status int, v any) {
	b, _ := json.Marshal(v)
	ctx.Response.Header.Set("Content-Type", "application/json; charset=utf-8")
	ctx.Response.SetStatusCode(status)
	ctx.Response.SetBodyRaw(b)
}

func writeError(ctx *xhttp.RequestCtx, status int, msg string) {
	writeJSON(ctx, status, map[string]string{"error": msg})
}

func pathInt64(ctx *xhttp.RequestCtx, name string) (int64, error) {
	v, _ := ctx.UserValue(name).(string)
	return strconv.ParseInt(v, 10, 64)
}

func paramInt64(ctx *xhttp.RequestCtx, name string) (int64, error) {
	idStr := ctx.QueryArgs().Peek(name)
	return strconv.ParseInt(string(idStr), 10, 64)
}

func query(ctx *xhttp.RequestCtx, key string) string {
	return string(ctx.QueryArgs().Peek(key))
}

func parseTime(s string) (time.Time, error) {
	// RFC3339 or YYYY-MM-DD
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}
