package in

import (
	"context"

	"exthub/internal/modules/supervisor/dto"
	supin "exthub/internal/modules/supervisor/port/in"
)

type CLIHandler struct {
	usecase supin.Usecase
}

func NewCLIHandler(usecase supin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Start(ctx context.Context, input dto.StartInput) (dto.ServerInfo, error) {
	return h.usecase.Start(ctx, input)
}

func (h CLIHandler) Stop(ctx context.Context, serverID string) (bool, error) {
	return h.usecase.Stop(ctx, serverID)
}

func (h CLIHandler) StopAll(ctx context.Context) {
	h.usecase.StopAll(ctx)
}

func (h CLIHandler) Status(ctx context.Context, serverID string) dto.ServerInfo {
	return h.usecase.Status(ctx, serverID)
}

func (h CLIHandler) List(ctx context.Context) []dto.ServerInfo {
	return h.usecase.List(ctx)
}
