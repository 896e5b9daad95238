package in

import (
	"context"

	"exthub/internal/modules/session/dto"
	sessionin "exthub/internal/modules/session/port/in"
)

type CLIHandler struct {
	usecase sessionin.Usecase
}

func NewCLIHandler(usecase sessionin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Create(ctx context.Context) (dto.SessionInfo, error) {
	return h.usecase.Create(ctx)
}

func (h CLIHandler) GetOrCreate(ctx context.Context, id string) (dto.GetOrCreateOutput, error) {
	return h.usecase.GetOrCreate(ctx, id)
}

func (h CLIHandler) Get(ctx context.Context, id string) (dto.SessionInfo, error) {
	return h.usecase.Get(ctx, id)
}

func (h CLIHandler) Count(ctx context.Context) int {
	return h.usecase.Count(ctx)
}
