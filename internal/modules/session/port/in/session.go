package in

import (
	"context"

	"exthub/internal/modules/session/dto"
)

type Usecase interface {
	Create(ctx context.Context) (dto.SessionInfo, error)
	GetOrCreate(ctx context.Context, id string) (dto.GetOrCreateOutput, error)
	Get(ctx context.Context, id string) (dto.SessionInfo, error)
	Count(ctx context.Context) int
}
