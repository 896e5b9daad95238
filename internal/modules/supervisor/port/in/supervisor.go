package in

import (
	"context"

	"exthub/internal/modules/supervisor/dto"
)

type Usecase interface {
	Start(ctx context.Context, input dto.StartInput) (dto.ServerInfo, error)
	Stop(ctx context.Context, serverID string) (bool, error)
	StopAll(ctx context.Context)
	Status(ctx context.Context, serverID string) dto.ServerInfo
	List(ctx context.Context) []dto.ServerInfo
}
