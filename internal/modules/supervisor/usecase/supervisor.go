package usecase

import (
	"context"

	"exthub/internal/modules/supervisor/domain"
	"exthub/internal/modules/supervisor/dto"
	supin "exthub/internal/modules/supervisor/port/in"
	"exthub/internal/modules/supervisor/service"
)

type Interactor struct {
	svc *service.SupervisorService
}

func NewInteractor(svc *service.SupervisorService) supin.Usecase {
	return &Interactor{svc: svc}
}

func (i *Interactor) Start(ctx context.Context, input dto.StartInput) (dto.ServerInfo, error) {
	handle, err := i.svc.StartProcess(ctx, input.ServerID, domain.SpawnSpec{
		Command: input.Command,
		Args:    input.Args,
		Env:     input.Env,
		Dir:     input.Dir,
	})
	if err != nil {
		return dto.ServerInfo{}, err
	}
	return toServerInfo(handle), nil
}

func (i *Interactor) Stop(ctx context.Context, serverID string) (bool, error) {
	return i.svc.StopProcess(ctx, serverID)
}

func (i *Interactor) StopAll(ctx context.Context) {
	i.svc.StopAllProcesses(ctx)
}

func (i *Interactor) Status(ctx context.Context, serverID string) dto.ServerInfo {
	return toServerInfo(i.svc.Status(ctx, serverID))
}

func (i *Interactor) List(ctx context.Context) []dto.ServerInfo {
	handles := i.svc.List(ctx)
	out := make([]dto.ServerInfo, 0, len(handles))
	for _, handle := range handles {
		out = append(out, toServerInfo(handle))
	}
	return out
}

func toServerInfo(handle domain.Handle) dto.ServerInfo {
	return dto.ServerInfo{
		ServerID:  handle.ServerID,
		PID:       handle.PID,
		State:     string(handle.State),
		StartedAt: handle.StartedAt,
	}
}
