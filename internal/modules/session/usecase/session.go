package usecase

import (
	"context"

	"exthub/internal/modules/session/dto"
	sessionin "exthub/internal/modules/session/port/in"
	"exthub/internal/modules/session/service"
)

type Interactor struct {
	svc *service.SessionService
}

func NewInteractor(svc *service.SessionService) sessionin.Usecase {
	return &Interactor{svc: svc}
}

func (i *Interactor) Create(ctx context.Context) (dto.SessionInfo, error) {
	session, err := i.svc.Create(ctx)
	if err != nil {
		return dto.SessionInfo{}, err
	}
	return dto.SessionInfo{ID: session.ID, CreatedAt: session.CreatedAt}, nil
}

func (i *Interactor) GetOrCreate(ctx context.Context, id string) (dto.GetOrCreateOutput, error) {
	session, created, err := i.svc.GetOrCreate(ctx, id)
	if err != nil {
		return dto.GetOrCreateOutput{}, err
	}
	return dto.GetOrCreateOutput{ID: session.ID, Created: created}, nil
}

func (i *Interactor) Get(ctx context.Context, id string) (dto.SessionInfo, error) {
	session, err := i.svc.Get(ctx, id)
	if err != nil {
		return dto.SessionInfo{}, err
	}
	return dto.SessionInfo{ID: session.ID, CreatedAt: session.CreatedAt}, nil
}

func (i *Interactor) Count(ctx context.Context) int {
	return i.svc.Count(ctx)
}
