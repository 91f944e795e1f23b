package usecase

import (
	"context"

	"peerpad/internal/modules/collab/domain"
	"peerpad/internal/modules/collab/dto"
	collabin "peerpad/internal/modules/collab/port/in"
	collabout "peerpad/internal/modules/collab/port/out"
)

type servicePort interface {
	Run(ctx context.Context) error
	Connect(host string, port int, project, password string, hasPassword bool) error
	ShareProject(name, password string, hasPassword bool) error
	UnshareProject(name string) error
	OpenFile(project, pkg, filename string, lines []string) error
	CloseFile(project, pkg, filename string) error
	NewFile(project, pkg, filename string) error
	RemoveFile(project, pkg, filename string) error
	RenameFile(project, pkg, oldName, newName string) error
	ProvideFileList(project, forUser string, files []string) error
	SendEdit(project, pkg, filename string, op domain.EditOp) error
	EditLocal(project, pkg, filename string, lines []string) error
	RequestSync(project, pkg, filename, fromUser string) error
	ProvideSync(project, pkg, filename, forUser, content string, ok bool) error
	SendChat(project, text string) error
	ChangeUsername(newName string) error
	Quit() error
	Status() dto.StatusOutput
	ActivityTail(ctx context.Context, query collabout.ActivityQuery) ([]domain.ActivityEvent, error)
}

type Interactor struct {
	svc servicePort
}

func NewInteractor(svc servicePort) collabin.Usecase {
	return &Interactor{svc: svc}
}

func (i *Interactor) Run(ctx context.Context) error {
	return i.svc.Run(ctx)
}

func (i *Interactor) Connect(host string, port int, project, password string, hasPassword bool) error {
	return i.svc.Connect(host, port, project, password, hasPassword)
}

func (i *Interactor) ShareProject(name, password string, hasPassword bool) error {
	return i.svc.ShareProject(name, password, hasPassword)
}

func (i *Interactor) UnshareProject(name string) error {
	return i.svc.UnshareProject(name)
}

func (i *Interactor) OpenFile(project, pkg, filename string, lines []string) error {
	return i.svc.OpenFile(project, pkg, filename, lines)
}

func (i *Interactor) CloseFile(project, pkg, filename string) error {
	return i.svc.CloseFile(project, pkg, filename)
}

func (i *Interactor) NewFile(project, pkg, filename string) error {
	return i.svc.NewFile(project, pkg, filename)
}

func (i *Interactor) RemoveFile(project, pkg, filename string) error {
	return i.svc.RemoveFile(project, pkg, filename)
}

func (i *Interactor) RenameFile(project, pkg, oldName, newName string) error {
	return i.svc.RenameFile(project, pkg, oldName, newName)
}

func (i *Interactor) ProvideFileList(project, forUser string, files []string) error {
	return i.svc.ProvideFileList(project, forUser, files)
}

func (i *Interactor) SendEdit(project, pkg, filename string, op domain.EditOp) error {
	return i.svc.SendEdit(project, pkg, filename, op)
}

func (i *Interactor) EditLocal(project, pkg, filename string, lines []string) error {
	return i.svc.EditLocal(project, pkg, filename, lines)
}

func (i *Interactor) RequestSync(project, pkg, filename, fromUser string) error {
	return i.svc.RequestSync(project, pkg, filename, fromUser)
}

func (i *Interactor) ProvideSync(project, pkg, filename, forUser, content string, ok bool) error {
	return i.svc.ProvideSync(project, pkg, filename, forUser, content, ok)
}

func (i *Interactor) SendChat(project, text string) error {
	return i.svc.SendChat(project, text)
}

func (i *Interactor) ChangeUsername(newName string) error {
	return i.svc.ChangeUsername(newName)
}

func (i *Interactor) Quit() error {
	return i.svc.Quit()
}

func (i *Interactor) Status() dto.StatusOutput {
	return i.svc.Status()
}

func (i *Interactor) ActivityTail(ctx context.Context, project string, limit int) ([]dto.ActivityOutput, error) {
	events, err := i.svc.ActivityTail(ctx, collabout.ActivityQuery{Project: project, Limit: limit})
	if err != nil {
		return nil, err
	}
	out := make([]dto.ActivityOutput, 0, len(events))
	for _, event := range events {
		out = append(out, dto.ActivityOutput{
			Project:    event.Project,
			Kind:       string(event.Kind),
			Actor:      event.Actor,
			Text:       event.Text,
			OccurredAt: event.OccurredAt,
		})
	}
	return out, nil
}
