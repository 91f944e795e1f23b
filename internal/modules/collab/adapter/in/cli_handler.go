package in

import (
	"context"

	"peerpad/internal/modules/collab/domain"
	"peerpad/internal/modules/collab/dto"
	collabin "peerpad/internal/modules/collab/port/in"
)

type CLIHandler struct {
	usecase collabin.Usecase
}

func NewCLIHandler(usecase collabin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Run(ctx context.Context) error {
	return h.usecase.Run(ctx)
}

func (h CLIHandler) Connect(host string, port int, project, password string, hasPassword bool) error {
	return h.usecase.Connect(host, port, project, password, hasPassword)
}

func (h CLIHandler) ShareProject(name, password string, hasPassword bool) error {
	return h.usecase.ShareProject(name, password, hasPassword)
}

func (h CLIHandler) UnshareProject(name string) error {
	return h.usecase.UnshareProject(name)
}

func (h CLIHandler) OpenFile(project, pkg, filename string, lines []string) error {
	return h.usecase.OpenFile(project, pkg, filename, lines)
}

func (h CLIHandler) CloseFile(project, pkg, filename string) error {
	return h.usecase.CloseFile(project, pkg, filename)
}

func (h CLIHandler) NewFile(project, pkg, filename string) error {
	return h.usecase.NewFile(project, pkg, filename)
}

func (h CLIHandler) RemoveFile(project, pkg, filename string) error {
	return h.usecase.RemoveFile(project, pkg, filename)
}

func (h CLIHandler) RenameFile(project, pkg, oldName, newName string) error {
	return h.usecase.RenameFile(project, pkg, oldName, newName)
}

func (h CLIHandler) ProvideFileList(project, forUser string, files []string) error {
	return h.usecase.ProvideFileList(project, forUser, files)
}

func (h CLIHandler) SendEdit(project, pkg, filename string, op domain.EditOp) error {
	return h.usecase.SendEdit(project, pkg, filename, op)
}

func (h CLIHandler) EditLocal(project, pkg, filename string, lines []string) error {
	return h.usecase.EditLocal(project, pkg, filename, lines)
}

func (h CLIHandler) RequestSync(project, pkg, filename, fromUser string) error {
	return h.usecase.RequestSync(project, pkg, filename, fromUser)
}

func (h CLIHandler) ProvideSync(project, pkg, filename, forUser, content string, ok bool) error {
	return h.usecase.ProvideSync(project, pkg, filename, forUser, content, ok)
}

func (h CLIHandler) SendChat(project, text string) error {
	return h.usecase.SendChat(project, text)
}

func (h CLIHandler) ChangeUsername(newName string) error {
	return h.usecase.ChangeUsername(newName)
}

func (h CLIHandler) Quit() error {
	return h.usecase.Quit()
}

func (h CLIHandler) Status() dto.StatusOutput {
	return h.usecase.Status()
}

func (h CLIHandler) ActivityTail(ctx context.Context, project string, limit int) ([]dto.ActivityOutput, error) {
	return h.usecase.ActivityTail(ctx, project, limit)
}
