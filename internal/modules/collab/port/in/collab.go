package in

import (
	"context"

	"peerpad/internal/modules/collab/domain"
	"peerpad/internal/modules/collab/dto"
)

// Usecase is the editor-facing command surface. Commands are posted onto the
// network loop's queue and executed on its next iteration; results surface
// through the Events callbacks, never as return values. A non-nil error
// means only that the command could not be queued.
type Usecase interface {
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
	ActivityTail(ctx context.Context, project string, limit int) ([]dto.ActivityOutput, error)
}
