package usecase_test

import (
	"context"
	"testing"
	"time"

	"peerpad/internal/modules/collab/domain"
	"peerpad/internal/modules/collab/dto"
	collabout "peerpad/internal/modules/collab/port/out"
	"peerpad/internal/modules/collab/usecase"
)

// stubService records calls and serves canned activity events.
type stubService struct {
	calls  []string
	events []domain.ActivityEvent
	query  collabout.ActivityQuery
}

func (s *stubService) note(call string) error {
	s.calls = append(s.calls, call)
	return nil
}

func (s *stubService) Run(context.Context) error { return s.note("run") }
func (s *stubService) Connect(host string, port int, project, password string, hasPassword bool) error {
	return s.note("connect")
}
func (s *stubService) ShareProject(name, password string, hasPassword bool) error {
	return s.note("share")
}
func (s *stubService) UnshareProject(name string) error { return s.note("unshare") }
func (s *stubService) OpenFile(project, pkg, filename string, lines []string) error {
	return s.note("open")
}
func (s *stubService) CloseFile(project, pkg, filename string) error { return s.note("close") }
func (s *stubService) NewFile(project, pkg, filename string) error   { return s.note("new") }
func (s *stubService) RemoveFile(project, pkg, filename string) error {
	return s.note("remove")
}
func (s *stubService) RenameFile(project, pkg, oldName, newName string) error {
	return s.note("rename")
}
func (s *stubService) ProvideFileList(project, forUser string, files []string) error {
	return s.note("filelist")
}
func (s *stubService) SendEdit(project, pkg, filename string, op domain.EditOp) error {
	return s.note("edit")
}
func (s *stubService) EditLocal(project, pkg, filename string, lines []string) error {
	return s.note("editlocal")
}
func (s *stubService) RequestSync(project, pkg, filename, fromUser string) error {
	return s.note("requestsync")
}
func (s *stubService) ProvideSync(project, pkg, filename, forUser, content string, ok bool) error {
	return s.note("providesync")
}
func (s *stubService) SendChat(project, text string) error { return s.note("chat") }
func (s *stubService) ChangeUsername(newName string) error { return s.note("nick") }
func (s *stubService) Quit() error                         { return s.note("quit") }
func (s *stubService) Status() dto.StatusOutput {
	return dto.StatusOutput{Username: "alice", Running: true}
}
func (s *stubService) ActivityTail(_ context.Context, query collabout.ActivityQuery) ([]domain.ActivityEvent, error) {
	s.query = query
	return s.events, nil
}

func TestInteractorDelegates(t *testing.T) {
	t.Parallel()
	svc := &stubService{}
	uc := usecase.NewInteractor(svc)

	if err := uc.SendChat("proj", "hi"); err != nil {
		t.Fatalf("chat: %v", err)
	}
	if err := uc.Quit(); err != nil {
		t.Fatalf("quit: %v", err)
	}
	if got := uc.Status(); !got.Running || got.Username != "alice" {
		t.Fatalf("status = %+v", got)
	}
	if len(svc.calls) != 2 || svc.calls[0] != "chat" || svc.calls[1] != "quit" {
		t.Fatalf("calls = %v", svc.calls)
	}
}

func TestInteractorMapsActivityTail(t *testing.T) {
	t.Parallel()
	at := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	svc := &stubService{events: []domain.ActivityEvent{
		{ID: "1", Project: "proj", Kind: domain.ActivityChat, Actor: "bob", Text: "hi", OccurredAt: at},
	}}
	uc := usecase.NewInteractor(svc)

	out, err := uc.ActivityTail(context.Background(), "proj", 25)
	if err != nil {
		t.Fatalf("tail: %v", err)
	}
	if svc.query.Project != "proj" || svc.query.Limit != 25 {
		t.Fatalf("query = %+v", svc.query)
	}
	if len(out) != 1 {
		t.Fatalf("got %d rows, want 1", len(out))
	}
	want := dto.ActivityOutput{Project: "proj", Kind: "chat", Actor: "bob", Text: "hi", OccurredAt: at}
	if out[0] != want {
		t.Fatalf("row = %+v, want %+v", out[0], want)
	}
}
