package out

import (
	"context"
	"time"

	"peerpad/internal/modules/collab/domain"
)

// FileChangeKind enumerates project file inventory changes.
type FileChangeKind string

const (
	FileCreated FileChangeKind = "created"
	FileRemoved FileChangeKind = "removed"
	FileRenamed FileChangeKind = "renamed"
	FileListSet FileChangeKind = "list"
)

type FileChange struct {
	Kind    FileChangeKind
	Actor   string
	Package string
	Name    string
	NewName string
	// Files is set for FileListSet only.
	Files []string
}

// Events is the outbound callback surface toward the editor. Every callback
// is invoked from the network loop goroutine; handlers must not block and
// must not call back into the loop synchronously — post a command instead.
// Nil callbacks are skipped.
type Events struct {
	OnEditReceived      func(project, pkg, filename string, op domain.EditOp, lines []string)
	OnFileListChanged   func(project string, change FileChange)
	OnFileListRequested func(project, forUser string)
	OnUserJoined        func(project, username string)
	OnUserLeft          func(project, username string)
	OnUsernameChanged   func(project, oldName, newName string)
	OnSyncRequested     func(fromUser, project, pkg, filename string)
	OnSyncChunk         func(project, pkg, filename string, mode domain.SyncMode, chunk string)
	OnSyncDone          func(project, pkg, filename string, lines []string)
	OnChatReceived      func(project, username, text string)
	OnError             func(message string)
	OnQuitComplete      func()
}

type ActivityQuery struct {
	Project string
	Since   time.Time
	Limit   int
}

// ActivityStore journals chat, membership and edit traffic per project.
type ActivityStore interface {
	Append(ctx context.Context, event domain.ActivityEvent) error
	Tail(ctx context.Context, query ActivityQuery) ([]domain.ActivityEvent, error)
	Close() error
}
