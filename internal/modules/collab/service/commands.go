package service

import (
	"context"
	"strings"

	"peerpad/internal/modules/collab/domain"
	collabout "peerpad/internal/modules/collab/port/out"
	apperrors "peerpad/internal/platform/errors"
)

// command is one editor request handed to the loop goroutine. All mutation of
// connections, projects and documents happens there; the posting side only
// queues.
type command interface{ isCommand() }

type cmdConnect struct {
	host        string
	port        int
	project     string
	password    string
	hasPassword bool
}

type cmdShareProject struct {
	name        string
	password    string
	hasPassword bool
}

type cmdUnshareProject struct{ name string }

type cmdOpenFile struct {
	project, pkg, filename string
	lines                  []string
}

type cmdCloseFile struct{ project, pkg, filename string }

type cmdFileChange struct{ pkt domain.Packet }

type cmdProvideFileList struct {
	project, forUser string
	files            []string
}

type cmdSendEdit struct {
	project, pkg, filename string
	op                     domain.EditOp
}

type cmdEditLocal struct {
	project, pkg, filename string
	lines                  []string
}

type cmdRequestSync struct{ project, pkg, filename, fromUser string }

type cmdProvideSync struct {
	project, pkg, filename, forUser, content string
	ok                                       bool
}

type cmdSendChat struct{ project, text string }

type cmdChangeUsername struct{ newName string }

type cmdQuit struct{}

func (cmdConnect) isCommand()         {}
func (cmdShareProject) isCommand()    {}
func (cmdUnshareProject) isCommand()  {}
func (cmdOpenFile) isCommand()        {}
func (cmdCloseFile) isCommand()       {}
func (cmdFileChange) isCommand()      {}
func (cmdProvideFileList) isCommand() {}
func (cmdSendEdit) isCommand()        {}
func (cmdEditLocal) isCommand()       {}
func (cmdRequestSync) isCommand()     {}
func (cmdProvideSync) isCommand()     {}
func (cmdSendChat) isCommand()        {}
func (cmdChangeUsername) isCommand()  {}
func (cmdQuit) isCommand()            {}

func (s *NetworkService) post(c command) error {
	select {
	case <-s.stopped:
		return apperrors.ErrServiceStopped
	case s.commands <- c:
		return nil
	default:
		return apperrors.ErrServiceStopped
	}
}

// drainCommands empties the queue accumulated since the last iteration.
// Returns true once a Quit was seen; commands behind it still execute so the
// editor's final broadcasts go out before shutdown.
func (s *NetworkService) drainCommands() bool {
	quitting := false
	for {
		select {
		case cmd := <-s.commands:
			if _, ok := cmd.(cmdQuit); ok {
				quitting = true
				continue
			}
			s.execute(cmd)
		default:
			return quitting
		}
	}
}

func (s *NetworkService) execute(cmd command) {
	switch c := cmd.(type) {
	case cmdConnect:
		s.execConnect(c)
	case cmdShareProject:
		s.execShareProject(c)
	case cmdUnshareProject:
		s.execUnshareProject(c)
	case cmdOpenFile:
		s.docs[fileKey(c.project, c.pkg, c.filename)] = domain.NewDocument(c.lines, s.cfg.SearchRadius)
	case cmdCloseFile:
		delete(s.docs, fileKey(c.project, c.pkg, c.filename))
	case cmdFileChange:
		s.execFileChange(c)
	case cmdProvideFileList:
		if peer, ok := s.connByUsername(c.project, c.forUser); ok {
			s.send(peer, domain.ProjectFileList{Project: c.project, Files: c.files})
		}
	case cmdSendEdit:
		s.execSendEdit(c)
	case cmdEditLocal:
		s.execEditLocal(c)
	case cmdRequestSync:
		s.execRequestSync(c)
	case cmdProvideSync:
		if peer, ok := s.connByUsername(c.project, c.forUser); ok {
			s.streamSync(peer, c.project, c.pkg, c.filename, c.content, c.ok)
		}
	case cmdSendChat:
		s.execSendChat(c)
	case cmdChangeUsername:
		s.execChangeUsername(c)
	}
}

// ensureProject registers a project on first use. A project created through
// Connect starts visible because joining implies willingness to serve its
// members.
func (s *NetworkService) ensureProject(name, password string, hasPassword bool) *domain.Project {
	if project, ok := s.projects[name]; ok {
		return project
	}
	project := &domain.Project{
		Name:        name,
		Password:    password,
		HasPassword: hasPassword,
		Visible:     true,
		Clock:       domain.NewLogicalClock(s.wall, s.cfg.KeepAlive),
	}
	s.projects[name] = project
	return project
}

func (s *NetworkService) execConnect(c cmdConnect) {
	s.ensureProject(c.project, c.password, c.hasPassword)
	s.dialPeer(domain.PeerAddr{Host: c.host, Port: c.port}, c.project, true)
}

func (s *NetworkService) execShareProject(c cmdShareProject) {
	project := s.ensureProject(c.name, c.password, c.hasPassword)
	project.Password = c.password
	project.HasPassword = c.hasPassword
	project.Visible = true
	s.log.Info("project shared", "project", c.name)
}

// execUnshareProject says goodbye to every member and forgets the project
// and its document replicas. Peers keep collaborating among themselves.
func (s *NetworkService) execUnshareProject(c cmdUnshareProject) {
	if _, ok := s.projects[c.name]; !ok {
		return
	}
	for _, peer := range s.conns {
		if peer.project == c.name && !peer.dead() {
			s.markQuit(peer, true)
		}
	}
	delete(s.projects, c.name)
	prefix := c.name + "\x00"
	for key := range s.docs {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			delete(s.docs, key)
		}
	}
	s.log.Info("project unshared", "project", c.name)
}

func (s *NetworkService) execFileChange(c cmdFileChange) {
	var name string
	switch p := c.pkt.(type) {
	case domain.NewProjectFile:
		name = p.Project
	case domain.RemoveProjectFile:
		name = p.Project
	case domain.RenameProjectFile:
		name = p.Project
	default:
		return
	}
	if _, ok := s.projects[name]; !ok {
		return
	}
	s.broadcast(name, c.pkt)
}

// execSendEdit ships one already-built operation. The local replica applies
// it too, silently, so it stays byte-equal with what peers will compute.
func (s *NetworkService) execSendEdit(c cmdSendEdit) {
	project, ok := s.projects[c.project]
	if !ok {
		return
	}
	if doc, ok := s.docs[fileKey(c.project, c.pkg, c.filename)]; ok {
		doc.Apply(c.op)
	}
	s.broadcast(c.project, domain.InsertText{
		Time:     project.Clock.Now(),
		Project:  c.project,
		Package:  c.pkg,
		Filename: c.filename,
		Op:       c.op,
	})
}

// execEditLocal takes the editor's whole new line set, derives the minimal
// operations against the current replica and ships each one stamped with the
// project clock.
func (s *NetworkService) execEditLocal(c cmdEditLocal) {
	project, ok := s.projects[c.project]
	if !ok {
		return
	}
	doc, ok := s.docs[fileKey(c.project, c.pkg, c.filename)]
	if !ok {
		return
	}
	ops := domain.DecomposeChange(doc.Lines(), c.lines)
	doc.SetLines(c.lines)
	for _, op := range ops {
		s.broadcast(c.project, domain.InsertText{
			Time:     project.Clock.Now(),
			Project:  c.project,
			Package:  c.pkg,
			Filename: c.filename,
			Op:       op,
		})
	}
	if len(ops) > 0 {
		s.record(domain.ActivityEvent{
			Project: c.project, Kind: domain.ActivityEdit, Actor: s.username, Text: c.filename,
		})
	}
}

// execRequestSync asks one member for the file's full content. The replica
// enters the syncing state only once the request is actually on the wire;
// edits arriving in between will queue on the document.
func (s *NetworkService) execRequestSync(c cmdRequestSync) {
	if _, ok := s.projects[c.project]; !ok {
		return
	}
	peer, ok := s.connByUsername(c.project, c.fromUser)
	if !ok {
		s.emitError("cannot sync %s: user %s is not connected", c.filename, c.fromUser)
		return
	}

	key := fileKey(c.project, c.pkg, c.filename)
	doc, ok := s.docs[key]
	if !ok {
		doc = domain.NewDocument(nil, s.cfg.SearchRadius)
		s.docs[key] = doc
	}
	doc.BeginSync()
	s.send(peer, domain.RequestSync{Project: c.project, Package: c.pkg, Filename: c.filename})
}

func (s *NetworkService) execSendChat(c cmdSendChat) {
	if _, ok := s.projects[c.project]; !ok {
		return
	}
	s.broadcast(c.project, domain.ChatText{Project: c.project, Text: c.text})
	s.record(domain.ActivityEvent{
		Project: c.project, Kind: domain.ActivityChat, Actor: s.username, Text: c.text,
	})
}

func (s *NetworkService) execChangeUsername(c cmdChangeUsername) {
	oldName := s.username
	if c.newName == "" || c.newName == oldName {
		return
	}
	s.username = c.newName
	for name := range s.projects {
		s.broadcast(name, domain.ChatUsernameChanged{
			Project: name, OldName: oldName, NewName: c.newName,
		})
	}
	s.log.Info("username changed", "from", oldName, "to", c.newName)
}

// wireSafe reports whether a value can travel as one space-joined wire
// field: no whitespace, and none of the reserved pipe tokens.
func wireSafe(v string) bool {
	if strings.ContainsAny(v, " \t\r\n") {
		return false
	}
	return !strings.Contains(v, "|")
}

// The Usecase surface. Each call queues a command for the loop; the error
// reports queueing failure only, never command outcome.

func (s *NetworkService) Connect(host string, port int, project, password string, hasPassword bool) error {
	if host == "" || port <= 0 || project == "" || !wireSafe(project) {
		return apperrors.ErrInvalidInput
	}
	if hasPassword && !wireSafe(password) {
		return apperrors.ErrInvalidInput
	}
	return s.post(cmdConnect{host: host, port: port, project: project, password: password, hasPassword: hasPassword})
}

func (s *NetworkService) ShareProject(name, password string, hasPassword bool) error {
	if name == "" || !wireSafe(name) {
		return apperrors.ErrInvalidInput
	}
	if hasPassword && !wireSafe(password) {
		return apperrors.ErrInvalidInput
	}
	return s.post(cmdShareProject{name: name, password: password, hasPassword: hasPassword})
}

func (s *NetworkService) UnshareProject(name string) error {
	return s.post(cmdUnshareProject{name: name})
}

func (s *NetworkService) OpenFile(project, pkg, filename string, lines []string) error {
	return s.post(cmdOpenFile{project: project, pkg: pkg, filename: filename, lines: lines})
}

func (s *NetworkService) CloseFile(project, pkg, filename string) error {
	return s.post(cmdCloseFile{project: project, pkg: pkg, filename: filename})
}

func (s *NetworkService) NewFile(project, pkg, filename string) error {
	return s.post(cmdFileChange{pkt: domain.NewProjectFile{Project: project, Package: pkg, Filename: filename}})
}

func (s *NetworkService) RemoveFile(project, pkg, filename string) error {
	return s.post(cmdFileChange{pkt: domain.RemoveProjectFile{Project: project, Package: pkg, Filename: filename}})
}

func (s *NetworkService) RenameFile(project, pkg, oldName, newName string) error {
	return s.post(cmdFileChange{pkt: domain.RenameProjectFile{Project: project, Package: pkg, OldName: oldName, NewName: newName}})
}

func (s *NetworkService) ProvideFileList(project, forUser string, files []string) error {
	return s.post(cmdProvideFileList{project: project, forUser: forUser, files: files})
}

func (s *NetworkService) SendEdit(project, pkg, filename string, op domain.EditOp) error {
	return s.post(cmdSendEdit{project: project, pkg: pkg, filename: filename, op: op})
}

func (s *NetworkService) EditLocal(project, pkg, filename string, lines []string) error {
	return s.post(cmdEditLocal{project: project, pkg: pkg, filename: filename, lines: lines})
}

func (s *NetworkService) RequestSync(project, pkg, filename, fromUser string) error {
	return s.post(cmdRequestSync{project: project, pkg: pkg, filename: filename, fromUser: fromUser})
}

func (s *NetworkService) ProvideSync(project, pkg, filename, forUser, content string, ok bool) error {
	return s.post(cmdProvideSync{project: project, pkg: pkg, filename: filename, forUser: forUser, content: content, ok: ok})
}

func (s *NetworkService) SendChat(project, text string) error {
	return s.post(cmdSendChat{project: project, text: text})
}

func (s *NetworkService) ChangeUsername(newName string) error {
	if newName == "" || !wireSafe(newName) {
		return apperrors.ErrInvalidInput
	}
	return s.post(cmdChangeUsername{newName: newName})
}

func (s *NetworkService) Quit() error {
	return s.post(cmdQuit{})
}

func (s *NetworkService) ActivityTail(ctx context.Context, query collabout.ActivityQuery) ([]domain.ActivityEvent, error) {
	if s.activity == nil {
		return nil, nil
	}
	return s.activity.Tail(ctx, query)
}
