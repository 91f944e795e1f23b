package service

import (
	"peerpad/internal/modules/collab/domain"
	collabout "peerpad/internal/modules/collab/port/out"
)

// handleControl dispatches one control packet. The match is exhaustive over
// the packet sum type; InsertText never reaches here (it is ordered first).
func (s *NetworkService) handleControl(c *conn, pkt domain.Packet) {
	switch p := pkt.(type) {
	case domain.Identify:
		s.handleIdentify(c, p)
	case domain.Identified:
		s.handleIdentified(c, p)
	case domain.Denied:
		s.emitError("connection denied on host %s for project %s", c.remote.Host, p.Project)
	case domain.AddressList:
		s.handleAddressList(c, p)
	case domain.RequestSync:
		s.handleRequestSync(c, p)
	case domain.Sync:
		s.handleSync(c, p)
	case domain.Ping:
		s.handlePing(c)
	case domain.Pong:
		s.handlePong(c, p)
	case domain.NewProjectFile:
		s.handleFileChange(c, p.Project, collabout.FileChange{
			Kind: collabout.FileCreated, Package: p.Package, Name: p.Filename,
		})
	case domain.RemoveProjectFile:
		s.handleFileChange(c, p.Project, collabout.FileChange{
			Kind: collabout.FileRemoved, Package: p.Package, Name: p.Filename,
		})
	case domain.RenameProjectFile:
		s.handleFileChange(c, p.Project, collabout.FileChange{
			Kind: collabout.FileRenamed, Package: p.Package, Name: p.OldName, NewName: p.NewName,
		})
	case domain.ProjectFileList:
		s.handleFileChange(c, p.Project, collabout.FileChange{
			Kind: collabout.FileListSet, Files: p.Files,
		})
	case domain.ChatText:
		s.handleChat(c, p)
	case domain.ChatUsernameChanged:
		s.handleUsernameChanged(c, p)
	case domain.Quitting:
		if _, ok := s.projects[p.Project]; ok {
			s.markQuit(c, false)
		}
	case domain.InsertText:
		// collected and ordered by the read pass, never dispatched here
	}
}

// handleIdentify is the server side of the handshake: an inbound connection
// presented its project, password and listen port. Success moves it straight
// from Unidentified to Identified; failure answers DENIED and leaves the
// state alone — the remote decides whether to retry or hang up.
func (s *NetworkService) handleIdentify(c *conn, p domain.Identify) {
	project, ok := s.projects[p.Project]
	if !ok || !project.Visible || !project.Authorize(p.Password, p.HasPassword) {
		s.log.Info("identify denied", "project", p.Project, "remote", c.remote.Host)
		s.send(c, domain.Denied{Project: p.Project})
		return
	}

	c.project = p.Project
	c.username = p.Username
	c.state = stateIdentified
	// Future reconnect attempts must target the peer's listening socket,
	// not the ephemeral port of this inbound connection.
	c.remote.Port = p.ListenPort

	s.admitMember(project, p.Username)
	s.send(c, domain.Identified{Project: p.Project, Username: s.username})

	if p.WantList {
		s.sendAddresses(c, p.Project)
		if s.events.OnFileListRequested != nil {
			s.events.OnFileListRequested(p.Project, p.Username)
		}
	}
}

// handleIdentified is the client side: our IDENTIFY was accepted. The first
// ping goes out immediately so clock sync starts before any edit is stamped.
func (s *NetworkService) handleIdentified(c *conn, p domain.Identified) {
	project, ok := s.projects[p.Project]
	if !ok {
		return
	}
	c.project = p.Project
	c.username = p.Username
	c.state = stateIdentified

	s.admitMember(project, p.Username)
	s.ping(c)
}

func (s *NetworkService) admitMember(project *domain.Project, username string) {
	project.AddMember(username)
	if s.events.OnUserJoined != nil {
		s.events.OnUserJoined(project.Name, username)
	}
	s.record(domain.ActivityEvent{
		Project: project.Name, Kind: domain.ActivityJoin, Actor: username,
	})
}

func (s *NetworkService) handlePing(c *conn) {
	project, ok := s.projects[c.project]
	if !ok || c.username == "" {
		return
	}
	s.send(c, domain.Pong{Time: project.Clock.Now()})
}

func (s *NetworkService) handlePong(c *conn, p domain.Pong) {
	project, ok := s.projects[c.project]
	if !ok || c.username == "" {
		return
	}
	project.Clock.Finish(c.username, p.Time)
}

func (s *NetworkService) handleFileChange(c *conn, projectName string, change collabout.FileChange) {
	if _, ok := s.projects[projectName]; !ok {
		return
	}
	change.Actor = c.username
	if s.events.OnFileListChanged != nil {
		s.events.OnFileListChanged(projectName, change)
	}
}

func (s *NetworkService) handleChat(c *conn, p domain.ChatText) {
	if _, ok := s.projects[p.Project]; !ok {
		return
	}
	if s.events.OnChatReceived != nil {
		s.events.OnChatReceived(p.Project, c.username, p.Text)
	}
	s.record(domain.ActivityEvent{
		Project: p.Project, Kind: domain.ActivityChat, Actor: c.username, Text: p.Text,
	})
}

func (s *NetworkService) handleUsernameChanged(c *conn, p domain.ChatUsernameChanged) {
	project, ok := s.projects[p.Project]
	if !ok {
		return
	}
	c.username = p.NewName
	project.RenameMember(p.OldName, p.NewName)
	if s.events.OnUsernameChanged != nil {
		s.events.OnUsernameChanged(p.Project, p.OldName, p.NewName)
	}
	s.record(domain.ActivityEvent{
		Project: p.Project, Kind: domain.ActivityRename, Actor: p.OldName, Text: p.NewName,
	})
}
