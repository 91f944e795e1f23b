package service

import "peerpad/internal/modules/collab/domain"

// handleRequestSync forwards a peer's resync request to the editor, which
// answers with ProvideSync once it has produced the file content.
func (s *NetworkService) handleRequestSync(c *conn, p domain.RequestSync) {
	if _, ok := s.projects[p.Project]; !ok {
		return
	}
	if s.events.OnSyncRequested != nil {
		s.events.OnSyncRequested(c.username, p.Project, p.Package, p.Filename)
	}
}

// handleSync folds one incoming resync chunk into the syncing document.
// Edits that arrived mid-transfer were queued by the document and replay
// once the done marker lands.
func (s *NetworkService) handleSync(c *conn, p domain.Sync) {
	if _, ok := s.projects[p.Project]; !ok {
		return
	}
	doc, ok := s.docs[fileKey(p.Project, p.Package, p.Filename)]
	if !ok || doc.State() != domain.DocSyncing {
		return
	}

	if p.Mode == domain.SyncError {
		s.emitError("sync of %s failed on the remote side", p.Filename)
	}
	if s.events.OnSyncChunk != nil && (p.Mode == domain.SyncInsert || p.Mode == domain.SyncAppend) {
		s.events.OnSyncChunk(p.Project, p.Package, p.Filename, p.Mode, p.Chunk)
	}

	if doc.ApplySyncChunk(p.Mode, p.Chunk) {
		if s.events.OnSyncDone != nil {
			s.events.OnSyncDone(p.Project, p.Package, p.Filename, doc.Lines())
		}
	}
}

// streamSync sends a whole file in fixed-size chunks: the first tagged
// insert, the rest append, then the done terminator. A file the editor could
// not produce is answered with the error marker instead.
func (s *NetworkService) streamSync(c *conn, project, pkg, filename, content string, ok bool) {
	if !ok {
		s.send(c, domain.Sync{Project: project, Package: pkg, Filename: filename, Mode: domain.SyncError})
		return
	}

	mode := domain.SyncInsert
	size := s.cfg.SyncChunkSize
	for len(content) > 0 {
		chunk := content
		if len(chunk) > size {
			chunk = content[:size]
		}
		s.send(c, domain.Sync{Project: project, Package: pkg, Filename: filename, Mode: mode, Chunk: chunk})
		content = content[len(chunk):]
		mode = domain.SyncAppend
	}
	s.send(c, domain.Sync{Project: project, Package: pkg, Filename: filename, Mode: domain.SyncDone})
}
