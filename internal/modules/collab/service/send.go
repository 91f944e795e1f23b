package service

import (
	"errors"
	"net"
	"time"

	"peerpad/internal/modules/collab/domain"
)

// send encodes and writes one packet. A write that cannot complete in time
// queues the unwritten remainder for retry; a hard socket error takes the
// connection down the quit path and, when the peer is still an identified
// project member, schedules one reconnection attempt to its listen address.
// A connection that already has queued data is never written directly: the
// new packet goes behind the remainder, otherwise its bytes would land in
// the middle of the half-written frame and garble both packets.
func (s *NetworkService) send(c *conn, pkt domain.Packet) {
	if c.dead() {
		return
	}
	data := domain.Encode(pkt)
	if s.hasPending(c.handle) {
		s.pending = append(s.pending, pendingSend{handle: c.handle, data: data})
		return
	}
	s.sendBytes(c, data)
}

func (s *NetworkService) hasPending(handle string) bool {
	for _, p := range s.pending {
		if p.handle == handle {
			return true
		}
	}
	return false
}

func (s *NetworkService) sendBytes(c *conn, data []byte) {
	_ = c.sock.SetWriteDeadline(time.Now().Add(writePollTimeout))
	n, err := c.sock.Write(data)
	if err == nil {
		return
	}

	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		s.pending = append(s.pending, pendingSend{handle: c.handle, data: data[n:]})
		return
	}

	s.log.Debug("write failed", "handle", c.handle, "error", err)
	redial := c.state == stateIdentified && c.project != ""
	project, username := c.project, c.username
	remote := c.remote
	s.markQuit(c, false)

	if redial {
		if p, ok := s.projects[project]; ok && p.Visible && remote.Port > 0 {
			s.log.Info("reconnecting to lost peer", "peer", username, "addr", remote.String())
			s.dialPeer(remote, project, false)
		}
	}
}

// retryPending retries each queued failed write exactly once this iteration,
// in queue order. A retry that times out again re-queues via sendBytes, and
// the rest of that connection's entries are held back behind it so the
// stream stays in frame; success or a dead connection removes the entry.
func (s *NetworkService) retryPending() {
	queued := s.pending
	s.pending = nil
	blocked := make(map[string]bool)
	for _, p := range queued {
		c, ok := s.conns[p.handle]
		if !ok || c.dead() {
			continue
		}
		if blocked[p.handle] {
			s.pending = append(s.pending, p)
			continue
		}
		s.sendBytes(c, p.data)
		if s.hasPending(p.handle) {
			blocked[p.handle] = true
		}
	}
}

// broadcast sends a packet to every identified member connection of a
// project.
func (s *NetworkService) broadcast(project string, pkt domain.Packet) {
	for _, c := range s.conns {
		if c.project == project && c.state == stateIdentified && !c.dead() {
			s.send(c, pkt)
		}
	}
}

func (s *NetworkService) connByUsername(project, username string) (*conn, bool) {
	for _, c := range s.conns {
		if c.project == project && c.username == username && !c.dead() {
			return c, true
		}
	}
	return nil, false
}
