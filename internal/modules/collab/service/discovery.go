package service

import (
	"net"
	"strconv"
	"time"

	"peerpad/internal/modules/collab/domain"
)

// sendAddresses answers a joiner's address-list request with every other
// identified member's (host, listen port) pair. The joiner dials each one
// without requesting a further list, so addresses propagate exactly one hop
// per join.
func (s *NetworkService) sendAddresses(c *conn, projectName string) {
	pkt := domain.AddressList{Project: projectName}
	for _, other := range s.conns {
		if other.handle == c.handle || other.project != projectName || other.dead() {
			continue
		}
		if other.state != stateIdentified || other.remote.Port <= 0 {
			continue
		}
		pkt.Peers = append(pkt.Peers, other.remote)
	}
	if len(pkt.Peers) > 0 {
		s.send(c, pkt)
	}
}

// handleAddressList dials every gossiped member, throttled to one attempt
// per delay interval so a large project does not produce a connection storm.
func (s *NetworkService) handleAddressList(c *conn, p domain.AddressList) {
	if _, ok := s.projects[p.Project]; !ok {
		return
	}

	var targets []domain.PeerAddr
	for _, peer := range p.Peers {
		if s.excluded(peer) {
			continue
		}
		targets = append(targets, peer)
	}
	if len(targets) == 0 {
		return
	}

	s.log.Info("received address list", "project", p.Project, "peers", len(targets))
	throttle := s.cfg.DialThrottle
	go func() {
		for i, peer := range targets {
			if i > 0 {
				select {
				case <-s.stopped:
					return
				case <-time.After(throttle):
				}
			}
			s.dialPeer(peer, p.Project, false)
		}
	}()
}

// excluded filters loopback, unspecified and our own listen address out of
// gossip targets to prevent self-connection loops.
func (s *NetworkService) excluded(peer domain.PeerAddr) bool {
	if ip := net.ParseIP(peer.Host); ip != nil && (ip.IsLoopback() || ip.IsUnspecified()) {
		return true
	}
	return peer.Host == s.cfg.Interface && peer.Port == s.cfg.Port
}

// dialPeer starts a connect worker. The blocking dial happens off the loop;
// the outcome comes back through the handoff queue and is resolved in step
// five of the next iteration. A dial that completes after shutdown closes
// its socket instead of posting, so the remote is not left holding a
// connection that will never identify.
func (s *NetworkService) dialPeer(addr domain.PeerAddr, project string, wantList bool) {
	go func() {
		sock, err := net.DialTimeout("tcp", net.JoinHostPort(addr.Host, strconv.Itoa(addr.Port)), dialTimeout)
		result := dialResult{
			sock:     sock,
			addr:     addr,
			project:  project,
			wantList: wantList,
			err:      err,
		}
		select {
		case <-s.stopped:
			if sock != nil {
				_ = sock.Close()
			}
			return
		default:
		}
		select {
		case s.dialResults <- result:
		case <-s.stopped:
			if sock != nil {
				_ = sock.Close()
			}
		}
	}()
}

// resolveDials adopts the sockets the connect workers established. A fresh
// outbound connection enters Identifying and sends IDENTIFY at once.
func (s *NetworkService) resolveDials() {
	for {
		select {
		case result := <-s.dialResults:
			if result.err != nil {
				s.emitError("failed to connect to host %s: %v", result.addr.String(), result.err)
				continue
			}
			project, ok := s.projects[result.project]
			if !ok {
				// Project vanished while the worker was connecting.
				_ = result.sock.Close()
				continue
			}
			c := s.adoptSocket(result.sock, stateIdentifying)
			c.remote = result.addr
			s.send(c, domain.Identify{
				Project:     project.Name,
				Password:    project.Password,
				HasPassword: project.HasPassword,
				Username:    s.username,
				WantList:    result.wantList,
				ListenPort:  s.cfg.Port,
			})
		default:
			return
		}
	}
}
