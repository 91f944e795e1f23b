package service

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sort"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"

	"peerpad/internal/modules/collab/domain"
	"peerpad/internal/modules/collab/dto"
	collabout "peerpad/internal/modules/collab/port/out"
	"peerpad/internal/platform/clock"
	"peerpad/internal/platform/config"
	"peerpad/internal/platform/id"
)

const (
	readPollTimeout  = 20 * time.Millisecond
	writePollTimeout = 50 * time.Millisecond
	dialTimeout      = 10 * time.Second
	commandQueueSize = 256
	dialQueueSize    = 64
)

type sessionState int

const (
	stateUnidentified sessionState = iota
	stateIdentifying
	stateIdentified
	stateDead
)

// conn is one transport endpoint. It is owned exclusively by the network
// loop; other components refer to it by its opaque handle only, because a
// conn may be torn down between iterations.
type conn struct {
	handle   string
	sock     net.Conn
	decoder  *domain.Decoder
	remote   domain.PeerAddr
	project  string
	username string
	state    sessionState
}

func (c *conn) dead() bool { return c.state == stateDead }

type pendingSend struct {
	handle string
	data   []byte
}

// dialResult is what a connect worker posts back to the loop. Workers own
// nothing but the socket they are establishing.
type dialResult struct {
	sock     net.Conn
	addr     domain.PeerAddr
	project  string
	wantList bool
	err      error
}

// timedEdit is an InsertText packet collected during one read pass, kept
// with its arrival index so sorting by logical time stays arrival-stable.
type timedEdit struct {
	pkt     domain.InsertText
	arrival int
}

// NetworkService runs the collaboration substrate: the listening socket,
// every peer connection, the per-project logical clocks and the document
// replicas all live on one loop goroutine, which is the only writer of that
// state. Auxiliary goroutines exist only for blocking connects and for the
// editor's command queue.
type NetworkService struct {
	cfg      config.Config
	log      hclog.Logger
	wall     clock.Clock
	ids      id.Generator
	events   collabout.Events
	activity collabout.ActivityStore

	listener net.Listener
	conns    map[string]*conn
	projects map[string]*domain.Project
	docs     map[string]*domain.Document
	pending  []pendingSend
	username string

	commands    chan command
	dialResults chan dialResult
	stopped     chan struct{}

	statusMu sync.RWMutex
	status   dto.StatusOutput
}

func NewNetworkService(
	cfg config.Config,
	log hclog.Logger,
	wall clock.Clock,
	ids id.Generator,
	events collabout.Events,
	activity collabout.ActivityStore,
) *NetworkService {
	return &NetworkService{
		cfg:         cfg,
		log:         log.Named("network"),
		wall:        wall,
		ids:         ids,
		events:      events,
		activity:    activity,
		conns:       make(map[string]*conn),
		projects:    make(map[string]*domain.Project),
		docs:        make(map[string]*domain.Document),
		username:    cfg.Username,
		commands:    make(chan command, commandQueueSize),
		dialResults: make(chan dialResult, dialQueueSize),
		stopped:     make(chan struct{}),
	}
}

// Run binds the listening socket and drives the poll loop until ctx is
// cancelled or a Quit command arrives. OnQuitComplete fires only after the
// loop has fully exited, so no edit is ever dispatched afterwards.
func (s *NetworkService) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.cfg.ListenAddr())
	if err != nil {
		return fmt.Errorf("bind %s: %w", s.cfg.ListenAddr(), err)
	}
	s.listener = listener
	s.log.Info("listening", "addr", listener.Addr().String())

	quitting := false
	for !quitting {
		select {
		case <-ctx.Done():
			quitting = true
			continue
		default:
		}

		s.acceptNew()
		edits := s.readSockets()
		s.applyEdits(edits)
		quitting = s.drainCommands()
		s.resolveDials()
		s.retryPending()
		s.keepAlive()
		s.reapDead()
		s.publishStatus(true)
	}

	s.shutdown()
	return nil
}

// acceptNew performs one short-deadline accept; a fresh inbound socket
// becomes an Unidentified connection.
func (s *NetworkService) acceptNew() {
	type deadliner interface{ SetDeadline(time.Time) error }
	if l, ok := s.listener.(deadliner); ok {
		_ = l.SetDeadline(time.Now().Add(s.cfg.PollTimeout))
	}
	sock, err := s.listener.Accept()
	if err != nil {
		var nerr net.Error
		if errors.As(err, &nerr) && nerr.Timeout() {
			return
		}
		s.log.Warn("accept failed", "error", err)
		return
	}
	c := s.adoptSocket(sock, stateUnidentified)
	s.log.Debug("accepted connection", "handle", c.handle, "remote", c.remote.String())
}

func (s *NetworkService) adoptSocket(sock net.Conn, state sessionState) *conn {
	host := ""
	if addr, ok := sock.RemoteAddr().(*net.TCPAddr); ok {
		host = addr.IP.String()
	}
	c := &conn{
		handle:  s.ids.New(),
		sock:    sock,
		decoder: &domain.Decoder{},
		remote:  domain.PeerAddr{Host: host},
		state:   state,
	}
	s.conns[c.handle] = c
	return c
}

// readSockets polls every live socket once. Control packets are handled
// immediately; edit packets are collected for ordering. A read failure marks
// the connection for quit processing instead of propagating.
func (s *NetworkService) readSockets() []timedEdit {
	var edits []timedEdit
	buf := make([]byte, s.cfg.ReadBuffer)

	for _, c := range s.conns {
		if c.dead() {
			continue
		}
		_ = c.sock.SetReadDeadline(time.Now().Add(readPollTimeout))
		n, err := c.sock.Read(buf)
		if err != nil {
			var nerr net.Error
			if errors.As(err, &nerr) && nerr.Timeout() {
				continue
			}
			s.log.Debug("read failed", "handle", c.handle, "error", err)
			s.markQuit(c, false)
			continue
		}

		packets, errs := c.decoder.Decode(buf[:n])
		for _, decodeErr := range errs {
			s.log.Warn("dropping garbled packet", "handle", c.handle, "error", decodeErr)
		}
		for _, pkt := range packets {
			if ins, ok := pkt.(domain.InsertText); ok {
				edits = append(edits, timedEdit{pkt: ins, arrival: len(edits)})
				continue
			}
			s.handleControl(c, pkt)
		}
	}
	return edits
}

// applyEdits orders one iteration's edit packets by logical time, arrival
// order breaking ties, and applies them. This is the protocol's only global
// ordering guarantee, bounded by clock-sync accuracy.
func (s *NetworkService) applyEdits(edits []timedEdit) {
	sort.SliceStable(edits, func(i, j int) bool {
		if edits[i].pkt.Time != edits[j].pkt.Time {
			return edits[i].pkt.Time < edits[j].pkt.Time
		}
		return edits[i].arrival < edits[j].arrival
	})

	for _, e := range edits {
		pkt := e.pkt
		if _, ok := s.projects[pkt.Project]; !ok {
			continue
		}
		doc, ok := s.docs[fileKey(pkt.Project, pkt.Package, pkt.Filename)]
		if !ok {
			// The file is not open here; it stays out of sync until a
			// resync is requested.
			continue
		}
		doc.Apply(pkt.Op)
		if doc.State() == domain.DocSyncing {
			continue
		}
		s.emitEdit(pkt.Project, pkt.Package, pkt.Filename, pkt.Op, doc.Lines())
	}
}

func (s *NetworkService) emitEdit(project, pkg, filename string, op domain.EditOp, lines []string) {
	if s.events.OnEditReceived != nil {
		s.events.OnEditReceived(project, pkg, filename, op, lines)
	}
}

// keepAlive pings every member of a project whose clock period elapsed, to
// refresh RTT estimates and flush out silently dead peers.
func (s *NetworkService) keepAlive() {
	for name, project := range s.projects {
		if !project.Clock.TimedOut() {
			continue
		}
		for _, c := range s.conns {
			if c.project == name && c.state == stateIdentified && !c.dead() {
				s.ping(c)
			}
		}
	}
}

func (s *NetworkService) ping(c *conn) {
	project, ok := s.projects[c.project]
	if !ok || c.username == "" {
		return
	}
	project.Clock.Start(c.username)
	s.send(c, domain.Ping{})
}

// markQuit transitions a connection to Dead. Removal from the socket set
// and membership lists happens on the next reap pass, never synchronously,
// so in-flight packet handling cannot race the teardown.
func (s *NetworkService) markQuit(c *conn, sayBye bool) {
	if c.dead() {
		return
	}
	if sayBye && c.project != "" {
		s.send(c, domain.Quitting{Project: c.project})
	}
	_ = c.sock.Close()

	if project, ok := s.projects[c.project]; ok && c.username != "" {
		project.RemoveMember(c.username)
		if s.events.OnUserLeft != nil {
			s.events.OnUserLeft(c.project, c.username)
		}
		s.record(domain.ActivityEvent{
			Project: c.project, Kind: domain.ActivityLeave, Actor: c.username,
		})
	}
	c.state = stateDead
}

func (s *NetworkService) reapDead() {
	for handle, c := range s.conns {
		if c.dead() {
			delete(s.conns, handle)
		}
	}
}

func (s *NetworkService) shutdown() {
	for _, c := range s.conns {
		if !c.dead() && c.project != "" {
			s.send(c, domain.Quitting{Project: c.project})
		}
		_ = c.sock.Close()
	}
	_ = s.listener.Close()
	close(s.stopped)
drain:
	for {
		select {
		case result := <-s.dialResults:
			if result.sock != nil {
				_ = result.sock.Close()
			}
		default:
			break drain
		}
	}
	s.conns = make(map[string]*conn)
	s.pending = nil
	s.publishStatus(false)
	s.log.Info("network loop stopped")
	if s.events.OnQuitComplete != nil {
		s.events.OnQuitComplete()
	}
}

// publishStatus refreshes the read-side status snapshot. The loop is the
// single writer; Status may be called from any goroutine.
func (s *NetworkService) publishStatus(running bool) {
	out := dto.StatusOutput{
		Username: s.username,
		Running:  running,
	}
	if s.listener != nil {
		out.ListenAddr = s.listener.Addr().String()
	}
	for name, project := range s.projects {
		live := 0
		for _, c := range s.conns {
			if c.project == name && !c.dead() {
				live++
			}
		}
		out.Projects = append(out.Projects, dto.ProjectStatus{
			Name:        name,
			Visible:     project.Visible,
			Members:     project.Members(),
			Connections: live,
			ClockSynced: project.Clock.Synced(),
		})
	}
	sort.Slice(out.Projects, func(i, j int) bool { return out.Projects[i].Name < out.Projects[j].Name })

	s.statusMu.Lock()
	s.status = out
	s.statusMu.Unlock()
}

func (s *NetworkService) Status() dto.StatusOutput {
	s.statusMu.RLock()
	defer s.statusMu.RUnlock()
	return s.status
}

func (s *NetworkService) record(event domain.ActivityEvent) {
	if s.activity == nil {
		return
	}
	if event.ID == "" {
		event.ID = s.ids.New()
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = s.wall.Now()
	}
	if err := s.activity.Append(context.Background(), event); err != nil {
		s.log.Warn("activity append failed", "error", err)
	}
}

func (s *NetworkService) emitError(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	s.log.Warn(msg)
	if s.events.OnError != nil {
		s.events.OnError(msg)
	}
}

func fileKey(project, pkg, filename string) string {
	return project + "\x00" + pkg + "\x00" + filename
}
