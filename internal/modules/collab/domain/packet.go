package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Reserved wire tokens. Fields are space-joined, so none of these may ever
// appear as a bare field value.
const (
	TokenEndOfPacket = "|EOP|"
	TokenDelim       = "|||"
	TokenAbsent      = "|PASS|"
	TokenError       = "|ERROR|"
	TokenSyncDone    = "|done|"
)

var (
	ErrUnknownPacket   = errors.New("unknown packet type")
	ErrTruncatedPacket = errors.New("truncated packet")
	ErrBadField        = errors.New("malformed packet field")
)

type PacketType string

const (
	TypeIdentify            PacketType = "IDENTIFY"
	TypeIdentified          PacketType = "IDENTIFIED"
	TypeDenied              PacketType = "DENIED"
	TypeAddressList         PacketType = "ADDRESSLIST"
	TypeRequestSync         PacketType = "REQUESTSYNC"
	TypeSync                PacketType = "SYNC"
	TypePing                PacketType = "PING"
	TypePong                PacketType = "PONG"
	TypeNewProjectFile      PacketType = "NEWPROJECTFILE"
	TypeRemoveProjectFile   PacketType = "REMOVEPROJECTFILE"
	TypeRenameProjectFile   PacketType = "RENAMEPROJECTFILE"
	TypeProjectFileList     PacketType = "PROJECTFILELIST"
	TypeInsertText          PacketType = "INSERTTEXT"
	TypeChatText            PacketType = "CHATTEXT"
	TypeChatUsernameChanged PacketType = "CHATUSERNAMECHANGED"
	TypeQuitting            PacketType = "QUITTING"
)

// Packet is the decoded form of one wire packet. Control packets are handled
// the moment they are read; InsertText packets are collected per loop
// iteration and ordered by logical time first.
type Packet interface {
	Type() PacketType
	fields() []string
}

type Identify struct {
	Project     string
	Password    string
	HasPassword bool
	Username    string
	WantList    bool
	ListenPort  int
}

func (Identify) Type() PacketType { return TypeIdentify }

func (p Identify) fields() []string {
	password := p.Password
	if !p.HasPassword {
		password = TokenAbsent
	}
	return []string{p.Project, password, p.Username,
		strconv.FormatBool(p.WantList), strconv.Itoa(p.ListenPort)}
}

type Identified struct {
	Project  string
	Username string
}

func (Identified) Type() PacketType { return TypeIdentified }
func (p Identified) fields() []string {
	return []string{p.Project, p.Username}
}

type Denied struct {
	Project string
}

func (Denied) Type() PacketType { return TypeDenied }
func (p Denied) fields() []string { return []string{p.Project} }

// PeerAddr is one (host, listen port) gossip entry.
type PeerAddr struct {
	Host string
	Port int
}

func (a PeerAddr) String() string {
	return fmt.Sprintf("%s:%d", a.Host, a.Port)
}

type AddressList struct {
	Project string
	Peers   []PeerAddr
}

func (AddressList) Type() PacketType { return TypeAddressList }

func (p AddressList) fields() []string {
	out := []string{p.Project}
	for _, peer := range p.Peers {
		out = append(out, peer.Host, strconv.Itoa(peer.Port))
	}
	return out
}

type RequestSync struct {
	Project  string
	Package  string
	Filename string
}

func (RequestSync) Type() PacketType { return TypeRequestSync }
func (p RequestSync) fields() []string {
	return []string{p.Project, emptyToAbsent(p.Package), p.Filename}
}

type SyncMode string

const (
	SyncInsert SyncMode = "insert"
	SyncAppend SyncMode = "append"
	SyncError  SyncMode = "error"
	SyncDone   SyncMode = "done"
)

// Sync streams one chunk of a full-file resync. The first chunk is tagged
// insert, later ones append; the transfer ends with done or error.
type Sync struct {
	Project  string
	Package  string
	Filename string
	Mode     SyncMode
	Chunk    string
}

func (Sync) Type() PacketType { return TypeSync }

func (p Sync) fields() []string {
	head := []string{p.Project, emptyToAbsent(p.Package), p.Filename}
	switch p.Mode {
	case SyncError:
		return append(head, TokenError)
	case SyncDone:
		return append(head, TokenSyncDone)
	default:
		return append(head, string(p.Mode)+p.Chunk)
	}
}

type Ping struct{}

func (Ping) Type() PacketType { return TypePing }
func (Ping) fields() []string { return []string{"-"} }

type Pong struct {
	Time Time
}

func (Pong) Type() PacketType { return TypePong }
func (p Pong) fields() []string {
	return []string{strconv.FormatInt(int64(p.Time), 10)}
}

type NewProjectFile struct {
	Project  string
	Package  string
	Filename string
}

func (NewProjectFile) Type() PacketType { return TypeNewProjectFile }
func (p NewProjectFile) fields() []string {
	return []string{p.Project, emptyToAbsent(p.Package), p.Filename}
}

type RemoveProjectFile struct {
	Project  string
	Package  string
	Filename string
}

func (RemoveProjectFile) Type() PacketType { return TypeRemoveProjectFile }
func (p RemoveProjectFile) fields() []string {
	return []string{p.Project, emptyToAbsent(p.Package), p.Filename}
}

type RenameProjectFile struct {
	Project string
	Package string
	OldName string
	NewName string
}

func (RenameProjectFile) Type() PacketType { return TypeRenameProjectFile }
func (p RenameProjectFile) fields() []string {
	return []string{p.Project, emptyToAbsent(p.Package), p.OldName, p.NewName}
}

type ProjectFileList struct {
	Project string
	Files   []string
}

func (ProjectFileList) Type() PacketType { return TypeProjectFileList }
func (p ProjectFileList) fields() []string {
	return []string{p.Project, strings.Join(p.Files, TokenDelim)}
}

// InsertText carries a single edit operation stamped with the sender's
// project time. The stated line is the sender's view and may have drifted by
// the time it is applied; see Document.Apply.
type InsertText struct {
	Time     Time
	Project  string
	Package  string
	Filename string
	Op       EditOp
}

func (InsertText) Type() PacketType { return TypeInsertText }

func (p InsertText) fields() []string {
	return []string{strconv.FormatInt(int64(p.Time), 10), p.Project,
		emptyToAbsent(p.Package), p.Filename,
		strconv.Itoa(p.Op.Line), p.Op.encode()}
}

type ChatText struct {
	Project string
	Text    string
}

func (ChatText) Type() PacketType { return TypeChatText }
func (p ChatText) fields() []string { return []string{p.Project, p.Text} }

type ChatUsernameChanged struct {
	Project string
	OldName string
	NewName string
}

func (ChatUsernameChanged) Type() PacketType { return TypeChatUsernameChanged }
func (p ChatUsernameChanged) fields() []string {
	return []string{p.Project, p.OldName, p.NewName}
}

type Quitting struct {
	Project string
}

func (Quitting) Type() PacketType { return TypeQuitting }
func (p Quitting) fields() []string { return []string{p.Project} }

func emptyToAbsent(s string) string {
	if s == "" {
		return TokenAbsent
	}
	return s
}

func absentToEmpty(s string) string {
	if s == TokenAbsent {
		return ""
	}
	return s
}
