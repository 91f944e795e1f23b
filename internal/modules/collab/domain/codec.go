package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Decoder reassembles packets from a TCP byte stream. One Decoder belongs to
// exactly one connection: bytes after the last complete token, and tokens of
// a packet whose end-of-packet sentinel has not arrived yet, are retained
// here and prefixed onto the next read.
type Decoder struct {
	tokens []string
	tail   string
}

// Decode consumes one read's worth of bytes and returns every packet that is
// now complete. Garbled packets are reported as errors and dropped; they
// never abort the stream.
func (d *Decoder) Decode(data []byte) ([]Packet, []error) {
	var packets []Packet
	var errs []error

	parts := strings.Split(d.tail+string(data), " ")
	d.tail = parts[len(parts)-1]

	for _, token := range parts[:len(parts)-1] {
		switch {
		case token == TokenEndOfPacket:
			if len(d.tokens) == 0 {
				break
			}
			pkt, err := parsePacket(d.tokens)
			if err != nil {
				errs = append(errs, err)
			} else {
				packets = append(packets, pkt)
			}
			d.tokens = nil
		case token == "":
			// An empty token is a separator artifact unless the packet type
			// carries verbatim text, where it stands for a run of spaces.
			if len(d.tokens) > 0 && preservesWhitespace(PacketType(d.tokens[0])) {
				d.tokens = append(d.tokens, "")
			}
		default:
			d.tokens = append(d.tokens, token)
		}
	}
	return packets, errs
}

// Pending reports whether a partially received packet is buffered.
func (d *Decoder) Pending() bool {
	return len(d.tokens) > 0 || d.tail != ""
}

func preservesWhitespace(t PacketType) bool {
	return t == TypeInsertText || t == TypeSync
}

// Encode serializes a packet, end-of-packet sentinel included. The result of
// concatenating encoded packets decodes back to the same sequence no matter
// how the stream is split across reads.
func Encode(p Packet) []byte {
	tokens := append([]string{string(p.Type())}, p.fields()...)
	return []byte(strings.Join(tokens, " ") + " " + TokenEndOfPacket + " ")
}

func parsePacket(tokens []string) (Packet, error) {
	typ := PacketType(tokens[0])
	args := tokens[1:]

	switch typ {
	case TypeIdentify:
		if err := wantArgs(typ, args, 5); err != nil {
			return nil, err
		}
		port, err := strconv.Atoi(args[4])
		if err != nil {
			return nil, fmt.Errorf("%w: %s listen port %q", ErrBadField, typ, args[4])
		}
		return Identify{
			Project:     args[0],
			Password:    absentToEmpty(args[1]),
			HasPassword: args[1] != TokenAbsent,
			Username:    args[2],
			WantList:    args[3] == "true",
			ListenPort:  port,
		}, nil

	case TypeIdentified:
		if err := wantArgs(typ, args, 2); err != nil {
			return nil, err
		}
		return Identified{Project: args[0], Username: args[1]}, nil

	case TypeDenied:
		if err := wantArgs(typ, args, 1); err != nil {
			return nil, err
		}
		return Denied{Project: args[0]}, nil

	case TypeAddressList:
		if err := wantArgs(typ, args, 1); err != nil {
			return nil, err
		}
		if len(args)%2 == 0 {
			return nil, fmt.Errorf("%w: %s has an unpaired address", ErrBadField, typ)
		}
		p := AddressList{Project: args[0]}
		for i := 1; i < len(args)-1; i += 2 {
			port, err := strconv.Atoi(args[i+1])
			if err != nil {
				return nil, fmt.Errorf("%w: %s port %q", ErrBadField, typ, args[i+1])
			}
			p.Peers = append(p.Peers, PeerAddr{Host: args[i], Port: port})
		}
		return p, nil

	case TypeRequestSync:
		if err := wantArgs(typ, args, 3); err != nil {
			return nil, err
		}
		return RequestSync{Project: args[0], Package: absentToEmpty(args[1]), Filename: args[2]}, nil

	case TypeSync:
		if err := wantArgs(typ, args, 4); err != nil {
			return nil, err
		}
		p := Sync{Project: args[0], Package: absentToEmpty(args[1]), Filename: args[2]}
		rest := strings.Join(args[3:], " ")
		switch {
		case rest == TokenError:
			p.Mode = SyncError
		case rest == TokenSyncDone:
			p.Mode = SyncDone
		case strings.HasPrefix(rest, string(SyncInsert)):
			p.Mode, p.Chunk = SyncInsert, rest[len(SyncInsert):]
		case strings.HasPrefix(rest, string(SyncAppend)):
			p.Mode, p.Chunk = SyncAppend, rest[len(SyncAppend):]
		default:
			return nil, fmt.Errorf("%w: %s chunk mode", ErrBadField, typ)
		}
		return p, nil

	case TypePing:
		return Ping{}, nil

	case TypePong:
		if err := wantArgs(typ, args, 1); err != nil {
			return nil, err
		}
		t, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s time %q", ErrBadField, typ, args[0])
		}
		return Pong{Time: Time(t)}, nil

	case TypeNewProjectFile:
		if err := wantArgs(typ, args, 3); err != nil {
			return nil, err
		}
		return NewProjectFile{Project: args[0], Package: absentToEmpty(args[1]), Filename: args[2]}, nil

	case TypeRemoveProjectFile:
		if err := wantArgs(typ, args, 3); err != nil {
			return nil, err
		}
		return RemoveProjectFile{Project: args[0], Package: absentToEmpty(args[1]), Filename: args[2]}, nil

	case TypeRenameProjectFile:
		if err := wantArgs(typ, args, 4); err != nil {
			return nil, err
		}
		return RenameProjectFile{Project: args[0], Package: absentToEmpty(args[1]), OldName: args[2], NewName: args[3]}, nil

	case TypeProjectFileList:
		if err := wantArgs(typ, args, 2); err != nil {
			return nil, err
		}
		p := ProjectFileList{Project: args[0]}
		for _, f := range strings.Split(strings.Join(args[1:], " "), TokenDelim) {
			if f != "" {
				p.Files = append(p.Files, f)
			}
		}
		return p, nil

	case TypeInsertText:
		if err := wantArgs(typ, args, 6); err != nil {
			return nil, err
		}
		t, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s time %q", ErrBadField, typ, args[0])
		}
		line, err := strconv.Atoi(args[4])
		if err != nil {
			return nil, fmt.Errorf("%w: %s line %q", ErrBadField, typ, args[4])
		}
		op, err := parseEditOp(line, args[5:])
		if err != nil {
			return nil, err
		}
		return InsertText{
			Time:     Time(t),
			Project:  args[1],
			Package:  absentToEmpty(args[2]),
			Filename: args[3],
			Op:       op,
		}, nil

	case TypeChatText:
		if err := wantArgs(typ, args, 2); err != nil {
			return nil, err
		}
		return ChatText{Project: args[0], Text: strings.Join(args[1:], " ")}, nil

	case TypeChatUsernameChanged:
		if err := wantArgs(typ, args, 3); err != nil {
			return nil, err
		}
		return ChatUsernameChanged{Project: args[0], OldName: args[1], NewName: args[2]}, nil

	case TypeQuitting:
		if err := wantArgs(typ, args, 1); err != nil {
			return nil, err
		}
		return Quitting{Project: args[0]}, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownPacket, tokens[0])
}

func wantArgs(typ PacketType, args []string, n int) error {
	if len(args) < n {
		return fmt.Errorf("%w: %s needs %d fields, got %d", ErrTruncatedPacket, typ, n, len(args))
	}
	return nil
}
