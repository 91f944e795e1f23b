package domain_test

import (
	"bytes"
	"reflect"
	"testing"

	"peerpad/internal/modules/collab/domain"
)

func roundTripPackets() []domain.Packet {
	return []domain.Packet{
		domain.Identify{Project: "proj", Password: "secret", HasPassword: true, Username: "alice", WantList: true, ListenPort: 7068},
		domain.Identify{Project: "proj", Username: "bob", ListenPort: 7069},
		domain.Identified{Project: "proj", Username: "carol"},
		domain.Denied{Project: "proj"},
		domain.AddressList{Project: "proj", Peers: []domain.PeerAddr{
			{Host: "10.0.0.2", Port: 7068},
			{Host: "10.0.0.3", Port: 7070},
		}},
		domain.RequestSync{Project: "proj", Package: "pkg", Filename: "main.go"},
		domain.Sync{Project: "proj", Filename: "main.go", Mode: domain.SyncInsert, Chunk: "package main\n"},
		domain.Sync{Project: "proj", Filename: "main.go", Mode: domain.SyncAppend, Chunk: "func main() {}\n"},
		domain.Sync{Project: "proj", Filename: "main.go", Mode: domain.SyncDone},
		domain.Sync{Project: "proj", Filename: "gone.go", Mode: domain.SyncError},
		domain.Ping{},
		domain.Pong{Time: 123456},
		domain.NewProjectFile{Project: "proj", Package: "pkg", Filename: "new.go"},
		domain.RemoveProjectFile{Project: "proj", Filename: "old.go"},
		domain.RenameProjectFile{Project: "proj", Package: "pkg", OldName: "a.go", NewName: "b.go"},
		domain.ProjectFileList{Project: "proj", Files: []string{"a.go", "b.go", "sub dir/c.go"}},
		domain.InsertText{Time: 99, Project: "proj", Filename: "main.go", Op: domain.InsertOp(3, "\tx := 1")},
		domain.InsertText{Time: 100, Project: "proj", Filename: "main.go", Op: domain.DeleteOp(2, 3)},
		domain.InsertText{Time: 101, Project: "proj", Filename: "main.go", Op: domain.ReplaceOp(5, "old line", "new line")},
		domain.InsertText{Time: 102, Project: "proj", Filename: "main.go", Op: domain.SelectOp(domain.Selection{StartLine: 1, StartCol: 2, EndLine: 3, EndCol: 4})},
		domain.ChatText{Project: "proj", Text: "hello there, world"},
		domain.ChatUsernameChanged{Project: "proj", OldName: "alice", NewName: "alice2"},
		domain.Quitting{Project: "proj"},
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	t.Parallel()
	want := roundTripPackets()

	var stream bytes.Buffer
	for _, p := range want {
		stream.Write(domain.Encode(p))
	}

	d := &domain.Decoder{}
	got, errs := d.Decode(stream.Bytes())
	if len(errs) != 0 {
		t.Fatalf("decode errors: %v", errs)
	}
	if len(got) != len(want) {
		t.Fatalf("decoded %d packets, want %d", len(got), len(want))
	}
	for i := range want {
		if !reflect.DeepEqual(got[i], want[i]) {
			t.Fatalf("packet %d: got %#v, want %#v", i, got[i], want[i])
		}
	}
}

// The stream may be split at any byte boundary; the decoder must produce the
// same packet sequence regardless.
func TestDecodeAcrossArbitrarySplits(t *testing.T) {
	t.Parallel()
	want := roundTripPackets()

	var stream bytes.Buffer
	for _, p := range want {
		stream.Write(domain.Encode(p))
	}
	raw := stream.Bytes()

	for _, chunkSize := range []int{1, 2, 3, 7, 16, 100} {
		d := &domain.Decoder{}
		var got []domain.Packet
		for start := 0; start < len(raw); start += chunkSize {
			end := start + chunkSize
			if end > len(raw) {
				end = len(raw)
			}
			packets, errs := d.Decode(raw[start:end])
			if len(errs) != 0 {
				t.Fatalf("chunk size %d: decode errors: %v", chunkSize, errs)
			}
			got = append(got, packets...)
		}
		if len(got) != len(want) {
			t.Fatalf("chunk size %d: decoded %d packets, want %d", chunkSize, len(got), len(want))
		}
		for i := range want {
			if !reflect.DeepEqual(got[i], want[i]) {
				t.Fatalf("chunk size %d, packet %d: got %#v, want %#v", chunkSize, i, got[i], want[i])
			}
		}
	}
}

// Runs of spaces inside edit text and sync chunks must survive the trip;
// other packet types may collapse them.
func TestDecodePreservesWhitespaceInText(t *testing.T) {
	t.Parallel()
	cases := []domain.Packet{
		domain.InsertText{Time: 1, Project: "p", Filename: "f", Op: domain.InsertOp(0, "a  b   c")},
		domain.InsertText{Time: 2, Project: "p", Filename: "f", Op: domain.InsertOp(0, "")},
		domain.InsertText{Time: 3, Project: "p", Filename: "f", Op: domain.ReplaceOp(0, "x  y", "y  x")},
		domain.Sync{Project: "p", Filename: "f", Mode: domain.SyncInsert, Chunk: "line one\n\n  indented"},
	}
	for _, want := range cases {
		d := &domain.Decoder{}
		got, errs := d.Decode(domain.Encode(want))
		if len(errs) != 0 {
			t.Fatalf("decode errors: %v", errs)
		}
		if len(got) != 1 || !reflect.DeepEqual(got[0], want) {
			t.Fatalf("got %#v, want %#v", got, want)
		}
	}
}

func TestDecodeDropsGarbledPacketAndContinues(t *testing.T) {
	t.Parallel()
	d := &domain.Decoder{}
	stream := []byte("BOGUS stuff |EOP| PONG notanumber |EOP| ")
	stream = append(stream, domain.Encode(domain.Ping{})...)

	got, errs := d.Decode(stream)
	if len(errs) != 2 {
		t.Fatalf("want 2 decode errors, got %d: %v", len(errs), errs)
	}
	if len(got) != 1 {
		t.Fatalf("want 1 surviving packet, got %d", len(got))
	}
	if _, ok := got[0].(domain.Ping); !ok {
		t.Fatalf("surviving packet is %#v, want Ping", got[0])
	}
}

func TestDecodeTruncatedPacket(t *testing.T) {
	t.Parallel()
	d := &domain.Decoder{}
	got, errs := d.Decode([]byte("IDENTIFIED proj |EOP| "))
	if len(got) != 0 {
		t.Fatalf("truncated packet decoded: %#v", got)
	}
	if len(errs) != 1 {
		t.Fatalf("want 1 error, got %v", errs)
	}
}

func TestDecoderPending(t *testing.T) {
	t.Parallel()
	d := &domain.Decoder{}
	if d.Pending() {
		t.Fatalf("fresh decoder should have nothing pending")
	}
	if _, errs := d.Decode([]byte("PING - ")); len(errs) != 0 {
		t.Fatalf("decode errors: %v", errs)
	}
	if !d.Pending() {
		t.Fatalf("half a packet should be pending")
	}
	got, errs := d.Decode([]byte("|EOP| "))
	if len(errs) != 0 || len(got) != 1 {
		t.Fatalf("completing the packet: got %v, errs %v", got, errs)
	}
	if d.Pending() {
		t.Fatalf("nothing should remain pending")
	}
}
