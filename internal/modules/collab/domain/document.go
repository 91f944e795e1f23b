package domain

import "strings"

type DocState string

const (
	DocNormal  DocState = "normal"
	DocSyncing DocState = "syncing"
)

// Document is the line-based replica a project member keeps for one file.
// It is mutated from two sides: local edits made by the owner and remote
// operations delivered in logical-time order. Remote line indices may have
// drifted by the time they arrive; Apply compensates where it can (REPLACE)
// and accepts the drift where it cannot (INSERT, DELETE).
type Document struct {
	lines  []string
	state  DocState
	queued []EditOp
	radius int

	// accumulating full-file resync content between insert and done
	syncBuf strings.Builder
}

func NewDocument(lines []string, searchRadius int) *Document {
	d := &Document{state: DocNormal, radius: searchRadius}
	d.lines = append(d.lines, lines...)
	return d
}

func (d *Document) Lines() []string {
	out := make([]string, len(d.lines))
	copy(out, d.lines)
	return out
}

func (d *Document) SetLines(lines []string) {
	d.lines = append(d.lines[:0:0], lines...)
}

func (d *Document) State() DocState { return d.state }

// Apply performs one remote operation. While the document is syncing the
// operation is queued instead and replayed in arrival order once the
// transfer completes.
func (d *Document) Apply(op EditOp) {
	if d.state == DocSyncing {
		d.queued = append(d.queued, op)
		return
	}

	switch op.Kind {
	case EditInsert:
		d.insert(op.Line, op.Text)
	case EditDelete:
		count := op.Count
		if count < 1 {
			count = 1
		}
		d.remove(op.Line, count)
	case EditReplace:
		d.replace(op)
	case EditSelect:
		d.removeSelection(op.Sel)
	}
}

func (d *Document) insert(line int, text string) {
	line = clamp(line, 0, len(d.lines))
	d.lines = append(d.lines, "")
	copy(d.lines[line+1:], d.lines[line:])
	d.lines[line] = text
}

func (d *Document) remove(line, count int) {
	if line < 0 || line >= len(d.lines) {
		return
	}
	end := clamp(line+count, line, len(d.lines))
	d.lines = append(d.lines[:line], d.lines[end:]...)
}

// replace resolves line drift before overwriting: the stated index is
// trusted only if the operation carries no fingerprint of the sender's old
// content. Otherwise the stated line and then its neighbours out to the
// configured radius are checked for an exact match on the old content, and
// the first match wins. With no match inside the window the stated index is
// used as a best-effort fallback.
func (d *Document) replace(op EditOp) {
	if len(d.lines) == 0 {
		d.lines = append(d.lines, op.Text)
		return
	}

	line := clamp(op.Line, 0, len(d.lines)-1)
	if op.HasOld {
		if match, ok := d.findLine(op.Line, op.OldText); ok {
			line = match
		}
	}
	d.lines[line] = op.Text
}

// findLine searches the stated index, then ±1, ±2, … out to the radius.
func (d *Document) findLine(line int, content string) (int, bool) {
	if line >= 0 && line < len(d.lines) && d.lines[line] == content {
		return line, true
	}
	for offset := 1; offset <= d.radius; offset++ {
		for _, candidate := range []int{line + offset, line - offset} {
			if candidate >= 0 && candidate < len(d.lines) && d.lines[candidate] == content {
				return candidate, true
			}
		}
	}
	return 0, false
}

// removeSelection deletes a line/column range, clamping a range that now
// extends past the end of the document instead of erroring.
func (d *Document) removeSelection(sel Selection) {
	if len(d.lines) == 0 {
		return
	}
	start := clamp(sel.StartLine, 0, len(d.lines)-1)
	end := clamp(sel.EndLine, start, len(d.lines)-1)

	head := d.lines[start]
	startCol := clamp(sel.StartCol, 0, len(head))
	tail := d.lines[end]
	endCol := clamp(sel.EndCol, 0, len(tail))

	merged := head[:startCol] + tail[endCol:]
	d.lines = append(d.lines[:start], d.lines[end+1:]...)
	d.insert(start, merged)
}

// BeginSync puts the document into the syncing state: a full-file transfer
// is underway and incoming edits must not interleave with it.
func (d *Document) BeginSync() {
	d.state = DocSyncing
	d.syncBuf.Reset()
}

// ApplySyncChunk folds one SYNC packet into the pending transfer. It returns
// true once the transfer is finished (done or error) and the document is
// back to normal, with queued edits replayed in arrival order.
func (d *Document) ApplySyncChunk(mode SyncMode, chunk string) bool {
	if d.state != DocSyncing {
		return false
	}
	switch mode {
	case SyncInsert:
		d.syncBuf.Reset()
		d.syncBuf.WriteString(chunk)
		return false
	case SyncAppend:
		d.syncBuf.WriteString(chunk)
		return false
	case SyncDone:
		d.SetLines(SplitLines(d.syncBuf.String()))
		d.finishSync()
		return true
	default: // SyncError
		d.finishSync()
		return true
	}
}

func (d *Document) finishSync() {
	d.state = DocNormal
	d.syncBuf.Reset()
	queued := d.queued
	d.queued = nil
	for _, op := range queued {
		d.Apply(op)
	}
}

// SplitLines breaks file content into the line list documents operate on.
// A trailing newline does not produce a phantom empty last line.
func SplitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
