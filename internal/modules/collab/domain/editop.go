package domain

import (
	"fmt"
	"strconv"
	"strings"
)

type EditKind string

const (
	EditInsert  EditKind = "INSERT"
	EditDelete  EditKind = "DELETE"
	EditReplace EditKind = "REPLACE"
	EditSelect  EditKind = "SELECT"
)

// Selection is a line/column range removed by a SELECT operation.
type Selection struct {
	StartLine int
	StartCol  int
	EndLine   int
	EndCol    int
}

// EditOp is one primitive remote edit. Line is the index as the sender saw
// it; for REPLACE, OldText is the sender's previous line content and anchors
// the drift search in Document.Apply.
type EditOp struct {
	Kind    EditKind
	Line    int
	Text    string
	OldText string
	HasOld  bool
	Count   int
	Sel     Selection
}

func InsertOp(line int, text string) EditOp {
	return EditOp{Kind: EditInsert, Line: line, Text: text}
}

func DeleteOp(line, count int) EditOp {
	return EditOp{Kind: EditDelete, Line: line, Count: count}
}

func ReplaceOp(line int, oldText, newText string) EditOp {
	return EditOp{Kind: EditReplace, Line: line, Text: newText, OldText: oldText, HasOld: true}
}

func SelectOp(sel Selection) EditOp {
	return EditOp{Kind: EditSelect, Sel: sel}
}

// encode renders the operation as the trailing field run of an INSERTTEXT
// packet. Text payloads may contain spaces; the codec preserves them.
func (op EditOp) encode() string {
	switch op.Kind {
	case EditInsert:
		return string(EditInsert) + " " + op.Text
	case EditDelete:
		if op.Count > 1 {
			return string(EditDelete) + " " + strconv.Itoa(op.Count)
		}
		return string(EditDelete)
	case EditReplace:
		if op.HasOld {
			return string(EditReplace) + " " + op.OldText + TokenDelim + op.Text
		}
		return string(EditReplace) + " " + op.Text
	case EditSelect:
		return fmt.Sprintf("%s %d %d %d %d", EditSelect,
			op.Sel.StartLine, op.Sel.StartCol, op.Sel.EndLine, op.Sel.EndCol)
	}
	return ""
}

func parseEditOp(line int, tokens []string) (EditOp, error) {
	kind := EditKind(tokens[0])
	rest := strings.Join(tokens[1:], " ")

	switch kind {
	case EditInsert:
		return EditOp{Kind: EditInsert, Line: line, Text: rest}, nil

	case EditDelete:
		op := EditOp{Kind: EditDelete, Line: line, Count: 1}
		if rest != "" {
			count, err := strconv.Atoi(rest)
			if err != nil || count < 1 {
				return EditOp{}, fmt.Errorf("%w: DELETE count %q", ErrBadField, rest)
			}
			op.Count = count
		}
		return op, nil

	case EditReplace:
		op := EditOp{Kind: EditReplace, Line: line}
		if old, newText, found := strings.Cut(rest, TokenDelim); found {
			op.OldText, op.Text, op.HasOld = old, newText, true
		} else {
			op.Text = rest
		}
		return op, nil

	case EditSelect:
		parts := strings.Fields(rest)
		if len(parts) != 4 {
			return EditOp{}, fmt.Errorf("%w: SELECT wants 4 coordinates, got %d", ErrBadField, len(parts))
		}
		coords := make([]int, 4)
		for i, p := range parts {
			n, err := strconv.Atoi(p)
			if err != nil || n < 0 {
				return EditOp{}, fmt.Errorf("%w: SELECT coordinate %q", ErrBadField, p)
			}
			coords[i] = n
		}
		return EditOp{Kind: EditSelect, Line: line, Sel: Selection{
			StartLine: coords[0], StartCol: coords[1],
			EndLine: coords[2], EndCol: coords[3],
		}}, nil
	}

	return EditOp{}, fmt.Errorf("%w: edit kind %q", ErrBadField, tokens[0])
}

// DecomposeChange diffs a document's line list before and after one local
// change and returns the primitive operations that reproduce it remotely.
// The changed region is bounded by the first and last differing lines and
// classified as a pure insertion, a pure deletion, or a replacement run; a
// region that grew or shrank while also changing content becomes a deletion
// of the old region followed by insertions of the new one.
func DecomposeChange(before, after []string) []EditOp {
	first := 0
	for first < len(before) && first < len(after) && before[first] == after[first] {
		first++
	}
	lastB, lastA := len(before)-1, len(after)-1
	for lastB >= first && lastA >= first && before[lastB] == after[lastA] {
		lastB--
		lastA--
	}

	switch {
	case lastB < first && lastA < first:
		return nil

	case lastB < first:
		ops := make([]EditOp, 0, lastA-first+1)
		for line := first; line <= lastA; line++ {
			ops = append(ops, InsertOp(line, after[line]))
		}
		return ops

	case lastA < first:
		return []EditOp{DeleteOp(first, lastB-first+1)}

	case lastB == lastA:
		ops := make([]EditOp, 0, lastA-first+1)
		for line := first; line <= lastA; line++ {
			ops = append(ops, ReplaceOp(line, before[line], after[line]))
		}
		return ops

	default:
		ops := []EditOp{DeleteOp(first, lastB-first+1)}
		for line := first; line <= lastA; line++ {
			ops = append(ops, InsertOp(line, after[line]))
		}
		return ops
	}
}
