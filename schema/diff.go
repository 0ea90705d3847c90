package schema

// ChangeKind classifies one difference between two schemas.
type ChangeKind uint8

const (
	ChangeAdded ChangeKind = iota + 1
	ChangeRemoved
	ChangeModified
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeAdded:
		return "added"
	case ChangeRemoved:
		return "removed"
	case ChangeModified:
		return "modified"
	default:
		return "unknown"
	}
}

// Change is one type-level difference. Old is nil for additions and New is
// nil for removals.
type Change struct {
	Old  Type
	New  Type
	Name string
	Kind ChangeKind
}

// Diff compares two schemas by type name and returns changes ordered by name.
func Diff(prev, next Schema) []Change {
	a, b := prev.Sorted(), next.Sorted()
	var changes []Change

	i, j := 0, 0
	for i < len(a) || j < len(b) {
		switch {
		case j == len(b) || (i < len(a) && Less(a[i], b[j])):
			changes = append(changes, Change{Kind: ChangeRemoved, Name: a[i].Name(), Old: a[i]})
			i++
		case i == len(a) || Less(b[j], a[i]):
			changes = append(changes, Change{Kind: ChangeAdded, Name: b[j].Name(), New: b[j]})
			j++
		default:
			if !Equal(a[i], b[j]) {
				changes = append(changes, Change{Kind: ChangeModified, Name: a[i].Name(), Old: a[i], New: b[j]})
			}
			i++
			j++
		}
	}
	return changes
}
