package social

// Direction reports which way a toggle moved a member
type Direction string

const (
	Added   Direction = "added"
	Removed Direction = "removed"
)

// Toggle removes id from set if present, otherwise appends it. Every
// like, retweet, bookmark and follow mutation goes through here.
func Toggle(set *[]string, id string) Direction {
	if i := indexOf(*set, id); i >= 0 {
		*set = removeAt(*set, i)
		return Removed
	}
	*set = append(*set, id)
	return Added
}

// Apply forces set into the state dir describes: present after Added, absent
// after Removed. It reports whether set changed. The follow manager uses it
// to move the second side of a relation in the direction the first toggle
// chose, even if the two sides had drifted apart.
func Apply(set *[]string, id string, dir Direction) bool {
	i := indexOf(*set, id)
	switch dir {
	case Added:
		if i >= 0 {
			return false
		}
		*set = append(*set, id)
		return true
	case Removed:
		if i < 0 {
			return false
		}
		*set = removeAt(*set, i)
		return true
	}
	return false
}

// Contains reports whether id is a member of set
func Contains(set []string, id string) bool {
	return indexOf(set, id) >= 0
}

func indexOf(set []string, id string) int {
	for i, v := range set {
		if v == id {
			return i
		}
	}
	return -1
}

func removeAt(set []string, i int) []string {
	out := make([]string, 0, len(set)-1)
	out = append(out, set[:i]...)
	return append(out, set[i+1:]...)
}
