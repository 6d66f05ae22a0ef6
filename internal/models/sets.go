package models

import "strings"

// NormalizeActorID is the canonical string form used for every owner and
// engagement comparison.
func NormalizeActorID(id string) string {
	return strings.TrimSpace(id)
}

// Contains reports whether id is a member of set after normalization.
func Contains(set []string, id string) bool {
	id = NormalizeActorID(id)
	for _, member := range set {
		if NormalizeActorID(member) == id {
			return true
		}
	}
	return false
}

// AddMember inserts id unless present. The returned bool reports a change.
func AddMember(set []string, id string) ([]string, bool) {
	if Contains(set, id) {
		return set, false
	}
	return append(set, NormalizeActorID(id)), true
}

// RemoveMember drops every occurrence of id. The returned bool reports a change.
func RemoveMember(set []string, id string) ([]string, bool) {
	id = NormalizeActorID(id)
	out := set[:0:0]
	removed := false
	for _, member := range set {
		if NormalizeActorID(member) == id {
			removed = true
			continue
		}
		out = append(out, member)
	}
	return out, removed
}

// ToggleMember flips membership and returns the new set and membership.
func ToggleMember(set []string, id string) ([]string, bool) {
	if Contains(set, id) {
		out, _ := RemoveMember(set, id)
		return out, false
	}
	out, _ := AddMember(set, id)
	return out, true
}
