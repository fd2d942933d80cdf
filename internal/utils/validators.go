package utils

import "regexp"

// Participant identifiers end up in export file names, so keep them to a
// conservative character set.
var participantIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]{0,63}$`)

// ValidParticipantID reports whether an identifier is acceptable.
func ValidParticipantID(id string) bool {
	return participantIDPattern.MatchString(id)
}
