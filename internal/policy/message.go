// Package policy holds the access rules for messages. A message is jointly
// owned by its sender and recipient; these predicates decide what each party
// may do. They are pure comparisons over already-fetched data and assume the
// caller's identity was established by the authentication middleware.
package policy

import "github.com/messagely/apiserver/types"

// CanRead reports whether the given user may view the message. Only the
// sender and the recipient may.
func CanRead(username string, msg types.Message) bool {
	return username == msg.FromUsername || username == msg.ToUsername
}

// CanMarkRead reports whether the given user may mark the message read.
// Only the recipient may; the sender cannot mark their own message read.
func CanMarkRead(username string, msg types.Message) bool {
	return username == msg.ToUsername
}
