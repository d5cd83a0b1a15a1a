package constants

import "time"

// Session / context keys
const (
	ContextKeyUserID = "user_id"
)

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// MinPasswordLength is the minimum accepted password length at signup.
const MinPasswordLength = 8

// StageDueDateSpacing staggers stage task due dates: draft +7d, review +14d,
// approval +21d, publication +28d from workflow creation.
const StageDueDateSpacing = 7 * 24 * time.Hour

// SignatureNotePrefixLen is how much of the signature hash is echoed into the
// approval task's notes.
const SignatureNotePrefixLen = 16
