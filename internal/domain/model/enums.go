package model

// Gerrit change states as reported in ChangeInfo.status.
const (
	ChangeStatusNew       = "NEW"
	ChangeStatusMerged    = "MERGED"
	ChangeStatusAbandoned = "ABANDONED"
)
