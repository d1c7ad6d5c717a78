package enum

type ChatType string

const (
	PRIVATE ChatType = "private"
	GROUP   ChatType = "group"
)
