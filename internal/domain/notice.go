package domain

type NoticeLevel string

const (
	NoticeInfo    NoticeLevel = "info"
	NoticeSuccess NoticeLevel = "success"
	NoticeError   NoticeLevel = "error"
)

// Notice is a local, non-fatal notification for the presentation layer.
type Notice struct {
	Level NoticeLevel
	Text  string
}
