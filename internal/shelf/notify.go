package shelf

// NoticeLevel tells the presentation layer how to render a notice.
type NoticeLevel int

const (
	NoticeInfo NoticeLevel = iota
	NoticeError
)

// Notice is one human-readable message about a finished action.
type Notice struct {
	Level   NoticeLevel
	Message string
}

// Notifier receives one notice per failed action, plus confirmations
// for actions the user expects feedback on.
type Notifier interface {
	Notify(n Notice)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notice)

func (f NotifierFunc) Notify(n Notice) { f(n) }

type discardNotifier struct{}

func (discardNotifier) Notify(Notice) {}
