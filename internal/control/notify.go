package control

// Level distinguishes the flavor of a notification.
type Level int

const (
	// LevelSuccess signals a mutation that completed.
	LevelSuccess Level = iota

	// LevelFailure signals a transport or gateway failure.
	LevelFailure

	// LevelSoft signals an operation that executed but declined (ok=false).
	LevelSoft
)

// Notification is the single human-readable signal emitted per mutation
// outcome. Exact wording is not load-bearing.
type Notification struct {
	Kind    MutationKind
	Level   Level
	Message string
}

// Notifier receives mutation outcomes and background staleness warnings.
type Notifier interface {
	Notify(n Notification)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(Notification)

// Notify calls f(n).
func (f NotifierFunc) Notify(n Notification) { f(n) }

// nopNotifier discards notifications; used when no sink is configured.
type nopNotifier struct{}

func (nopNotifier) Notify(Notification) {}
