package errors

import "fmt"

var (
	ErrWorkerPanic       = fmt.Errorf("worker panic")
	ErrEmptyWords        = fmt.Errorf("no words have been found")
	ErrServerExited      = fmt.Errorf("server process exited")
	ErrServerStartFailed = fmt.Errorf("server process failed to start")
	ErrNoServerProcess   = fmt.Errorf("no server process attached")
	ErrJournalDisabled   = fmt.Errorf("event journal is disabled")
	ErrSearchDisabled    = fmt.Errorf("chat search is disabled")
	ErrInvalidConfig     = fmt.Errorf("invalid configuration")
)
