package ports

// DiagCollector receives human readable decision traces. Implementations must be safe to skip.
type DiagCollector interface {
	Printf(format string, args ...any)
}

// Diag writes to d when it is attached.
func Diag(d DiagCollector, format string, args ...any) {
	if d == nil {
		return
	}
	d.Printf(format, args...)
}
