package rangelib

// RowSource is a collaborator which yields raw rows of a range dataset.
// Read returns io.EOF when rows are exhausted.
type RowSource interface {
	Read() ([]string, error)
}

// Logger receives events which are downgraded instead of being
// returned to callers: failed loads, ignored filters, malformed
// addresses.
type Logger interface {
	LoadInfo(source string, msg string)
	LoadWarning(source string, msg string)
	LoadError(source string, err error)
	LookupError(ip string, err error)
}

// NoopLogger drops everything.
type NoopLogger struct{}

func (NoopLogger) LoadInfo(string, string)    {}
func (NoopLogger) LoadWarning(string, string) {}
func (NoopLogger) LoadError(string, error)    {}
func (NoopLogger) LookupError(string, error)  {}
