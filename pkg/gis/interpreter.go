package gis

// Interpreter executes an opaque code fragment inside the host runtime.
// It is a capability boundary, not a security control: whatever the
// embedding application wires in runs with full host access.
type Interpreter interface {
	Execute(code string) error
}

// InterpreterFunc adapts a plain function to the Interpreter interface.
type InterpreterFunc func(code string) error

// Execute calls f.
func (f InterpreterFunc) Execute(code string) error {
	return f(code)
}
