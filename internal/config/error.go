package config

// InitError reports a configuration that loaded but cannot be used until the
// user fixes it, typically by running `vfeed config init`.
type InitError struct {
	msg string
}

func (e *InitError) Error() string {
	return e.msg
}
