package core

type (
	// Person identifies the caller attached to log entries.
	Person struct {
		ID       string
		Username string
		Email    string
	}

	// Logger is any service that can report messages.
	// expected args fmt: error, map[string]interface{}, Person
	Logger interface {
		Debug(msg string, args ...interface{})
		Info(msg string, args ...interface{})
		Warn(msg string, args ...interface{})
		Error(msg string, args ...interface{})
		Fatal(msg string, args ...interface{})
	}
)
