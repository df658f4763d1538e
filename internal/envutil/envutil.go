package envutil

import (
	"os"
	"strings"
)

// IsDev checks if we're running in development mode, where missing
// CORS origins are expected and not worth a warning
func IsDev() bool {
	env := strings.ToLower(os.Getenv("MAILGATE_ENV"))
	return env == "development" || env == "dev"
}
