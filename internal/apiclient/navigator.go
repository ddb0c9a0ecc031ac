package apiclient

import (
	"github.com/nkiryanov/sims/internal/logger"
)

// Navigator performs the redirect when the session can't be recovered
type Navigator interface {
	Navigate(path string)
}

type NavigatorFunc func(path string)

func (f NavigatorFunc) Navigate(path string) {
	f(path)
}

// Navigator that only records the redirect
func LogNavigator(l logger.Logger) Navigator {
	return NavigatorFunc(func(path string) {
		l.Info("Navigation requested", "path", path)
	})
}
