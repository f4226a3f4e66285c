// Package autoload configures the global logger from the environment as a
// side effect of import.
package autoload

import (
	configx "github.com/tanpawarit/Paiduay-Guarded-Travel-Assistant/pkg/config"
	logx "github.com/tanpawarit/Paiduay-Guarded-Travel-Assistant/pkg/logger"
)

func init() {
	logx.Init(*configx.MustNew[logx.Config]("LOG"))
}
