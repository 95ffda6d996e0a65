// Package launcher runs the independent long-lived processes of a service
// (HTTP server, outbox poller, bus consumers) as goroutines under one
// main.go, grounded on the teacher's common/app.go Launcher/App.
package launcher

import (
	"sync"

	"github.com/lumenfund/pledgeflow/internal/mlog"
)

// App is anything the Launcher can run to completion or until cancelled.
type App interface {
	Run(l *Launcher) error
}

// Option configures a Launcher.
type Option func(l *Launcher)

// WithLogger attaches a Logger to the Launcher.
func WithLogger(logger mlog.Logger) Option {
	return func(l *Launcher) { l.Logger = logger }
}

// RunApp registers an App to be started when Run is called.
func RunApp(name string, app App) Option {
	return func(l *Launcher) { l.apps[name] = app }
}

// Launcher owns the set of Apps composing one service binary.
type Launcher struct {
	Logger mlog.Logger
	apps   map[string]App
	wg     sync.WaitGroup
}

// New builds a Launcher from the given options.
func New(opts ...Option) *Launcher {
	l := &Launcher{
		Logger: mlog.NoneLogger{},
		apps:   make(map[string]App),
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Run starts every registered App in its own goroutine and blocks until
// all of them return.
func (l *Launcher) Run() {
	l.wg.Add(len(l.apps))

	l.Logger.Infof("launcher: starting %d app(s)", len(l.apps))

	for name, app := range l.apps {
		go func(name string, app App) {
			defer l.wg.Done()

			l.Logger.Infof("launcher: app %q starting", name)

			if err := app.Run(l); err != nil {
				l.Logger.Errorf("launcher: app %q exited with error: %v", name, err)
				return
			}

			l.Logger.Infof("launcher: app %q finished", name)
		}(name, app)
	}

	l.wg.Wait()

	l.Logger.Info("launcher: terminated")
}
