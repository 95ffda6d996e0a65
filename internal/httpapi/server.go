package httpapi

import (
	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"

	"github.com/lumenfund/pledgeflow/internal/launcher"
	"github.com/lumenfund/pledgeflow/internal/mlog"
)

// Server is the thin fiber listener shared by every service's HTTP
// surface, grounded on the teacher's bootstrap.Server.Run.
type Server struct {
	App     *fiber.App
	Address string
	Logger  mlog.Logger
}

// Run implements launcher.App: blocks serving HTTP until the listener
// stops or fails.
func (s *Server) Run(l *launcher.Launcher) error {
	if err := s.App.Listen(s.Address); err != nil {
		return errors.Wrap(err, "failed to run the server")
	}

	return nil
}
