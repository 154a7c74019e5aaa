package bridge

import (
	"sync"

	"github.com/evshary/go-carla-bridge/pkg/autoware"
)

// CommandStore holds the single latest motion command. It is written by
// the bus delivery goroutine and read by the tick loop; Update replaces
// the value wholesale so a concurrent Read never observes a mix of two
// commands. The zero value holds a neutral command and is ready to use.
type CommandStore struct {
	mu  sync.Mutex
	cmd autoware.MotionCommand
}

// Update replaces the stored command.
func (s *CommandStore) Update(cmd autoware.MotionCommand) {
	s.mu.Lock()
	s.cmd = cmd
	s.mu.Unlock()
}

// Read returns a full copy of the stored command.
func (s *CommandStore) Read() autoware.MotionCommand {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cmd
}
