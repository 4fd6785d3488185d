package poller

import "context"

// StubPoller is a no-op Poller used in tests and as a template for real
// integrations that are out of scope (Apple Photos, Gobi, Limitless, and
// similar external sources a deployment may wire in later).
type StubPoller struct {
	PollerName string
	Calls      int
}

// Name implements Poller.
func (s *StubPoller) Name() string { return s.PollerName }

// Poll implements Poller; it only counts invocations.
func (s *StubPoller) Poll(ctx context.Context) error {
	s.Calls++
	return nil
}
