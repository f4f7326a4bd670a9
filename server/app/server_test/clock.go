package server_test

import (
	"time"

	"github.com/benbjohnson/clock"
)

// TestStartTime is the time the test server's clock is set to when the server is created.
var TestStartTime = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func NewMockClock() *clock.Mock {
	clk := clock.NewMock()
	clk.Set(TestStartTime)
	return clk
}
