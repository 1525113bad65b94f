package testutils

import "github.com/itbasis/go-clock"

// TestController bundles the collaborators a controller needs in integration tests.
type TestController struct {
	Clock    *clock.Mock
	chesscom *FakeChesscomServer
}

func (c *TestController) Close() {
	c.chesscom.Close()
}

func (c *TestController) ChesscomURL() string {
	return c.chesscom.URL()
}

func (c *TestController) Chesscom() *FakeChesscomServer {
	return c.chesscom
}

func NewTestController(db *TestDB) *TestController {
	return &TestController{
		Clock:    db.Clock,
		chesscom: NewFakeChesscomServer(),
	}
}
