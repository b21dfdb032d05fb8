package signal

import (
	"time"

	"github.com/gorilla/websocket"
)

const writeWait = 5 * time.Second

// keepalive bounds inbound frames and extends the read deadline on every pong.
func (ctl *SignalWSController) keepalive(c *WsSignalConn) {
	if ctl.opts.ReadLimit > 0 {
		c.conn.SetReadLimit(ctl.opts.ReadLimit)
	}
	if ctl.opts.PingPeriod <= 0 {
		return
	}
	pongWait := ctl.opts.PingPeriod * 10 / 9
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
}

// pingTicker never fires when keepalive is disabled.
func (ctl *SignalWSController) pingTicker() *time.Ticker {
	if ctl.opts.PingPeriod <= 0 {
		t := time.NewTicker(time.Hour)
		t.Stop()
		return t
	}
	return time.NewTicker(ctl.opts.PingPeriod)
}

func (ctl *SignalWSController) writePing(c *WsSignalConn) error {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.PingMessage, nil)
}
