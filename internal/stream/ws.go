package stream

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	defaultHandshakeTimeout = 10 * time.Second
	closeWriteTimeout       = time.Second
)

// WSDialer opens WebSocket peers with gorilla/websocket.
type WSDialer struct {
	// Dialer overrides the handshake settings; nil uses a proxy-aware dialer with a 10s handshake timeout.
	Dialer *websocket.Dialer
	Header http.Header
}

// Dial validates the address and starts connecting in the background.
func (d WSDialer) Dial(rawURL string) (Peer, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("stream: invalid address %q: %w", rawURL, err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return nil, fmt.Errorf("stream: address %q must use ws or wss", rawURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("stream: address %q has no host", rawURL)
	}

	dialer := d.Dialer
	if dialer == nil {
		dialer = &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: defaultHandshakeTimeout,
		}
	}
	ctx, cancel := context.WithCancel(context.Background())
	p := &wsPeer{cancel: cancel}
	go p.run(ctx, dialer, u.String(), d.Header)
	return p, nil
}

// wsPeer buffers frames from a reader goroutine until the owner polls them.
type wsPeer struct {
	mu          sync.Mutex
	state       State
	inbox       [][]byte
	conn        *websocket.Conn
	closeCode   int
	closeReason string
	cancel      context.CancelFunc
	closeOnce   sync.Once

	// Touched only by the polling goroutine.
	polled State
	frames [][]byte
}

func (p *wsPeer) run(ctx context.Context, dialer *websocket.Dialer, addr string, header http.Header) {
	conn, resp, err := dialer.DialContext(ctx, addr, header)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		p.finish(websocket.CloseAbnormalClosure, err.Error())
		return
	}

	p.mu.Lock()
	if p.state != StateConnecting {
		p.mu.Unlock()
		conn.Close()
		return
	}
	p.conn = conn
	p.state = StateOpen
	p.mu.Unlock()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			code, reason := websocket.CloseAbnormalClosure, err.Error()
			var closeErr *websocket.CloseError
			if errors.As(err, &closeErr) {
				code, reason = closeErr.Code, closeErr.Text
			}
			p.finish(code, reason)
			return
		}
		p.mu.Lock()
		p.inbox = append(p.inbox, data)
		p.mu.Unlock()
	}
}

func (p *wsPeer) finish(code int, reason string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == StateClosed {
		return
	}
	p.state = StateClosed
	p.closeCode = code
	p.closeReason = reason
	if p.conn != nil {
		p.conn.Close()
	}
}

func (p *wsPeer) Poll() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.polled = p.state
	if len(p.inbox) > 0 {
		p.frames = append(p.frames, p.inbox...)
		p.inbox = nil
	}
}

func (p *wsPeer) State() State {
	return p.polled
}

func (p *wsPeer) Next() ([]byte, bool) {
	if len(p.frames) == 0 {
		return nil, false
	}
	frame := p.frames[0]
	p.frames[0] = nil
	p.frames = p.frames[1:]
	return frame, true
}

func (p *wsPeer) CloseCode() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closeCode
}

func (p *wsPeer) CloseReason() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closeReason
}

// Close sends a normal closure frame when connected and tears the connection down.
func (p *wsPeer) Close() error {
	var err error
	p.closeOnce.Do(func() {
		p.mu.Lock()
		conn := p.conn
		remoteClosed := p.state == StateClosed
		if !remoteClosed {
			p.state = StateClosed
			p.closeCode = websocket.CloseNormalClosure
			p.closeReason = "closed by client"
		}
		p.mu.Unlock()

		p.cancel()
		if conn == nil || remoteClosed {
			return
		}
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeWriteTimeout))
		err = conn.Close()
	})
	return err
}
