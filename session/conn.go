package session

import (
	"crypto/tls"
	"net"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"smppc/pdu"
)

// Dialer opens the byte connection a session runs over.
type Dialer func(addr string) (net.Conn, error)

// DialPlain dials a TCP connection; a zero timeout means no limit.
func DialPlain(timeout time.Duration) Dialer {
	return func(addr string) (net.Conn, error) {
		d := net.Dialer{Timeout: timeout}
		return d.Dial("tcp", addr)
	}
}

// DialTLS dials a TLS connection the way the plain dialer does.
func DialTLS(config *tls.Config, timeout time.Duration) Dialer {
	if config == nil {
		config = &tls.Config{}
	}
	return func(addr string) (net.Conn, error) {
		d := tls.Dialer{NetDialer: &net.Dialer{Timeout: timeout}, Config: config}
		return d.Dial("tcp", addr)
	}
}

// pduSender serializes every write to the socket so concurrent callers and
// the background goroutines cannot interleave frames.
type pduSender struct {
	mu   sync.Mutex
	conn net.Conn
	log  *logrus.Entry
	sent func() // counts frames for the session metrics
}

func (s *pduSender) send(commandID uint32, status pdu.Status, sequence uint32, body pdu.Body) error {
	frame, err := pdu.Marshal(commandID, status, sequence, body)
	if err != nil {
		return err
	}
	return s.write(frame, commandID, sequence)
}

// write puts an already marshalled frame on the wire.
func (s *pduSender) write(frame []byte, commandID, sequence uint32) error {
	s.mu.Lock()
	_, err := s.conn.Write(frame)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	if s.sent != nil {
		s.sent()
	}
	s.log.Debugf("sent %s seq=%d", pdu.CommandName(commandID), sequence)
	return nil
}
