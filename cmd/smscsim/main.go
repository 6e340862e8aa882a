// Command smscsim is a minimal SMSC simulator for exercising the client by
// hand: it accepts binds, acknowledges submits with generated message ids,
// answers enquire_link and can push a periodic deliver_sm into every
// receiver-bound session.
package main

import (
	"flag"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"

	"smppc/coder"
	"smppc/pdu"
)

var (
	listenAddr  = ":2775"
	systemID    = "SMSCSIM"
	deliverText = ""
	deliverRate = 10 * time.Second
)

func init() {
	flag.StringVar(&listenAddr, "listen", listenAddr, "listen `address`")
	flag.StringVar(&systemID, "system-id", systemID, "system id reported in bind responses")
	flag.StringVar(&deliverText, "deliver", deliverText, "push this `text` as deliver_sm to bound receivers")
	flag.DurationVar(&deliverRate, "deliver-every", deliverRate, "deliver_sm push interval")
	flag.Parse()
}

type client struct {
	conn     net.Conn
	writeMu  sync.Mutex
	sequence uint32
	systemID string
	bound    bool
	canRecv  bool
	log      *logrus.Entry
}

func (c *client) send(commandID uint32, status pdu.Status, sequence uint32, body pdu.Body) error {
	frame, err := pdu.Marshal(commandID, status, sequence, body)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_, err = c.conn.Write(frame)
	return err
}

type server struct {
	mu      sync.Mutex
	clients map[*client]struct{}
	log     *logrus.Entry
}

func (s *server) add(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[c] = struct{}{}
}

func (s *server) remove(c *client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.clients, c)
}

func (s *server) handle(conn net.Conn) {
	c := &client{
		conn: conn,
		log:  s.log.WithField("peer", conn.RemoteAddr().String()),
	}
	s.add(c)
	defer func() {
		conn.Close()
		s.remove(c)
		c.log.Info("disconnected")
	}()
	c.log.Info("connected")

	for {
		h, err := pdu.ReadHeader(conn)
		if err != nil {
			return
		}
		body, err := pdu.ReadBodyBytes(conn, h)
		if err != nil {
			return
		}
		if !s.handlePDU(c, h, body) {
			return
		}
	}
}

// handlePDU answers one inbound PDU; false stops the connection.
func (s *server) handlePDU(c *client, h pdu.Header, body []byte) bool {
	p, err := pdu.Decode(h, body)
	if err != nil {
		c.log.WithError(err).Warn("undecodable pdu")
		c.send(pdu.GenericNack, pdu.StatusSysErr, h.SequenceNumber, nil)
		return true
	}
	switch h.CommandID {
	case pdu.BindTransmitter, pdu.BindReceiver, pdu.BindTransceiver:
		bind := p.Body.(*pdu.Bind)
		s.mu.Lock()
		c.systemID = bind.SystemID
		c.bound = true
		c.canRecv = h.CommandID != pdu.BindTransmitter
		s.mu.Unlock()
		c.log = c.log.WithField("system_id", bind.SystemID)
		c.log.Infof("bound as %s", pdu.CommandName(h.CommandID))
		resp := pdu.NewBindResp(h.CommandID|pdu.RespMask, systemID,
			pdu.TLVByte(pdu.TagSCInterfaceVersion, pdu.InterfaceVersion34))
		c.send(h.CommandID|pdu.RespMask, pdu.StatusOK, h.SequenceNumber, resp)
	case pdu.SubmitSM:
		sm := p.Body.(*pdu.SubmitSMBody)
		messageID := generateMessageID()
		c.log.WithFields(logrus.Fields{
			"from": sm.SourceAddr.Addr,
			"to":   sm.DestAddr.Addr,
		}).Infof("submit_sm: %q", coder.Decode(sm.DataCoding, sm.ShortMessage))
		c.send(pdu.SubmitSMResp, pdu.StatusOK, h.SequenceNumber, &pdu.SubmitSMRespBody{MessageID: messageID})
	case pdu.SubmitMulti:
		c.send(pdu.SubmitMultiResp, pdu.StatusOK, h.SequenceNumber,
			&pdu.SubmitMultiRespBody{MessageID: generateMessageID()})
	case pdu.QuerySM:
		q := p.Body.(*pdu.QuerySMBody)
		c.send(pdu.QuerySMResp, pdu.StatusOK, h.SequenceNumber, &pdu.QuerySMRespBody{
			MessageID:    q.MessageID,
			MessageState: pdu.MessageStateDelivered,
		})
	case pdu.CancelSM:
		c.send(pdu.CancelSMResp, pdu.StatusOK, h.SequenceNumber, nil)
	case pdu.ReplaceSM:
		c.send(pdu.ReplaceSMResp, pdu.StatusOK, h.SequenceNumber, nil)
	case pdu.DataSM:
		c.send(pdu.DataSMResp, pdu.StatusOK, h.SequenceNumber,
			&pdu.DataSMRespBody{MessageID: generateMessageID()})
	case pdu.EnquireLink:
		c.send(pdu.EnquireLinkResp, pdu.StatusOK, h.SequenceNumber, nil)
	case pdu.DeliverSMResp, pdu.EnquireLinkResp, pdu.GenericNack:
		// nothing to do
	case pdu.Unbind:
		c.send(pdu.UnbindResp, pdu.StatusOK, h.SequenceNumber, nil)
		s.mu.Lock()
		c.bound = false
		s.mu.Unlock()
		return false
	default:
		c.send(pdu.GenericNack, pdu.StatusInvCmdID, h.SequenceNumber, nil)
	}
	return true
}

// pushDeliveries sends the configured text to every receiver-capable client.
func (s *server) pushDeliveries(text string, every time.Duration) {
	code := coder.Pick(text)
	for range time.Tick(every) {
		s.mu.Lock()
		targets := make([]*client, 0, len(s.clients))
		for c := range s.clients {
			if c.bound && c.canRecv {
				targets = append(targets, c)
			}
		}
		s.mu.Unlock()
		for _, c := range targets {
			c.sequence++
			deliver := &pdu.DeliverSMBody{}
			deliver.SourceAddr = pdu.Address{Addr: "42"}
			deliver.DestAddr = pdu.Address{Addr: c.systemID}
			deliver.DataCoding = code
			deliver.ShortMessage = coder.Encode(code, text)
			if err := c.send(pdu.DeliverSM, pdu.StatusOK, c.sequence, deliver); err != nil {
				c.log.WithError(err).Warn("deliver_sm push failed")
			}
		}
	}
}

func generateMessageID() string {
	return uuid.New().String()
}

func main() {
	logrus.SetFormatter(new(prefixed.TextFormatter))
	log := logrus.StandardLogger().WithField("smscsim", listenAddr)

	listener, err := net.Listen("tcp", listenAddr)
	if err != nil {
		log.WithError(err).Fatal("failed to listen")
	}
	log.Info("listening")

	s := &server{clients: make(map[*client]struct{}), log: log}
	if deliverText != "" {
		go s.pushDeliveries(deliverText, deliverRate)
	}
	for {
		conn, err := listener.Accept()
		if err != nil {
			log.WithError(err).Error("unable to accept connection")
			continue
		}
		go s.handle(conn)
	}
}
