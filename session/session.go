// Package session implements the client side of the SMPP session protocol:
// a bound, correlated, bidirectional PDU stream over one connection. A
// Session multiplexes application requests with SMSC-initiated deliveries,
// keeps the link alive with enquire_link probes and shuts down in order on
// close, timeout or error.
package session

import (
	"bufio"
	"context"
	"encoding/hex"
	"errors"
	"net"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"smppc/pdu"
)

// Session is the public façade over one SMPP client session. Methods are
// safe for concurrent use; requests are correlated by sequence number, so
// many callers may be in flight at once.
type Session struct {
	id  string
	cfg Settings
	log *logrus.Entry

	conn   net.Conn
	in     *bufio.Reader
	sender *pduSender

	ctx      *sessionContext
	pending  *pendingTable
	seq      sequence
	pool     *processorPool
	ownsPool bool

	enquire  *enquireLinkSender
	receiver MessageReceiverListener
	limiter  *rate.Limiter
	metrics  *Metrics

	readerDone chan struct{}
}

// NewSession builds an unconnected session with its own processor pool.
// Use Group.NewSession to share one pool between sessions.
func NewSession(cfg Settings) *Session {
	return newSession(cfg, nil)
}

func newSession(cfg Settings, shared *processorPool) *Session {
	cfg = cfg.withDefaults()
	id := newSessionID()
	s := &Session{
		id:       id,
		cfg:      cfg,
		log:      cfg.Logger.WithField("session", id),
		pending:  newPendingTable(),
		pool:     shared,
		ownsPool: shared == nil,
	}
	s.ctx = newSessionContext(s, s.log)
	s.metrics = newMetrics(
		func() int64 { return int64(s.pending.size()) },
		func() int64 {
			if s.pool == nil {
				return 0
			}
			return int64(s.pool.depth())
		})
	if cfg.SubmitRate > 0 {
		burst := int(cfg.SubmitRate)
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(cfg.SubmitRate), burst)
	}
	// enlarge the owned pool once the bind completes; until then inbound
	// processing stays serial
	s.ctx.addListener(func(newState, _ State, _ *Session) {
		if newState.IsBound() && s.ownsPool {
			s.pool.resize(s.cfg.PDUProcessorDegree)
		}
	})
	return s
}

func newSessionID() string {
	u := uuid.New()
	return hex.EncodeToString(u[:4])
}

// ID returns the session identifier used in logs. It is never transmitted.
func (s *Session) ID() string { return s.id }

// State returns the current session state.
func (s *Session) State() State { return s.ctx.current() }

// LastActivity returns when the session last processed an inbound PDU, or
// when it was built if none has arrived yet. Outbound writes do not update
// it.
func (s *Session) LastActivity() time.Time { return s.ctx.lastActivityTime() }

// Metrics returns the session's metrics registry.
func (s *Session) Metrics() *Metrics { return s.metrics }

// LocalAddr returns the local end of the connection, nil before connect.
func (s *Session) LocalAddr() net.Addr {
	if s.conn == nil {
		return nil
	}
	return s.conn.LocalAddr()
}

// RemoteAddr returns the SMSC end of the connection, nil before connect.
func (s *Session) RemoteAddr() net.Addr {
	if s.conn == nil {
		return nil
	}
	return s.conn.RemoteAddr()
}

// AddStateListener registers a state transition observer.
func (s *Session) AddStateListener(l StateListener) {
	s.ctx.addListener(l)
}

// SetMessageReceiverListener installs the application callbacks for
// SMSC-initiated PDUs. Install it before binding; inbound deliveries with no
// listener are answered negatively.
func (s *Session) SetMessageReceiverListener(l MessageReceiverListener) {
	s.receiver = l
}

// ConnectAndBind dials the SMSC and binds with the given parameters,
// returning the SMSC system id. Any bind failure closes the session again;
// the session is only usable after a nil error.
func (s *Session) ConnectAndBind(addr string, param BindParameter) (string, error) {
	if st := s.ctx.current(); st != Closed {
		return "", IllegalStateError{Op: "connect and bind", State: st}
	}
	conn, err := s.cfg.Dialer(addr)
	if err != nil {
		return "", err
	}
	s.conn = conn
	s.in = bufio.NewReader(conn)
	s.sender = &pduSender{conn: conn, log: s.log, sent: func() { s.metrics.PDUSent.Inc(1) }}
	s.log.WithFields(logrus.Fields{
		"local":  conn.LocalAddr().String(),
		"remote": conn.RemoteAddr().String(),
	}).Info("connected")

	s.ctx.open()
	if s.ownsPool {
		s.pool = newProcessorPool(s.cfg.QueueCapacity, 1, s.log)
	}
	s.readerDone = make(chan struct{})
	go s.readPDUs()

	resp, err := s.executeSendCommand("bind", param.Type.CommandID(), param.body(), s.cfg.BindTimeout)
	if err != nil {
		s.log.WithError(err).Error("bind failed")
		s.Close()
		return "", err
	}
	bindResp, ok := resp.Body.(*pdu.BindResp)
	if !ok {
		s.Close()
		return "", InvalidResponseError{Reason: "bind response body missing"}
	}
	if v, ok := bindResp.SCInterfaceVersion(); ok {
		s.log.Infof("smsc reports interface version 0x%02X", v)
	}
	// publish the sender before the bound state becomes visible; the reader
	// only consults it once it observes a bound state
	s.enquire = newEnquireLinkSender(s)
	s.ctx.bound(param.Type)
	go s.enquire.run()
	return bindResp.SystemID, nil
}

// Submit sends a submit_sm and returns the SMSC-assigned message id.
func (s *Session) Submit(sm *pdu.SubmitSMBody) (string, error) {
	if err := s.ensureTransmittable("submit_sm"); err != nil {
		return "", err
	}
	s.throttle()
	resp, err := s.executeSendCommand("submit_sm", pdu.SubmitSM, sm, s.cfg.TransactionTimer)
	if err != nil {
		return "", err
	}
	body, ok := resp.Body.(*pdu.SubmitSMRespBody)
	if !ok {
		return "", InvalidResponseError{Reason: "submit_sm_resp body missing"}
	}
	return body.MessageID, nil
}

// SubmitMultiple sends a submit_multi and returns the message id together
// with the destinations the SMSC could not accept.
func (s *Session) SubmitMultiple(sm *pdu.SubmitMultiBody) (*pdu.SubmitMultiRespBody, error) {
	if err := s.ensureTransmittable("submit_multi"); err != nil {
		return nil, err
	}
	s.throttle()
	resp, err := s.executeSendCommand("submit_multi", pdu.SubmitMulti, sm, s.cfg.TransactionTimer)
	if err != nil {
		return nil, err
	}
	body, ok := resp.Body.(*pdu.SubmitMultiRespBody)
	if !ok {
		return nil, InvalidResponseError{Reason: "submit_multi_resp body missing"}
	}
	return body, nil
}

// Query asks for the state of a previously submitted message.
func (s *Session) Query(messageID string, sourceAddr pdu.Address) (*pdu.QuerySMRespBody, error) {
	if err := s.ensureTransmittable("query_sm"); err != nil {
		return nil, err
	}
	body := &pdu.QuerySMBody{MessageID: messageID, SourceAddr: sourceAddr}
	resp, err := s.executeSendCommand("query_sm", pdu.QuerySM, body, s.cfg.TransactionTimer)
	if err != nil {
		return nil, err
	}
	result, ok := resp.Body.(*pdu.QuerySMRespBody)
	if !ok {
		return nil, InvalidResponseError{Reason: "query_sm_resp body missing"}
	}
	if result.MessageID != messageID {
		return nil, InvalidResponseError{Reason: "query_sm_resp message_id does not match the request"}
	}
	return result, nil
}

// Cancel cancels a queued message.
func (s *Session) Cancel(cancel *pdu.CancelSMBody) error {
	if err := s.ensureTransmittable("cancel_sm"); err != nil {
		return err
	}
	_, err := s.executeSendCommand("cancel_sm", pdu.CancelSM, cancel, s.cfg.TransactionTimer)
	return err
}

// Replace replaces the text of a queued message.
func (s *Session) Replace(replace *pdu.ReplaceSMBody) error {
	if err := s.ensureTransmittable("replace_sm"); err != nil {
		return err
	}
	_, err := s.executeSendCommand("replace_sm", pdu.ReplaceSM, replace, s.cfg.TransactionTimer)
	return err
}

// Data sends a data_sm and returns the SMSC's result.
func (s *Session) Data(data *pdu.DataSMBody) (*DataSMResult, error) {
	if err := s.ensureTransmittable("data_sm"); err != nil {
		return nil, err
	}
	s.throttle()
	resp, err := s.executeSendCommand("data_sm", pdu.DataSM, data, s.cfg.TransactionTimer)
	if err != nil {
		return nil, err
	}
	body, ok := resp.Body.(*pdu.DataSMRespBody)
	if !ok {
		return nil, InvalidResponseError{Reason: "data_sm_resp body missing"}
	}
	return &DataSMResult{MessageID: body.MessageID, OptionalParameters: body.OptionalParameters}, nil
}

// EnquireLink probes the link once and waits for the response.
func (s *Session) EnquireLink() error {
	return s.sendEnquireLink()
}

// SendOutbind sends an outbind request without waiting for a response.
func (s *Session) SendOutbind(systemID, password string) error {
	if st := s.ctx.current(); st == Closed {
		return IllegalStateError{Op: "send outbind", State: st}
	}
	return s.executeSendNoResponse("outbind", pdu.Outbind,
		&pdu.OutbindBody{SystemID: systemID, Password: password})
}

// Unbind asks the SMSC to release the bind and waits for unbind_resp. A
// negative response is tolerated with a warning, matching common SMSC
// behavior.
func (s *Session) Unbind() error {
	if st := s.ctx.current(); st == Closed {
		return IllegalStateError{Op: "unbind", State: st}
	}
	_, err := s.executeSendCommand("unbind", pdu.Unbind, nil, s.cfg.TransactionTimer)
	var neg NegativeResponseError
	if errors.As(err, &neg) {
		s.log.Warnf("non-ok command_status (%s) for unbind_resp", neg.Status)
		return nil
	}
	return err
}

// UnbindAndClose unbinds gracefully when bound, then closes. Failures of the
// unbind phase are logged; close always proceeds.
func (s *Session) UnbindAndClose() {
	s.log.Debug("unbind and close")
	if s.ctx.current().IsBound() {
		if err := s.Unbind(); err != nil {
			s.log.WithError(err).Error("unbind before close failed")
		}
	}
	s.Close()
}

// Close releases the session: the connection is closed, the keepalive
// goroutine joined, the state moved to CLOSED and every pending waiter
// failed with ErrSessionClosed. Close is idempotent and safe to defer.
func (s *Session) Close() {
	st := s.ctx.current()
	s.log.Debugf("close session in state %s", st)
	if st != Closed && s.conn != nil {
		if err := s.conn.Close(); err != nil {
			s.log.WithError(err).Warn("failed to close connection")
		}
	}
	// never join the keepalive goroutine from itself
	if e := s.enquire; e != nil && !e.fromSelf() {
		e.stop()
		<-e.done
	}
	if !s.ctx.closeWithin(s.cfg.TransactionTimer) {
		s.log.Debug("timeout waiting to close session context")
	}
	s.pending.drainAll(ErrSessionClosed)
}

func (s *Session) ensureTransmittable(op string) error {
	if st := s.ctx.current(); !st.IsTransmittable() {
		return IllegalStateError{Op: op, State: st}
	}
	return nil
}

func (s *Session) throttle() {
	if s.limiter != nil {
		_ = s.limiter.Wait(context.Background())
	}
}

func (s *Session) isReadPDU() bool {
	st := s.ctx.current()
	return st.IsBound() || st == Open || st == Outbound
}

// executeSendCommand allocates a sequence number, reserves the pending slot,
// writes the request and waits for the correlated response. The returned PDU
// carries a zero command_status; any other status surfaces as
// NegativeResponseError.
func (s *Session) executeSendCommand(op string, commandID uint32, body pdu.Body, timeout time.Duration) (*pdu.PDU, error) {
	sequence := s.seq.next(s.pending.contains)
	entry, err := s.pending.insert(sequence)
	if err != nil {
		return nil, err
	}
	frame, err := pdu.Marshal(commandID, pdu.StatusOK, sequence, body)
	if err != nil {
		// composition failed before any I/O; the session stays usable
		s.pending.remove(sequence)
		return nil, err
	}
	if err := s.sender.write(frame, commandID, sequence); err != nil {
		if commandID == pdu.EnquireLink {
			s.log.WithError(err).Info("ignoring enquire_link write failure, waiting to see if the link recovers")
		} else {
			s.pending.remove(sequence)
			s.log.WithError(err).Errorf("failed sending %s", op)
			s.Close()
			return nil, err
		}
	}
	s.metrics.Requests.Mark(1)

	resp, err := s.pending.await(entry, timeout)
	if err != nil {
		var t ResponseTimeoutError
		if errors.As(err, &t) {
			return nil, ResponseTimeoutError{Op: op, Sequence: sequence, Timeout: timeout}
		}
		return nil, err
	}
	s.log.Debugf("%s response received, seq=%d", op, sequence)
	if resp.Header.CommandStatus != pdu.StatusOK {
		return resp, NegativeResponseError{Status: resp.Header.CommandStatus}
	}
	return resp, nil
}

func (s *Session) executeSendNoResponse(op string, commandID uint32, body pdu.Body) error {
	sequence := s.seq.next(s.pending.contains)
	frame, err := pdu.Marshal(commandID, pdu.StatusOK, sequence, body)
	if err != nil {
		return err
	}
	if err := s.sender.write(frame, commandID, sequence); err != nil {
		s.log.WithError(err).Errorf("failed sending %s", op)
		s.Close()
		return err
	}
	s.metrics.Requests.Mark(1)
	return nil
}

func (s *Session) sendEnquireLink() error {
	_, err := s.executeSendCommand("enquire_link", pdu.EnquireLink, nil, s.cfg.TransactionTimer)
	var neg NegativeResponseError
	if errors.As(err, &neg) {
		// the command_status of enquire_link_resp should always be 0
		s.log.Warnf("non-ok command_status (%s) for enquire_link_resp", neg.Status)
		return nil
	}
	return err
}

// readPDUs is the single reader goroutine: it frames inbound PDUs off the
// socket and hands them to the processor pool until the session can no
// longer read.
func (s *Session) readPDUs() {
	defer close(s.readerDone)
	s.log.Info("pdu reader started")
	for s.isReadPDU() {
		s.readOne()
	}
	s.Close()
	if s.ownsPool {
		s.pool.shutdown(s.cfg.TransactionTimer)
	}
	s.log.Debug("pdu reader stopped")
}

func (s *Session) readOne() {
	defer func() {
		if r := recover(); r != nil {
			s.log.WithField("panic", r).Error("runtime error while reading pdu")
			s.Close()
		}
	}()
	if err := s.conn.SetReadDeadline(time.Now().Add(s.cfg.EnquireLinkTimer)); err != nil {
		s.log.WithError(err).Warn("failed to arm read deadline")
		s.Close()
		return
	}
	h, err := pdu.ReadHeader(s.in)
	if err != nil {
		var badLen pdu.InvalidCommandLengthError
		switch {
		case errors.As(err, &badLen):
			s.log.Warnf("received invalid command_length %d", badLen.Length)
			if err := s.sender.send(pdu.GenericNack, pdu.StatusInvCmdLen, 0, nil); err != nil {
				s.log.WithError(err).Warn("failed sending generic_nack")
			}
			s.UnbindAndClose()
		case isTimeout(err):
			// an idle socket is not an error, it is what the keepalive is for
			s.notifyNoActivity()
		default:
			s.log.WithField("state", s.ctx.current().String()).Infof("reading pdu: %v", err)
			s.Close()
		}
		return
	}
	s.conn.SetReadDeadline(time.Now().Add(s.cfg.EnquireLinkTimer))
	body, err := pdu.ReadBodyBytes(s.in, h)
	if err != nil {
		s.log.WithError(err).Info("reading pdu body")
		s.Close()
		return
	}
	s.metrics.PDUReceived.Inc(1)
	if err := s.pool.submit(procTask{sess: s, header: h, body: body}); err != nil {
		if h.IsResponse() {
			return // already logged by the pool; the transaction timer covers the waiter
		}
		s.log.WithField("pdu", h.String()).Info("queue full, notifying other side to throttle")
		if err := s.sender.send(h.CommandID|pdu.RespMask, pdu.StatusThrottled, h.SequenceNumber, nil); err != nil {
			s.log.WithError(err).Warn("failed sending throttle response")
			s.Close()
		}
	}
}

func (s *Session) notifyNoActivity() {
	s.log.Debug("no activity, requesting enquire_link")
	if s.ctx.current().IsBound() && s.enquire != nil {
		s.enquire.signal()
	}
}

func isTimeout(err error) bool {
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// processPDU runs on a processor pool worker: it consults the state
// machine's row for the current state and performs the resulting action.
func (s *Session) processPDU(h pdu.Header, body []byte) {
	// any inbound frame proves the link alive, stray responses included
	s.ctx.notifyActivity()
	if !pdu.Known(h.CommandID) {
		s.log.Warnf("unknown command_id 0x%08X", h.CommandID)
		s.respond(pdu.GenericNack, pdu.StatusInvCmdID, h.SequenceNumber, nil)
		return
	}
	switch s.ctx.row().actionFor(h.CommandID) {
	case actResolve:
		s.resolveResponse(h, body)
	case actUnbindResp:
		// leave the bound state before the waiting caller unblocks, so an
		// immediate Close observes UNBOUND and never races it
		if !s.ctx.unboundWithin(s.cfg.TransactionTimer) {
			s.log.Debug("timeout waiting to mark session unbound")
		}
		s.resolveResponse(h, body)
	case actEnquire:
		s.respond(pdu.EnquireLinkResp, pdu.StatusOK, h.SequenceNumber, nil)
	case actDeliver:
		s.handleDeliverSM(h, body)
	case actData:
		s.handleDataSM(h, body)
	case actAlert:
		s.handleAlert(h, body)
	case actUnbind:
		s.handleUnbind(h)
	case actOutbind:
		s.handleOutbind(h, body)
	case actReject:
		s.log.Infof("rejecting %s in state %s", pdu.CommandName(h.CommandID), s.ctx.current())
		s.respond(h.CommandID|pdu.RespMask, pdu.StatusInvBndSts, h.SequenceNumber, nil)
	default:
		s.log.WithField("pdu", h.String()).Debug("ignoring pdu")
	}
}

// respond writes a reply PDU from a processing handler; a failed write is a
// connection fault and closes the session.
func (s *Session) respond(commandID uint32, status pdu.Status, sequence uint32, body pdu.Body) {
	if err := s.sender.send(commandID, status, sequence, body); err != nil {
		s.log.WithError(err).Warnf("failed sending %s", pdu.CommandName(commandID))
		s.Close()
	}
}

func (s *Session) resolveResponse(h pdu.Header, body []byte) {
	p, err := pdu.Decode(h, body)
	if err != nil {
		s.log.WithError(err).Warn("failed decoding response")
		if !s.pending.fail(h.SequenceNumber, InvalidResponseError{Reason: err.Error()}) {
			s.log.Infof("undecodable response with unknown sequence_number %d dropped", h.SequenceNumber)
		}
		return
	}
	if !s.pending.complete(h.SequenceNumber, p) {
		s.log.Infof("response %s with unknown sequence_number %d dropped",
			pdu.CommandName(h.CommandID), h.SequenceNumber)
	}
}

func (s *Session) handleDeliverSM(h pdu.Header, body []byte) {
	p, err := pdu.Decode(h, body)
	if err != nil {
		s.log.WithError(err).Warn("failed decoding deliver_sm")
		s.respond(pdu.DeliverSMResp, pdu.StatusSysErr, h.SequenceNumber, nil)
		return
	}
	deliver := p.Body.(*pdu.DeliverSMBody)
	status := s.fireAcceptDeliverSM(deliver)
	s.respond(pdu.DeliverSMResp, status, h.SequenceNumber, &pdu.DeliverSMRespBody{})
}

func (s *Session) fireAcceptDeliverSM(deliver *pdu.DeliverSMBody) (status pdu.Status) {
	if s.receiver == nil {
		s.log.Warn("received deliver_sm but no message receiver listener is set")
		return pdu.StatusRxTAppn
	}
	defer func() {
		if r := recover(); r != nil {
			s.log.WithField("panic", r).Error("panic while processing deliver_sm")
			status = pdu.StatusRxTAppn
		}
	}()
	if err := s.receiver.OnAcceptDeliverSM(deliver); err != nil {
		return rejectionStatus(err, s.log, "deliver_sm")
	}
	return pdu.StatusOK
}

func (s *Session) handleDataSM(h pdu.Header, body []byte) {
	p, err := pdu.Decode(h, body)
	if err != nil {
		s.log.WithError(err).Warn("failed decoding data_sm")
		s.respond(pdu.DataSMResp, pdu.StatusSysErr, h.SequenceNumber, nil)
		return
	}
	data := p.Body.(*pdu.DataSMBody)
	result, status := s.fireAcceptDataSM(data)
	if status != pdu.StatusOK {
		s.respond(pdu.DataSMResp, status, h.SequenceNumber, nil)
		return
	}
	s.respond(pdu.DataSMResp, pdu.StatusOK, h.SequenceNumber, &pdu.DataSMRespBody{
		MessageID:          result.MessageID,
		OptionalParameters: result.OptionalParameters,
	})
}

func (s *Session) fireAcceptDataSM(data *pdu.DataSMBody) (result *DataSMResult, status pdu.Status) {
	if s.receiver == nil {
		s.log.Warn("received data_sm but no message receiver listener is set")
		return nil, pdu.StatusRxRAppn
	}
	defer func() {
		if r := recover(); r != nil {
			s.log.WithField("panic", r).Error("panic while processing data_sm")
			result, status = nil, pdu.StatusRxTAppn
		}
	}()
	result, err := s.receiver.OnAcceptDataSM(data, s)
	if err != nil {
		return nil, rejectionStatus(err, s.log, "data_sm")
	}
	if result == nil {
		result = &DataSMResult{}
	}
	return result, pdu.StatusOK
}

func (s *Session) handleAlert(h pdu.Header, body []byte) {
	p, err := pdu.Decode(h, body)
	if err != nil {
		s.log.WithError(err).Warn("failed decoding alert_notification")
		return
	}
	if s.receiver == nil {
		s.log.Warn("received alert_notification but no message receiver listener is set")
		return
	}
	defer func() {
		if r := recover(); r != nil {
			s.log.WithField("panic", r).Error("panic while processing alert_notification")
		}
	}()
	s.receiver.OnAcceptAlertNotification(p.Body.(*pdu.AlertNotificationBody))
}

func (s *Session) handleUnbind(h pdu.Header) {
	s.log.Info("peer requested unbind")
	s.respond(pdu.UnbindResp, pdu.StatusOK, h.SequenceNumber, nil)
	if !s.ctx.unboundWithin(s.cfg.TransactionTimer) {
		s.log.Debug("timeout waiting to mark session unbound")
	}
	s.Close()
}

func (s *Session) handleOutbind(h pdu.Header, body []byte) {
	p, err := pdu.Decode(h, body)
	if err != nil {
		s.log.WithError(err).Warn("failed decoding outbind")
		return
	}
	outbind := p.Body.(*pdu.OutbindBody)
	s.log.WithField("system_id", outbind.SystemID).Info("received outbind")
	s.ctx.outbound()
}

func rejectionStatus(err error, log *logrus.Entry, what string) pdu.Status {
	var pre *processRequestError
	if errors.As(err, &pre) {
		log.WithError(err).Infof("%s rejected by listener", what)
		return pre.Status
	}
	log.WithError(err).Errorf("error while processing %s", what)
	return pdu.StatusRxTAppn
}
