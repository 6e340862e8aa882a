package session

import (
	"time"

	"github.com/sirupsen/logrus"

	"smppc/pdu"
)

// Defaults applied by Settings.withDefaults.
const (
	defaultEnquireLinkTimer = 60 * time.Second
	defaultTransactionTimer = 2 * time.Second
	defaultBindTimeout      = 60 * time.Second
	defaultProcessorDegree  = 3
	defaultQueueCapacity    = 100
)

// BindParameter carries everything a bind request needs. The yaml tags let
// binaries read it straight from their config files.
type BindParameter struct {
	Type             BindType `yaml:"bindType"`
	SystemID         string   `yaml:"systemId"`
	Password         string   `yaml:"password"`
	SystemType       string   `yaml:"systemType,omitempty"`
	InterfaceVersion byte     `yaml:"-"`
	AddrTON          byte     `yaml:"addrTon,omitempty"`
	AddrNPI          byte     `yaml:"addrNpi,omitempty"`
	AddressRange     string   `yaml:"addressRange,omitempty"`
}

func (p BindParameter) body() *pdu.Bind {
	version := p.InterfaceVersion
	if version == 0 {
		version = pdu.InterfaceVersion34
	}
	return pdu.NewBind(p.Type.CommandID(), p.SystemID, p.Password, p.SystemType,
		version, p.AddrTON, p.AddrNPI, p.AddressRange)
}

// Settings configures a session at construction time. Processor degree and
// queue capacity deliberately have no setters: the pool they size exists for
// the whole session lifetime.
type Settings struct {
	// EnquireLinkTimer is the socket read timeout and the keepalive cadence.
	EnquireLinkTimer time.Duration
	// TransactionTimer is the per-request response deadline.
	TransactionTimer time.Duration
	// BindTimeout bounds the wait for the bind response.
	BindTimeout time.Duration
	// PDUProcessorDegree is the worker count once the session is bound.
	PDUProcessorDegree int
	// QueueCapacity bounds the processor queue.
	QueueCapacity int
	// SubmitRate throttles submit-class requests, in requests per second.
	// Zero means unlimited.
	SubmitRate float64
	// Dialer opens the connection; DialPlain is used when nil.
	Dialer Dialer
	// Logger receives the session's log entries; the logrus standard logger
	// is used when nil.
	Logger *logrus.Entry
}

func (s Settings) withDefaults() Settings {
	if s.EnquireLinkTimer <= 0 {
		s.EnquireLinkTimer = defaultEnquireLinkTimer
	}
	if s.TransactionTimer <= 0 {
		s.TransactionTimer = defaultTransactionTimer
	}
	if s.BindTimeout <= 0 {
		s.BindTimeout = defaultBindTimeout
	}
	if s.PDUProcessorDegree <= 0 {
		s.PDUProcessorDegree = defaultProcessorDegree
	}
	if s.QueueCapacity <= 0 {
		s.QueueCapacity = defaultQueueCapacity
	}
	if s.Dialer == nil {
		s.Dialer = DialPlain(0)
	}
	if s.Logger == nil {
		s.Logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return s
}
