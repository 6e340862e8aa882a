package pdu

// Interface versions carried in bind requests.
const (
	InterfaceVersion34 byte = 0x34
	InterfaceVersion50 byte = 0x50
)

// Address is a TON/NPI qualified SMPP address.
type Address struct {
	TON  byte
	NPI  byte
	Addr string
}

func (a Address) marshal(w *writer, field string, max int) error {
	if err := validateCString(field, a.Addr, max); err != nil {
		return err
	}
	w.byte(a.TON)
	w.byte(a.NPI)
	w.cstring(a.Addr)
	return nil
}

func (a *Address) unmarshal(r *reader) {
	a.TON = r.byte()
	a.NPI = r.byte()
	a.Addr = r.cstring()
}

// Bind is the shared body of bind_receiver, bind_transmitter and
// bind_transceiver.
type Bind struct {
	commandID        uint32
	SystemID         string
	Password         string
	SystemType       string
	InterfaceVersion byte
	AddrTON          byte
	AddrNPI          byte
	AddressRange     string
}

// NewBind builds a bind body for the given bind command id.
func NewBind(commandID uint32, systemID, password, systemType string,
	interfaceVersion, addrTON, addrNPI byte, addressRange string) *Bind {
	return &Bind{
		commandID:        commandID,
		SystemID:         systemID,
		Password:         password,
		SystemType:       systemType,
		InterfaceVersion: interfaceVersion,
		AddrTON:          addrTON,
		AddrNPI:          addrNPI,
		AddressRange:     addressRange,
	}
}

func (b *Bind) CommandID() uint32 { return b.commandID }

func (b *Bind) Marshal(w *writer) error {
	if err := validateCString("system_id", b.SystemID, MaxSystemIDLength); err != nil {
		return err
	}
	if err := validateCString("password", b.Password, MaxPasswordLength); err != nil {
		return err
	}
	if err := validateCString("system_type", b.SystemType, MaxSystemTypeLength); err != nil {
		return err
	}
	if err := validateCString("address_range", b.AddressRange, MaxAddressRangeLength); err != nil {
		return err
	}
	w.cstring(b.SystemID)
	w.cstring(b.Password)
	w.cstring(b.SystemType)
	w.byte(b.InterfaceVersion)
	w.byte(b.AddrTON)
	w.byte(b.AddrNPI)
	w.cstring(b.AddressRange)
	return nil
}

func (b *Bind) Unmarshal(r *reader) error {
	b.SystemID = r.cstring()
	b.Password = r.cstring()
	b.SystemType = r.cstring()
	b.InterfaceVersion = r.byte()
	b.AddrTON = r.byte()
	b.AddrNPI = r.byte()
	b.AddressRange = r.cstring()
	return r.err()
}

// BindResp is the body of the three bind responses. The SMSC may attach an
// sc_interface_version optional parameter.
type BindResp struct {
	commandID          uint32
	SystemID           string
	OptionalParameters []TLV
}

// NewBindResp builds a bind response body for the given response command id.
func NewBindResp(commandID uint32, systemID string, params ...TLV) *BindResp {
	return &BindResp{commandID: commandID, SystemID: systemID, OptionalParameters: params}
}

func (b *BindResp) CommandID() uint32 { return b.commandID }

// SCInterfaceVersion reports the interface version the SMSC announced, if
// any.
func (b *BindResp) SCInterfaceVersion() (byte, bool) {
	p, ok := FindTLV(b.OptionalParameters, TagSCInterfaceVersion)
	if !ok {
		return 0, false
	}
	return p.Byte(), true
}

func (b *BindResp) Marshal(w *writer) error {
	if err := validateCString("system_id", b.SystemID, MaxSystemIDLength); err != nil {
		return err
	}
	w.cstring(b.SystemID)
	appendTLVs(w, b.OptionalParameters)
	return nil
}

func (b *BindResp) Unmarshal(r *reader) error {
	b.SystemID = r.cstring()
	b.OptionalParameters = readTLVs(r)
	return r.err()
}

// OutbindBody asks the ESME to originate a bind_receiver.
type OutbindBody struct {
	SystemID string
	Password string
}

func (b *OutbindBody) CommandID() uint32 { return Outbind }

func (b *OutbindBody) Marshal(w *writer) error {
	if err := validateCString("system_id", b.SystemID, MaxSystemIDLength); err != nil {
		return err
	}
	if err := validateCString("password", b.Password, MaxPasswordLength); err != nil {
		return err
	}
	w.cstring(b.SystemID)
	w.cstring(b.Password)
	return nil
}

func (b *OutbindBody) Unmarshal(r *reader) error {
	b.SystemID = r.cstring()
	b.Password = r.cstring()
	return r.err()
}
