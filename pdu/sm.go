package pdu

// SubmitSMBody is the submit_sm request body.
type SubmitSMBody struct {
	ServiceType          string
	SourceAddr           Address
	DestAddr             Address
	ESMClass             byte
	ProtocolID           byte
	PriorityFlag         byte
	ScheduleDeliveryTime string
	ValidityPeriod       string
	RegisteredDelivery   byte
	ReplaceIfPresent     byte
	DataCoding           byte
	SMDefaultMsgID       byte
	ShortMessage         []byte
	OptionalParameters   []TLV
}

func (b *SubmitSMBody) CommandID() uint32 { return SubmitSM }

func (b *SubmitSMBody) Marshal(w *writer) error {
	if err := validateCString("service_type", b.ServiceType, MaxServiceTypeLength); err != nil {
		return err
	}
	if err := validateCString("schedule_delivery_time", b.ScheduleDeliveryTime, MaxTimeLength); err != nil {
		return err
	}
	if err := validateCString("validity_period", b.ValidityPeriod, MaxTimeLength); err != nil {
		return err
	}
	if len(b.ShortMessage) > MaxShortMessageLength {
		return StringError{Field: "short_message", Value: string(b.ShortMessage), Max: MaxShortMessageLength}
	}
	w.cstring(b.ServiceType)
	if err := b.SourceAddr.marshal(w, "source_addr", MaxAddressLength); err != nil {
		return err
	}
	if err := b.DestAddr.marshal(w, "destination_addr", MaxAddressLength); err != nil {
		return err
	}
	w.byte(b.ESMClass)
	w.byte(b.ProtocolID)
	w.byte(b.PriorityFlag)
	w.cstring(b.ScheduleDeliveryTime)
	w.cstring(b.ValidityPeriod)
	w.byte(b.RegisteredDelivery)
	w.byte(b.ReplaceIfPresent)
	w.byte(b.DataCoding)
	w.byte(b.SMDefaultMsgID)
	w.byte(byte(len(b.ShortMessage)))
	w.bytes(b.ShortMessage)
	appendTLVs(w, b.OptionalParameters)
	return nil
}

func (b *SubmitSMBody) Unmarshal(r *reader) error {
	b.ServiceType = r.cstring()
	b.SourceAddr.unmarshal(r)
	b.DestAddr.unmarshal(r)
	b.ESMClass = r.byte()
	b.ProtocolID = r.byte()
	b.PriorityFlag = r.byte()
	b.ScheduleDeliveryTime = r.cstring()
	b.ValidityPeriod = r.cstring()
	b.RegisteredDelivery = r.byte()
	b.ReplaceIfPresent = r.byte()
	b.DataCoding = r.byte()
	b.SMDefaultMsgID = r.byte()
	smLength := int(r.byte())
	b.ShortMessage = append([]byte(nil), r.take(smLength)...)
	b.OptionalParameters = readTLVs(r)
	return r.err()
}

// SubmitSMRespBody carries the SMSC-assigned message id.
type SubmitSMRespBody struct {
	MessageID string
}

func (b *SubmitSMRespBody) CommandID() uint32 { return SubmitSMResp }

func (b *SubmitSMRespBody) Marshal(w *writer) error {
	if err := validateCString("message_id", b.MessageID, MaxMessageIDLength); err != nil {
		return err
	}
	w.cstring(b.MessageID)
	return nil
}

func (b *SubmitSMRespBody) Unmarshal(r *reader) error {
	b.MessageID = r.cstring()
	return r.err()
}

// DeliverSMBody shares the submit_sm layout; schedule_delivery_time and
// validity_period arrive as empty strings.
type DeliverSMBody struct {
	SubmitSMBody
}

func (b *DeliverSMBody) CommandID() uint32 { return DeliverSM }

// DeliverSMRespBody acknowledges a deliver_sm; message_id is always empty in
// v3.4.
type DeliverSMRespBody struct {
	MessageID string
}

func (b *DeliverSMRespBody) CommandID() uint32 { return DeliverSMResp }

func (b *DeliverSMRespBody) Marshal(w *writer) error {
	if err := validateCString("message_id", b.MessageID, MaxMessageIDLength); err != nil {
		return err
	}
	w.cstring(b.MessageID)
	return nil
}

func (b *DeliverSMRespBody) Unmarshal(r *reader) error {
	b.MessageID = r.cstring()
	return r.err()
}

// DataSMBody is the data_sm request; the payload travels as the
// message_payload optional parameter.
type DataSMBody struct {
	ServiceType        string
	SourceAddr         Address
	DestAddr           Address
	ESMClass           byte
	RegisteredDelivery byte
	DataCoding         byte
	OptionalParameters []TLV
}

func (b *DataSMBody) CommandID() uint32 { return DataSM }

func (b *DataSMBody) Marshal(w *writer) error {
	if err := validateCString("service_type", b.ServiceType, MaxServiceTypeLength); err != nil {
		return err
	}
	w.cstring(b.ServiceType)
	if err := b.SourceAddr.marshal(w, "source_addr", MaxAddressLength); err != nil {
		return err
	}
	if err := b.DestAddr.marshal(w, "destination_addr", MaxAddressLength); err != nil {
		return err
	}
	w.byte(b.ESMClass)
	w.byte(b.RegisteredDelivery)
	w.byte(b.DataCoding)
	appendTLVs(w, b.OptionalParameters)
	return nil
}

func (b *DataSMBody) Unmarshal(r *reader) error {
	b.ServiceType = r.cstring()
	b.SourceAddr.unmarshal(r)
	b.DestAddr.unmarshal(r)
	b.ESMClass = r.byte()
	b.RegisteredDelivery = r.byte()
	b.DataCoding = r.byte()
	b.OptionalParameters = readTLVs(r)
	return r.err()
}

// DataSMRespBody answers a data_sm.
type DataSMRespBody struct {
	MessageID          string
	OptionalParameters []TLV
}

func (b *DataSMRespBody) CommandID() uint32 { return DataSMResp }

func (b *DataSMRespBody) Marshal(w *writer) error {
	if err := validateCString("message_id", b.MessageID, MaxMessageIDLength); err != nil {
		return err
	}
	w.cstring(b.MessageID)
	appendTLVs(w, b.OptionalParameters)
	return nil
}

func (b *DataSMRespBody) Unmarshal(r *reader) error {
	b.MessageID = r.cstring()
	b.OptionalParameters = readTLVs(r)
	return r.err()
}

// DestFlag values for submit_multi destination entries.
const (
	DestFlagSME              byte = 1
	DestFlagDistributionList byte = 2
)

// DestAddress is one destination of a submit_multi: either an SME address or
// a distribution list name.
type DestAddress struct {
	Flag   byte
	SME    Address
	DLName string
}

// SubmitMultiBody fans one short message out to up to 255 destinations.
type SubmitMultiBody struct {
	ServiceType          string
	SourceAddr           Address
	DestAddresses        []DestAddress
	ESMClass             byte
	ProtocolID           byte
	PriorityFlag         byte
	ScheduleDeliveryTime string
	ValidityPeriod       string
	RegisteredDelivery   byte
	ReplaceIfPresent     byte
	DataCoding           byte
	SMDefaultMsgID       byte
	ShortMessage         []byte
	OptionalParameters   []TLV
}

func (b *SubmitMultiBody) CommandID() uint32 { return SubmitMulti }

func (b *SubmitMultiBody) Marshal(w *writer) error {
	if err := validateCString("service_type", b.ServiceType, MaxServiceTypeLength); err != nil {
		return err
	}
	if len(b.DestAddresses) == 0 || len(b.DestAddresses) > 255 {
		return StringError{Field: "number_of_dests", Value: "", Max: 255}
	}
	if len(b.ShortMessage) > MaxShortMessageLength {
		return StringError{Field: "short_message", Value: string(b.ShortMessage), Max: MaxShortMessageLength}
	}
	w.cstring(b.ServiceType)
	if err := b.SourceAddr.marshal(w, "source_addr", MaxAddressLength); err != nil {
		return err
	}
	w.byte(byte(len(b.DestAddresses)))
	for _, d := range b.DestAddresses {
		w.byte(d.Flag)
		switch d.Flag {
		case DestFlagDistributionList:
			if err := validateCString("dl_name", d.DLName, 20); err != nil {
				return err
			}
			w.cstring(d.DLName)
		default:
			if err := d.SME.marshal(w, "destination_addr", MaxAddressLength); err != nil {
				return err
			}
		}
	}
	w.byte(b.ESMClass)
	w.byte(b.ProtocolID)
	w.byte(b.PriorityFlag)
	w.cstring(b.ScheduleDeliveryTime)
	w.cstring(b.ValidityPeriod)
	w.byte(b.RegisteredDelivery)
	w.byte(b.ReplaceIfPresent)
	w.byte(b.DataCoding)
	w.byte(b.SMDefaultMsgID)
	w.byte(byte(len(b.ShortMessage)))
	w.bytes(b.ShortMessage)
	appendTLVs(w, b.OptionalParameters)
	return nil
}

func (b *SubmitMultiBody) Unmarshal(r *reader) error {
	b.ServiceType = r.cstring()
	b.SourceAddr.unmarshal(r)
	n := int(r.byte())
	b.DestAddresses = make([]DestAddress, 0, n)
	for i := 0; i < n && r.fail == nil; i++ {
		var d DestAddress
		d.Flag = r.byte()
		if d.Flag == DestFlagDistributionList {
			d.DLName = r.cstring()
		} else {
			d.SME.unmarshal(r)
		}
		b.DestAddresses = append(b.DestAddresses, d)
	}
	b.ESMClass = r.byte()
	b.ProtocolID = r.byte()
	b.PriorityFlag = r.byte()
	b.ScheduleDeliveryTime = r.cstring()
	b.ValidityPeriod = r.cstring()
	b.RegisteredDelivery = r.byte()
	b.ReplaceIfPresent = r.byte()
	b.DataCoding = r.byte()
	b.SMDefaultMsgID = r.byte()
	smLength := int(r.byte())
	b.ShortMessage = append([]byte(nil), r.take(smLength)...)
	b.OptionalParameters = readTLVs(r)
	return r.err()
}

// UnsuccessSME is one destination submit_multi could not reach, with the
// status explaining why.
type UnsuccessSME struct {
	Addr        Address
	ErrorStatus Status
}

// SubmitMultiRespBody reports the assigned message id and the destinations
// that failed.
type SubmitMultiRespBody struct {
	MessageID    string
	UnsuccessSME []UnsuccessSME
}

func (b *SubmitMultiRespBody) CommandID() uint32 { return SubmitMultiResp }

func (b *SubmitMultiRespBody) Marshal(w *writer) error {
	if err := validateCString("message_id", b.MessageID, MaxMessageIDLength); err != nil {
		return err
	}
	w.cstring(b.MessageID)
	w.byte(byte(len(b.UnsuccessSME)))
	for _, u := range b.UnsuccessSME {
		if err := u.Addr.marshal(w, "destination_addr", MaxAddressLength); err != nil {
			return err
		}
		w.byte(byte(u.ErrorStatus >> 24))
		w.byte(byte(u.ErrorStatus >> 16))
		w.byte(byte(u.ErrorStatus >> 8))
		w.byte(byte(u.ErrorStatus))
	}
	return nil
}

func (b *SubmitMultiRespBody) Unmarshal(r *reader) error {
	b.MessageID = r.cstring()
	n := int(r.byte())
	b.UnsuccessSME = make([]UnsuccessSME, 0, n)
	for i := 0; i < n && r.fail == nil; i++ {
		var u UnsuccessSME
		u.Addr.unmarshal(r)
		raw := r.take(4)
		if r.fail != nil {
			break
		}
		u.ErrorStatus = Status(uint32(raw[0])<<24 | uint32(raw[1])<<16 | uint32(raw[2])<<8 | uint32(raw[3]))
		b.UnsuccessSME = append(b.UnsuccessSME, u)
	}
	return r.err()
}
