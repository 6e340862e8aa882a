package pdu

// Message states reported by query_sm_resp and delivery receipts.
const (
	MessageStateEnroute       byte = 1
	MessageStateDelivered     byte = 2
	MessageStateExpired       byte = 3
	MessageStateDeleted       byte = 4
	MessageStateUndeliverable byte = 5
	MessageStateAccepted      byte = 6
	MessageStateUnknown       byte = 7
	MessageStateRejected      byte = 8
)

// QuerySMBody asks for the state of a previously submitted message.
type QuerySMBody struct {
	MessageID  string
	SourceAddr Address
}

func (b *QuerySMBody) CommandID() uint32 { return QuerySM }

func (b *QuerySMBody) Marshal(w *writer) error {
	if err := validateCString("message_id", b.MessageID, MaxMessageIDLength); err != nil {
		return err
	}
	w.cstring(b.MessageID)
	return b.SourceAddr.marshal(w, "source_addr", MaxAddressLength)
}

func (b *QuerySMBody) Unmarshal(r *reader) error {
	b.MessageID = r.cstring()
	b.SourceAddr.unmarshal(r)
	return r.err()
}

// QuerySMRespBody reports the final date and state of the queried message.
type QuerySMRespBody struct {
	MessageID    string
	FinalDate    string
	MessageState byte
	ErrorCode    byte
}

func (b *QuerySMRespBody) CommandID() uint32 { return QuerySMResp }

func (b *QuerySMRespBody) Marshal(w *writer) error {
	if err := validateCString("message_id", b.MessageID, MaxMessageIDLength); err != nil {
		return err
	}
	if err := validateCString("final_date", b.FinalDate, MaxTimeLength); err != nil {
		return err
	}
	w.cstring(b.MessageID)
	w.cstring(b.FinalDate)
	w.byte(b.MessageState)
	w.byte(b.ErrorCode)
	return nil
}

func (b *QuerySMRespBody) Unmarshal(r *reader) error {
	b.MessageID = r.cstring()
	b.FinalDate = r.cstring()
	b.MessageState = r.byte()
	b.ErrorCode = r.byte()
	return r.err()
}

// CancelSMBody cancels one message by id, or a set by address pair when the
// id is empty.
type CancelSMBody struct {
	ServiceType string
	MessageID   string
	SourceAddr  Address
	DestAddr    Address
}

func (b *CancelSMBody) CommandID() uint32 { return CancelSM }

func (b *CancelSMBody) Marshal(w *writer) error {
	if err := validateCString("service_type", b.ServiceType, MaxServiceTypeLength); err != nil {
		return err
	}
	if err := validateCString("message_id", b.MessageID, MaxMessageIDLength); err != nil {
		return err
	}
	w.cstring(b.ServiceType)
	w.cstring(b.MessageID)
	if err := b.SourceAddr.marshal(w, "source_addr", MaxAddressLength); err != nil {
		return err
	}
	return b.DestAddr.marshal(w, "destination_addr", MaxAddressLength)
}

func (b *CancelSMBody) Unmarshal(r *reader) error {
	b.ServiceType = r.cstring()
	b.MessageID = r.cstring()
	b.SourceAddr.unmarshal(r)
	b.DestAddr.unmarshal(r)
	return r.err()
}

// ReplaceSMBody replaces the text of a queued message.
type ReplaceSMBody struct {
	MessageID            string
	SourceAddr           Address
	ScheduleDeliveryTime string
	ValidityPeriod       string
	RegisteredDelivery   byte
	SMDefaultMsgID       byte
	ShortMessage         []byte
}

func (b *ReplaceSMBody) CommandID() uint32 { return ReplaceSM }

func (b *ReplaceSMBody) Marshal(w *writer) error {
	if err := validateCString("message_id", b.MessageID, MaxMessageIDLength); err != nil {
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
	w.cstring(b.MessageID)
	if err := b.SourceAddr.marshal(w, "source_addr", MaxAddressLength); err != nil {
		return err
	}
	w.cstring(b.ScheduleDeliveryTime)
	w.cstring(b.ValidityPeriod)
	w.byte(b.RegisteredDelivery)
	w.byte(b.SMDefaultMsgID)
	w.byte(byte(len(b.ShortMessage)))
	w.bytes(b.ShortMessage)
	return nil
}

func (b *ReplaceSMBody) Unmarshal(r *reader) error {
	b.MessageID = r.cstring()
	b.SourceAddr.unmarshal(r)
	b.ScheduleDeliveryTime = r.cstring()
	b.ValidityPeriod = r.cstring()
	b.RegisteredDelivery = r.byte()
	b.SMDefaultMsgID = r.byte()
	smLength := int(r.byte())
	b.ShortMessage = append([]byte(nil), r.take(smLength)...)
	return r.err()
}

// AlertNotificationBody tells the ESME a subscriber became reachable.
type AlertNotificationBody struct {
	SourceAddr         Address
	ESMEAddr           Address
	OptionalParameters []TLV
}

func (b *AlertNotificationBody) CommandID() uint32 { return AlertNotification }

func (b *AlertNotificationBody) Marshal(w *writer) error {
	if err := b.SourceAddr.marshal(w, "source_addr", 64); err != nil {
		return err
	}
	if err := b.ESMEAddr.marshal(w, "esme_addr", 64); err != nil {
		return err
	}
	appendTLVs(w, b.OptionalParameters)
	return nil
}

func (b *AlertNotificationBody) Unmarshal(r *reader) error {
	b.SourceAddr.unmarshal(r)
	b.ESMEAddr.unmarshal(r)
	b.OptionalParameters = readTLVs(r)
	return r.err()
}
