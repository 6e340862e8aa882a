package pdu

import (
	"bytes"
	"errors"
	"testing"
)

func roundTrip(t *testing.T, commandID uint32, status Status, sequence uint32, body Body) *PDU {
	t.Helper()
	frame, err := Marshal(commandID, status, sequence, body)
	if err != nil {
		t.Fatalf("marshal %s: %v", CommandName(commandID), err)
	}
	r := bytes.NewReader(frame)
	h, err := ReadHeader(r)
	if err != nil {
		t.Fatalf("read header: %v", err)
	}
	if h.CommandID != commandID || h.CommandStatus != status || h.SequenceNumber != sequence {
		t.Fatalf("header = %s, want %s seq=%d status=%s", h, CommandName(commandID), sequence, status)
	}
	if int(h.CommandLength) != len(frame) {
		t.Fatalf("command_length = %d, frame is %d bytes", h.CommandLength, len(frame))
	}
	raw, err := ReadBodyBytes(r, h)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	p, err := Decode(h, raw)
	if err != nil {
		t.Fatalf("decode %s: %v", CommandName(commandID), err)
	}
	return p
}

func TestBindRoundTrip(t *testing.T) {
	in := NewBind(BindTransceiver, "ESME", "secret", "SMPP",
		InterfaceVersion34, 1, 1, "48*")
	p := roundTrip(t, BindTransceiver, StatusOK, 1, in)
	out := p.Body.(*Bind)
	if out.SystemID != "ESME" || out.Password != "secret" || out.SystemType != "SMPP" {
		t.Fatalf("decoded bind = %+v", out)
	}
	if out.InterfaceVersion != InterfaceVersion34 || out.AddrTON != 1 || out.AddrNPI != 1 || out.AddressRange != "48*" {
		t.Fatalf("decoded bind = %+v", out)
	}
}

func TestBindRespRoundTrip(t *testing.T) {
	in := NewBindResp(BindTransceiverResp, "SMSC", TLVByte(TagSCInterfaceVersion, InterfaceVersion50))
	p := roundTrip(t, BindTransceiverResp, StatusOK, 1, in)
	out := p.Body.(*BindResp)
	if out.SystemID != "SMSC" {
		t.Fatalf("system id = %q", out.SystemID)
	}
	v, ok := out.SCInterfaceVersion()
	if !ok || v != InterfaceVersion50 {
		t.Fatalf("sc_interface_version = (%#x, %v)", v, ok)
	}
}

func TestSubmitSMRoundTrip(t *testing.T) {
	in := &SubmitSMBody{
		ServiceType:        "CMT",
		SourceAddr:         Address{TON: 1, NPI: 1, Addr: "48601123456"},
		DestAddr:           Address{TON: 1, NPI: 1, Addr: "48601654321"},
		ESMClass:           0x40,
		ProtocolID:         0x7F,
		PriorityFlag:       1,
		RegisteredDelivery: 1,
		DataCoding:         8,
		ShortMessage:       []byte{0x00, 0x48, 0x00, 0x69},
		OptionalParameters: []TLV{TLVString(TagReceiptedMessageID, "abc-1")},
	}
	p := roundTrip(t, SubmitSM, StatusOK, 2, in)
	out := p.Body.(*SubmitSMBody)
	if out.SourceAddr != in.SourceAddr || out.DestAddr != in.DestAddr {
		t.Fatalf("addresses = %+v / %+v", out.SourceAddr, out.DestAddr)
	}
	if out.ESMClass != in.ESMClass || out.DataCoding != in.DataCoding || out.RegisteredDelivery != 1 {
		t.Fatalf("flags = %+v", out)
	}
	if !bytes.Equal(out.ShortMessage, in.ShortMessage) {
		t.Fatalf("short message = % x", out.ShortMessage)
	}
	tlv, ok := FindTLV(out.OptionalParameters, TagReceiptedMessageID)
	if !ok || tlv.String() != "abc-1" {
		t.Fatalf("receipted_message_id = (%q, %v)", tlv.String(), ok)
	}
}

func TestDeliverSMRoundTrip(t *testing.T) {
	in := &DeliverSMBody{}
	in.SourceAddr = Address{Addr: "42"}
	in.DestAddr = Address{Addr: "ESME"}
	in.ShortMessage = []byte("report")
	p := roundTrip(t, DeliverSM, StatusOK, 3, in)
	out := p.Body.(*DeliverSMBody)
	if string(out.ShortMessage) != "report" || out.SourceAddr.Addr != "42" {
		t.Fatalf("deliver = %+v", out)
	}
}

func TestSubmitMultiRoundTrip(t *testing.T) {
	in := &SubmitMultiBody{
		SourceAddr: Address{Addr: "100"},
		DestAddresses: []DestAddress{
			{Flag: DestFlagSME, SME: Address{TON: 1, NPI: 1, Addr: "200"}},
			{Flag: DestFlagDistributionList, DLName: "oncall"},
		},
		ShortMessage: []byte("fanout"),
	}
	p := roundTrip(t, SubmitMulti, StatusOK, 4, in)
	out := p.Body.(*SubmitMultiBody)
	if len(out.DestAddresses) != 2 {
		t.Fatalf("destinations = %+v", out.DestAddresses)
	}
	if out.DestAddresses[0].SME.Addr != "200" || out.DestAddresses[1].DLName != "oncall" {
		t.Fatalf("destinations = %+v", out.DestAddresses)
	}
}

func TestSubmitMultiRespRoundTrip(t *testing.T) {
	in := &SubmitMultiRespBody{
		MessageID: "m-1",
		UnsuccessSME: []UnsuccessSME{
			{Addr: Address{TON: 1, NPI: 1, Addr: "300"}, ErrorStatus: StatusInvDstAdr},
		},
	}
	p := roundTrip(t, SubmitMultiResp, StatusOK, 5, in)
	out := p.Body.(*SubmitMultiRespBody)
	if out.MessageID != "m-1" || len(out.UnsuccessSME) != 1 {
		t.Fatalf("resp = %+v", out)
	}
	if out.UnsuccessSME[0].ErrorStatus != StatusInvDstAdr {
		t.Fatalf("error status = %s", out.UnsuccessSME[0].ErrorStatus)
	}
}

func TestQuerySMRespRoundTrip(t *testing.T) {
	in := &QuerySMRespBody{MessageID: "q-1", FinalDate: "", MessageState: MessageStateDelivered}
	p := roundTrip(t, QuerySMResp, StatusOK, 6, in)
	out := p.Body.(*QuerySMRespBody)
	if out.MessageID != "q-1" || out.MessageState != MessageStateDelivered {
		t.Fatalf("resp = %+v", out)
	}
}

func TestDataSMRoundTrip(t *testing.T) {
	in := &DataSMBody{
		SourceAddr:         Address{Addr: "1"},
		DestAddr:           Address{Addr: "2"},
		DataCoding:         8,
		OptionalParameters: []TLV{TLVString(TagMessagePayload, "payload bytes")},
	}
	p := roundTrip(t, DataSM, StatusOK, 7, in)
	out := p.Body.(*DataSMBody)
	payload, ok := FindTLV(out.OptionalParameters, TagMessagePayload)
	if !ok || payload.String() != "payload bytes" {
		t.Fatalf("message_payload = (%q, %v)", payload.String(), ok)
	}
}

func TestCancelReplaceAlertRoundTrip(t *testing.T) {
	cancel := &CancelSMBody{MessageID: "c-1", SourceAddr: Address{Addr: "1"}, DestAddr: Address{Addr: "2"}}
	out := roundTrip(t, CancelSM, StatusOK, 8, cancel).Body.(*CancelSMBody)
	if out.MessageID != "c-1" {
		t.Fatalf("cancel = %+v", out)
	}

	replace := &ReplaceSMBody{MessageID: "r-1", SourceAddr: Address{Addr: "1"}, ShortMessage: []byte("new text")}
	outR := roundTrip(t, ReplaceSM, StatusOK, 9, replace).Body.(*ReplaceSMBody)
	if outR.MessageID != "r-1" || string(outR.ShortMessage) != "new text" {
		t.Fatalf("replace = %+v", outR)
	}

	alert := &AlertNotificationBody{SourceAddr: Address{Addr: "3"}, ESMEAddr: Address{Addr: "4"}}
	outA := roundTrip(t, AlertNotification, StatusOK, 10, alert).Body.(*AlertNotificationBody)
	if outA.SourceAddr.Addr != "3" || outA.ESMEAddr.Addr != "4" {
		t.Fatalf("alert = %+v", outA)
	}
}

func TestEmptyBodyCommands(t *testing.T) {
	for _, id := range []uint32{EnquireLink, EnquireLinkResp, Unbind, UnbindResp, GenericNack} {
		p := roundTrip(t, id, StatusOK, 11, nil)
		if p.Body != nil {
			t.Fatalf("%s decoded a body", CommandName(id))
		}
		if p.Header.CommandLength != HeaderLength {
			t.Fatalf("%s command_length = %d", CommandName(id), p.Header.CommandLength)
		}
	}
}

func TestNegativeResponseWithoutBody(t *testing.T) {
	frame, err := Marshal(SubmitSMResp, StatusThrottled, 12, nil)
	if err != nil {
		t.Fatal(err)
	}
	r := bytes.NewReader(frame)
	h, _ := ReadHeader(r)
	p, err := Decode(h, nil)
	if err != nil {
		t.Fatal(err)
	}
	if p.Ok() {
		t.Fatal("throttled response reported ok")
	}
}

func TestStringLimits(t *testing.T) {
	cases := []struct {
		name string
		body Body
	}{
		{"system_id", NewBind(BindTransceiver, "system-id-way-beyond-limit", "pw", "", InterfaceVersion34, 0, 0, "")},
		{"password", NewBind(BindTransceiver, "ok", "password-too-long", "", InterfaceVersion34, 0, 0, "")},
		{"service_type", &SubmitSMBody{ServiceType: "TOOLONG"}},
		{"message_id", &QuerySMBody{MessageID: string(make([]byte, 70))}},
	}
	for _, c := range cases {
		_, err := Marshal(c.body.CommandID(), StatusOK, 1, c.body)
		var se StringError
		if !errors.As(err, &se) {
			t.Fatalf("%s: err = %v, want StringError", c.name, err)
		}
	}
}

func TestInvalidCommandLength(t *testing.T) {
	frame, _ := Marshal(EnquireLink, StatusOK, 1, nil)

	tooShort := append([]byte(nil), frame...)
	tooShort[3] = 0x0F // command_length 15
	if _, err := ReadHeader(bytes.NewReader(tooShort)); !isInvalidLength(err) {
		t.Fatalf("short frame err = %v", err)
	}

	tooLong := append([]byte(nil), frame...)
	tooLong[0], tooLong[1] = 0xFF, 0xFF
	if _, err := ReadHeader(bytes.NewReader(tooLong)); !isInvalidLength(err) {
		t.Fatalf("oversized frame err = %v", err)
	}
}

func isInvalidLength(err error) bool {
	var e InvalidCommandLengthError
	return errors.As(err, &e)
}

func TestTruncatedBody(t *testing.T) {
	in := &SubmitSMBody{SourceAddr: Address{Addr: "1"}, DestAddr: Address{Addr: "2"}, ShortMessage: []byte("hello")}
	frame, err := Marshal(SubmitSM, StatusOK, 1, in)
	if err != nil {
		t.Fatal(err)
	}
	h, _ := ReadHeader(bytes.NewReader(frame))
	if _, err := Decode(h, frame[HeaderLength:len(frame)-3]); err == nil {
		t.Fatal("truncated body decoded without error")
	}
}

func TestResponseBit(t *testing.T) {
	if IsResponse(SubmitSM) || !IsResponse(SubmitSMResp) || !IsResponse(GenericNack) {
		t.Fatal("response bit classification broken")
	}
}
