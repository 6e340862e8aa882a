package pdu

import "fmt"

// Command identifiers as defined by SMPP v3.4 / v5.0. A response carries the
// command id of its request with the high bit set.
const (
	BindReceiver      uint32 = 0x00000001
	BindTransmitter   uint32 = 0x00000002
	QuerySM           uint32 = 0x00000003
	SubmitSM          uint32 = 0x00000004
	DeliverSM         uint32 = 0x00000005
	Unbind            uint32 = 0x00000006
	ReplaceSM         uint32 = 0x00000007
	CancelSM          uint32 = 0x00000008
	BindTransceiver   uint32 = 0x00000009
	Outbind           uint32 = 0x0000000B
	EnquireLink       uint32 = 0x00000015
	SubmitMulti       uint32 = 0x00000021
	AlertNotification uint32 = 0x00000102
	DataSM            uint32 = 0x00000103

	BindReceiverResp           = BindReceiver | RespMask
	BindTransmitterResp        = BindTransmitter | RespMask
	QuerySMResp                = QuerySM | RespMask
	SubmitSMResp               = SubmitSM | RespMask
	DeliverSMResp              = DeliverSM | RespMask
	UnbindResp                 = Unbind | RespMask
	ReplaceSMResp              = ReplaceSM | RespMask
	CancelSMResp               = CancelSM | RespMask
	BindTransceiverResp        = BindTransceiver | RespMask
	EnquireLinkResp            = EnquireLink | RespMask
	SubmitMultiResp            = SubmitMulti | RespMask
	DataSMResp                 = DataSM | RespMask
	GenericNack         uint32 = 0x80000000
)

// RespMask flags a command id as a response.
const RespMask uint32 = 0x80000000

// IsResponse reports whether the command id carries the response bit.
func IsResponse(commandID uint32) bool {
	return commandID&RespMask != 0
}

var commandNames = map[uint32]string{
	BindReceiver:        "bind_receiver",
	BindTransmitter:     "bind_transmitter",
	QuerySM:             "query_sm",
	SubmitSM:            "submit_sm",
	DeliverSM:           "deliver_sm",
	Unbind:              "unbind",
	ReplaceSM:           "replace_sm",
	CancelSM:            "cancel_sm",
	BindTransceiver:     "bind_transceiver",
	Outbind:             "outbind",
	EnquireLink:         "enquire_link",
	SubmitMulti:         "submit_multi",
	AlertNotification:   "alert_notification",
	DataSM:              "data_sm",
	BindReceiverResp:    "bind_receiver_resp",
	BindTransmitterResp: "bind_transmitter_resp",
	QuerySMResp:         "query_sm_resp",
	SubmitSMResp:        "submit_sm_resp",
	DeliverSMResp:       "deliver_sm_resp",
	UnbindResp:          "unbind_resp",
	ReplaceSMResp:       "replace_sm_resp",
	CancelSMResp:        "cancel_sm_resp",
	BindTransceiverResp: "bind_transceiver_resp",
	EnquireLinkResp:     "enquire_link_resp",
	SubmitMultiResp:     "submit_multi_resp",
	DataSMResp:          "data_sm_resp",
	GenericNack:         "generic_nack",
}

// Known reports whether the command id belongs to the covered command set.
func Known(commandID uint32) bool {
	_, ok := commandNames[commandID]
	return ok
}

// CommandName returns the SMPP name of a command id, or its hex form when
// unknown.
func CommandName(commandID uint32) string {
	if name, ok := commandNames[commandID]; ok {
		return name
	}
	return fmt.Sprintf("0x%08X", commandID)
}

// Status is an SMPP command_status value.
type Status uint32

// Command status values.
const (
	StatusOK           Status = 0x00000000
	StatusInvMsgLen    Status = 0x00000001
	StatusInvCmdLen    Status = 0x00000002
	StatusInvCmdID     Status = 0x00000003
	StatusInvBndSts    Status = 0x00000004
	StatusAlreadyBound Status = 0x00000005
	StatusSysErr       Status = 0x00000008
	StatusInvSrcAdr    Status = 0x0000000A
	StatusInvDstAdr    Status = 0x0000000B
	StatusInvMsgID     Status = 0x0000000C
	StatusBindFail     Status = 0x0000000D
	StatusInvPaswd     Status = 0x0000000E
	StatusInvSysID     Status = 0x0000000F
	StatusCancelFail   Status = 0x00000011
	StatusReplaceFail  Status = 0x00000013
	StatusMsgQFull     Status = 0x00000014
	StatusInvSerTyp    Status = 0x00000015
	StatusInvNumDests  Status = 0x00000033
	StatusSubmitFail   Status = 0x00000045
	StatusThrottled    Status = 0x00000058
	StatusInvSched     Status = 0x00000061
	StatusInvExpiry    Status = 0x00000062
	StatusRxTAppn      Status = 0x00000064
	StatusRxPAppn      Status = 0x00000065
	StatusRxRAppn      Status = 0x00000066
	StatusQueryFail    Status = 0x00000067
	StatusInvParLen    Status = 0x000000C2
	StatusDeliveryFail Status = 0x000000FE
	StatusUnknownErr   Status = 0x000000FF
)

var statusNames = map[Status]string{
	StatusOK:           "ESME_ROK",
	StatusInvMsgLen:    "ESME_RINVMSGLEN",
	StatusInvCmdLen:    "ESME_RINVCMDLEN",
	StatusInvCmdID:     "ESME_RINVCMDID",
	StatusInvBndSts:    "ESME_RINVBNDSTS",
	StatusAlreadyBound: "ESME_RALYBND",
	StatusSysErr:       "ESME_RSYSERR",
	StatusInvSrcAdr:    "ESME_RINVSRCADR",
	StatusInvDstAdr:    "ESME_RINVDSTADR",
	StatusInvMsgID:     "ESME_RINVMSGID",
	StatusBindFail:     "ESME_RBINDFAIL",
	StatusInvPaswd:     "ESME_RINVPASWD",
	StatusInvSysID:     "ESME_RINVSYSID",
	StatusCancelFail:   "ESME_RCANCELFAIL",
	StatusReplaceFail:  "ESME_RREPLACEFAIL",
	StatusMsgQFull:     "ESME_RMSGQFUL",
	StatusInvSerTyp:    "ESME_RINVSERTYP",
	StatusInvNumDests:  "ESME_RINVNUMDESTS",
	StatusSubmitFail:   "ESME_RSUBMITFAIL",
	StatusThrottled:    "ESME_RTHROTTLED",
	StatusInvSched:     "ESME_RINVSCHED",
	StatusInvExpiry:    "ESME_RINVEXPIRY",
	StatusRxTAppn:      "ESME_RX_T_APPN",
	StatusRxPAppn:      "ESME_RX_P_APPN",
	StatusRxRAppn:      "ESME_RX_R_APPN",
	StatusQueryFail:    "ESME_RQUERYFAIL",
	StatusInvParLen:    "ESME_RINVPARLEN",
	StatusDeliveryFail: "ESME_RDELIVERYFAILURE",
	StatusUnknownErr:   "ESME_RUNKNOWNERR",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("status 0x%08X", uint32(s))
}

// Error lets a non-zero status be used directly as an error value.
func (s Status) Error() string {
	return s.String()
}
