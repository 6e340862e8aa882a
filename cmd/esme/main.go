// Command esme is a reference SMPP client: it binds to an SMSC from a yaml
// configuration, prints what the SMSC delivers and can send a single test
// message.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rifflock/lfshook"
	"github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"

	"smppc/coder"
	"smppc/pdu"
	"smppc/session"
)

const maxErrors = 10 // maximum allowable number of connection errors

var (
	configFileName = "config.yaml"
	debugLog       = false
	sendText       = ""
	sendTo         = ""
)

func init() {
	flag.StringVar(&configFileName, "config", configFileName, "configuration `fileName`")
	flag.BoolVar(&debugLog, "debug", debugLog, "log full pdu traffic")
	flag.StringVar(&sendText, "send", sendText, "send this `text` after binding")
	flag.StringVar(&sendTo, "to", sendTo, "destination `address` for -send")
}

// receiver prints everything the SMSC pushes at us.
type receiver struct {
	log *logrus.Entry
}

func (r *receiver) OnAcceptDeliverSM(deliver *pdu.DeliverSMBody) error {
	text := coder.Decode(deliver.DataCoding, deliver.ShortMessage)
	r.log.WithFields(logrus.Fields{
		"from": deliver.SourceAddr.Addr,
		"to":   deliver.DestAddr.Addr,
	}).Infof("deliver_sm: %q", text)
	return nil
}

func (r *receiver) OnAcceptDataSM(data *pdu.DataSMBody, _ *session.Session) (*session.DataSMResult, error) {
	payload, _ := pdu.FindTLV(data.OptionalParameters, pdu.TagMessagePayload)
	r.log.WithFields(logrus.Fields{
		"from": data.SourceAddr.Addr,
		"to":   data.DestAddr.Addr,
	}).Infof("data_sm: %q", coder.Decode(data.DataCoding, payload.Value))
	return &session.DataSMResult{}, nil
}

func (r *receiver) OnAcceptAlertNotification(alert *pdu.AlertNotificationBody) {
	r.log.WithField("source", alert.SourceAddr.Addr).Info("alert_notification")
}

func main() {
	flag.Parse()

	config, err := LoadConfig(configFileName)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error loading config:", err)
		os.Exit(1)
	}

	logrus.SetFormatter(new(prefixed.TextFormatter))
	if debugLog {
		logrus.SetLevel(logrus.DebugLevel)
	}
	if config.LogDir != "" {
		logrus.AddHook(lfshook.NewHook(lfshook.PathMap{
			logrus.InfoLevel:  config.LogDir + "/info.log",
			logrus.WarnLevel:  config.LogDir + "/warning.log",
			logrus.ErrorLevel: config.LogDir + "/error.log",
			logrus.DebugLevel: config.LogDir + "/debug.log",
		}, nil))
	}
	log := logrus.StandardLogger().WithField("smsc", config.Addr)

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	reconnectDelay := config.duration(config.ReconnectDelay)
	var lastErrorTime time.Time
	for i := 0; i < config.MaxError; i++ {
		settings := config.Settings()
		settings.Logger = log
		sess := session.NewSession(settings)
		sess.SetMessageReceiverListener(&receiver{log: log})

		closed := make(chan struct{})
		sess.AddStateListener(func(newState, _ session.State, _ *session.Session) {
			if newState == session.Closed {
				close(closed)
			}
		})

		systemID, err := sess.ConnectAndBind(config.Addr, config.Bind)
		if err != nil {
			log.WithError(err).Error("connect error")
			if time.Since(lastErrorTime) > 30*time.Minute {
				i = 0 // reset the error counter if errors were long ago
			}
			lastErrorTime = time.Now()
			time.Sleep(reconnectDelay)
			continue
		}
		log.WithField("system_id", systemID).Info("bound")

		if sendText != "" && sendTo != "" {
			code := coder.Pick(sendText)
			messageID, err := sess.Submit(&pdu.SubmitSMBody{
				SourceAddr:         pdu.Address{Addr: config.Source},
				DestAddr:           pdu.Address{Addr: sendTo},
				RegisteredDelivery: 1,
				DataCoding:         code,
				ShortMessage:       coder.Encode(code, sendText),
			})
			if err != nil {
				log.WithError(err).Error("send error")
			} else {
				log.WithField("message_id", messageID).Info("sent")
			}
		}

		select {
		case <-interrupt:
			log.Info("shutting down")
			sess.UnbindAndClose()
			return
		case <-closed:
			log.Warn("session closed, reconnecting")
			time.Sleep(reconnectDelay)
		}
	}
	log.Error("too many connection errors, giving up")
}
