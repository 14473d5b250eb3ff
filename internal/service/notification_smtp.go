package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strconv"

	"github.com/rocketscienceinc/stonepaper-backend/internal/entity"
)

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type sendMailFunc func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error

type smtpNotifier struct {
	conf     SMTPConfig
	auth     smtp.Auth
	sendMail sendMailFunc
}

func NewSMTPNotifier(conf SMTPConfig) Notifier {
	return newSMTPNotifier(conf, smtp.SendMail)
}

func newSMTPNotifier(conf SMTPConfig, sendMail sendMailFunc) *smtpNotifier {
	var auth smtp.Auth
	if conf.Username != "" {
		auth = smtp.PlainAuth("", conf.Username, conf.Password, conf.Host)
	}

	return &smtpNotifier{
		conf:     conf,
		auth:     auth,
		sendMail: sendMail,
	}
}

// NotifyOutcome - mails every participant that left an address. Participants without one are skipped.
func (that *smtpNotifier) NotifyOutcome(ctx context.Context, notice *entity.OutcomeNotice) error {
	addr := net.JoinHostPort(that.conf.Host, strconv.Itoa(that.conf.Port))

	var errs []error
	for _, participant := range []entity.Participant{notice.PlayerA, notice.PlayerB} {
		if participant.Email == "" {
			continue
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		msg := that.composeMessage(participant, notice)
		if err := that.sendMail(addr, that.auth, that.conf.From, []string{participant.Email}, msg); err != nil {
			errs = append(errs, fmt.Errorf("failed to send outcome mail to %s: %w", participant.Email, err))
		}
	}

	return errors.Join(errs...)
}

func (that *smtpNotifier) composeMessage(to entity.Participant, notice *entity.OutcomeNotice) []byte {
	var body bytes.Buffer

	fmt.Fprintf(&body, "From: %s\r\n", that.conf.From)
	fmt.Fprintf(&body, "To: %s\r\n", to.Email)
	fmt.Fprintf(&body, "Subject: Match %s is over\r\n", notice.RoomKey)
	body.WriteString("MIME-Version: 1.0\r\n")
	body.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n\r\n")

	fmt.Fprintf(&body, "Hi %s,\r\n\r\n", to.Name)
	fmt.Fprintf(&body, "%s vs %s ended after %d rounds (%s).\r\n",
		notice.PlayerA.Name, notice.PlayerB.Name, notice.Rounds, notice.Reason)
	fmt.Fprintf(&body, "Score: %s %d - %d %s\r\n",
		notice.PlayerA.Name, notice.PlayerA.Score, notice.PlayerB.Score, notice.PlayerB.Name)
	fmt.Fprintf(&body, "Winner: %s\r\n", notice.WinnerName)

	return body.Bytes()
}
