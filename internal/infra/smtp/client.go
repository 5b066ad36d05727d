package smtp

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"net/textproto"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jpillora/backoff"
	"github.com/rs/zerolog"

	"telegram-email-bot/internal/config"
	"telegram-email-bot/internal/domain/ports/adapter"
)

const sendAttempts = 3

var _ adapter.Mailer = (*Client)(nil)

// Client is a reconnecting SMTP gateway. Port 465 uses implicit TLS,
// anything else upgrades with STARTTLS when the server offers it.
type Client struct {
	cfg      config.SMTPConfig
	builder  *MessageBuilder
	throttle *Throttle
	log      *zerolog.Logger

	mu   sync.Mutex
	conn *smtp.Client
}

func NewClient(cfg config.SMTPConfig, builder *MessageBuilder, throttle *Throttle, log *zerolog.Logger) *Client {
	return &Client{cfg: cfg, builder: builder, throttle: throttle, log: log}
}

func (c *Client) addr() string {
	return net.JoinHostPort(c.cfg.Host, strconv.Itoa(c.cfg.Port))
}

func (c *Client) timeout() time.Duration {
	if c.cfg.TimeoutSec > 0 {
		return time.Duration(c.cfg.TimeoutSec * float64(time.Second))
	}
	return 30 * time.Second
}

// connect dials and authenticates. Caller holds c.mu.
func (c *Client) connect() error {
	tlsCfg := &tls.Config{ServerName: c.cfg.Host}
	dialer := &net.Dialer{Timeout: c.timeout()}

	var (
		conn *smtp.Client
		err  error
	)
	if c.cfg.Port == 465 && !c.cfg.StartTLS {
		var raw net.Conn
		raw, err = tls.DialWithDialer(dialer, "tcp", c.addr(), tlsCfg)
		if err != nil {
			return fmt.Errorf("smtp: dial tls: %w", err)
		}
		conn, err = smtp.NewClient(raw, c.cfg.Host)
		if err != nil {
			raw.Close()
			return fmt.Errorf("smtp: handshake: %w", err)
		}
	} else {
		var raw net.Conn
		raw, err = dialer.Dial("tcp", c.addr())
		if err != nil {
			return fmt.Errorf("smtp: dial: %w", err)
		}
		conn, err = smtp.NewClient(raw, c.cfg.Host)
		if err != nil {
			raw.Close()
			return fmt.Errorf("smtp: handshake: %w", err)
		}
		if ok, _ := conn.Extension("STARTTLS"); ok {
			if err = conn.StartTLS(tlsCfg); err != nil {
				conn.Close()
				return fmt.Errorf("smtp: starttls: %w", err)
			}
		}
	}

	auth := smtp.PlainAuth("", c.cfg.Address, c.cfg.Password, c.cfg.Host)
	if ok, _ := conn.Extension("AUTH"); ok {
		if err = conn.Auth(auth); err != nil {
			conn.Close()
			return fmt.Errorf("smtp: auth: %w", err)
		}
	}
	c.conn = conn
	c.log.Debug().Str("host", c.cfg.Host).Int("port", c.cfg.Port).Msg("smtp connected")
	return nil
}

// ensure probes the live connection with NOOP and reconnects if it is gone.
// Caller holds c.mu.
func (c *Client) ensure() error {
	if c.conn != nil {
		if err := c.conn.Noop(); err == nil {
			return nil
		}
		c.conn.Close()
		c.conn = nil
	}
	return c.connect()
}

func (c *Client) dropConn() {
	c.mu.Lock()
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
	c.mu.Unlock()
}

func (c *Client) transmit(to string, raw []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.ensure(); err != nil {
		return err
	}
	if err := c.conn.Mail(c.cfg.Address); err != nil {
		return err
	}
	if err := c.conn.Rcpt(to); err != nil {
		c.conn.Reset()
		return err
	}
	w, err := c.conn.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(raw); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

// Send pushes one message through the gateway. Transient failures (4xx
// responses, dropped connections) are retried with exponential backoff,
// permanent 5xx rejections fail immediately.
func (c *Client) Send(ctx context.Context, mail *adapter.OutgoingMail) (*adapter.SendResult, error) {
	raw, msgID, err := c.builder.Build(mail)
	if err != nil {
		return nil, fmt.Errorf("smtp: build message: %w", err)
	}
	domain := domainOf(mail.To)

	bo := &backoff.Backoff{Min: time.Second, Max: 30 * time.Second, Factor: 2, Jitter: true}
	var lastErr error
	for attempt := 1; attempt <= sendAttempts; attempt++ {
		if err := c.throttle.Wait(ctx, domain); err != nil {
			return nil, err
		}

		start := time.Now()
		err := c.transmit(mail.To, raw)
		if err == nil {
			c.throttle.NoteSuccess(domain)
			c.log.Debug().
				Str("to", mail.To).
				Str("message_id", msgID).
				Dur("took", time.Since(start)).
				Msg("smtp send ok")
			return &adapter.SendResult{MessageID: msgID, SMTPCode: 250}, nil
		}

		code := ResponseCode(err)
		if code >= 500 {
			return &adapter.SendResult{MessageID: msgID, SMTPCode: code}, err
		}
		lastErr = err
		c.throttle.NoteFailure(domain)
		c.dropConn()
		if attempt == sendAttempts {
			break
		}
		wait := bo.Duration()
		c.log.Warn().Err(err).Int("attempt", attempt).Dur("retry_in", wait).Msg("smtp send failed, retrying")
		if err := sleepCtx(ctx, wait); err != nil {
			return nil, err
		}
	}
	return &adapter.SendResult{MessageID: msgID, SMTPCode: ResponseCode(lastErr)}, lastErr
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Quit()
	c.conn = nil
	return err
}

// ResponseCode extracts the SMTP status from a protocol error, 0 otherwise.
func ResponseCode(err error) int {
	var tpErr *textproto.Error
	if errors.As(err, &tpErr) {
		return tpErr.Code
	}
	return 0
}

func domainOf(addr string) string {
	if i := strings.LastIndex(addr, "@"); i >= 0 {
		return strings.ToLower(addr[i+1:])
	}
	return ""
}
