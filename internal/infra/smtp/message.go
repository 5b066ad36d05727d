package smtp

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"math/rand"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/textproto"
	"regexp"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"telegram-email-bot/internal/domain/ports/adapter"
)

var rxLogoImg = regexp.MustCompile(`(?i)<img[^>]+cid:logo[^>]*>`)

// MessageBuilder renders OutgoingMail into a wire-ready MIME message.
type MessageBuilder struct {
	fromAddr string
	fromName string
	domain   string

	logo []byte // inline PNG attached as cid:logo, nil disables

	unsub *Unsubscribe
}

func NewMessageBuilder(fromAddr, fromName string, logo []byte, unsub *Unsubscribe) *MessageBuilder {
	domain := fromAddr
	if i := strings.LastIndex(fromAddr, "@"); i >= 0 {
		domain = fromAddr[i+1:]
	}
	return &MessageBuilder{
		fromAddr: fromAddr,
		fromName: fromName,
		domain:   domain,
		logo:     logo,
		unsub:    unsub,
	}
}

// Build returns the raw message and its Message-ID.
func (b *MessageBuilder) Build(mail *adapter.OutgoingMail) ([]byte, string, error) {
	msgID := fmt.Sprintf("<%s@%s>", ulid.MustNew(ulid.Timestamp(time.Now()), ulid.DefaultEntropy()), b.domain)

	var buf bytes.Buffer
	writeHeader := func(k, v string) { fmt.Fprintf(&buf, "%s: %s\r\n", k, v) }

	from := b.fromAddr
	if b.fromName != "" {
		from = fmt.Sprintf("%s <%s>", mime.QEncoding.Encode("utf-8", b.fromName), b.fromAddr)
	}
	writeHeader("From", from)
	writeHeader("To", mail.To)
	writeHeader("Subject", mime.QEncoding.Encode("utf-8", mail.Subject))
	writeHeader("Date", time.Now().UTC().Format(time.RFC1123Z))
	writeHeader("Message-ID", msgID)
	writeHeader("MIME-Version", "1.0")
	b.writeUnsubscribe(&buf, mail.To)

	html := mail.BodyHTML
	if b.logo == nil {
		// strip dangling logo references so clients do not show a broken image
		html = rxLogoImg.ReplaceAllString(html, "")
	}

	if b.logo == nil {
		writeHeader("Content-Type", `text/html; charset="utf-8"`)
		writeHeader("Content-Transfer-Encoding", "quoted-printable")
		buf.WriteString("\r\n")
		if err := writeQP(&buf, html); err != nil {
			return nil, "", err
		}
		return buf.Bytes(), msgID, nil
	}

	boundary := relatedBoundary()
	writeHeader("Content-Type", fmt.Sprintf(`multipart/related; boundary=%q`, boundary))
	buf.WriteString("\r\n")

	mw := multipart.NewWriter(&buf)
	if err := mw.SetBoundary(boundary); err != nil {
		return nil, "", err
	}

	part, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {`text/html; charset="utf-8"`},
		"Content-Transfer-Encoding": {"quoted-printable"},
	})
	if err != nil {
		return nil, "", err
	}
	qp := quotedprintable.NewWriter(part)
	if _, err := qp.Write([]byte(html)); err != nil {
		return nil, "", err
	}
	if err := qp.Close(); err != nil {
		return nil, "", err
	}

	img, err := mw.CreatePart(textproto.MIMEHeader{
		"Content-Type":              {"image/png"},
		"Content-Transfer-Encoding": {"base64"},
		"Content-ID":                {"<logo>"},
		"Content-Disposition":       {`inline; filename="logo.png"`},
	})
	if err != nil {
		return nil, "", err
	}
	if err := writeBase64(img, b.logo); err != nil {
		return nil, "", err
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), msgID, nil
}

func (b *MessageBuilder) writeUnsubscribe(buf *bytes.Buffer, recipient string) {
	parts := []string{fmt.Sprintf("<mailto:%s?subject=unsubscribe>", b.fromAddr)}
	if b.unsub != nil {
		if link, err := b.unsub.URL(recipient); err == nil {
			parts = append(parts, fmt.Sprintf("<%s>", link))
			fmt.Fprintf(buf, "List-Unsubscribe-Post: List-Unsubscribe=One-Click\r\n")
		}
	}
	fmt.Fprintf(buf, "List-Unsubscribe: %s\r\n", strings.Join(parts, ", "))
}

func writeQP(buf *bytes.Buffer, s string) error {
	w := quotedprintable.NewWriter(buf)
	if _, err := w.Write([]byte(s)); err != nil {
		return err
	}
	return w.Close()
}

func writeBase64(w interface{ Write([]byte) (int, error) }, data []byte) error {
	enc := base64.StdEncoding.EncodeToString(data)
	for len(enc) > 0 {
		n := 76
		if n > len(enc) {
			n = len(enc)
		}
		if _, err := w.Write([]byte(enc[:n] + "\r\n")); err != nil {
			return err
		}
		enc = enc[n:]
	}
	return nil
}

func relatedBoundary() string {
	return fmt.Sprintf("rel-%016x", rand.Uint64())
}
