// Package mail renders and delivers the account verification email.
package mail

import (
	"bytes"
	"fmt"
	"html/template"
	"mime"
	"strings"
	"time"

	"github.com/google/uuid"
)

const verificationSubject = "Account Verification"

var verificationTmpl = template.Must(template.New("verification").Parse(`<!DOCTYPE html>
<html>
<body>
<p>Hello {{.Username}},</p>
<p>Thanks for signing up. Please verify your account by clicking the link below:</p>
<p><a href="{{.Link}}">Verify my account</a></p>
<p>If the link does not work, copy this address into your browser:<br>{{.Link}}</p>
</body>
</html>
`))

// Message is a single outbound HTML email.
type Message struct {
	From    string
	To      string
	Subject string
	HTML    string
	Date    time.Time
}

// Verification builds the verification email for username pointing at link.
func Verification(from, to, username, link string, now time.Time) (Message, error) {
	var body bytes.Buffer
	err := verificationTmpl.Execute(&body, struct {
		Username string
		Link     string
	}{username, link})
	if err != nil {
		return Message{}, fmt.Errorf("mail.Verification: %w", err)
	}

	return Message{
		From:    from,
		To:      to,
		Subject: verificationSubject,
		HTML:    body.String(),
		Date:    now,
	}, nil
}

// Bytes encodes m as an RFC 5322 message with CRLF line endings.
func (m Message) Bytes() []byte {
	var b bytes.Buffer

	header := func(k, v string) {
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(v)
		b.WriteString("\r\n")
	}

	header("From", m.From)
	header("To", m.To)
	header("Subject", mime.QEncoding.Encode("utf-8", m.Subject))
	header("Date", m.Date.Format(time.RFC1123Z))
	header("Message-ID", "<"+uuid.NewString()+"@"+domainOf(m.From)+">")
	header("MIME-Version", "1.0")
	header("Content-Type", `text/html; charset="UTF-8"`)
	header("Content-Transfer-Encoding", "8bit")
	b.WriteString("\r\n")

	b.WriteString(strings.ReplaceAll(strings.ReplaceAll(m.HTML, "\r\n", "\n"), "\n", "\r\n"))

	return b.Bytes()
}

func domainOf(addr string) string {
	addr = strings.TrimRight(addr, "> ")
	if at := strings.LastIndexByte(addr, '@'); at >= 0 && at < len(addr)-1 {
		return addr[at+1:]
	}
	return "localhost"
}
