package services

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"
	"strings"

	"github.com/sirupsen/logrus"
)

type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type MailService struct {
	cfg     SMTPConfig
	enabled bool
	send    sendFunc
	log     logrus.FieldLogger
}

var complaintUpdateTmpl = template.Must(template.New("complaint_update").Parse(`<p>Hi {{.Username}},</p>
<p>Your report <strong>{{.Title}}</strong> is now <strong>{{.Status}}</strong>.</p>
{{if .Response}}<blockquote>{{.Response}}</blockquote>{{end}}
<p>UniSphere Student Support</p>`))

var replyTmpl = template.Must(template.New("reply").Parse(`<p>Hi {{.Username}},</p>
<p>{{.Replier}} replied to your comment on <strong>{{.PostTitle}}</strong>:</p>
<blockquote>{{.Reply}}</blockquote>
<p>UniSphere</p>`))

func NewMailService(cfg SMTPConfig, log logrus.FieldLogger) *MailService {
	enabled := cfg.Host != "" && cfg.Port != "" && cfg.Username != "" && cfg.Password != "" && cfg.From != ""
	if !enabled {
		log.Warn("mail disabled: missing SMTP settings")
	}
	return &MailService{cfg: cfg, enabled: enabled, send: smtp.SendMail, log: log}
}

func (s *MailService) Enabled() bool {
	return s != nil && s.enabled
}

func (s *MailService) message(to []string, subject, body string) []byte {
	mime := "MIME-version: 1.0;\nContent-Type: text/html; charset=\"UTF-8\";\n\n"
	return []byte(fmt.Sprintf("To: %s\r\nFrom: UniSphere <%s>\r\nSubject: %s\r\n%s\r\n%s",
		strings.Join(to, ","), s.cfg.From, subject, mime, body))
}

func (s *MailService) sendAsync(to []string, subject, body string) {
	if !s.Enabled() {
		return
	}
	msg := s.message(to, subject, body)
	go func() {
		auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
		addr := fmt.Sprintf("%s:%s", s.cfg.Host, s.cfg.Port)
		entry := s.log.WithFields(logrus.Fields{"to": to, "subject": subject})
		if err := s.send(addr, auth, s.cfg.From, to, msg); err != nil {
			entry.WithError(err).Error("send email failed")
			return
		}
		entry.Info("email sent")
	}()
}

func render(t *template.Template, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("execute template %s: %w", t.Name(), err)
	}
	return buf.String(), nil
}

// SendComplaintUpdate tells a student that an admin changed their report.
func (s *MailService) SendComplaintUpdate(email, username, title, status, response string) {
	if !s.Enabled() || email == "" {
		return
	}
	body, err := render(complaintUpdateTmpl, map[string]string{
		"Username": username,
		"Title":    title,
		"Status":   strings.ReplaceAll(status, "_", " "),
		"Response": response,
	})
	if err != nil {
		s.log.WithError(err).Error("render complaint email failed")
		return
	}
	s.sendAsync([]string{email}, "[UniSphere] Update on your report: "+title, body)
}

// SendReplyNotification tells a comment author about a new reply. Callers
// must not reveal anonymous repliers.
func (s *MailService) SendReplyNotification(email, username, replier, postTitle, reply string) {
	if !s.Enabled() || email == "" {
		return
	}
	body, err := render(replyTmpl, map[string]string{
		"Username":  username,
		"Replier":   replier,
		"PostTitle": postTitle,
		"Reply":     reply,
	})
	if err != nil {
		s.log.WithError(err).Error("render reply email failed")
		return
	}
	s.sendAsync([]string{email}, "[UniSphere] "+replier+" replied to your comment", body)
}
