package mail

import (
	"context"
	"fmt"
	"time"

	gomail "gopkg.in/gomail.v2"

	"spark-health-backend/internal/domain"
	"spark-health-backend/internal/infra/metrics"
)

// SMTP отправляет служебные письма через gomail.
type SMTP struct {
	dialer *gomail.Dialer
	from   string
}

var _ domain.Mailer = (*SMTP)(nil)

// NewSMTP создаёт почтовый адаптер.
func NewSMTP(host string, port int, user, pass, from string) *SMTP {
	return &SMTP{dialer: gomail.NewDialer(host, port, user, pass), from: from}
}

type resetTemplate struct {
	subject string
	body    string
}

// Шаблоны письма сброса пароля по языкам интерфейса.
var resetTemplates = map[string]resetTemplate{
	"ru": {
		subject: "Сброс пароля",
		body:    "<p>Здравствуйте!</p><p>Вы запросили сброс пароля. Перейдите по ссылке, чтобы задать новый пароль:</p><p><a href=\"%s\">Сбросить пароль</a></p><p>Если вы не запрашивали сброс, просто проигнорируйте это письмо.</p>",
	},
	"en": {
		subject: "Password reset",
		body:    "<p>Hello!</p><p>You requested a password reset. Follow the link to set a new password:</p><p><a href=\"%s\">Reset password</a></p><p>If you did not request a reset, just ignore this email.</p>",
	},
	"kz": {
		subject: "Құпия сөзді қалпына келтіру",
		body:    "<p>Сәлеметсіз бе!</p><p>Сіз құпия сөзді қалпына келтіруді сұрадыңыз. Жаңа құпия сөз орнату үшін сілтемеге өтіңіз:</p><p><a href=\"%s\">Құпия сөзді қалпына келтіру</a></p><p>Егер сұрамаған болсаңыз, бұл хатты елемеңіз.</p>",
	},
}

// SendPasswordReset отправляет письмо со ссылкой на сброс пароля.
// Неизвестный язык откатывается на русский.
func (s *SMTP) SendPasswordReset(ctx context.Context, to, link, lang string) error {
	tpl, ok := resetTemplates[lang]
	if !ok {
		tpl = resetTemplates["ru"]
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", s.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", tpl.subject)
	msg.SetBody("text/html", fmt.Sprintf(tpl.body, link))

	done := make(chan error, 1)
	start := time.Now()
	go func() { done <- s.dialer.DialAndSend(msg) }()

	select {
	case <-ctx.Done():
		metrics.ObserveNetworkRequest("smtp", "send", "password_reset", start, ctx.Err())
		return ctx.Err()
	case err := <-done:
		metrics.ObserveNetworkRequest("smtp", "send", "password_reset", start, err)
		if err != nil {
			return fmt.Errorf("отправка письма: %w", err)
		}
		return nil
	}
}
