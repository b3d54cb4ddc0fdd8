package resend

import (
	"bytes"
	"fmt"
	"html/template"
	"math"
	"time"

	"github.com/resend/resend-go/v2"
)

const DefaultFrom = "onboarding@resend.dev"

type ResendNotifier struct {
	ApiKey string
	Email  string
	From   string
}

var emailTemplate = template.Must(template.New("email").Parse(`
<p>The following habit streaks are expiring within the next {{.Hours}} hours:</p>
<ul>
{{range .Habits}}
  <li>{{.}}</li>
{{end}}
</ul>
`))

func (r *ResendNotifier) SendNudge(habits []string, window time.Duration) error {
	if r.ApiKey == "" || r.Email == "" {
		return fmt.Errorf("resend api key and recipient email are required")
	}
	body, err := render(habits, window)
	if err != nil {
		return err
	}

	from := r.From
	if from == "" {
		from = DefaultFrom
	}
	client := resend.NewClient(r.ApiKey)
	params := &resend.SendEmailRequest{
		From:    from,
		To:      []string{r.Email},
		Subject: "Streaks are expiring soon",
		Html:    body,
	}
	_, err = client.Emails.Send(params)
	return err
}

func render(habits []string, window time.Duration) (string, error) {
	data := struct {
		Habits []string
		Hours  int
	}{
		Habits: habits,
		Hours:  int(math.Ceil(window.Hours())),
	}
	var buf bytes.Buffer
	if err := emailTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
