package mail

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	gomail "github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

// AckDetails carries what the acknowledgment email tells the customer.
type AckDetails struct {
	To           string
	CC           []string
	EnquiryID    string
	EnquiryDate  string
	EnquiryTime  string
	CustomerName string
	CompanyName  string
	EditURL      string
}

// Acknowledger sends an enquiry-received acknowledgment back to the sender.
type Acknowledger interface {
	SendAcknowledgment(ctx context.Context, details AckDetails) error
}

// SMTPAcknowledger sends acknowledgments through an authenticated SMTP
// submission port with STARTTLS.
type SMTPAcknowledger struct {
	host     string
	port     int
	username string
	password string
	fromName string
}

// NewSMTPAcknowledger creates an acknowledger.
func NewSMTPAcknowledger(host string, port int, username, password, fromName string) *SMTPAcknowledger {
	return &SMTPAcknowledger{
		host:     host,
		port:     port,
		username: username,
		password: password,
		fromName: fromName,
	}
}

// SendAcknowledgment sends the acknowledgment email for one accepted
// enquiry.
func (s *SMTPAcknowledger) SendAcknowledgment(ctx context.Context, details AckDetails) error {
	msg := gomail.NewMsg()
	if err := msg.FromFormat(s.fromName, s.username); err != nil {
		return eris.Wrap(err, "mail: set from")
	}
	if err := msg.To(details.To); err != nil {
		return eris.Wrapf(err, "mail: set recipient %s", details.To)
	}
	if len(details.CC) > 0 {
		if err := msg.Cc(details.CC...); err != nil {
			return eris.Wrap(err, "mail: set cc")
		}
	}
	msg.Subject(fmt.Sprintf("Acknowledgment: Enquiry %s", details.EnquiryID))
	msg.SetBodyString(gomail.TypeTextPlain, buildAckBody(details))

	client, err := gomail.NewClient(s.host,
		gomail.WithPort(s.port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.username),
		gomail.WithPassword(s.password),
		gomail.WithTLSPortPolicy(gomail.TLSMandatory),
	)
	if err != nil {
		return eris.Wrap(err, "mail: smtp client")
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return eris.Wrapf(err, "mail: send acknowledgment for %s", details.EnquiryID)
	}

	zap.L().Info("mail: acknowledgment sent",
		zap.String("enquiry_id", details.EnquiryID),
		zap.String("to", details.To),
		zap.Int("cc", len(details.CC)),
	)
	return nil
}

// buildAckBody renders the acknowledgment body.
func buildAckBody(d AckDetails) string {
	customer := valueOr(d.CustomerName, "Unknown")
	enquiryName := fmt.Sprintf("Enquiry from %s on %s", customer, valueOr(d.EnquiryDate, "N/A"))
	dateTime := strings.TrimSpace(valueOr(d.EnquiryDate, "N/A") + " " + valueOr(d.EnquiryTime, "N/A"))

	return fmt.Sprintf(`Dear %s,

Thank you for your enquiry. We have received your request and it is being processed. Below are the details:

- Enquiry ID: %s
- Enquiry Name: %s
- Customer Name: %s
- Company Name: %s
- Date & Time: %s
- Edit Enquiry: %s

We will get back to you soon with further details.

Best regards,
ISP Standards Team
`,
		customer,
		valueOr(d.EnquiryID, "N/A"),
		enquiryName,
		customer,
		valueOr(d.CompanyName, "N/A"),
		dateTime,
		d.EditURL,
	)
}

func valueOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
