package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"warehouse-lending-backend/internal/domain"
	"warehouse-lending-backend/internal/logger"
	"warehouse-lending-backend/internal/utils"
)

type sendgridClient interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

type emailService struct {
	client    sendgridClient
	fromEmail string
	fromName  string
}

func NewEmailService(apiKey, fromEmail, fromName string) EmailService {
	return newEmailService(sendgrid.NewSendClient(apiKey), fromEmail, fromName)
}

func newEmailService(client sendgridClient, fromEmail, fromName string) *emailService {
	return &emailService{client: client, fromEmail: fromEmail, fromName: fromName}
}

// SendOverdueDigest mails one summary of every overdue request. An empty list sends nothing.
func (s *emailService) SendOverdueDigest(ctx context.Context, to string, overdue []domain.BorrowingRequest, asOf time.Time) error {
	if len(overdue) == 0 {
		return nil
	}
	if to == "" {
		return domain.NewValidationError("to", "recipient is required")
	}

	subject := fmt.Sprintf("%d overdue borrowing request(s) as of %s", len(overdue), asOf.Format("2006-01-02"))
	plain, html := renderOverdueDigest(overdue, asOf)

	message := mail.NewSingleEmail(mail.NewEmail(s.fromName, s.fromEmail), subject, mail.NewEmail("", to), plain, html)
	response, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("failed to send overdue digest: %w", err)
	}
	if response.StatusCode >= 400 {
		return fmt.Errorf("sendgrid error: status %d, body: %s", response.StatusCode, response.Body)
	}

	logger.Info("Overdue digest sent", "to", to, "requests", len(overdue))
	return nil
}

func renderOverdueDigest(overdue []domain.BorrowingRequest, asOf time.Time) (string, string) {
	var plain, html strings.Builder
	fmt.Fprintf(&plain, "Borrowing requests past their required-by date as of %s:\n\n", asOf.Format(time.RFC3339))
	html.WriteString("<html><body><table><tr><th>Request</th><th>Requester</th><th>Required by</th><th>Days late</th><th>Outstanding</th></tr>")

	for _, req := range overdue {
		daysLate := utils.DaysLate(req.RequiredBy, asOf)
		fmt.Fprintf(&plain, "#%d requester %d, required by %s (%d days late), %d unit(s) outstanding\n",
			req.ID, req.RequesterID, utils.DateOf(req.RequiredBy), daysLate, req.TotalOutstanding())
		fmt.Fprintf(&html, "<tr><td>#%d</td><td>%d</td><td>%s</td><td>%d</td><td>%d</td></tr>",
			req.ID, req.RequesterID, utils.DateOf(req.RequiredBy), daysLate, req.TotalOutstanding())
	}
	html.WriteString("</table></body></html>")
	return plain.String(), html.String()
}
