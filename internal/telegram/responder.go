package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/zombor/expense-tracker/internal/expense"
)

// Responder turns chat input into reply text. It holds no per-chat state.
type Responder struct {
	service  *expense.Service
	messages messages
}

// NewResponder creates a Responder replying in the given language
func NewResponder(service *expense.Service, lang expense.Language) *Responder {
	msgs, ok := catalog[lang]
	if !ok {
		msgs = catalog[expense.English]
	}
	return &Responder{
		service:  service,
		messages: msgs,
	}
}

// Welcome returns the /start reply
func (r *Responder) Welcome() string {
	var b strings.Builder
	b.WriteString(r.messages.Welcome)
	b.WriteString("\n\n")
	for _, f := range r.service.Schema().Fields {
		b.WriteString(r.messages.Labels[f])
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(r.example())
	b.WriteString("\n\n")
	b.WriteString(r.messages.WelcomeOutro)
	return b.String()
}

// Help returns the /help reply
func (r *Responder) Help() string {
	schema := r.service.Schema()

	var b strings.Builder
	fmt.Fprintf(&b, r.messages.HelpIntro, schema.LineCount())
	b.WriteString("\n")
	for i, f := range schema.Fields {
		fmt.Fprintf(&b, "   %d. %s\n", i+1, r.messages.LineHints[f])
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, r.messages.HelpOutro, schema.LineCount())
	b.WriteString("\n\n")
	b.WriteString(r.example())
	return b.String()
}

// UnknownCommand returns the reply to an unregistered slash command
func (r *Responder) UnknownCommand() string {
	return r.messages.UnknownCommand
}

// Retry forces the backing table to be provisioned again and reports the outcome
func (r *Responder) Retry(ctx context.Context) string {
	state, err := r.service.Reprobe(ctx)
	if err != nil {
		return r.failure(err)
	}
	slog.Info("Backing table re-probed from chat", "state", state.String())
	return fmt.Sprintf(r.messages.Reconnected, r.service.TableName())
}

// Reply logs an expense from a line-delimited message and returns the reply text
func (r *Responder) Reply(ctx context.Context, text string) string {
	record, err := r.service.Ingest(ctx, expense.ChannelChat, expense.LinesRequest(text))
	if err != nil {
		var rejection *expense.Rejection
		if errors.As(err, &rejection) {
			return r.invalidFormat(rejection)
		}
		return r.failure(err)
	}
	return r.logged(record)
}

// invalidFormat explains the rejection, the expected lines and a worked example
func (r *Responder) invalidFormat(rejection *expense.Rejection) string {
	schema := r.service.Schema()

	var b strings.Builder
	b.WriteString(r.messages.InvalidFormat)
	b.WriteString("\n\n")

	switch rejection.Reason {
	case expense.ReasonWrongLineCount:
		fmt.Fprintf(&b, r.messages.WrongLineCount, rejection.Got)
		b.WriteString(" ")
	case expense.ReasonEmptyField:
		fmt.Fprintf(&b, r.messages.EmptyField, strings.Join(r.labels(rejection.Fields), ", "))
		b.WriteString(" ")
	case expense.ReasonInvalidAmount:
		b.WriteString(r.messages.InvalidAmount)
		b.WriteString(" ")
	case expense.ReasonInvalidQuantity:
		b.WriteString(r.messages.InvalidQty)
		b.WriteString(" ")
	}

	fmt.Fprintf(&b, r.messages.SendExactly, schema.LineCount())
	b.WriteString("\n")
	for i, f := range schema.Fields {
		fmt.Fprintf(&b, "%d. %s\n", i+1, r.messages.LineHints[f])
	}
	b.WriteString("\n")
	b.WriteString(r.example())
	return b.String()
}

// failure renders an *expense.AppendError or *expense.SetupError
func (r *Responder) failure(err error) string {
	if expense.IsQuotaExceeded(err) {
		return fmt.Sprintf(r.messages.QuotaExceeded, r.service.TableName())
	}

	var appendErr *expense.AppendError
	if errors.As(err, &appendErr) && appendErr.Kind == expense.AppendWriteFailed {
		return r.messages.WriteFailed
	}
	return r.messages.NotReady
}

// logged echoes every field of the recorded expense
func (r *Responder) logged(record *expense.Record) string {
	values := map[expense.Field]string{
		expense.FieldProduct:     record.Product,
		expense.FieldPlace:       record.Place,
		expense.FieldCategory:    record.Category,
		expense.FieldSubcategory: record.Subcategory,
		expense.FieldAmount:      record.Amount.String(),
		expense.FieldQuantity:    fmt.Sprintf("%d", record.Quantity),
	}

	var b strings.Builder
	b.WriteString(r.messages.Logged)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "📅 %s: %s", r.messages.DateLabel, record.Date())
	for _, f := range r.service.Schema().Fields {
		fmt.Fprintf(&b, "\n%s %s: %s", fieldEmojis[f], r.messages.Labels[f], values[f])
	}
	return b.String()
}

func (r *Responder) example() string {
	example := examples[r.service.Schema().Name]
	lines := make([]string, 0, len(example))
	for _, f := range r.service.Schema().Fields {
		lines = append(lines, example[f])
	}
	return r.messages.Example + "\n" + strings.Join(lines, "\n")
}

// labels translates field names from a rejection into display labels
func (r *Responder) labels(fields []string) []string {
	labels := make([]string, 0, len(fields))
	for _, f := range fields {
		if label, ok := r.messages.Labels[expense.Field(f)]; ok {
			labels = append(labels, label)
			continue
		}
		labels = append(labels, f)
	}
	return labels
}
