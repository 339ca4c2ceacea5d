package telegram

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/go-telegram/bot/models"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"

	"github.com/zombor/expense-tracker/internal/expense"
)

const testToken = "123456:test-token"

var _ = Describe("Bot", func() {
	var (
		server  *ghttp.Server
		backend *mockBackend
		b       *Bot
		sent    []string
	)

	// captureSend records the body of one sendMessage call
	captureSend := func() http.HandlerFunc {
		return ghttp.CombineHandlers(
			ghttp.VerifyRequest("POST", "/bot"+testToken+"/sendMessage"),
			func(w http.ResponseWriter, r *http.Request) {
				body, err := io.ReadAll(r.Body)
				Expect(err).NotTo(HaveOccurred())
				sent = append(sent, string(body))
			},
			ghttp.RespondWith(http.StatusOK, `{"ok":true,"result":{"message_id":1,"date":0,"chat":{"id":42,"type":"private"}}}`),
		)
	}

	message := func(text string) *models.Update {
		return &models.Update{
			Message: &models.Message{
				Text: text,
				Chat: models.Chat{ID: 42},
			},
		}
	}

	BeforeEach(func() {
		server = ghttp.NewServer()
		backend = &mockBackend{table: &mockTable{}}
		sent = nil

		timeSrc := &mockTimeSource{now: time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)}
		tables := expense.NewTableManager(backend, expense.TableConfig{Name: "Expenses", Schema: expense.SchemaBasic, Timeout: time.Second})
		service := expense.NewServiceWithDeps(expense.NewParserWithDeps(expense.SchemaBasic, timeSrc), tables, time.Second)

		var err error
		b, err = New(Config{Token: testToken, ServerURL: server.URL()}, NewResponder(service, expense.English))
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		server.Close()
	})

	It("should require a token", func() {
		_, err := New(Config{}, nil)
		Expect(err).To(HaveOccurred())
	})

	It("should not report a connection before Start", func() {
		Expect(b.Connected()).To(BeFalse())
	})

	When("a free-text message arrives", func() {
		BeforeEach(func() {
			server.AppendHandlers(captureSend())
		})

		It("should log the expense and reply", func() {
			b.handleMessage(context.Background(), b.api, message("Harina\ncomida\npanaderia\n1200\n2"))
			Expect(sent).To(HaveLen(1))
			Expect(sent[0]).To(ContainSubstring("Expense logged successfully"))
			Expect(backend.table.rows).To(HaveLen(1))
		})
	})

	When("an unknown command arrives", func() {
		BeforeEach(func() {
			server.AppendHandlers(captureSend())
		})

		It("should point at /help without logging", func() {
			b.handleMessage(context.Background(), b.api, message("/stats"))
			Expect(sent).To(HaveLen(1))
			Expect(sent[0]).To(ContainSubstring("Unknown command"))
			Expect(backend.table.rows).To(BeEmpty())
		})
	})

	When("/start arrives", func() {
		BeforeEach(func() {
			server.AppendHandlers(captureSend())
		})

		It("should send the welcome", func() {
			b.handleStart(context.Background(), b.api, message("/start"))
			Expect(sent).To(HaveLen(1))
			Expect(sent[0]).To(ContainSubstring("Welcome to the Expense Tracker Bot"))
		})
	})

	When("the update has no message", func() {
		It("should not reply", func() {
			b.handleMessage(context.Background(), b.api, &models.Update{})
			Expect(server.ReceivedRequests()).To(BeEmpty())
		})
	})

	When("the reply cannot be delivered", func() {
		BeforeEach(func() {
			server.AppendHandlers(ghttp.RespondWith(http.StatusBadRequest, `{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`))
		})

		It("should still log the expense", func() {
			b.handleMessage(context.Background(), b.api, message("Harina\ncomida\npanaderia\n1200\n2"))
			Expect(backend.table.rows).To(HaveLen(1))
		})
	})
})
