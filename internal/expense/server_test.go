package expense

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"
	"google.golang.org/api/googleapi"
)

var _ = Describe("Server", func() {
	var (
		backend     *mockBackend
		table       *mockTable
		schema      Schema
		cfg         ServerConfig
		service     *Service
		server      *Server
		ghttpServer *ghttp.Server
	)

	// setupServer serves the given number of requests through the full handler chain
	setupServer := func(requests int) {
		if ghttpServer != nil {
			ghttpServer.Close()
		}
		ghttpServer = ghttp.NewServer()
		for i := 0; i < requests; i++ {
			ghttpServer.AppendHandlers(server.ServeHTTP)
		}
	}

	do := func(method, path, body string) *http.Response {
		var reader io.Reader
		if body != "" {
			reader = strings.NewReader(body)
		}
		req, err := http.NewRequest(method, ghttpServer.URL()+path, reader)
		Expect(err).NotTo(HaveOccurred())
		if body != "" {
			req.Header.Set("Content-Type", "application/json")
		}
		resp, err := http.DefaultClient.Do(req)
		Expect(err).NotTo(HaveOccurred())
		return resp
	}

	decode := func(resp *http.Response) map[string]any {
		defer resp.Body.Close()
		var body map[string]any
		Expect(json.NewDecoder(resp.Body).Decode(&body)).To(Succeed())
		return body
	}

	BeforeEach(func() {
		table = newMockTable("sheet-1", "Expenses")
		backend = newMockBackend(table)
		schema = SchemaPlace
		cfg = ServerConfig{
			Environment:  "test",
			Language:     English,
			BotConnected: func() bool { return true },
		}
	})

	JustBeforeEach(func() {
		timeSrc := &mockTimeSource{now: time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)}
		tables := NewTableManager(backend, TableConfig{Name: "Expenses", Fragment: "expenses", Schema: schema, Timeout: time.Second})
		service = NewServiceWithDeps(NewParserWithDeps(schema, timeSrc), tables, time.Second)
		server = NewServerWithMux(service, cfg, http.NewServeMux())
		setupServer(1)
	})

	AfterEach(func() {
		if ghttpServer != nil {
			ghttpServer.Close()
		}
	})

	Describe("handleHome", func() {
		When("request method is GET", func() {
			It("should report that the bot is alive", func() {
				resp := do("GET", "/", "")
				defer resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusOK))
				body, err := io.ReadAll(resp.Body)
				Expect(err).NotTo(HaveOccurred())
				Expect(string(body)).To(Equal("Bot is alive!"))
			})
		})

		When("request method is not GET", func() {
			It("should return status Method Not Allowed", func() {
				resp := do("POST", "/", "")
				resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusMethodNotAllowed))
			})
		})

		When("the path is unknown", func() {
			It("should return status Not Found", func() {
				resp := do("GET", "/nope", "")
				resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
			})
		})
	})

	Describe("handleStatus", func() {
		It("should report both listeners", func() {
			body := decode(do("GET", "/status", ""))
			Expect(body).To(HaveKeyWithValue("status", "running"))
			Expect(body).To(HaveKeyWithValue("bot_connected", true))
			Expect(body).To(HaveKeyWithValue("google_sheets_connected", false))
			Expect(body).To(HaveKeyWithValue("environment", "test"))
			Expect(body).To(HaveKey("timestamp"))
		})

		When("the table has been provisioned", func() {
			JustBeforeEach(func() {
				_, err := service.tables.EnsureReady(context.Background())
				Expect(err).NotTo(HaveOccurred())
			})

			It("should report the sheet as connected", func() {
				body := decode(do("GET", "/status", ""))
				Expect(body).To(HaveKeyWithValue("google_sheets_connected", true))
			})
		})

		When("the table is degraded", func() {
			BeforeEach(func() {
				backend = newMockBackend()
				backend.createErr = quotaError()
			})

			JustBeforeEach(func() {
				_, err := service.tables.EnsureReady(context.Background())
				Expect(IsQuotaExceeded(err)).To(BeTrue())
			})

			It("should say so", func() {
				body := decode(do("GET", "/status", ""))
				Expect(body["message"]).To(ContainSubstring("degraded"))
			})
		})

		When("no bot is attached", func() {
			BeforeEach(func() {
				cfg.BotConnected = nil
			})

			It("should report the bot as disconnected", func() {
				body := decode(do("GET", "/status", ""))
				Expect(body).To(HaveKeyWithValue("bot_connected", false))
			})
		})
	})

	Describe("handleHealth", func() {
		It("should report healthy", func() {
			resp := do("GET", "/health", "")
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(resp.Header.Get("Content-Type")).To(Equal("application/json"))
			Expect(decode(resp)).To(HaveKeyWithValue("status", "healthy"))
		})
	})

	Describe("handleHelp", func() {
		It("should describe every key of the active schema", func() {
			body := decode(do("GET", "/help", ""))
			format, ok := body["add_expense_format"].(map[string]any)
			Expect(ok).To(BeTrue())
			Expect(format).To(HaveKeyWithValue("method", "POST"))
			Expect(format["body"]).To(HaveLen(6))
			Expect(format["body"]).To(HaveKey("lugar"))
			Expect(body["example"]).To(HaveKeyWithValue("producto", "Pan"))
		})

		When("the schema has no place column", func() {
			BeforeEach(func() {
				schema = SchemaBasic
			})

			It("should not mention lugar", func() {
				body := decode(do("GET", "/help", ""))
				format := body["add_expense_format"].(map[string]any)
				Expect(format["body"]).To(HaveLen(5))
				Expect(format["body"]).NotTo(HaveKey("lugar"))
			})
		})
	})

	Describe("handleAddExpense", func() {
		When("the body is a complete field map", func() {
			var (
				resp *http.Response
				body map[string]any
			)

			JustBeforeEach(func() {
				resp = do("POST", "/add_expense", `{"producto":"Pan","lugar":"Panadería","categoria":"Comida","subcategoria":"Productos básicos","importe":2500,"cantidad":1}`)
				body = decode(resp)
			})

			It("should return status OK", func() {
				Expect(resp.StatusCode).To(Equal(http.StatusOK))
				Expect(body).To(HaveKeyWithValue("success", true))
			})

			It("should echo the record with the stamped date", func() {
				data, ok := body["data"].(map[string]any)
				Expect(ok).To(BeTrue())
				Expect(data).To(HaveKeyWithValue("producto", "Pan"))
				Expect(data).To(HaveKeyWithValue("lugar", "Panadería"))
				Expect(data).To(HaveKeyWithValue("importe", float64(2500)))
				Expect(data).To(HaveKeyWithValue("cantidad", float64(1)))
				Expect(data).To(HaveKeyWithValue("fecha", "2024-01-15 10:00:00"))
			})

			It("should append the row", func() {
				Expect(table.Rows()).To(Equal([][]any{
					{"2024-01-15 10:00:00", "Pan", "Panadería", "Comida", "Productos básicos", json.Number("2500"), 1},
				}))
			})

			It("should echo the request id", func() {
				Expect(resp.Header.Get("X-Request-ID")).NotTo(BeEmpty())
			})
		})

		When("keys are missing", func() {
			It("should return status Bad Request naming them", func() {
				resp := do("POST", "/add_expense", `{"producto":"Pan","importe":"2500"}`)
				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
				body := decode(resp)
				Expect(body).To(HaveKeyWithValue("success", false))
				Expect(body).To(HaveKeyWithValue("reason", "missing_fields"))
				Expect(body["fields"]).To(Equal([]any{"lugar", "categoria", "subcategoria", "cantidad"}))
				Expect(body["error"]).To(ContainSubstring("lugar"))
				Expect(table.Rows()).To(BeEmpty())
			})
		})

		When("the amount is invalid", func() {
			It("should return status Bad Request", func() {
				resp := do("POST", "/add_expense", `{"producto":"Pan","lugar":"x","categoria":"c","subcategoria":"s","importe":"abc","cantidad":1}`)
				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
				Expect(decode(resp)).To(HaveKeyWithValue("reason", "invalid_amount"))
			})
		})

		When("the body is empty", func() {
			It("should return status Bad Request", func() {
				resp := do("POST", "/add_expense", `{}`)
				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
				Expect(decode(resp)).To(HaveKeyWithValue("error", "No data provided"))
			})
		})

		When("the body is not JSON", func() {
			It("should return status Bad Request", func() {
				resp := do("POST", "/add_expense", `producto=Pan`)
				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
				Expect(decode(resp)).To(HaveKeyWithValue("success", false))
			})
		})

		When("the storage quota is exceeded", func() {
			BeforeEach(func() {
				backend = newMockBackend()
				backend.createErr = quotaError()
			})

			It("should return status Internal Server Error flagged as quota", func() {
				resp := do("POST", "/add_expense", `{"producto":"Pan","lugar":"x","categoria":"c","subcategoria":"s","importe":1,"cantidad":1}`)
				Expect(resp.StatusCode).To(Equal(http.StatusInternalServerError))
				body := decode(resp)
				Expect(body).To(HaveKeyWithValue("quota_exceeded", true))
				Expect(body["error"]).To(ContainSubstring("quota"))
				Expect(body["error"]).To(ContainSubstring("Expenses"))
			})
		})

		When("the write fails", func() {
			BeforeEach(func() {
				table.appendErrs = []error{&googleapi.Error{Code: 400, Message: "invalid range"}}
			})

			It("should return status Internal Server Error", func() {
				resp := do("POST", "/add_expense", `{"producto":"Pan","lugar":"x","categoria":"c","subcategoria":"s","importe":1,"cantidad":1}`)
				Expect(resp.StatusCode).To(Equal(http.StatusInternalServerError))
				body := decode(resp)
				Expect(body).To(HaveKeyWithValue("quota_exceeded", false))
				Expect(body).To(HaveKeyWithValue("error", "Error recording the expense in Google Sheets"))
			})
		})

		When("the language is Spanish", func() {
			BeforeEach(func() {
				cfg.Language = Spanish
			})

			It("should answer in Spanish", func() {
				resp := do("POST", "/add_expense", `{}`)
				Expect(decode(resp)).To(HaveKeyWithValue("error", "No se proporcionaron datos"))
			})
		})

		When("request method is GET", func() {
			It("should return status Method Not Allowed", func() {
				resp := do("GET", "/add_expense", "")
				resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusMethodNotAllowed))
			})
		})
	})

	Describe("handleReprobe", func() {
		When("the table was degraded and space was freed", func() {
			BeforeEach(func() {
				backend = newMockBackend()
				backend.createErr = quotaError()
			})

			JustBeforeEach(func() {
				_, err := service.tables.EnsureReady(context.Background())
				Expect(IsQuotaExceeded(err)).To(BeTrue())

				backend.mu.Lock()
				backend.createErr = nil
				backend.mu.Unlock()
			})

			It("should report the table as ready", func() {
				body := decode(do("POST", "/admin/reprobe", ""))
				Expect(body).To(HaveKeyWithValue("success", true))
				Expect(body).To(HaveKeyWithValue("table_state", "ready"))
				Expect(service.TableState()).To(Equal(TableReady))
			})
		})

		When("the quota is still exceeded", func() {
			BeforeEach(func() {
				backend = newMockBackend()
				backend.createErr = quotaError()
			})

			It("should report the degraded state", func() {
				body := decode(do("POST", "/admin/reprobe", ""))
				Expect(body).To(HaveKeyWithValue("success", false))
				Expect(body).To(HaveKeyWithValue("table_state", "degraded"))
				Expect(body).To(HaveKeyWithValue("quota_exceeded", true))
			})
		})
	})

	Describe("middleware", func() {
		It("should answer CORS preflight requests", func() {
			resp := do("OPTIONS", "/add_expense", "")
			resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusNoContent))
			Expect(resp.Header.Get("Access-Control-Allow-Origin")).To(Equal("*"))
		})

		It("should keep a caller supplied request id", func() {
			req, err := http.NewRequest("GET", ghttpServer.URL()+"/health", nil)
			Expect(err).NotTo(HaveOccurred())
			req.Header.Set("X-Request-ID", "abc-123")
			resp, err := http.DefaultClient.Do(req)
			Expect(err).NotTo(HaveOccurred())
			resp.Body.Close()
			Expect(resp.Header.Get("X-Request-ID")).To(Equal("abc-123"))
		})

		It("should expose metrics", func() {
			resp := do("GET", "/metrics", "")
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			body, err := io.ReadAll(resp.Body)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(body)).To(ContainSubstring("expense_table_state"))
		})
	})

	Describe("Start and Shutdown", func() {
		It("should stop a running server", func() {
			done := make(chan error, 1)
			go func() {
				done <- server.Start("127.0.0.1:0")
			}()

			Expect(server.Shutdown(context.Background())).To(Succeed())
			Eventually(done).Should(Receive(MatchError(http.ErrServerClosed)))
		})

		It("should not start after Shutdown", func() {
			Expect(server.Shutdown(context.Background())).To(Succeed())
			Expect(server.Start("127.0.0.1:0")).To(MatchError(http.ErrServerClosed))
		})

		It("should report a listen failure", func() {
			Expect(server.Start("127.0.0.1:-1")).NotTo(Succeed())
		})
	})

	Describe("serving several requests", func() {
		JustBeforeEach(func() {
			setupServer(2)
		})

		It("should reuse the provisioned table", func() {
			payload := `{"producto":"Pan","lugar":"x","categoria":"c","subcategoria":"s","importe":1,"cantidad":1}`
			for i := 0; i < 2; i++ {
				resp := do("POST", "/add_expense", payload)
				resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusOK))
			}

			Expect(table.Rows()).To(HaveLen(2))
			open, _, _ := backend.Calls()
			Expect(open).To(Equal(1))
		})
	})
})
