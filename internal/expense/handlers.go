package expense

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// maxBodySize caps /add_expense request bodies
const maxBodySize = 1 << 20

// handleHome serves the liveness page
func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("Bot is alive!"))
}

// handleStatus reports the state of both listeners and the backing table
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	state := s.service.TableState()
	message := s.messages.Running
	if state == TableDegraded {
		message = s.messages.Degraded
	}

	botConnected := false
	if s.cfg.BotConnected != nil {
		botConnected = s.cfg.BotConnected()
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":                  "running",
		"bot_connected":           botConnected,
		"google_sheets_connected": state == TableReady,
		"timestamp":               time.Now().Format(time.RFC3339),
		"message":                 message,
		"environment":             s.cfg.Environment,
	})
}

// handleHealth answers load balancer probes
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// handleHelp describes the add-expense contract for the active schema
func (s *Server) handleHelp(w http.ResponseWriter, r *http.Request) {
	schema := s.service.Schema()

	body := make(map[string]string, len(schema.Fields))
	example := make(map[string]string, len(schema.Fields))
	for _, f := range schema.Fields {
		body[Key(f)] = fieldDescriptions[s.cfg.Language][f]
		example[Key(f)] = apiExample[f]
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"endpoints": map[string]string{
			"/":              "Check if bot is alive",
			"/status":        "Get bot status",
			"/health":        "Health check",
			"/add_expense":   "Add expense (POST with JSON data)",
			"/admin/reprobe": "Retry backing table setup (POST)",
			"/metrics":       "Prometheus metrics",
			"/help":          "This help message",
		},
		"add_expense_format": map[string]any{
			"method":       "POST",
			"content_type": "application/json",
			"body":         body,
		},
		"example": example,
	})
}

// handleAddExpense records one expense from a JSON field map
func (s *Server) handleAddExpense(w http.ResponseWriter, r *http.Request) {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	decoder.UseNumber()

	var body map[string]any
	if err := decoder.Decode(&body); err != nil {
		slog.Debug("Invalid add_expense body", "error", err)
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"error":   s.messages.InvalidBody,
		})
		return
	}
	if len(body) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"error":   s.messages.NoData,
		})
		return
	}

	record, err := s.service.Ingest(r.Context(), ChannelAPI, FieldsRequest(body))
	if err != nil {
		var rejection *Rejection
		if errors.As(err, &rejection) {
			writeJSON(w, http.StatusBadRequest, map[string]any{
				"success": false,
				"error":   s.rejectionMessage(rejection),
				"reason":  rejection.Reason,
				"fields":  rejection.Fields,
			})
			return
		}

		slog.Error("Error adding expense", "error", err, "request_id", RequestIDFromContext(r.Context()))
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"success":        false,
			"error":          s.appendMessage(err),
			"quota_exceeded": IsQuotaExceeded(err),
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": s.messages.Logged,
		"data":    s.echo(record),
	})
}

// handleReprobe clears a degraded table state and provisions the table again
func (s *Server) handleReprobe(w http.ResponseWriter, r *http.Request) {
	state, err := s.service.Reprobe(r.Context())
	response := map[string]any{
		"success":                 err == nil,
		"table_state":             state.String(),
		"google_sheets_connected": state == TableReady,
	}
	if err != nil {
		response["error"] = s.appendMessage(err)
		response["quota_exceeded"] = IsQuotaExceeded(err)
	}
	writeJSON(w, http.StatusOK, response)
}

// echo returns the recorded fields keyed like the request, plus the stamped date
func (s *Server) echo(record *Record) map[string]any {
	values := map[Field]any{
		FieldProduct:     record.Product,
		FieldPlace:       record.Place,
		FieldCategory:    record.Category,
		FieldSubcategory: record.Subcategory,
		FieldAmount:      json.Number(record.Amount.String()),
		FieldQuantity:    record.Quantity,
	}

	data := make(map[string]any, len(values)+1)
	for _, f := range s.service.Schema().Fields {
		data[Key(f)] = values[f]
	}
	data[DateKey] = record.Date()
	return data
}

func (s *Server) rejectionMessage(r *Rejection) string {
	fields := strings.Join(r.Fields, ", ")
	switch r.Reason {
	case ReasonMissingFields:
		return fmt.Sprintf(s.messages.MissingFields, fields)
	case ReasonEmptyField:
		return fmt.Sprintf(s.messages.EmptyFields, fields)
	case ReasonInvalidAmount:
		return fmt.Sprintf(s.messages.InvalidAmount, fields)
	case ReasonInvalidQuantity:
		return fmt.Sprintf(s.messages.InvalidQuantity, fields)
	default:
		return fmt.Sprintf(s.messages.InvalidFields, fields)
	}
}

func (s *Server) appendMessage(err error) string {
	if IsQuotaExceeded(err) {
		return fmt.Sprintf(s.messages.QuotaExceeded, s.service.TableName())
	}

	var appendErr *AppendError
	if errors.As(err, &appendErr) && appendErr.Kind == AppendWriteFailed {
		return s.messages.WriteFailed
	}
	return s.messages.NotReady
}

var fieldDescriptions = map[Language]map[Field]string{
	English: {
		FieldProduct:     "Product name",
		FieldPlace:       "Place of purchase",
		FieldCategory:    "Category",
		FieldSubcategory: "Subcategory",
		FieldAmount:      "Price",
		FieldQuantity:    "Quantity",
	},
	Spanish: {
		FieldProduct:     "Nombre del producto",
		FieldPlace:       "Lugar de compra",
		FieldCategory:    "Categoría",
		FieldSubcategory: "Subcategoría",
		FieldAmount:      "Precio",
		FieldQuantity:    "Cantidad",
	},
}

var apiExample = map[Field]string{
	FieldProduct:     "Pan",
	FieldPlace:       "Panadería",
	FieldCategory:    "Comida",
	FieldSubcategory: "Productos básicos",
	FieldAmount:      "2500",
	FieldQuantity:    "1",
}
