package expense

import "fmt"

// Language selects the user-facing strings of both ingress channels
type Language string

const (
	English Language = "en"
	Spanish Language = "es"
)

// LanguageByName validates a configured language code
func LanguageByName(name string) (Language, error) {
	switch Language(name) {
	case English, Spanish:
		return Language(name), nil
	default:
		return "", fmt.Errorf("unknown language %q (valid: %s, %s)", name, English, Spanish)
	}
}

// apiMessages holds the texts returned by the HTTP API
type apiMessages struct {
	Running         string
	Degraded        string
	Logged          string
	NoData          string
	InvalidBody     string
	MissingFields   string
	EmptyFields     string
	InvalidFields   string
	InvalidAmount   string
	InvalidQuantity string
	QuotaExceeded   string
	NotReady        string
	WriteFailed     string
	Internal        string
}

var apiCatalog = map[Language]apiMessages{
	English: {
		Running:         "Expense bot running",
		Degraded:        "Expense bot running in degraded mode: storage quota exceeded",
		Logged:          "Expense logged successfully",
		NoData:          "No data provided",
		InvalidBody:     "Request body must be a JSON object",
		MissingFields:   "Missing required fields: %s",
		EmptyFields:     "Fields must not be empty: %s",
		InvalidFields:   "Fields must be text or numbers: %s",
		InvalidAmount:   "Field %s must be a non-negative number",
		InvalidQuantity: "Field %s must be a non-negative whole number",
		QuotaExceeded:   "Google Drive storage quota exceeded. Free up space or create a spreadsheet named '%s' manually",
		NotReady:        "Could not connect to Google Sheets, please try again later",
		WriteFailed:     "Error recording the expense in Google Sheets",
		Internal:        "Internal server error",
	},
	Spanish: {
		Running:         "Bot de gastos funcionando correctamente",
		Degraded:        "Bot de gastos en modo degradado: cuota de almacenamiento excedida",
		Logged:          "Gasto registrado exitosamente",
		NoData:          "No se proporcionaron datos",
		InvalidBody:     "El cuerpo de la solicitud debe ser un objeto JSON",
		MissingFields:   "Faltan campos requeridos: %s",
		EmptyFields:     "Los campos no pueden estar vacíos: %s",
		InvalidFields:   "Los campos deben ser texto o números: %s",
		InvalidAmount:   "El campo %s debe ser un número no negativo",
		InvalidQuantity: "El campo %s debe ser un número entero no negativo",
		QuotaExceeded:   "Cuota de almacenamiento de Google Drive excedida. Libera espacio o crea manualmente una hoja de cálculo llamada '%s'",
		NotReady:        "No se pudo conectar con Google Sheets, inténtalo más tarde",
		WriteFailed:     "Error al registrar el gasto en Google Sheets",
		Internal:        "Error interno del servidor",
	},
}
