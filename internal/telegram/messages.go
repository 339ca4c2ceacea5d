package telegram

import "github.com/zombor/expense-tracker/internal/expense"

// messages holds every chat reply text of one language
type messages struct {
	Welcome        string
	WelcomeOutro   string
	HelpIntro      string
	HelpOutro      string
	InvalidFormat  string
	SendExactly    string
	Example        string
	WrongLineCount string
	EmptyField     string
	InvalidAmount  string
	InvalidQty     string
	Logged         string
	QuotaExceeded  string
	NotReady       string
	WriteFailed    string
	Reconnected    string
	UnknownCommand string

	Labels    map[expense.Field]string
	LineHints map[expense.Field]string
	DateLabel string
}

var catalog = map[expense.Language]messages{
	expense.English: {
		Welcome:        "Welcome to the Expense Tracker Bot! 📊\n\nSend me your expenses in this format (each item on a new line):",
		WelcomeOutro:   "I'll automatically log it to your Google Sheet with the current date and time.",
		HelpIntro:      "📋 How to use this bot:\n\n1. Send me a message with your expense details in exactly %d lines:",
		HelpOutro:      "2. I'll automatically add the current date and save it to your Google Sheet.\n\n3. Make sure your message has exactly %d lines and the amount/quantity are valid numbers.\n\nCommands: /start, /help, /retry",
		InvalidFormat:  "❌ Invalid message format!",
		SendExactly:    "Please send exactly %d lines:",
		Example:        "Example:",
		WrongLineCount: "Your message has %d lines.",
		EmptyField:     "These lines are empty: %s.",
		InvalidAmount:  "The amount must be a non-negative number.",
		InvalidQty:     "The quantity must be a non-negative whole number.",
		Logged:         "✅ Expense logged successfully!",
		QuotaExceeded:  "❌ Google Drive storage quota exceeded. Please free up space in your Google Drive or create a spreadsheet named '%s' manually, then send /retry.",
		NotReady:       "❌ Failed to connect to Google Sheets. Please try again later.",
		WriteFailed:    "❌ Failed to log expense. Please try again later.",
		Reconnected:    "✅ Connected to the spreadsheet '%s'.",
		UnknownCommand: "Unknown command. Use /help to see how to log an expense.",
		Labels: map[expense.Field]string{
			expense.FieldProduct:     "Product",
			expense.FieldPlace:       "Place",
			expense.FieldCategory:    "Category",
			expense.FieldSubcategory: "Subcategory",
			expense.FieldAmount:      "Amount",
			expense.FieldQuantity:    "Quantity",
		},
		LineHints: map[expense.Field]string{
			expense.FieldProduct:     "Product name",
			expense.FieldPlace:       "Place of purchase",
			expense.FieldCategory:    "Category",
			expense.FieldSubcategory: "Subcategory",
			expense.FieldAmount:      "Amount (number)",
			expense.FieldQuantity:    "Quantity (whole number)",
		},
		DateLabel: "Date",
	},
	expense.Spanish: {
		Welcome:        "¡Bienvenido al Bot de Gastos! 📊\n\nEnvíame tus gastos con este formato (cada dato en una línea):",
		WelcomeOutro:   "Lo registraré automáticamente en tu hoja de Google con la fecha y hora actual.",
		HelpIntro:      "📋 Cómo usar este bot:\n\n1. Envíame un mensaje con los datos del gasto en exactamente %d líneas:",
		HelpOutro:      "2. Añadiré la fecha actual y lo guardaré en tu hoja de Google.\n\n3. Asegúrate de que el mensaje tenga exactamente %d líneas y que el importe y la cantidad sean números válidos.\n\nComandos: /start, /help, /retry",
		InvalidFormat:  "❌ ¡Formato de mensaje inválido!",
		SendExactly:    "Envía exactamente %d líneas:",
		Example:        "Ejemplo:",
		WrongLineCount: "Tu mensaje tiene %d líneas.",
		EmptyField:     "Estas líneas están vacías: %s.",
		InvalidAmount:  "El importe debe ser un número no negativo.",
		InvalidQty:     "La cantidad debe ser un número entero no negativo.",
		Logged:         "✅ ¡Gasto registrado exitosamente!",
		QuotaExceeded:  "❌ Cuota de almacenamiento de Google Drive excedida. Libera espacio en tu Google Drive o crea manualmente una hoja de cálculo llamada '%s' y envía /retry.",
		NotReady:       "❌ No se pudo conectar con Google Sheets. Inténtalo más tarde.",
		WriteFailed:    "❌ No se pudo registrar el gasto. Inténtalo más tarde.",
		Reconnected:    "✅ Conectado a la hoja de cálculo '%s'.",
		UnknownCommand: "Comando desconocido. Usa /help para ver cómo registrar un gasto.",
		Labels: map[expense.Field]string{
			expense.FieldProduct:     "Producto",
			expense.FieldPlace:       "Lugar",
			expense.FieldCategory:    "Categoría",
			expense.FieldSubcategory: "Subcategoría",
			expense.FieldAmount:      "Importe",
			expense.FieldQuantity:    "Cantidad",
		},
		LineHints: map[expense.Field]string{
			expense.FieldProduct:     "Nombre del producto",
			expense.FieldPlace:       "Lugar de compra",
			expense.FieldCategory:    "Categoría",
			expense.FieldSubcategory: "Subcategoría",
			expense.FieldAmount:      "Importe (número)",
			expense.FieldQuantity:    "Cantidad (número entero)",
		},
		DateLabel: "Fecha",
	},
}

var fieldEmojis = map[expense.Field]string{
	expense.FieldProduct:     "🛍️",
	expense.FieldPlace:       "📍",
	expense.FieldCategory:    "📂",
	expense.FieldSubcategory: "📁",
	expense.FieldAmount:      "💰",
	expense.FieldQuantity:    "📦",
}

// examples are worked examples per schema, one value per line
var examples = map[string]map[expense.Field]string{
	expense.SchemaBasic.Name: {
		expense.FieldProduct:     "Harina",
		expense.FieldCategory:    "comida",
		expense.FieldSubcategory: "panaderia",
		expense.FieldAmount:      "1200",
		expense.FieldQuantity:    "2",
	},
	expense.SchemaPlace.Name: {
		expense.FieldProduct:     "Pan",
		expense.FieldPlace:       "Panadería",
		expense.FieldCategory:    "Comida",
		expense.FieldSubcategory: "Productos básicos",
		expense.FieldAmount:      "2500",
		expense.FieldQuantity:    "1",
	},
}
