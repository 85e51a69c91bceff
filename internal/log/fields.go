package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldUserAgent  = "user_agent"
	FieldError      = "error"
	FieldOperation  = "operation"
	FieldUserID     = "user_id"
	FieldPurchaseID = "purchase_id"
	FieldItemName   = "item_name"
	FieldStoreName  = "store_name"
	FieldAmount     = "amount_cents"
	FieldBackend    = "backend"
	FieldModel      = "model"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentIntake    = "intake"
	ComponentSession   = "session"
	ComponentChat      = "chat"
	ComponentAssistant = "assistant"
	ComponentAuth      = "auth"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentSheets    = "sheets"
	ComponentCache     = "cache"
)

// Operations defines standard operation names
const (
	OpCreate   = "create"
	OpUpdate   = "update"
	OpList     = "list"
	OpUpsert   = "upsert"
	OpSync     = "sync"
	OpParse    = "parse"
	OpReply    = "reply"
	OpInsights = "insights"
	OpVerify   = "verify"
	OpStartup  = "startup"
	OpShutdown = "shutdown"
)
