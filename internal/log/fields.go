package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldQuery      = "query"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldError      = "error"
	FieldOperation  = "operation"
	FieldYear       = "year"
	FieldMonth      = "month"
	FieldRoleID     = "role_id"
	FieldUpdates    = "updates"
	FieldProjects   = "projects"
	FieldGeneration = "generation"
)

// Components
const (
	ComponentApp     = "app"
	ComponentHTTP    = "http"
	ComponentAPI     = "api"
	ComponentStorage = "storage"
	ComponentAMQP    = "amqp"
	ComponentTariffs = "tariffs"
	ComponentCosts   = "costs"
	ComponentTUI     = "tui"
)

// Operations
const (
	OpRead     = "read"
	OpUpdate   = "update"
	OpBulk     = "bulk_update"
	OpList     = "list"
	OpPublish  = "publish"
	OpMigrate  = "migrate"
	OpSeed     = "seed"
	OpExport   = "export"
	OpStartup  = "startup"
	OpShutdown = "shutdown"
)
