package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldError      = "error"
	FieldOperation  = "operation"
	FieldKind       = "kind"
	FieldID         = "id"
	FieldCount      = "count"
	FieldType       = "type"
	FieldAmount     = "amount"
	FieldCategory   = "category"
	FieldCategoryID = "category_id"
	FieldMonth      = "month"
	FieldPeriod     = "period"
	FieldGoalID     = "goal_id"
	FieldBackend    = "backend"
	FieldPath       = "path"
	FieldDuration   = "duration_ms"
)

// Components defines standard component names
const (
	ComponentApp          = "app"
	ComponentStore        = "store"
	ComponentStorage      = "storage"
	ComponentBackend      = "backend"
	ComponentWorker       = "worker"
	ComponentTransactions = "transactions"
	ComponentCategories   = "categories"
	ComponentGoals        = "goals"
	ComponentLimits       = "limits"
	ComponentAnalytics    = "analytics"
)

// Operations defines standard operation names
const (
	OpCreate     = "create"
	OpRead       = "read"
	OpUpdate     = "update"
	OpDelete     = "delete"
	OpList       = "list"
	OpSeed       = "seed"
	OpReset      = "reset"
	OpContribute = "contribute"
	OpSetLimit   = "set_limit"
	OpSetPeriod  = "set_period"
	OpShutdown   = "shutdown"
	OpStartup    = "startup"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

// WithError adds the error text. A nil error adds nothing.
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

func (f LogFields) WithRecord(kind string, id int64) LogFields {
	f[FieldKind] = kind
	if id != 0 {
		f[FieldID] = id
	}
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
