package logging

// Standardized field names for structured logging.
// Drivers, providers and commands share these keys so a run can be followed
// through its log output.
const (
	FieldRunID        = "run_id"
	FieldOperation    = "operation"
	FieldDriver       = "driver"
	FieldStartIdx     = "start_idx"
	FieldSuccessIdx   = "success_idx"
	FieldIndex        = "index"
	FieldBatchStart   = "batch_start"
	FieldBatchEnd     = "batch_end"
	FieldBatchSize    = "batch_size"
	FieldRetry        = "retry"
	FieldRampFactor   = "ramp_factor"
	FieldReduceFactor = "reduce_factor"
	FieldProvider     = "provider"
	FieldModel        = "model"
	FieldAttempt      = "attempt"
	FieldCategory     = "category"
	FieldCount        = "count"
	FieldError        = "error"
	FieldDuration     = "duration_ms"
	FieldInputFile    = "input_file"
	FieldOutputFile   = "output_file"
	FieldFile         = "file"
	FieldColumn       = "column"
	FieldDelimiter    = "delimiter"
)
