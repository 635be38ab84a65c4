package logging

// Field names shared by all pipeline log entries, so that log output can be
// filtered per file, per extractor or per stage.
const (
	FieldFile       = "file_path"
	FieldExtractor  = "extractor"
	FieldFormatType = "format_type"
	FieldLayout     = "layout"
	FieldStrategy   = "strategy"
	FieldSeparator  = "separator"
	FieldSheet      = "sheet"
	FieldEncoding   = "encoding"
	FieldRow        = "row"
	FieldCount      = "count"
	FieldSkipped    = "skipped"
	FieldReason     = "reason"
	FieldBackend    = "backend"
	FieldImportID   = "import_id"
	FieldTarget     = "target"
	FieldDuration   = "duration_ms"
	FieldError      = "error"
	FieldInputFile  = "input_file"
	FieldOutputFile = "output_file"
)
