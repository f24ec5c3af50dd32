package export

// ExportServiceInterface defines the contract for export services.
type ExportServiceInterface interface {
	Export(config *ExportConfig) (*ExportResult, error)
}

var _ ExportServiceInterface = (*ExportService)(nil)
