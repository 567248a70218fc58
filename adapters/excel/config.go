package excel

// ReaderConfig holds options for reading tabular data files
type ReaderConfig struct {
	// Sheet is the worksheet read from xlsx files; empty selects the first sheet
	Sheet string `json:"sheet"`
	// MissingValues are cell contents treated as missing
	MissingValues []string `json:"missing_values"`
}

// DefaultReaderConfig returns sensible defaults for data files
func DefaultReaderConfig() ReaderConfig {
	return ReaderConfig{
		MissingValues: []string{"", ".", "NA", "N/A", "NaN", "null"},
	}
}
