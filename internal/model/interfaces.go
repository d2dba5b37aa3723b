package model

// Extractor is responsible for turning a file's content into scorable queries
type Extractor interface {
	// Extract parses the given file content and returns the source files it describes.
	// A batch JSON document may describe several source files; other formats describe one.
	Extract(filePath string, content []byte) ([]SourceFile, error)
}

// Reporter defines how to output results
type Reporter interface {
	Report(report *Report) error
}
