package batch

// Exported test-only accessors for unexported functions and fields.
// This file is compiled only during tests and does not affect the public API.

// ConfigForTest returns a copy of the processor configuration for assertions in tests.
func (processor *Processor) ConfigForTest() Options { return processor.config }

func (processor *Processor) ValidateConfigForTest() error { return processor.validateConfig() }

func (processor *Processor) DiscoverInputImagesForTest() ([]string, error) {
	return processor.discoverInputImages()
}

// SetupOutputDirectoryForTest exposes setupOutputDirectory for tests in external package.
func SetupOutputDirectoryForTest(baseOutputPath, imagePath string) (string, error) {
	return setupOutputDirectory(baseOutputPath, imagePath)
}
