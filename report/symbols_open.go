package report

import "os"

// OpenSymbolizer reads the function symbols of the ELF file at path.
func OpenSymbolizer(path string) (*Symbolizer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return NewSymbolizer(f)
}
