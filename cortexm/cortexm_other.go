//go:build !thumb

package cortexm

//go:nosplit
func DSB() {}

//go:nosplit
func ISB() {}

//go:nosplit
func BKPT() {}
