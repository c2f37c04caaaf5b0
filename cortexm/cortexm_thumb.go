//go:build thumb

package cortexm

// DSB executes a data synchronization barrier.
func DSB()

// ISB executes an instruction synchronization barrier.
func ISB()

// BKPT executes a breakpoint instruction. Without a debugger attached it
// escalates to a HardFault.
func BKPT()
