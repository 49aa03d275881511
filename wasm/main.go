//go:build wasm

package main

import (
	"syscall/js"
)

func main() {
	// Export functions to JavaScript
	js.Global().Set("GuardianNew", js.FuncOf(newGuardian))
	js.Global().Set("GuardianMatchWords", js.FuncOf(matchWords))
	js.Global().Set("GuardianScanBatch", js.FuncOf(scanBatch))
	js.Global().Set("GuardianClose", js.FuncOf(closeGuardian))
	js.Global().Set("GuardianGetBuiltinCatalogs", js.FuncOf(getBuiltinCatalogs))

	// Keep WASM running
	<-make(chan struct{})
}
