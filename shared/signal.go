package main

/*
#include <stdlib.h>

typedef void (*signal_callback)(const char *jsonEvent);

static void invoke_signal_callback(void *cb, const char *jsonEvent) {
	((signal_callback)cb)(jsonEvent);
}
*/
import "C"

import (
	"unsafe"

	"github.com/status-im/status-wallet-session-go/signal"
)

func setSignalEventCallback(cb unsafe.Pointer) {
	if cb == nil {
		signal.ResetWalletSessionSignalHandler()
		return
	}

	signal.SetWalletSessionSignalHandler(func(data []byte) {
		str := C.CString(string(data))
		defer C.free(unsafe.Pointer(str))
		C.invoke_signal_callback(cb, str)
	})
}
