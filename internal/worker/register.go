package worker

import "github.com/hibiken/asynq"

// RegisterHandlers binds the voucher task types to h.
func RegisterHandlers(mux *asynq.ServeMux, h *VoucherTaskHandler) {
	mux.HandleFunc(TypeVoucherProcess, h.HandleProcess)
	mux.HandleFunc(TypeExpireStaleProcesses, h.HandleExpireStale)
}
