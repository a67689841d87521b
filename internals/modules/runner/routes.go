package runner

import "github.com/go-chi/chi/v5"

func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.RunBatch)

	return r
}

/*
- POST: /batches -> run a batch of monitor jobs
	body : []monitor.Monitor
	resp : BatchResult
*/
