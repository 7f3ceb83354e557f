package server

import (
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/aistats/gateway/internal/core/domain"
	"github.com/aistats/gateway/internal/pipeline"
)

// endpointRoutes maps URL paths to endpoints. Every path accepts POST only.
var endpointRoutes = []struct {
	path     string
	endpoint domain.Endpoint
}{
	{"/v1/chat/completions", domain.EndpointChatCompletions},
	{"/v1/responses", domain.EndpointResponses},
	{"/v1/messages", domain.EndpointMessages},
	{"/v1/embeddings", domain.EndpointEmbeddings},
	{"/v1/moderations", domain.EndpointModerations},
	{"/v1/images/generations", domain.EndpointImageGenerations},
	{"/v1/audio/speech", domain.EndpointAudioSpeech},
	{"/v1/video/generations", domain.EndpointVideoGeneration},
	{"/v1/ocr", domain.EndpointOCR},
	{"/v1/music/generate", domain.EndpointMusicGenerate},
}

func mountRoutes(r chi.Router, runner *pipeline.Runner) {
	for _, route := range endpointRoutes {
		r.Post(route.path, endpointHandler(runner, route.endpoint))
	}
}

func endpointHandler(runner *pipeline.Runner, endpoint domain.Endpoint) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, `{"error":"invalid_request","description":"failed to read request body"}`, http.StatusBadRequest)
			return
		}

		debug, _ := strconv.ParseBool(r.Header.Get("X-Gateway-Debug"))
		out := runner.Handle(r.Context(), pipeline.Request{
			Endpoint:  endpoint,
			RawBody:   body,
			RequestID: GetRequestID(r.Context()),
			TeamID:    GetTeamID(r.Context()),
			Debug:     debug,
		})

		w.Header().Set("Content-Type", out.ContentType)
		w.WriteHeader(out.Status)
		w.Write(out.Body)
	}
}
