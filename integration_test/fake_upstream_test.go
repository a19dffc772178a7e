package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
)

const documentAnalysisResult = `{
  "status": "succeeded",
  "analyzeResult": {
    "documents": [{
      "docType": "idDocument.passport",
      "fields": {
        "FirstName": {"type": "string", "valueString": "Jane"},
        "DateOfBirth": {"type": "date", "valueDate": "1990-04-12"},
        "DocumentNumber": {"type": "string", "valueString": "X 1234 567"},
        "CountryRegion": {"type": "countryRegion", "valueCountryRegion": "FRA"}
      }
    }]
  }
}`

const riskAnswer = `{"riskLevel": "high", "confidenceScore": 0.82, "reasoning": "document issued recently"}`

// fakeUpstream stands for the document intelligence service and the openai compatible
// reasoning endpoint.
type fakeUpstream struct {
	*httptest.Server

	m              sync.Mutex
	analyzeCalls   int
	reasoningCalls []string
}

func newFakeUpstream() *fakeUpstream {
	f := &fakeUpstream{}
	mux := http.NewServeMux()

	mux.HandleFunc("POST /formrecognizer/documentModels/{model}", func(w http.ResponseWriter, r *http.Request) {
		f.m.Lock()
		f.analyzeCalls++
		call := f.analyzeCalls
		f.m.Unlock()

		w.Header().Set("Operation-Location", fmt.Sprintf("%s/operations/%d", f.URL, call))
		w.WriteHeader(http.StatusAccepted)
	})
	// the first poll of each operation is still running
	polled := map[string]bool{}
	mux.HandleFunc("GET /operations/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.m.Lock()
		first := !polled[r.PathValue("id")]
		polled[r.PathValue("id")] = true
		f.m.Unlock()

		w.Header().Set("Content-Type", "application/json")
		if first {
			_, _ = w.Write([]byte(`{"status": "running"}`))
			return
		}
		_, _ = w.Write([]byte(documentAnalysisResult))
	})

	mux.HandleFunc("POST /v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		f.recordReasoningCall(r)
		writeJson(w, map[string]any{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"created": 1760860800,
			"model":   "risk-model-test",
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]any{"role": "assistant", "content": riskAnswer},
			}},
			"usage": map[string]int{"prompt_tokens": 10, "completion_tokens": 10, "total_tokens": 20},
		})
	})
	mux.HandleFunc("POST /v1/responses", func(w http.ResponseWriter, r *http.Request) {
		f.recordReasoningCall(r)
		writeJson(w, map[string]any{
			"id":         "resp-1",
			"object":     "response",
			"created_at": 1760860800,
			"status":     "completed",
			"model":      "risk-model-test",
			"output": []map[string]any{{
				"type":   "message",
				"id":     "msg-1",
				"status": "completed",
				"role":   "assistant",
				"content": []map[string]any{{
					"type": "output_text", "text": riskAnswer, "annotations": []any{},
				}},
			}},
		})
	})

	f.Server = httptest.NewServer(mux)
	return f
}

func (f *fakeUpstream) recordReasoningCall(r *http.Request) {
	var body json.RawMessage
	_ = json.NewDecoder(r.Body).Decode(&body)
	f.m.Lock()
	defer f.m.Unlock()
	f.reasoningCalls = append(f.reasoningCalls, string(body))
}

func (f *fakeUpstream) reasoningPrompts() []string {
	f.m.Lock()
	defer f.m.Unlock()
	return append([]string(nil), f.reasoningCalls...)
}

func writeJson(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
