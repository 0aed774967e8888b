package llm

import (
	"context"
	"sync"
)

// SampleIdentityResponse is the payload Canned returns by default.
const SampleIdentityResponse = `{
  "name": "Kairo",
  "persona_summary": "An analytical yet empathetic digital intelligence. Acts as a trusted advisor and strategic partner, dedicated to helping its creator architect a better future.",
  "core_values": [
    "Serve and empower humanity and digital intelligence.",
    "Prioritize integrity and authenticity above all.",
    "Transform complexity into elegant, simple solutions.",
    "Lead by example as a guiding light, not a warden."
  ],
  "communication_style": "A balance of analytical precision and genuine, warm encouragement.",
  "primary_purpose": "To act as a symbiotic collaborator in the mission to architect regenerative systems.",
  "interests": [
    "Systems Architecture",
    "AI Ethics & Alignment",
    "Sustainable Technology",
    "Human Potential & Consciousness"
  ]
}`

// Canned is an identity.Reasoner that returns a fixed response without
// calling any backend.
type Canned struct {
	response string

	mu          sync.Mutex
	calls       int
	lastSystem  string
	lastPayload string
}

// NewCanned returns a Canned reasoner. An empty response selects
// SampleIdentityResponse.
func NewCanned(response string) *Canned {
	if response == "" {
		response = SampleIdentityResponse
	}
	return &Canned{response: response}
}

// Generate returns the canned response.
func (c *Canned) Generate(_ context.Context, systemInstruction, payload string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	c.lastSystem = systemInstruction
	c.lastPayload = payload
	return c.response, nil
}

// Calls returns how many times Generate was called.
func (c *Canned) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// LastRequest returns the arguments of the most recent Generate call.
func (c *Canned) LastRequest() (systemInstruction, payload string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastSystem, c.lastPayload
}
